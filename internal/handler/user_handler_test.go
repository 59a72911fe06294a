package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"aigym-api/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_RejectsDuplicateInCommunity(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")
	seedUser(t, db, community.ID, "dup@example.com")

	c, rec := newTestContext(t, http.MethodPost, "/api/users", map[string]interface{}{
		"community_id": community.ID,
		"email":        "dup@example.com",
	})
	require.NoError(t, CreateUser(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReplaceUserTags(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")
	user := seedUser(t, db, community.ID, "u@example.com")
	tagA := seedTag(t, db, community.ID, "beginner")
	tagB := seedTag(t, db, community.ID, "advanced")
	require.NoError(t, db.Create(&model.UserTagMembership{UserID: user.ID, TagID: tagA.ID}).Error)

	id := strconv.Itoa(int(user.ID))
	c, rec := newTestContext(t, http.MethodPut, "/api/users/"+id+"/tags", map[string]interface{}{
		"tag_ids": []uint{tagB.ID},
	})
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, ReplaceUserTags(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var memberships []model.UserTagMembership
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&memberships).Error)
	require.Len(t, memberships, 1)
	assert.Equal(t, tagB.ID, memberships[0].TagID)
}

func TestReplaceUserTags_RejectsForeignCommunityTag(t *testing.T) {
	db := setupTestDB(t)
	alpha := seedCommunity(t, db, "Alpha")
	beta := seedCommunity(t, db, "Beta")
	user := seedUser(t, db, alpha.ID, "u@example.com")
	own := seedTag(t, db, alpha.ID, "beginner")
	foreign := seedTag(t, db, beta.ID, "vip")
	require.NoError(t, db.Create(&model.UserTagMembership{UserID: user.ID, TagID: own.ID}).Error)

	id := strconv.Itoa(int(user.ID))
	c, rec := newTestContext(t, http.MethodPut, "/api/users/"+id+"/tags", map[string]interface{}{
		"tag_ids": []uint{foreign.ID},
	})
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, ReplaceUserTags(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The rejected replace must not have dropped the existing memberships
	var memberships int64
	db.Model(&model.UserTagMembership{}).Where("user_id = ?", user.ID).Count(&memberships)
	assert.Equal(t, int64(1), memberships)
}

func TestDeleteUser_RemovesMembershipsAndAssignments(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")
	user := seedUser(t, db, community.ID, "u@example.com")
	tag := seedTag(t, db, community.ID, "beginner")
	item := seedContentItem(t, db, model.ContentTypeVideo, "Intro", model.ContentStatusPublished)
	require.NoError(t, db.Create(&model.UserTagMembership{UserID: user.ID, TagID: tag.ID}).Error)
	require.NoError(t, db.Create(&model.ContentUserAssignment{ContentItemID: item.ID, UserID: user.ID}).Error)

	id := strconv.Itoa(int(user.ID))
	c, rec := newTestContext(t, http.MethodDelete, "/api/users/"+id, nil)
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, DeleteUser(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var memberships, assignments int64
	db.Model(&model.UserTagMembership{}).Where("user_id = ?", user.ID).Count(&memberships)
	db.Model(&model.ContentUserAssignment{}).Where("user_id = ?", user.ID).Count(&assignments)
	assert.Zero(t, memberships)
	assert.Zero(t, assignments)
}

func newBulkImportContext(t *testing.T, communityID uint, csvData string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("community_id", strconv.Itoa(int(communityID))))
	part, err := writer.CreateFormFile("file", "users.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csvData))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/bulk", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()

	e := echo.New()
	c := e.NewContext(req, rec)
	c.Set("admin_id", uint(1))
	return c, rec
}

func TestBulkImportUsers(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")
	seedUser(t, db, community.ID, "taken@example.com")

	csvData := "email,first_name,last_name\n" +
		"new@example.com,New,Member\n" +
		"taken@example.com,Already,Here\n" +
		"not-an-email,Bad,Row\n"

	c, rec := newBulkImportContext(t, community.ID, csvData)
	require.NoError(t, BulkImportUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["total_rows"])
	assert.Equal(t, float64(1), body["successful_rows"])
	assert.Equal(t, float64(2), body["failed_rows"])
	assert.Equal(t, model.BulkUploadStatusCompleted, body["status"])

	var imported model.User
	require.NoError(t, db.Where("community_id = ? AND email = ?", community.ID, "new@example.com").First(&imported).Error)
	assert.Equal(t, "New", imported.FirstName)

	var upload model.BulkUpload
	require.NoError(t, db.Where("community_id = ?", community.ID).First(&upload).Error)
	assert.Equal(t, model.BulkUploadStatusCompleted, upload.Status)
	assert.Equal(t, 1, upload.SuccessfulRows)
	assert.NotNil(t, upload.CompletedAt)
}

func TestBulkImportUsers_MissingEmailColumn(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")

	c, rec := newBulkImportContext(t, community.ID, "name,phone\nSomeone,123\n")
	require.NoError(t, BulkImportUsers(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var upload model.BulkUpload
	require.NoError(t, db.Where("community_id = ?", community.ID).First(&upload).Error)
	assert.Equal(t, model.BulkUploadStatusFailed, upload.Status)
}
