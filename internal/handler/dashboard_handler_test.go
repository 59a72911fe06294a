package handler

import (
	"net/http"
	"strconv"
	"testing"

	"aigym-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardStats(t *testing.T) {
	db := setupTestDB(t)
	alpha := seedCommunity(t, db, "Alpha")
	beta := seedCommunity(t, db, "Beta")
	seedUser(t, db, alpha.ID, "a@example.com")
	seedUser(t, db, alpha.ID, "a2@example.com")
	seedUser(t, db, beta.ID, "b@example.com")

	item := seedContentItem(t, db, model.ContentTypeVideo, "Intro", model.ContentStatusPublished)
	seedContentItem(t, db, model.ContentTypePrompt, "Draft Prompt", model.ContentStatusDraft)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: alpha.ID}).Error)

	c, rec := newTestContext(t, http.MethodGet, "/api/dashboard/stats", nil)
	require.NoError(t, GetDashboardStats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["total_communities"])
	assert.Equal(t, float64(3), body["total_users"])
	assert.Equal(t, float64(2), body["total_content"])
	assert.Equal(t, float64(1), body["published_content"])
	require.Len(t, body["users_per_community"], 2)

	// Narrowed to one community
	scoped, scopedRec := newTestContext(t, http.MethodGet, "/api/dashboard/stats?community_id="+strconv.Itoa(int(alpha.ID)), nil)
	require.NoError(t, GetDashboardStats(scoped))
	scopedBody := decodeBody(t, scopedRec)
	assert.Equal(t, float64(2), scopedBody["total_users"])
	assert.Equal(t, float64(1), scopedBody["total_content"])
}

func TestGetDashboardStats_FailsOnQueryError(t *testing.T) {
	db := setupTestDB(t)
	seedCommunity(t, db, "Alpha")
	require.NoError(t, db.Migrator().DropTable(&model.ContentItem{}))

	c, rec := newTestContext(t, http.MethodGet, "/api/dashboard/stats", nil)
	require.NoError(t, GetDashboardStats(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "failed to load dashboard stats", body["error"])
}

func TestRecordActivity_UpdatesLastActive(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")
	user := seedUser(t, db, community.ID, "u@example.com")
	require.Nil(t, user.LastActive)

	c, rec := newTestContext(t, http.MethodPost, "/api/activity", map[string]interface{}{
		"user_id":       user.ID,
		"community_id":  community.ID,
		"activity_type": "content_viewed",
		"activity_data": map[string]interface{}{"source": "dashboard"},
	})
	require.NoError(t, RecordActivity(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var refreshed model.User
	require.NoError(t, db.First(&refreshed, user.ID).Error)
	assert.NotNil(t, refreshed.LastActive)

	var activities int64
	db.Model(&model.UserActivity{}).Where("community_id = ?", community.ID).Count(&activities)
	assert.Equal(t, int64(1), activities)
}

func TestRecordActivity_RejectsForeignUser(t *testing.T) {
	db := setupTestDB(t)
	alpha := seedCommunity(t, db, "Alpha")
	beta := seedCommunity(t, db, "Beta")
	betaUser := seedUser(t, db, beta.ID, "b@example.com")

	c, rec := newTestContext(t, http.MethodPost, "/api/activity", map[string]interface{}{
		"user_id":       betaUser.ID,
		"community_id":  alpha.ID,
		"activity_type": "content_viewed",
	})
	require.NoError(t, RecordActivity(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
