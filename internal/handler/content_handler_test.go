package handler

import (
	"net/http"
	"strconv"
	"testing"

	"aigym-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateContent_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	a := seedCommunity(t, db, "Alpha")
	b := seedCommunity(t, db, "Beta")

	communityIDs := []uint{a.ID, b.ID}
	c, rec := newTestContext(t, http.MethodPost, "/api/content", map[string]interface{}{
		"content_type":  "prompt",
		"title":         "Warmup Coach",
		"description":   "A warmup prompt",
		"status":        "published",
		"community_ids": communityIDs,
		"prompt": map[string]interface{}{
			"prompt_text":     "Warm up {athlete} for [duration] minutes",
			"prompt_category": "Training",
		},
	})

	require.NoError(t, CreateContent(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var item model.ContentItem
	require.NoError(t, db.Where("title = ?", "Warmup Coach").First(&item).Error)
	assert.Equal(t, model.ContentTypePrompt, item.ContentType)
	assert.Equal(t, model.ContentStatusPublished, item.Status)

	var prompt model.Prompt
	require.NoError(t, db.Where("content_item_id = ?", item.ID).First(&prompt).Error)
	assert.Equal(t, "Warm up {athlete} for [duration] minutes", prompt.PromptText)
	assert.JSONEq(t, `["athlete","duration"]`, string(prompt.Variables))

	getC, getRec := newTestContext(t, http.MethodGet, "/api/content/"+strconv.Itoa(int(item.ID)), nil)
	pathContext(getC, []string{"id"}, []string{strconv.Itoa(int(item.ID))})
	require.NoError(t, GetContent(getC))
	require.Equal(t, http.StatusOK, getRec.Code)

	body := decodeBody(t, getRec)
	got := body["community_ids"].([]interface{})
	require.Len(t, got, 2)
}

func TestCreateContent_EmptyTitleWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")

	c, rec := newTestContext(t, http.MethodPost, "/api/content", map[string]interface{}{
		"content_type":  "prompt",
		"title":         "   ",
		"community_ids": []uint{community.ID},
		"prompt":        map[string]interface{}{"prompt_text": "Hello {name}"},
	})

	require.NoError(t, CreateContent(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var items, prompts, assignments int64
	db.Model(&model.ContentItem{}).Count(&items)
	db.Model(&model.Prompt{}).Count(&prompts)
	db.Model(&model.ContentCommunityAssignment{}).Count(&assignments)
	assert.Zero(t, items)
	assert.Zero(t, prompts)
	assert.Zero(t, assignments)
}

func TestCreateContent_MissingDetailPayloadRejected(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")

	c, rec := newTestContext(t, http.MethodPost, "/api/content", map[string]interface{}{
		"content_type":  "video",
		"title":         "Detail-less video",
		"community_ids": []uint{community.ID},
	})

	require.NoError(t, CreateContent(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var items, videos, assignments int64
	db.Model(&model.ContentItem{}).Count(&items)
	db.Model(&model.Video{}).Count(&videos)
	db.Model(&model.ContentCommunityAssignment{}).Count(&assignments)
	assert.Zero(t, items)
	assert.Zero(t, videos)
	assert.Zero(t, assignments)
}

func TestUpdateContent_MetadataOnlyKeepsDetailRow(t *testing.T) {
	db := setupTestDB(t)
	item := seedContentItem(t, db, model.ContentTypePrompt, "Coach", model.ContentStatusDraft)
	require.NoError(t, db.Create(&model.Prompt{ContentItemID: item.ID, PromptText: "Warm up {athlete}"}).Error)

	id := strconv.Itoa(int(item.ID))
	c, rec := newTestContext(t, http.MethodPut, "/api/content/"+id, map[string]interface{}{
		"title": "Coach renamed",
	})
	pathContext(c, []string{"id"}, []string{id})

	require.NoError(t, UpdateContent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var prompt model.Prompt
	require.NoError(t, db.Where("content_item_id = ?", item.ID).First(&prompt).Error)
	assert.Equal(t, "Warm up {athlete}", prompt.PromptText)
}

func TestCreateContent_InvalidVideoURLRollsBack(t *testing.T) {
	db := setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/content", map[string]interface{}{
		"content_type": "video",
		"title":        "Broken video",
		"video":        map[string]interface{}{"video_url": "https://example.com/page"},
	})

	require.NoError(t, CreateContent(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var items int64
	db.Model(&model.ContentItem{}).Count(&items)
	assert.Zero(t, items)
}

func TestUpdateContent_ReplacesCommunityAssignments(t *testing.T) {
	db := setupTestDB(t)
	a := seedCommunity(t, db, "Alpha")
	b := seedCommunity(t, db, "Beta")
	item := seedContentItem(t, db, model.ContentTypePrompt, "Coach", model.ContentStatusDraft)
	require.NoError(t, db.Create(&model.Prompt{ContentItemID: item.ID, PromptText: "x"}).Error)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: a.ID}).Error)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: b.ID}).Error)

	id := strconv.Itoa(int(item.ID))
	c, rec := newTestContext(t, http.MethodPut, "/api/content/"+id, map[string]interface{}{
		"title":         "Coach",
		"community_ids": []uint{b.ID},
	})
	pathContext(c, []string{"id"}, []string{id})

	require.NoError(t, UpdateContent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var assignments []model.ContentCommunityAssignment
	require.NoError(t, db.Where("content_item_id = ?", item.ID).Find(&assignments).Error)
	require.Len(t, assignments, 1)
	assert.Equal(t, b.ID, assignments[0].CommunityID)
}

func TestUpdateContent_AbsentAssignmentsUntouched(t *testing.T) {
	db := setupTestDB(t)
	a := seedCommunity(t, db, "Alpha")
	item := seedContentItem(t, db, model.ContentTypePrompt, "Coach", model.ContentStatusDraft)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: a.ID}).Error)

	id := strconv.Itoa(int(item.ID))
	c, rec := newTestContext(t, http.MethodPut, "/api/content/"+id, map[string]interface{}{
		"title": "Coach renamed",
	})
	pathContext(c, []string{"id"}, []string{id})

	require.NoError(t, UpdateContent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	db.Model(&model.ContentCommunityAssignment{}).Where("content_item_id = ?", item.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteContent_RemovesItemAndRelations(t *testing.T) {
	db := setupTestDB(t)
	a := seedCommunity(t, db, "Alpha")
	item := seedContentItem(t, db, model.ContentTypePrompt, "Coach", model.ContentStatusPublished)
	require.NoError(t, db.Create(&model.Prompt{ContentItemID: item.ID, PromptText: "x"}).Error)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: a.ID}).Error)

	id := strconv.Itoa(int(item.ID))
	c, rec := newTestContext(t, http.MethodDelete, "/api/content/"+id, nil)
	pathContext(c, []string{"id"}, []string{id})

	require.NoError(t, DeleteContent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var items int64
	db.Model(&model.ContentItem{}).Count(&items)
	assert.Zero(t, items)

	var prompts, assignments int64
	db.Model(&model.Prompt{}).Where("content_item_id = ?", item.ID).Count(&prompts)
	db.Model(&model.ContentCommunityAssignment{}).Where("content_item_id = ?", item.ID).Count(&assignments)
	assert.Zero(t, prompts)
	assert.Zero(t, assignments)

	listC, listRec := newTestContext(t, http.MethodGet, "/api/content", nil)
	require.NoError(t, ListContent(listC))
	body := decodeBody(t, listRec)
	assert.Empty(t, body["items"])
}

func TestListContent_CommunityFilterJoinsAssignments(t *testing.T) {
	db := setupTestDB(t)
	a := seedCommunity(t, db, "Alpha")
	b := seedCommunity(t, db, "Beta")
	assigned := seedContentItem(t, db, model.ContentTypeVideo, "Assigned", model.ContentStatusPublished)
	seedContentItem(t, db, model.ContentTypeVideo, "Unassigned", model.ContentStatusPublished)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: assigned.ID, CommunityID: a.ID}).Error)

	c, rec := newTestContext(t, http.MethodGet, "/api/content?community_id="+strconv.Itoa(int(a.ID)), nil)
	require.NoError(t, ListContent(c))
	body := decodeBody(t, rec)
	require.Len(t, body["items"], 1)

	c2, rec2 := newTestContext(t, http.MethodGet, "/api/content?community_id="+strconv.Itoa(int(b.ID)), nil)
	require.NoError(t, ListContent(c2))
	body2 := decodeBody(t, rec2)
	assert.Empty(t, body2["items"])
}

func TestGetContentCounts(t *testing.T) {
	db := setupTestDB(t)
	a := seedCommunity(t, db, "Alpha")
	user := seedUser(t, db, a.ID, "u@example.com")
	item := seedContentItem(t, db, model.ContentTypeDocument, "Doc", model.ContentStatusPublished)
	bare := seedContentItem(t, db, model.ContentTypeDocument, "Bare", model.ContentStatusDraft)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: a.ID}).Error)
	require.NoError(t, db.Create(&model.ContentUserAssignment{ContentItemID: item.ID, UserID: user.ID}).Error)

	ids := strconv.Itoa(int(item.ID)) + "," + strconv.Itoa(int(bare.ID))
	c, rec := newTestContext(t, http.MethodGet, "/api/content/counts?ids="+ids, nil)
	require.NoError(t, GetContentCounts(c))

	body := decodeBody(t, rec)
	counts := body["counts"].(map[string]interface{})
	assert.Equal(t, float64(2), counts[strconv.Itoa(int(item.ID))])
	assert.Equal(t, float64(0), counts[strconv.Itoa(int(bare.ID))])
}

func TestCopyContent_BumpsPromptUsage(t *testing.T) {
	db := setupTestDB(t)
	item := seedContentItem(t, db, model.ContentTypePrompt, "Coach", model.ContentStatusPublished)
	require.NoError(t, db.Create(&model.Prompt{ContentItemID: item.ID, PromptText: "x"}).Error)

	id := strconv.Itoa(int(item.ID))
	c, rec := newTestContext(t, http.MethodPost, "/api/content/"+id+"/copy", nil)
	pathContext(c, []string{"id"}, []string{id})

	require.NoError(t, CopyContent(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var prompt model.Prompt
	require.NoError(t, db.Where("content_item_id = ?", item.ID).First(&prompt).Error)
	assert.Equal(t, 1, prompt.UsageCount)
	assert.NotNil(t, prompt.LastCopiedAt)
}
