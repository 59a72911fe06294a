package handler

import (
	"net/http"
	"strconv"
	"testing"

	"aigym-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceContentAudience_ScopedToCommunity(t *testing.T) {
	db := setupTestDB(t)
	alpha := seedCommunity(t, db, "Alpha")
	beta := seedCommunity(t, db, "Beta")
	item := seedContentItem(t, db, model.ContentTypeVideo, "Intro", model.ContentStatusPublished)

	alphaUser := seedUser(t, db, alpha.ID, "a@example.com")
	alphaOther := seedUser(t, db, alpha.ID, "a2@example.com")
	betaUser := seedUser(t, db, beta.ID, "b@example.com")
	alphaTag := seedTag(t, db, alpha.ID, "beginner")
	betaTag := seedTag(t, db, beta.ID, "vip")

	// Existing grants across both communities
	require.NoError(t, db.Create(&model.ContentUserAssignment{ContentItemID: item.ID, UserID: alphaUser.ID}).Error)
	require.NoError(t, db.Create(&model.ContentUserAssignment{ContentItemID: item.ID, UserID: betaUser.ID}).Error)
	require.NoError(t, db.Create(&model.ContentTagAssignment{ContentItemID: item.ID, TagID: alphaTag.ID}).Error)
	require.NoError(t, db.Create(&model.ContentTagAssignment{ContentItemID: item.ID, TagID: betaTag.ID}).Error)

	itemID := strconv.Itoa(int(item.ID))
	communityID := strconv.Itoa(int(alpha.ID))
	c, rec := newTestContext(t, http.MethodPut,
		"/api/content/"+itemID+"/communities/"+communityID+"/audience",
		map[string]interface{}{
			"user_ids": []uint{alphaOther.ID},
			"tag_ids":  []uint{},
		})
	pathContext(c, []string{"id", "communityID"}, []string{itemID, communityID})

	require.NoError(t, ReplaceContentAudience(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Alpha grants replaced, Beta grants untouched
	var userAssignments []model.ContentUserAssignment
	require.NoError(t, db.Where("content_item_id = ?", item.ID).Order("user_id ASC").Find(&userAssignments).Error)
	require.Len(t, userAssignments, 2)
	assert.Equal(t, alphaOther.ID, userAssignments[0].UserID)
	assert.Equal(t, betaUser.ID, userAssignments[1].UserID)

	var tagAssignments []model.ContentTagAssignment
	require.NoError(t, db.Where("content_item_id = ?", item.ID).Find(&tagAssignments).Error)
	require.Len(t, tagAssignments, 1)
	assert.Equal(t, betaTag.ID, tagAssignments[0].TagID)
}

func TestReplaceContentAudience_RejectsForeignTargets(t *testing.T) {
	db := setupTestDB(t)
	alpha := seedCommunity(t, db, "Alpha")
	beta := seedCommunity(t, db, "Beta")
	item := seedContentItem(t, db, model.ContentTypeVideo, "Intro", model.ContentStatusPublished)
	betaUser := seedUser(t, db, beta.ID, "b@example.com")

	itemID := strconv.Itoa(int(item.ID))
	communityID := strconv.Itoa(int(alpha.ID))
	c, rec := newTestContext(t, http.MethodPut,
		"/api/content/"+itemID+"/communities/"+communityID+"/audience",
		map[string]interface{}{"user_ids": []uint{betaUser.ID}})
	pathContext(c, []string{"id", "communityID"}, []string{itemID, communityID})

	require.NoError(t, ReplaceContentAudience(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
