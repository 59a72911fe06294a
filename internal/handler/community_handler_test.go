package handler

import (
	"net/http"
	"strconv"
	"testing"

	"aigym-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommunity_SeedsFeatureFlags(t *testing.T) {
	db := setupTestDB(t)

	c, rec := newTestContext(t, http.MethodPost, "/api/communities", map[string]interface{}{
		"name": "CrossFit North",
	})
	require.NoError(t, CreateCommunity(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var community model.Community
	require.NoError(t, db.Where("name = ?", "CrossFit North").First(&community).Error)
	assert.Equal(t, model.CommunityStatusActive, community.Status)

	var features int64
	db.Model(&model.CommunityFeature{}).Where("community_id = ?", community.ID).Count(&features)
	assert.Equal(t, int64(len(model.PlatformFeatures)), features)

	var activities int64
	db.Model(&model.UserActivity{}).Where("community_id = ? AND activity_type = ?", community.ID, "community_created").Count(&activities)
	assert.Equal(t, int64(1), activities)
}

func TestDeleteCommunity_ArchivesThenDeletes(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")
	id := strconv.Itoa(int(community.ID))

	c, rec := newTestContext(t, http.MethodDelete, "/api/communities/"+id, nil)
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, DeleteCommunity(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var archived model.Community
	require.NoError(t, db.First(&archived, community.ID).Error)
	assert.Equal(t, model.CommunityStatusArchived, archived.Status)

	c2, rec2 := newTestContext(t, http.MethodDelete, "/api/communities/"+id, nil)
	pathContext(c2, []string{"id"}, []string{id})
	require.NoError(t, DeleteCommunity(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	var count int64
	db.Model(&model.Community{}).Where("id = ?", community.ID).Count(&count)
	assert.Zero(t, count)
}

func TestListCommunities_ExcludesArchivedByDefault(t *testing.T) {
	db := setupTestDB(t)
	seedCommunity(t, db, "Active Gym")
	archived := model.Community{Name: "Old Gym", Status: model.CommunityStatusArchived}
	require.NoError(t, db.Create(&archived).Error)

	c, rec := newTestContext(t, http.MethodGet, "/api/communities", nil)
	require.NoError(t, ListCommunities(c))
	body := decodeBody(t, rec)
	require.Len(t, body["communities"], 1)

	c2, rec2 := newTestContext(t, http.MethodGet, "/api/communities?status=all", nil)
	require.NoError(t, ListCommunities(c2))
	body2 := decodeBody(t, rec2)
	require.Len(t, body2["communities"], 2)
}

func TestUpdateCommunityFeatures_Upserts(t *testing.T) {
	db := setupTestDB(t)
	community := seedCommunity(t, db, "Alpha")
	id := strconv.Itoa(int(community.ID))

	c, rec := newTestContext(t, http.MethodPut, "/api/communities/"+id+"/features", map[string]interface{}{
		"features": map[string]bool{"courses": true, "forums": false},
	})
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, UpdateCommunityFeatures(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var courses model.CommunityFeature
	require.NoError(t, db.Where("community_id = ? AND feature_name = ?", community.ID, "courses").First(&courses).Error)
	assert.True(t, courses.Enabled)
}

func TestCloneCommunity_CopiesFeaturesAndAssignments(t *testing.T) {
	db := setupTestDB(t)
	source := seedCommunity(t, db, "Template Gym")
	require.NoError(t, db.Create(&model.CommunityFeature{CommunityID: source.ID, FeatureName: "courses", Enabled: true}).Error)
	require.NoError(t, db.Create(&model.CommunityFeature{CommunityID: source.ID, FeatureName: "forums", Enabled: false}).Error)
	item := seedContentItem(t, db, model.ContentTypeVideo, "Intro", model.ContentStatusPublished)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: source.ID}).Error)

	id := strconv.Itoa(int(source.ID))
	c, rec := newTestContext(t, http.MethodPost, "/api/communities/"+id+"/clone", map[string]interface{}{
		"name":         "New Gym",
		"copy_content": true,
	})
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, CloneCommunity(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["features_copied"])
	assert.Equal(t, float64(1), body["assignments_copied"])

	var clone model.Community
	require.NoError(t, db.Where("name = ?", "New Gym").First(&clone).Error)
	require.NotNil(t, clone.TemplateSourceID)
	assert.Equal(t, source.ID, *clone.TemplateSourceID)

	var features, assignments int64
	db.Model(&model.CommunityFeature{}).Where("community_id = ?", clone.ID).Count(&features)
	db.Model(&model.ContentCommunityAssignment{}).Where("community_id = ?", clone.ID).Count(&assignments)
	assert.Equal(t, int64(2), features)
	assert.Equal(t, int64(1), assignments)
}

func TestCloneCommunity_WithoutContent(t *testing.T) {
	db := setupTestDB(t)
	source := seedCommunity(t, db, "Template Gym")
	item := seedContentItem(t, db, model.ContentTypeVideo, "Intro", model.ContentStatusPublished)
	require.NoError(t, db.Create(&model.ContentCommunityAssignment{ContentItemID: item.ID, CommunityID: source.ID}).Error)

	id := strconv.Itoa(int(source.ID))
	c, rec := newTestContext(t, http.MethodPost, "/api/communities/"+id+"/clone", map[string]interface{}{
		"name": "Lean Gym",
	})
	pathContext(c, []string{"id"}, []string{id})
	require.NoError(t, CloneCommunity(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var clone model.Community
	require.NoError(t, db.Where("name = ?", "Lean Gym").First(&clone).Error)
	var assignments int64
	db.Model(&model.ContentCommunityAssignment{}).Where("community_id = ?", clone.ID).Count(&assignments)
	assert.Zero(t, assignments)
}
