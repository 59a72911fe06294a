package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"aigym-api/internal/model"
	"aigym-api/pkg/database"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GetDashboardStats returns the summary counters and recent activity feed
// backing the analytics dashboard. An optional community_id narrows every
// number to one community.
func GetDashboardStats(c echo.Context) error {
	log := logger.FromContext(c)

	var communityID *uint
	if raw := c.QueryParam("community_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community_id"})
		}
		v := uint(id)
		communityID = &v
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	db := database.GetDB()

	fail := func(what string, err error) error {
		log.Error("Failed to load dashboard stats", zap.String("query", what), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard stats"})
	}

	var totalCommunities, totalUsers, totalContent, publishedContent int64
	if err := db.Model(&model.Community{}).Where("status = ?", model.CommunityStatusActive).Count(&totalCommunities).Error; err != nil {
		return fail("total_communities", err)
	}

	userQuery := db.Model(&model.User{})
	if communityID != nil {
		userQuery = userQuery.Where("community_id = ?", *communityID)
	}
	if err := userQuery.Count(&totalUsers).Error; err != nil {
		return fail("total_users", err)
	}

	contentQuery := db.Model(&model.ContentItem{})
	if communityID != nil {
		contentQuery = contentQuery.
			Joins("JOIN content_community_assignments ON content_community_assignments.content_item_id = content_items.id").
			Where("content_community_assignments.community_id = ?", *communityID)
	}
	if err := contentQuery.Count(&totalContent).Error; err != nil {
		return fail("total_content", err)
	}

	publishedQuery := db.Model(&model.ContentItem{}).Where("content_items.status = ?", model.ContentStatusPublished)
	if communityID != nil {
		publishedQuery = publishedQuery.
			Joins("JOIN content_community_assignments ON content_community_assignments.content_item_id = content_items.id").
			Where("content_community_assignments.community_id = ?", *communityID)
	}
	if err := publishedQuery.Count(&publishedContent).Error; err != nil {
		return fail("published_content", err)
	}

	// Content breakdown by type
	type typeCount struct {
		ContentType string `json:"content_type" gorm:"column:content_type"`
		Count       int64  `json:"count" gorm:"column:count"`
	}
	var byType []typeCount
	if err := db.Model(&model.ContentItem{}).
		Select("content_type, COUNT(*) as count").
		Group("content_type").
		Scan(&byType).Error; err != nil {
		return fail("content_by_type", err)
	}

	// Active users in the last 30 days
	var activeUsers int64
	since := time.Now().AddDate(0, 0, -30)
	activeQuery := db.Model(&model.User{}).Where("last_active >= ?", since)
	if communityID != nil {
		activeQuery = activeQuery.Where("community_id = ?", *communityID)
	}
	if err := activeQuery.Count(&activeUsers).Error; err != nil {
		return fail("active_users_30d", err)
	}

	// Per-community user counts, also pushed to the gauges
	type communityCount struct {
		CommunityID   uint   `json:"community_id" gorm:"column:community_id"`
		CommunityName string `json:"community_name" gorm:"column:community_name"`
		UserCount     int64  `json:"user_count" gorm:"column:user_count"`
	}
	var usersPerCommunity []communityCount
	if err := db.Model(&model.User{}).
		Select("users.community_id, communities.name as community_name, COUNT(*) as user_count").
		Joins("JOIN communities ON communities.id = users.community_id").
		Group("users.community_id, communities.name").
		Scan(&usersPerCommunity).Error; err != nil {
		return fail("users_per_community", err)
	}

	prometheus.UpdateActiveCommunities(int(totalCommunities))
	for _, row := range usersPerCommunity {
		prometheus.UpdateUsersPerCommunity(row.CommunityID, row.CommunityName, int(row.UserCount))
	}

	// Recent activity feed
	activityQuery := db.Model(&model.UserActivity{}).Order("created_at DESC").Limit(20)
	if communityID != nil {
		activityQuery = activityQuery.Where("community_id = ?", *communityID)
	}
	var activities []model.UserActivity
	if err := activityQuery.Find(&activities).Error; err != nil {
		log.Error("Failed to load recent activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard stats"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_communities":   totalCommunities,
		"total_users":         totalUsers,
		"active_users_30d":    activeUsers,
		"total_content":       totalContent,
		"published_content":   publishedContent,
		"content_by_type":     byType,
		"users_per_community": usersPerCommunity,
		"recent_activity":     enrichActivities(db, activities),
	})
}

// activityFeedEntry is an activity row joined with the display fields the
// dashboard feed shows
type activityFeedEntry struct {
	model.UserActivity
	UserEmail    string `json:"user_email,omitempty"`
	ContentTitle string `json:"content_title,omitempty"`
}

func enrichActivities(db *gorm.DB, activities []model.UserActivity) []activityFeedEntry {
	out := make([]activityFeedEntry, 0, len(activities))
	for _, a := range activities {
		entry := activityFeedEntry{UserActivity: a}
		if a.UserID != nil {
			var user model.User
			if err := db.First(&user, *a.UserID).Error; err == nil {
				entry.UserEmail = user.Email
			}
		}
		if a.ContentItemID != nil {
			var item model.ContentItem
			if err := db.First(&item, *a.ContentItemID).Error; err == nil {
				entry.ContentTitle = item.Title
			}
		}
		out = append(out, entry)
	}
	return out
}

// RecordActivity ingests one activity event. The user, when given, must
// belong to the event's community. Recording also refreshes the user's
// last_active timestamp.
func RecordActivity(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		UserID        *uint                  `json:"user_id"`
		CommunityID   uint                   `json:"community_id"`
		ActivityType  string                 `json:"activity_type"`
		ActivityData  map[string]interface{} `json:"activity_data"`
		ContentItemID *uint                  `json:"content_item_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.CommunityID == 0 || req.ActivityType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "community_id and activity_type are required"})
	}

	var community model.Community
	if err := database.GetDB().First(&community, req.CommunityID).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "community not found"})
	}

	if req.UserID != nil {
		var user model.User
		if err := database.GetDB().First(&user, *req.UserID).Error; err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user not found"})
		}
		if user.CommunityID != req.CommunityID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user does not belong to this community"})
		}
		now := time.Now()
		database.GetDB().Model(&user).Update("last_active", &now)
	}

	activity := model.UserActivity{
		UserID:        req.UserID,
		CommunityID:   req.CommunityID,
		ActivityType:  req.ActivityType,
		ContentItemID: req.ContentItemID,
	}
	if req.ActivityData != nil {
		payload, err := json.Marshal(req.ActivityData)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity_data"})
		}
		activity.ActivityData = datatypes.JSON(payload)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&activity).Error; err != nil {
		log.Error("Failed to record activity", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record activity"})
	}

	return c.JSON(http.StatusCreated, activity)
}
