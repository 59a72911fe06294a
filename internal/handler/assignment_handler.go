package handler

import (
	"net/http"
	"strconv"
	"time"

	"aigym-api/internal/model"
	"aigym-api/pkg/database"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReplaceContentAudience replaces the user and tag grants of a content item
// within one community. Only assignments whose users or tags belong to the
// path community are touched, so grants scoped to other communities survive.
func ReplaceContentAudience(c echo.Context) error {
	log := logger.FromContext(c)

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content item ID"})
	}
	communityID, err := strconv.ParseUint(c.Param("communityID"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community ID"})
	}

	var item model.ContentItem
	if err := database.GetDB().First(&item, uint(itemID)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "content item not found"})
	}
	var community model.Community
	if err := database.GetDB().First(&community, uint(communityID)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "community not found"})
	}

	var req struct {
		UserIDs []uint `json:"user_ids"`
		TagIDs  []uint `json:"tag_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	adminID, _ := c.Get("admin_id").(uint)

	// Validate every target belongs to the path community before writing
	for _, userID := range req.UserIDs {
		var user model.User
		if err := database.GetDB().First(&user, userID).Error; err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user not found"})
		}
		if user.CommunityID != community.ID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user does not belong to this community"})
		}
	}
	for _, tagID := range req.TagIDs {
		var tag model.UserTag
		if err := database.GetDB().First(&tag, tagID).Error; err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag not found"})
		}
		if tag.CommunityID != community.ID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag does not belong to this community"})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		// Delete only the assignments scoped to this community
		if err := tx.
			Where("content_item_id = ? AND user_id IN (?)",
				item.ID,
				tx.Session(&gorm.Session{NewDB: true}).Model(&model.User{}).Select("id").Where("community_id = ?", community.ID)).
			Delete(&model.ContentUserAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.
			Where("content_item_id = ? AND tag_id IN (?)",
				item.ID,
				tx.Session(&gorm.Session{NewDB: true}).Model(&model.UserTag{}).Select("id").Where("community_id = ?", community.ID)).
			Delete(&model.ContentTagAssignment{}).Error; err != nil {
			return err
		}

		for _, userID := range req.UserIDs {
			a := model.ContentUserAssignment{ContentItemID: item.ID, UserID: userID, AssignedBy: adminID}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		for _, tagID := range req.TagIDs {
			a := model.ContentTagAssignment{ContentItemID: item.ID, TagID: tagID, AssignedBy: adminID}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to replace content audience", zap.Error(err),
			zap.Uint("content_item_id", item.ID), zap.Uint("community_id", community.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace audience"})
	}

	prometheus.RecordAssignmentReplace("audience")
	log.Info("Content audience replaced",
		zap.Uint("content_item_id", item.ID),
		zap.Uint("community_id", community.ID),
		zap.Int("users", len(req.UserIDs)),
		zap.Int("tags", len(req.TagIDs)))

	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Audience updated",
		"user_ids": req.UserIDs,
		"tag_ids":  req.TagIDs,
	})
}
