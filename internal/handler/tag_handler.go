package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"aigym-api/internal/model"
	"aigym-api/pkg/database"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListTags returns the tags of one community, each with its member count
func ListTags(c echo.Context) error {
	log := logger.FromContext(c)

	communityID, err := strconv.ParseUint(c.QueryParam("community_id"), 10, 32)
	if err != nil || communityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "community_id is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tags []model.UserTag
	if err := database.GetDB().Where("community_id = ?", uint(communityID)).Order("name ASC").Find(&tags).Error; err != nil {
		log.Error("Failed to list tags", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list tags"})
	}

	type tagWithCount struct {
		model.UserTag
		UserCount int64 `json:"user_count"`
	}
	out := make([]tagWithCount, 0, len(tags))
	for _, tag := range tags {
		var count int64
		database.GetDB().Model(&model.UserTagMembership{}).Where("tag_id = ?", tag.ID).Count(&count)
		out = append(out, tagWithCount{UserTag: tag, UserCount: count})
	}

	return c.JSON(http.StatusOK, echo.Map{"tags": out})
}

func CreateTag(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		CommunityID uint   `json:"community_id"`
		Name        string `json:"name"`
		Color       string `json:"color"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Name) == "" || req.CommunityID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and community_id are required"})
	}

	var community model.Community
	if err := database.GetDB().First(&community, req.CommunityID).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "community not found"})
	}

	var existing model.UserTag
	result := database.GetDB().Where("community_id = ? AND name = ?", req.CommunityID, strings.TrimSpace(req.Name)).First(&existing)
	if result.Error == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "tag already exists in this community"})
	}

	tag := model.UserTag{
		CommunityID: req.CommunityID,
		Name:        strings.TrimSpace(req.Name),
		Color:       req.Color,
	}
	if tag.Color == "" {
		tag.Color = "#6B7280"
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&tag).Error; err != nil {
		log.Error("Failed to create tag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create tag"})
	}

	log.Info("Tag created", zap.Uint("tag_id", tag.ID), zap.Uint("community_id", tag.CommunityID))
	return c.JSON(http.StatusCreated, tag)
}

func UpdateTag(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tag ID"})
	}

	var tag model.UserTag
	if err := database.GetDB().First(&tag, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}

	var req struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&tag).Updates(updates).Error; err != nil {
		log.Error("Failed to update tag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tag"})
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteTag removes a tag together with its user memberships and any content
// assignments targeting it
func DeleteTag(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tag ID"})
	}

	var tag model.UserTag
	if err := database.GetDB().First(&tag, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&model.UserTagMembership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tag_id = ?", tag.ID).Delete(&model.ContentTagAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tag).Error
	})
	if err != nil {
		log.Error("Failed to delete tag", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete tag"})
	}

	log.Info("Tag deleted", zap.Uint("tag_id", tag.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Tag deleted"})
}
