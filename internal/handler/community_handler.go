package handler

import (
	"encoding/json"
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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListCommunities returns communities filtered by status and a case-insensitive
// name search. By default archived communities are excluded.
func ListCommunities(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.Community{})

	status := c.QueryParam("status")
	switch status {
	case "":
		query = query.Where("status = ?", model.CommunityStatusActive)
	case "all":
		// no status filter
	default:
		query = query.Where("status = ?", status)
	}

	if search := c.QueryParam("search"); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if c.QueryParam("templates") == "true" {
		query = query.Where("is_template = ?", true)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var communities []model.Community
	if err := query.Order("name ASC").Find(&communities).Error; err != nil {
		log.Error("Failed to list communities", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list communities"})
	}

	return c.JSON(http.StatusOK, echo.Map{"communities": communities})
}

func CreateCommunity(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name         string `json:"name"`
		ProjectName  string `json:"project_name"`
		LogoURL      string `json:"logo_url"`
		BrandColor   string `json:"brand_color"`
		ForumEnabled bool   `json:"forum_enabled"`
		IsTemplate   bool   `json:"is_template"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse community request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	adminID, _ := c.Get("admin_id").(uint)

	community := model.Community{
		Name:         strings.TrimSpace(req.Name),
		ProjectName:  req.ProjectName,
		LogoURL:      req.LogoURL,
		BrandColor:   req.BrandColor,
		ForumEnabled: req.ForumEnabled,
		IsTemplate:   req.IsTemplate,
		Status:       model.CommunityStatusActive,
	}
	if community.BrandColor == "" {
		community.BrandColor = "#3B82F6"
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&community).Error; err != nil {
			return err
		}
		// Seed every platform feature as disabled so the features panel
		// always shows the full list.
		for _, feature := range model.PlatformFeatures {
			f := model.CommunityFeature{
				CommunityID: community.ID,
				FeatureName: feature,
				Enabled:     false,
			}
			if err := tx.Create(&f).Error; err != nil {
				return err
			}
		}
		return logActivity(tx, nil, community.ID, "community_created", nil, map[string]interface{}{
			"community_name": community.Name,
			"created_by":     adminID,
		})
	})
	if err != nil {
		log.Error("Failed to create community", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create community"})
	}

	prometheus.RecordCommunityOperation("create")
	log.Info("Community created", zap.Uint("community_id", community.ID), zap.String("name", community.Name))
	return c.JSON(http.StatusCreated, community)
}

func GetCommunity(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var community model.Community
	if err := database.GetDB().First(&community, uint(id)).Error; err != nil {
		log.Error("Community not found", zap.Uint64("community_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "community not found"})
	}

	var userCount int64
	database.GetDB().Model(&model.User{}).Where("community_id = ?", community.ID).Count(&userCount)

	return c.JSON(http.StatusOK, echo.Map{
		"community":  community,
		"user_count": userCount,
	})
}

func UpdateCommunity(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community ID"})
	}

	var community model.Community
	if err := database.GetDB().First(&community, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "community not found"})
	}

	var req struct {
		Name         *string `json:"name"`
		ProjectName  *string `json:"project_name"`
		LogoURL      *string `json:"logo_url"`
		BrandColor   *string `json:"brand_color"`
		ForumEnabled *bool   `json:"forum_enabled"`
		Status       *string `json:"status"`
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
	if req.ProjectName != nil {
		updates["project_name"] = *req.ProjectName
	}
	if req.LogoURL != nil {
		updates["logo_url"] = *req.LogoURL
	}
	if req.BrandColor != nil {
		updates["brand_color"] = *req.BrandColor
	}
	if req.ForumEnabled != nil {
		updates["forum_enabled"] = *req.ForumEnabled
	}
	if req.Status != nil {
		if *req.Status != model.CommunityStatusActive && *req.Status != model.CommunityStatusArchived {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		updates["status"] = *req.Status
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&community).Updates(updates).Error; err != nil {
		log.Error("Failed to update community", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update community"})
	}

	prometheus.RecordCommunityOperation("update")
	return c.JSON(http.StatusOK, community)
}

// DeleteCommunity archives an active community. An already archived community
// is hard-deleted together with its features, a two-step guard against
// accidental destruction.
func DeleteCommunity(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community ID"})
	}

	var community model.Community
	if err := database.GetDB().First(&community, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "community not found"})
	}

	if community.Status == model.CommunityStatusActive {
		defer prometheus.TrackDBOperation("update")(time.Now())
		if err := database.GetDB().Model(&community).Update("status", model.CommunityStatusArchived).Error; err != nil {
			log.Error("Failed to archive community", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to archive community"})
		}
		prometheus.RecordCommunityOperation("archive")
		return c.JSON(http.StatusOK, echo.Map{"message": "Community archived"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", community.ID).Delete(&model.CommunityFeature{}).Error; err != nil {
			return err
		}
		return tx.Delete(&community).Error
	})
	if err != nil {
		log.Error("Failed to delete community", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete community"})
	}

	prometheus.RecordCommunityOperation("delete")
	log.Info("Community deleted", zap.Uint("community_id", community.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "Community deleted"})
}

// GetCommunityFeatures returns every feature flag for a community
func GetCommunityFeatures(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var features []model.CommunityFeature
	if err := database.GetDB().Where("community_id = ?", uint(id)).Order("feature_name ASC").Find(&features).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list features"})
	}

	return c.JSON(http.StatusOK, echo.Map{"features": features})
}

// UpdateCommunityFeatures upserts feature flags from a name to enabled map
func UpdateCommunityFeatures(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community ID"})
	}

	var community model.Community
	if err := database.GetDB().First(&community, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "community not found"})
	}

	var req struct {
		Features map[string]bool `json:"features"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		for name, enabled := range req.Features {
			var feature model.CommunityFeature
			result := tx.Where("community_id = ? AND feature_name = ?", community.ID, name).First(&feature)
			if result.Error != nil {
				feature = model.CommunityFeature{
					CommunityID: community.ID,
					FeatureName: name,
					Enabled:     enabled,
				}
				if err := tx.Create(&feature).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(&feature).Update("enabled", enabled).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update features", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update features"})
	}

	var features []model.CommunityFeature
	database.GetDB().Where("community_id = ?", community.ID).Order("feature_name ASC").Find(&features)
	return c.JSON(http.StatusOK, echo.Map{"features": features})
}

// CloneCommunity creates a new community from a template community. Feature
// flags are always copied; content assignments are copied only when requested.
// The whole clone runs in one transaction so a failed copy leaves nothing
// behind.
func CloneCommunity(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community ID"})
	}

	var source model.Community
	if err := database.GetDB().First(&source, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "community not found"})
	}

	var req struct {
		Name        string `json:"name"`
		ProjectName string `json:"project_name"`
		CopyContent bool   `json:"copy_content"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	adminID, _ := c.Get("admin_id").(uint)
	sourceID := source.ID

	clone := model.Community{
		Name:             strings.TrimSpace(req.Name),
		ProjectName:      req.ProjectName,
		LogoURL:          source.LogoURL,
		BrandColor:       source.BrandColor,
		ForumEnabled:     source.ForumEnabled,
		Status:           model.CommunityStatusActive,
		TemplateSourceID: &sourceID,
	}

	var featuresCopied, assignmentsCopied int

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clone).Error; err != nil {
			return err
		}

		var features []model.CommunityFeature
		if err := tx.Where("community_id = ?", source.ID).Find(&features).Error; err != nil {
			return err
		}
		for _, f := range features {
			copied := model.CommunityFeature{
				CommunityID: clone.ID,
				FeatureName: f.FeatureName,
				Enabled:     f.Enabled,
			}
			if err := tx.Create(&copied).Error; err != nil {
				return err
			}
			featuresCopied++
		}

		if req.CopyContent {
			var assignments []model.ContentCommunityAssignment
			if err := tx.Where("community_id = ?", source.ID).Find(&assignments).Error; err != nil {
				return err
			}
			for _, a := range assignments {
				copied := model.ContentCommunityAssignment{
					ContentItemID: a.ContentItemID,
					CommunityID:   clone.ID,
					AssignedBy:    adminID,
				}
				if err := tx.Create(&copied).Error; err != nil {
					return err
				}
				assignmentsCopied++
			}
		}

		return logActivity(tx, nil, clone.ID, "community_cloned", nil, map[string]interface{}{
			"source_community_id":   source.ID,
			"source_community_name": source.Name,
			"features_copied":       featuresCopied,
			"assignments_copied":    assignmentsCopied,
			"cloned_by":             adminID,
		})
	})
	if err != nil {
		log.Error("Failed to clone community", zap.Error(err), zap.Uint("source_id", source.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to clone community"})
	}

	prometheus.RecordCommunityOperation("clone")
	log.Info("Community cloned",
		zap.Uint("source_id", source.ID),
		zap.Uint("clone_id", clone.ID),
		zap.Int("features_copied", featuresCopied),
		zap.Int("assignments_copied", assignmentsCopied))

	return c.JSON(http.StatusCreated, echo.Map{
		"community":           clone,
		"features_copied":     featuresCopied,
		"assignments_copied":  assignmentsCopied,
	})
}

// logActivity writes one UserActivity row inside the caller's transaction
func logActivity(tx *gorm.DB, userID *uint, communityID uint, activityType string, contentItemID *uint, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	activity := model.UserActivity{
		UserID:        userID,
		CommunityID:   communityID,
		ActivityType:  activityType,
		ActivityData:  datatypes.JSON(payload),
		ContentItemID: contentItemID,
	}
	return tx.Create(&activity).Error
}
