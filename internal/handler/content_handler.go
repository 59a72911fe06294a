package handler

import (
	"errors"
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

var contentSortColumns = map[string]string{
	"created_at": "content_items.created_at",
	"updated_at": "content_items.updated_at",
	"title":      "content_items.title",
}

// ListContent returns content items filtered by type, status, search text and
// community. The community filter joins through the assignment table so only
// items actually granted to that community come back.
func ListContent(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.ContentItem{})

	if contentType := c.QueryParam("type"); contentType != "" {
		if !model.IsValidContentType(contentType) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content type"})
		}
		query = query.Where("content_items.content_type = ?", contentType)
	}

	if status := c.QueryParam("status"); status != "" {
		if !model.IsValidContentStatus(status) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		query = query.Where("content_items.status = ?", status)
	}

	if search := c.QueryParam("search"); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(content_items.title) LIKE ? OR LOWER(content_items.description) LIKE ?", pattern, pattern)
	}

	if communityID := c.QueryParam("community_id"); communityID != "" {
		id, err := strconv.ParseUint(communityID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid community_id"})
		}
		query = query.
			Joins("JOIN content_community_assignments ON content_community_assignments.content_item_id = content_items.id").
			Where("content_community_assignments.community_id = ?", uint(id))
	}

	sortCol, ok := contentSortColumns[c.QueryParam("sort_by")]
	if !ok {
		sortCol = "content_items.updated_at"
	}
	sortDir := "DESC"
	if c.QueryParam("sort_dir") == "asc" {
		sortDir = "ASC"
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var items []model.ContentItem
	if err := query.Order(sortCol + " " + sortDir).Find(&items).Error; err != nil {
		log.Error("Failed to list content", zap.Error(err))
		prometheus.RecordContentError("list_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list content"})
	}

	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetContentCounts returns per-item assignment counts for the requested IDs,
// summing direct user grants and community grants
func GetContentCounts(c echo.Context) error {
	log := logger.FromContext(c)

	rawIDs := c.QueryParam("ids")
	if rawIDs == "" {
		return c.JSON(http.StatusOK, echo.Map{"counts": map[string]int64{}})
	}

	ids := make([]uint, 0)
	for _, part := range strings.Split(rawIDs, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content item ID"})
		}
		ids = append(ids, uint(id))
	}

	type countRow struct {
		ContentItemID uint  `gorm:"column:content_item_id"`
		Count         int64 `gorm:"column:count"`
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	counts := make(map[string]int64, len(ids))
	for _, id := range ids {
		counts[strconv.FormatUint(uint64(id), 10)] = 0
	}

	var communityCounts []countRow
	if err := database.GetDB().Model(&model.ContentCommunityAssignment{}).
		Select("content_item_id, COUNT(*) as count").
		Where("content_item_id IN ?", ids).
		Group("content_item_id").
		Scan(&communityCounts).Error; err != nil {
		log.Error("Failed to count community assignments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get counts"})
	}
	for _, row := range communityCounts {
		counts[strconv.FormatUint(uint64(row.ContentItemID), 10)] += row.Count
	}

	var userCounts []countRow
	if err := database.GetDB().Model(&model.ContentUserAssignment{}).
		Select("content_item_id, COUNT(*) as count").
		Where("content_item_id IN ?", ids).
		Group("content_item_id").
		Scan(&userCounts).Error; err != nil {
		log.Error("Failed to count user assignments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to get counts"})
	}
	for _, row := range userCounts {
		counts[strconv.FormatUint(uint64(row.ContentItemID), 10)] += row.Count
	}

	return c.JSON(http.StatusOK, echo.Map{"counts": counts})
}

// GetContent returns one content item with its type-specific detail and the
// IDs of its community, user and tag assignments
func GetContent(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content item ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var item model.ContentItem
	if err := database.GetDB().First(&item, uint(id)).Error; err != nil {
		prometheus.RecordContentError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "content item not found"})
	}

	detail, err := loadContentDetail(database.GetDB(), &item)
	if err != nil {
		log.Error("Failed to load content detail", zap.Error(err), zap.Uint("content_item_id", item.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load content"})
	}

	communityIDs, userIDs, tagIDs, err := loadAssignmentIDs(database.GetDB(), item.ID)
	if err != nil {
		log.Error("Failed to load assignments", zap.Error(err), zap.Uint("content_item_id", item.ID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load content"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"item":          item,
		"detail":        detail,
		"community_ids": communityIDs,
		"user_ids":      userIDs,
		"tag_ids":       tagIDs,
	})
}

func loadAssignmentIDs(db *gorm.DB, itemID uint) (communityIDs, userIDs, tagIDs []uint, err error) {
	communityIDs, userIDs, tagIDs = []uint{}, []uint{}, []uint{}

	var communities []model.ContentCommunityAssignment
	if err = db.Where("content_item_id = ?", itemID).Order("community_id ASC").Find(&communities).Error; err != nil {
		return
	}
	for _, a := range communities {
		communityIDs = append(communityIDs, a.CommunityID)
	}

	var users []model.ContentUserAssignment
	if err = db.Where("content_item_id = ?", itemID).Order("user_id ASC").Find(&users).Error; err != nil {
		return
	}
	for _, a := range users {
		userIDs = append(userIDs, a.UserID)
	}

	var tags []model.ContentTagAssignment
	if err = db.Where("content_item_id = ?", itemID).Order("tag_id ASC").Find(&tags).Error; err != nil {
		return
	}
	for _, a := range tags {
		tagIDs = append(tagIDs, a.TagID)
	}
	return
}

// loadContentDetail fetches the detail row matching the item's content type.
// Items saved without a detail payload have no detail row yet; that is not an
// error.
func loadContentDetail(db *gorm.DB, item *model.ContentItem) (interface{}, error) {
	var dest interface{}
	switch item.ContentType {
	case model.ContentTypeAIAgent:
		dest = &model.AIAgent{}
	case model.ContentTypeVideo:
		dest = &model.Video{}
	case model.ContentTypeDocument:
		dest = &model.Document{}
	case model.ContentTypeImage:
		dest = &model.Image{}
	case model.ContentTypePDF:
		dest = &model.PDF{}
	case model.ContentTypePrompt:
		dest = &model.Prompt{}
	case model.ContentTypeAutomation:
		dest = &model.Automation{}
	default:
		return nil, nil
	}

	err := db.Where("content_item_id = ?", item.ID).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dest, nil
}

// DeleteContent removes a content item together with its detail row and every
// assignment, all in one transaction
func DeleteContent(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content item ID"})
	}

	var item model.ContentItem
	if err := database.GetDB().First(&item, uint(id)).Error; err != nil {
		prometheus.RecordContentError("not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "content item not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := deleteContentDetail(tx, &item); err != nil {
			return err
		}
		if err := tx.Where("content_item_id = ?", item.ID).Delete(&model.ContentCommunityAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_item_id = ?", item.ID).Delete(&model.ContentUserAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_item_id = ?", item.ID).Delete(&model.ContentTagAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		log.Error("Failed to delete content", zap.Error(err), zap.Uint("content_item_id", item.ID))
		prometheus.RecordContentError("delete_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete content"})
	}

	prometheus.RecordContentOperation("delete", item.ContentType)
	log.Info("Content deleted", zap.Uint("content_item_id", item.ID), zap.String("content_type", item.ContentType))
	return c.JSON(http.StatusOK, echo.Map{"message": "Content deleted"})
}

func deleteContentDetail(tx *gorm.DB, item *model.ContentItem) error {
	where := tx.Where("content_item_id = ?", item.ID)
	switch item.ContentType {
	case model.ContentTypeAIAgent:
		return where.Delete(&model.AIAgent{}).Error
	case model.ContentTypeVideo:
		return where.Delete(&model.Video{}).Error
	case model.ContentTypeDocument:
		return where.Delete(&model.Document{}).Error
	case model.ContentTypeImage:
		return where.Delete(&model.Image{}).Error
	case model.ContentTypePDF:
		return where.Delete(&model.PDF{}).Error
	case model.ContentTypePrompt:
		return where.Delete(&model.Prompt{}).Error
	case model.ContentTypeAutomation:
		return where.Delete(&model.Automation{}).Error
	}
	return nil
}

// CopyContent records a copy action on a prompt, bumping its usage counter.
// The endpoint exists so the dashboard's copy button is tracked server side.
func CopyContent(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content item ID"})
	}

	var item model.ContentItem
	if err := database.GetDB().First(&item, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "content item not found"})
	}

	if item.ContentType != model.ContentTypePrompt {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only prompts track copies"})
	}

	var prompt model.Prompt
	if err := database.GetDB().Where("content_item_id = ?", item.ID).First(&prompt).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "prompt detail not found"})
	}

	now := time.Now()
	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&prompt).Updates(map[string]interface{}{
		"usage_count":    gorm.Expr("usage_count + 1"),
		"last_copied_at": &now,
	}).Error; err != nil {
		log.Error("Failed to record prompt copy", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record copy"})
	}

	prometheus.RecordContentOperation("copy", item.ContentType)
	return c.JSON(http.StatusOK, echo.Map{
		"usage_count":    prompt.UsageCount + 1,
		"last_copied_at": now,
	})
}
