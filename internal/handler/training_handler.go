package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aigym-api/internal/model"
	"aigym-api/internal/pagebuilder"
	"aigym-api/pkg/database"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// trainingDocRequest is the shared save payload for wods, workout blocks and
// programs. Pages go through the page builder pipeline before storage.
type trainingDocRequest struct {
	Title                    string          `json:"title"`
	Description              string          `json:"description"`
	Status                   string          `json:"status"`
	ThumbnailURL             string          `json:"thumbnail_url"`
	Tags                     json.RawMessage `json:"tags"`
	Pages                    json.RawMessage `json:"pages"`
	Settings                 json.RawMessage `json:"settings"`
	Difficulty               int             `json:"difficulty"`
	EstimatedDurationMinutes int             `json:"estimated_duration_minutes"`
	FolderID                 *uint           `json:"folder_id"`
}

func (r *trainingDocRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if r.Status != "" && !model.IsValidContentStatus(r.Status) {
		return fmt.Errorf("invalid status")
	}
	if r.Difficulty != 0 && (r.Difficulty < 1 || r.Difficulty > 5) {
		return fmt.Errorf("difficulty must be between 1 and 5")
	}
	return nil
}

// preparePages validates, normalizes and re-serializes the page structure,
// then checks every embedded content reference against the content repository.
// References must point at existing published items of the right type.
func preparePages(db *gorm.DB, raw json.RawMessage) (datatypes.JSON, error) {
	if raw == nil {
		return datatypes.JSON([]byte("[]")), nil
	}

	var pages []pagebuilder.Page
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("invalid pages structure: %w", err)
	}
	if err := pagebuilder.Validate(pages); err != nil {
		return nil, err
	}
	pages = pagebuilder.Normalize(pages)

	for _, ref := range pagebuilder.ContentRefs(pages) {
		var item model.ContentItem
		if err := db.First(&item, ref.ContentItemID).Error; err != nil {
			return nil, fmt.Errorf("block %s references missing content item %d", ref.BlockID, ref.ContentItemID)
		}
		if item.ContentType != ref.ContentType {
			return nil, fmt.Errorf("block %s expects %s content but item %d is %s",
				ref.BlockID, ref.ContentType, item.ID, item.ContentType)
		}
		if item.Status != model.ContentStatusPublished {
			return nil, fmt.Errorf("block %s references unpublished content item %d", ref.BlockID, item.ID)
		}
	}

	out, err := json.Marshal(pages)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func checkTrainingFolder(db *gorm.DB, folderID *uint, repoType string) error {
	if folderID == nil {
		return nil
	}
	var folder model.Folder
	if err := db.First(&folder, *folderID).Error; err != nil {
		return fmt.Errorf("folder not found")
	}
	if folder.RepositoryType != repoType {
		return fmt.Errorf("folder belongs to a different repository")
	}
	return nil
}

// --- Wods ---

func ListWods(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.Wod{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if folderID := c.QueryParam("folder_id"); folderID != "" {
		id, err := strconv.ParseUint(folderID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folder_id"})
		}
		query = query.Where("folder_id = ?", uint(id))
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var wods []model.Wod
	if err := query.Order("updated_at DESC").Find(&wods).Error; err != nil {
		log.Error("Failed to list wods", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list wods"})
	}
	return c.JSON(http.StatusOK, echo.Map{"wods": wods})
}

func CreateWod(c echo.Context) error {
	log := logger.FromContext(c)

	var req trainingDocRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := checkTrainingFolder(database.GetDB(), req.FolderID, model.RepositoryTypeWods); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	pages, err := preparePages(database.GetDB(), req.Pages)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	adminID, _ := c.Get("admin_id").(uint)
	wod := model.Wod{
		Title:                    strings.TrimSpace(req.Title),
		Description:              req.Description,
		Status:                   req.Status,
		ThumbnailURL:             req.ThumbnailURL,
		Pages:                    pages,
		Difficulty:               req.Difficulty,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		FolderID:                 req.FolderID,
		CreatedBy:                adminID,
	}
	if wod.Status == "" {
		wod.Status = model.ContentStatusDraft
	}
	if wod.Difficulty == 0 {
		wod.Difficulty = 1
	}
	if req.Tags != nil {
		wod.Tags = datatypes.JSON(req.Tags)
	}
	if req.Settings != nil {
		wod.Settings = datatypes.JSON(req.Settings)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&wod).Error; err != nil {
		log.Error("Failed to create wod", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create wod"})
	}

	log.Info("Wod created", zap.Uint("wod_id", wod.ID))
	return c.JSON(http.StatusCreated, wod)
}

func GetWod(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid wod ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var wod model.Wod
	if err := database.GetDB().First(&wod, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wod not found"})
	}
	return c.JSON(http.StatusOK, wod)
}

func UpdateWod(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid wod ID"})
	}

	var wod model.Wod
	if err := database.GetDB().First(&wod, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wod not found"})
	}

	var req trainingDocRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := checkTrainingFolder(database.GetDB(), req.FolderID, model.RepositoryTypeWods); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"title":         strings.TrimSpace(req.Title),
		"description":   req.Description,
		"thumbnail_url": req.ThumbnailURL,
		"folder_id":     req.FolderID,
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Difficulty != 0 {
		updates["difficulty"] = req.Difficulty
	}
	if req.EstimatedDurationMinutes != 0 {
		updates["estimated_duration_minutes"] = req.EstimatedDurationMinutes
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.JSON(req.Tags)
	}
	if req.Settings != nil {
		updates["settings"] = datatypes.JSON(req.Settings)
	}
	if req.Pages != nil {
		pages, err := preparePages(database.GetDB(), req.Pages)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		updates["pages"] = pages
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&wod).Updates(updates).Error; err != nil {
		log.Error("Failed to update wod", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update wod"})
	}
	return c.JSON(http.StatusOK, wod)
}

func DeleteWod(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid wod ID"})
	}

	var wod model.Wod
	if err := database.GetDB().First(&wod, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "wod not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&wod).Error; err != nil {
		log.Error("Failed to delete wod", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete wod"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Wod deleted"})
}

// --- Workout blocks ---

func ListWorkoutBlocks(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.WorkoutBlock{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if folderID := c.QueryParam("folder_id"); folderID != "" {
		id, err := strconv.ParseUint(folderID, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid folder_id"})
		}
		query = query.Where("folder_id = ?", uint(id))
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var blocks []model.WorkoutBlock
	if err := query.Order("updated_at DESC").Find(&blocks).Error; err != nil {
		log.Error("Failed to list workout blocks", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list workout blocks"})
	}
	return c.JSON(http.StatusOK, echo.Map{"workout_blocks": blocks})
}

func CreateWorkoutBlock(c echo.Context) error {
	log := logger.FromContext(c)

	var req trainingDocRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := checkTrainingFolder(database.GetDB(), req.FolderID, model.RepositoryTypeBlocks); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	pages, err := preparePages(database.GetDB(), req.Pages)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	adminID, _ := c.Get("admin_id").(uint)
	block := model.WorkoutBlock{
		Title:                    strings.TrimSpace(req.Title),
		Description:              req.Description,
		Status:                   req.Status,
		ThumbnailURL:             req.ThumbnailURL,
		Pages:                    pages,
		Difficulty:               req.Difficulty,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		FolderID:                 req.FolderID,
		CreatedBy:                adminID,
	}
	if block.Status == "" {
		block.Status = model.ContentStatusDraft
	}
	if block.Difficulty == 0 {
		block.Difficulty = 1
	}
	if req.Tags != nil {
		block.Tags = datatypes.JSON(req.Tags)
	}
	if req.Settings != nil {
		block.Settings = datatypes.JSON(req.Settings)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&block).Error; err != nil {
		log.Error("Failed to create workout block", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create workout block"})
	}

	log.Info("Workout block created", zap.Uint("block_id", block.ID))
	return c.JSON(http.StatusCreated, block)
}

func GetWorkoutBlock(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workout block ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var block model.WorkoutBlock
	if err := database.GetDB().First(&block, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workout block not found"})
	}
	return c.JSON(http.StatusOK, block)
}

func UpdateWorkoutBlock(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workout block ID"})
	}

	var block model.WorkoutBlock
	if err := database.GetDB().First(&block, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workout block not found"})
	}

	var req trainingDocRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if err := checkTrainingFolder(database.GetDB(), req.FolderID, model.RepositoryTypeBlocks); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"title":         strings.TrimSpace(req.Title),
		"description":   req.Description,
		"thumbnail_url": req.ThumbnailURL,
		"folder_id":     req.FolderID,
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Difficulty != 0 {
		updates["difficulty"] = req.Difficulty
	}
	if req.EstimatedDurationMinutes != 0 {
		updates["estimated_duration_minutes"] = req.EstimatedDurationMinutes
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.JSON(req.Tags)
	}
	if req.Settings != nil {
		updates["settings"] = datatypes.JSON(req.Settings)
	}
	if req.Pages != nil {
		pages, err := preparePages(database.GetDB(), req.Pages)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		updates["pages"] = pages
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&block).Updates(updates).Error; err != nil {
		log.Error("Failed to update workout block", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update workout block"})
	}
	return c.JSON(http.StatusOK, block)
}

func DeleteWorkoutBlock(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid workout block ID"})
	}

	var block model.WorkoutBlock
	if err := database.GetDB().First(&block, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "workout block not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&block).Error; err != nil {
		log.Error("Failed to delete workout block", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete workout block"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Workout block deleted"})
}

// --- Programs ---

func ListPrograms(c echo.Context) error {
	log := logger.FromContext(c)

	query := database.GetDB().Model(&model.Program{})
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.QueryParam("search"); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var programs []model.Program
	if err := query.Order("updated_at DESC").Find(&programs).Error; err != nil {
		log.Error("Failed to list programs", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list programs"})
	}
	return c.JSON(http.StatusOK, echo.Map{"programs": programs})
}

func CreateProgram(c echo.Context) error {
	log := logger.FromContext(c)

	var req trainingDocRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	pages, err := preparePages(database.GetDB(), req.Pages)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	adminID, _ := c.Get("admin_id").(uint)
	program := model.Program{
		Title:                    strings.TrimSpace(req.Title),
		Description:              req.Description,
		Status:                   req.Status,
		ThumbnailURL:             req.ThumbnailURL,
		Pages:                    pages,
		Difficulty:               req.Difficulty,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		CreatedBy:                adminID,
	}
	if program.Status == "" {
		program.Status = model.ContentStatusDraft
	}
	if program.Difficulty == 0 {
		program.Difficulty = 1
	}
	if req.Tags != nil {
		program.Tags = datatypes.JSON(req.Tags)
	}
	if req.Settings != nil {
		program.Settings = datatypes.JSON(req.Settings)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&program).Error; err != nil {
		log.Error("Failed to create program", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create program"})
	}

	log.Info("Program created", zap.Uint("program_id", program.ID))
	return c.JSON(http.StatusCreated, program)
}

func GetProgram(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid program ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var program model.Program
	if err := database.GetDB().First(&program, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
	}
	return c.JSON(http.StatusOK, program)
}

func UpdateProgram(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid program ID"})
	}

	var program model.Program
	if err := database.GetDB().First(&program, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
	}

	var req trainingDocRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	updates := map[string]interface{}{
		"title":         strings.TrimSpace(req.Title),
		"description":   req.Description,
		"thumbnail_url": req.ThumbnailURL,
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Difficulty != 0 {
		updates["difficulty"] = req.Difficulty
	}
	if req.EstimatedDurationMinutes != 0 {
		updates["estimated_duration_minutes"] = req.EstimatedDurationMinutes
	}
	if req.Tags != nil {
		updates["tags"] = datatypes.JSON(req.Tags)
	}
	if req.Settings != nil {
		updates["settings"] = datatypes.JSON(req.Settings)
	}
	if req.Pages != nil {
		pages, err := preparePages(database.GetDB(), req.Pages)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		updates["pages"] = pages
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&program).Updates(updates).Error; err != nil {
		log.Error("Failed to update program", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update program"})
	}
	return c.JSON(http.StatusOK, program)
}

func DeleteProgram(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid program ID"})
	}

	var program model.Program
	if err := database.GetDB().First(&program, uint(id)).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "program not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := database.GetDB().Delete(&program).Error; err != nil {
		log.Error("Failed to delete program", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete program"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Program deleted"})
}
