package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aigym-api/internal/content"
	"aigym-api/internal/model"
	"aigym-api/pkg/database"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// contentSaveRequest is the editor's save payload. Assignment slices are
// pointers so an absent field leaves existing assignments untouched while an
// empty slice clears them.
type contentSaveRequest struct {
	ContentType  string  `json:"content_type"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	ThumbnailURL string  `json:"thumbnail_url"`
	CommunityIDs *[]uint `json:"community_ids"`
	UserIDs      *[]uint `json:"user_ids"`
	TagIDs       *[]uint `json:"tag_ids"`

	AIAgent *struct {
		AgentName         string          `json:"agent_name"`
		SystemPrompt      string          `json:"system_prompt"`
		ShortDescription  string          `json:"short_description"`
		TestConversations json.RawMessage `json:"test_conversations"`
	} `json:"ai_agent"`

	Video *struct {
		VideoURL        string `json:"video_url"`
		DurationSeconds int    `json:"duration_seconds"`
		Transcription   string `json:"transcription"`
	} `json:"video"`

	Document *struct {
		ContentHTML string          `json:"content_html"`
		ContentJSON json.RawMessage `json:"content_json"`
	} `json:"document"`

	Image *struct {
		ImageURL string `json:"image_url"`
		FileSize int64  `json:"file_size"`
		MimeType string `json:"mime_type"`
		AltText  string `json:"alt_text"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
	} `json:"image"`

	PDF *struct {
		PDFURL       string `json:"pdf_url"`
		FileSize     int64  `json:"file_size"`
		PageCount    int    `json:"page_count"`
		ThumbnailURL string `json:"thumbnail_url"`
	} `json:"pdf"`

	Prompt *struct {
		PromptText     string `json:"prompt_text"`
		PromptCategory string `json:"prompt_category"`
	} `json:"prompt"`

	Automation *struct {
		AutomationURL     string          `json:"automation_url"`
		RequiredTools     json.RawMessage `json:"required_tools"`
		ToolDescription   string          `json:"tool_description"`
		SetupInstructions string          `json:"setup_instructions"`
	} `json:"automation"`
}

// CreateContent creates a content item, its detail row and its initial
// assignments in one transaction. Nothing is written when the title or the
// type-specific detail payload is missing or invalid.
func CreateContent(c echo.Context) error {
	log := logger.FromContext(c)

	var req contentSaveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	contentType := req.ContentType
	if !model.IsValidContentType(contentType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content type"})
	}

	if strings.TrimSpace(req.Title) == "" {
		prometheus.RecordContentError("missing_title")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	if !hasDetailPayload(&req) {
		prometheus.RecordContentError("missing_detail")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": contentType + " payload is required"})
	}

	status := req.Status
	if status == "" {
		status = model.ContentStatusDraft
	}
	if !model.IsValidContentStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	adminID, _ := c.Get("admin_id").(uint)

	item := model.ContentItem{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ContentType:  contentType,
		Status:       status,
		ThumbnailURL: req.ThumbnailURL,
		CreatedBy:    adminID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		if err := saveContentDetail(tx, &item, &req); err != nil {
			return err
		}
		return replaceAssignments(tx, item.ID, adminID, req.CommunityIDs, req.UserIDs, req.TagIDs)
	})
	if err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			prometheus.RecordContentError("invalid_detail")
			return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
		}
		log.Error("Failed to create content", zap.Error(err), zap.String("content_type", contentType))
		prometheus.RecordContentError("create_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save content"})
	}

	prometheus.RecordContentOperation("create", contentType)
	log.Info("Content created", zap.Uint("content_item_id", item.ID), zap.String("content_type", contentType))
	return c.JSON(http.StatusCreated, item)
}

// UpdateContent saves editor changes to an existing item. Metadata, detail and
// assignments move together in one transaction so a failed save never leaves
// the item half updated.
func UpdateContent(c echo.Context) error {
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

	var req contentSaveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if strings.TrimSpace(req.Title) == "" {
		prometheus.RecordContentError("missing_title")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}

	status := req.Status
	if status == "" {
		status = item.Status
	}
	if !model.IsValidContentStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	adminID, _ := c.Get("admin_id").(uint)

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"title":         strings.TrimSpace(req.Title),
			"description":   req.Description,
			"status":        status,
			"thumbnail_url": req.ThumbnailURL,
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		if err := saveContentDetail(tx, &item, &req); err != nil {
			return err
		}
		return replaceAssignments(tx, item.ID, adminID, req.CommunityIDs, req.UserIDs, req.TagIDs)
	})
	if err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			prometheus.RecordContentError("invalid_detail")
			return c.JSON(httpErr.Code, echo.Map{"error": httpErr.Message})
		}
		log.Error("Failed to update content", zap.Error(err), zap.Uint("content_item_id", item.ID))
		prometheus.RecordContentError("update_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save content"})
	}

	prometheus.RecordContentOperation("update", item.ContentType)
	return c.JSON(http.StatusOK, item)
}

// hasDetailPayload reports whether the request carries the detail payload
// matching its content type. Creating an item requires one so every saved
// item ends up with exactly one detail row.
func hasDetailPayload(req *contentSaveRequest) bool {
	switch req.ContentType {
	case model.ContentTypeAIAgent:
		return req.AIAgent != nil
	case model.ContentTypeVideo:
		return req.Video != nil
	case model.ContentTypeDocument:
		return req.Document != nil
	case model.ContentTypeImage:
		return req.Image != nil
	case model.ContentTypePDF:
		return req.PDF != nil
	case model.ContentTypePrompt:
		return req.Prompt != nil
	case model.ContentTypeAutomation:
		return req.Automation != nil
	}
	return false
}

// saveContentDetail upserts the detail row matching the item's content type,
// deriving the computed fields before writing. A nil payload is tolerated on
// update so a metadata-only save leaves the detail row alone.
func saveContentDetail(tx *gorm.DB, item *model.ContentItem, req *contentSaveRequest) error {
	switch item.ContentType {
	case model.ContentTypeAIAgent:
		if req.AIAgent == nil {
			return nil
		}
		if req.AIAgent.AgentName == "" || req.AIAgent.SystemPrompt == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "agent_name and system_prompt are required")
		}
		var d model.AIAgent
		tx.Where("content_item_id = ?", item.ID).First(&d)
		d.ContentItemID = item.ID
		d.AgentName = req.AIAgent.AgentName
		d.SystemPrompt = req.AIAgent.SystemPrompt
		d.ShortDescription = req.AIAgent.ShortDescription
		if req.AIAgent.TestConversations != nil {
			d.TestConversations = datatypes.JSON(req.AIAgent.TestConversations)
		}
		return tx.Save(&d).Error

	case model.ContentTypeVideo:
		if req.Video == nil {
			return nil
		}
		if req.Video.VideoURL == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "video_url is required")
		}
		meta, err := content.ParseVideoURL(req.Video.VideoURL)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		var d model.Video
		tx.Where("content_item_id = ?", item.ID).First(&d)
		d.ContentItemID = item.ID
		d.VideoURL = req.Video.VideoURL
		d.VideoPlatform = meta.Platform
		d.VideoID = meta.VideoID
		d.DurationSeconds = req.Video.DurationSeconds
		d.Transcription = req.Video.Transcription
		d.AutoTitle = meta.AutoTitle
		d.AutoDescription = meta.AutoDescription
		return tx.Save(&d).Error

	case model.ContentTypeDocument:
		if req.Document == nil {
			return nil
		}
		words := content.WordCount(req.Document.ContentHTML)
		var d model.Document
		tx.Where("content_item_id = ?", item.ID).First(&d)
		d.ContentItemID = item.ID
		d.ContentHTML = req.Document.ContentHTML
		if req.Document.ContentJSON != nil {
			d.ContentJSON = datatypes.JSON(req.Document.ContentJSON)
		}
		d.WordCount = words
		d.ReadingTimeMinutes = content.ReadingTimeMinutes(words)
		return tx.Save(&d).Error

	case model.ContentTypeImage:
		if req.Image == nil {
			return nil
		}
		if req.Image.ImageURL == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "image_url is required")
		}
		var d model.Image
		tx.Where("content_item_id = ?", item.ID).First(&d)
		d.ContentItemID = item.ID
		d.ImageURL = req.Image.ImageURL
		d.FileSize = req.Image.FileSize
		d.MimeType = req.Image.MimeType
		d.AltText = req.Image.AltText
		d.Width = req.Image.Width
		d.Height = req.Image.Height
		return tx.Save(&d).Error

	case model.ContentTypePDF:
		if req.PDF == nil {
			return nil
		}
		if req.PDF.PDFURL == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "pdf_url is required")
		}
		var d model.PDF
		tx.Where("content_item_id = ?", item.ID).First(&d)
		d.ContentItemID = item.ID
		d.PDFURL = req.PDF.PDFURL
		d.FileSize = req.PDF.FileSize
		d.PageCount = req.PDF.PageCount
		d.ThumbnailURL = req.PDF.ThumbnailURL
		return tx.Save(&d).Error

	case model.ContentTypePrompt:
		if req.Prompt == nil {
			return nil
		}
		if req.Prompt.PromptText == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "prompt_text is required")
		}
		variables, err := json.Marshal(content.ExtractVariables(req.Prompt.PromptText))
		if err != nil {
			return err
		}
		var d model.Prompt
		tx.Where("content_item_id = ?", item.ID).First(&d)
		d.ContentItemID = item.ID
		d.PromptText = req.Prompt.PromptText
		if req.Prompt.PromptCategory != "" {
			d.PromptCategory = req.Prompt.PromptCategory
		}
		d.Variables = datatypes.JSON(variables)
		return tx.Save(&d).Error

	case model.ContentTypeAutomation:
		if req.Automation == nil {
			return nil
		}
		if req.Automation.AutomationURL == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "automation_url is required")
		}
		var d model.Automation
		tx.Where("content_item_id = ?", item.ID).First(&d)
		d.ContentItemID = item.ID
		d.AutomationURL = req.Automation.AutomationURL
		if req.Automation.RequiredTools != nil {
			d.RequiredTools = datatypes.JSON(req.Automation.RequiredTools)
		}
		d.ToolDescription = req.Automation.ToolDescription
		d.SetupInstructions = req.Automation.SetupInstructions
		return tx.Save(&d).Error
	}
	return nil
}

// replaceAssignments swaps each assignment set the request provided. A nil
// slice means the set was not part of the save and stays as is.
func replaceAssignments(tx *gorm.DB, itemID, adminID uint, communityIDs, userIDs, tagIDs *[]uint) error {
	if communityIDs != nil {
		if err := tx.Where("content_item_id = ?", itemID).Delete(&model.ContentCommunityAssignment{}).Error; err != nil {
			return err
		}
		for _, id := range *communityIDs {
			a := model.ContentCommunityAssignment{ContentItemID: itemID, CommunityID: id, AssignedBy: adminID}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		prometheus.RecordAssignmentReplace("community")
	}
	if userIDs != nil {
		if err := tx.Where("content_item_id = ?", itemID).Delete(&model.ContentUserAssignment{}).Error; err != nil {
			return err
		}
		for _, id := range *userIDs {
			a := model.ContentUserAssignment{ContentItemID: itemID, UserID: id, AssignedBy: adminID}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		prometheus.RecordAssignmentReplace("user")
	}
	if tagIDs != nil {
		if err := tx.Where("content_item_id = ?", itemID).Delete(&model.ContentTagAssignment{}).Error; err != nil {
			return err
		}
		for _, id := range *tagIDs {
			a := model.ContentTagAssignment{ContentItemID: itemID, TagID: id, AssignedBy: adminID}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
		}
		prometheus.RecordAssignmentReplace("tag")
	}
	return nil
}
