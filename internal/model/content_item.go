package model

import (
	"time"

	"gorm.io/gorm"
)

// Content types
const (
	ContentTypeAIAgent    = "ai_agent"
	ContentTypeVideo      = "video"
	ContentTypeDocument   = "document"
	ContentTypePrompt     = "prompt"
	ContentTypeAutomation = "automation"
	ContentTypeImage      = "image"
	ContentTypePDF        = "pdf"
)

// Content statuses
const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
	ContentStatusArchived  = "archived"
)

// ContentTypes lists every valid content type
var ContentTypes = []string{
	ContentTypeAIAgent,
	ContentTypeVideo,
	ContentTypeDocument,
	ContentTypePrompt,
	ContentTypeAutomation,
	ContentTypeImage,
	ContentTypePDF,
}

// IsValidContentType reports whether t is a known content type
func IsValidContentType(t string) bool {
	for _, ct := range ContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// IsValidContentStatus reports whether s is a known content status
func IsValidContentStatus(s string) bool {
	return s == ContentStatusDraft || s == ContentStatusPublished || s == ContentStatusArchived
}

// ContentItem is the generic envelope row for any piece of content. It carries
// common metadata and delegates type-specific fields to exactly one detail row
// keyed by content_item_id.
type ContentItem struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Title        string         `json:"title" gorm:"type:varchar(255);not null"`
	Description  string         `json:"description" gorm:"type:text"`
	ContentType  string         `json:"content_type" gorm:"type:varchar(30);index;not null"`
	Status       string         `json:"status" gorm:"type:varchar(20);index;not null;default:'draft'"`
	ThumbnailURL string         `json:"thumbnail_url" gorm:"type:text"`
	CreatedBy    uint           `json:"created_by" gorm:"index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}
