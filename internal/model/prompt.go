package model

import (
	"time"

	"gorm.io/datatypes"
)

// Prompt holds the type-specific fields of a 'prompt' content item.
// Variables are extracted from PromptText at save time.
type Prompt struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	ContentItemID  uint           `json:"content_item_id" gorm:"uniqueIndex;not null"`
	PromptText     string         `json:"prompt_text" gorm:"type:text;not null"`
	PromptCategory string         `json:"prompt_category" gorm:"type:varchar(100);default:'General'"`
	Variables      datatypes.JSON `json:"variables" gorm:"type:jsonb"`
	UsageCount     int            `json:"usage_count" gorm:"default:0"`
	LastCopiedAt   *time.Time     `json:"last_copied_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
