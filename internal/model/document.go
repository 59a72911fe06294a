package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document holds the type-specific fields of a 'document' content item.
// WordCount and ReadingTimeMinutes are derived from ContentHTML at save time.
type Document struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	ContentItemID      uint           `json:"content_item_id" gorm:"uniqueIndex;not null"`
	ContentHTML        string         `json:"content_html" gorm:"type:text"`
	ContentJSON        datatypes.JSON `json:"content_json" gorm:"type:jsonb"`
	WordCount          int            `json:"word_count"`
	ReadingTimeMinutes int            `json:"reading_time_minutes"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
