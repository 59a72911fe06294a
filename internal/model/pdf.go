package model

import "time"

// PDF holds the type-specific fields of a 'pdf' content item
type PDF struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContentItemID uint      `json:"content_item_id" gorm:"uniqueIndex;not null"`
	PDFURL        string    `json:"pdf_url" gorm:"type:text;not null"`
	FileSize      int64     `json:"file_size"`
	PageCount     int       `json:"page_count"`
	ThumbnailURL  string    `json:"thumbnail_url" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
