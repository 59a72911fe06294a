package model

import "time"

// Image holds the type-specific fields of an 'image' content item
type Image struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContentItemID uint      `json:"content_item_id" gorm:"uniqueIndex;not null"`
	ImageURL      string    `json:"image_url" gorm:"type:text;not null"`
	FileSize      int64     `json:"file_size"`
	MimeType      string    `json:"mime_type" gorm:"type:varchar(100)"`
	AltText       string    `json:"alt_text" gorm:"type:varchar(255)"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
