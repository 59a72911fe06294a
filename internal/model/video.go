package model

import "time"

// Video holds the type-specific fields of a 'video' content item.
// Platform and VideoID are derived from VideoURL at save time.
type Video struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ContentItemID   uint      `json:"content_item_id" gorm:"uniqueIndex;not null"`
	VideoURL        string    `json:"video_url" gorm:"type:text;not null"`
	VideoPlatform   string    `json:"video_platform" gorm:"type:varchar(20)"` // 'youtube', 'vimeo' or 'other'
	VideoID         string    `json:"video_id" gorm:"type:varchar(100)"`
	DurationSeconds int       `json:"duration_seconds"`
	Transcription   string    `json:"transcription" gorm:"type:text"`
	AutoTitle       string    `json:"auto_title" gorm:"type:varchar(255)"`
	AutoDescription string    `json:"auto_description" gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
