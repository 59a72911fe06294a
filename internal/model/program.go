package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Program represents a multi-week training program built with the page builder.
// Programs are not organized into folders.
type Program struct {
	ID                       uint           `json:"id" gorm:"primaryKey"`
	Title                    string         `json:"title" gorm:"type:varchar(255);not null"`
	Description              string         `json:"description" gorm:"type:text"`
	Status                   string         `json:"status" gorm:"type:varchar(20);index;not null;default:'draft'"`
	ThumbnailURL             string         `json:"thumbnail_url" gorm:"type:text"`
	Tags                     datatypes.JSON `json:"tags" gorm:"type:jsonb"`
	Pages                    datatypes.JSON `json:"pages" gorm:"type:jsonb"`
	Settings                 datatypes.JSON `json:"settings" gorm:"type:jsonb"`
	Difficulty               int            `json:"difficulty" gorm:"default:1"` // 1..5
	EstimatedDurationMinutes int            `json:"estimated_duration_minutes"`
	CreatedBy                uint           `json:"created_by" gorm:"index"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
	DeletedAt                gorm.DeletedAt `json:"-" gorm:"index"`
}
