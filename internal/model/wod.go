package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Wod represents a workout-of-the-day built with the page builder. The ordered
// pages/blocks structure is serialized wholesale into the Pages JSON column; blocks
// have no identity of their own beyond the parent document.
type Wod struct {
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
	FolderID                 *uint          `json:"folder_id,omitempty" gorm:"index"`
	CreatedBy                uint           `json:"created_by" gorm:"index"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
	DeletedAt                gorm.DeletedAt `json:"-" gorm:"index"`
}
