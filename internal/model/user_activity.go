package model

import (
	"time"

	"gorm.io/datatypes"
)

// UserActivity records one activity event for the analytics dashboard
type UserActivity struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	UserID        *uint          `json:"user_id,omitempty" gorm:"index"` // nil for system actions
	CommunityID   uint           `json:"community_id" gorm:"index;not null"`
	ActivityType  string         `json:"activity_type" gorm:"type:varchar(100);index;not null"`
	ActivityData  datatypes.JSON `json:"activity_data" gorm:"type:jsonb"`
	ContentItemID *uint          `json:"content_item_id,omitempty" gorm:"index"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
}
