package model

import (
	"time"

	"gorm.io/gorm"
)

// UserTag represents a label scoped to one community, used to group users
type UserTag struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CommunityID uint           `json:"community_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(100);not null"`
	Color       string         `json:"color" gorm:"type:varchar(20);default:'#6B7280'"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Community Community `json:"community,omitempty" gorm:"foreignKey:CommunityID"`
}
