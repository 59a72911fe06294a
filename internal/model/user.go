package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a community member. Users belong to exactly one community;
// dashboard operators are Admins, not Users.
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CommunityID uint           `json:"community_id" gorm:"index;not null"`
	Email       string         `json:"email" gorm:"type:varchar(100);index;not null"`
	FirstName   string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName    string         `json:"last_name" gorm:"type:varchar(100)"`
	LastActive  *time.Time     `json:"last_active,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Community Community `json:"community,omitempty" gorm:"foreignKey:CommunityID"`
}
