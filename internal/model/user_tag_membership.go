package model

import "time"

// UserTagMembership represents the association between users and tags.
// A user can carry any number of tags within their community.
type UserTagMembership struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	TagID     uint      `json:"tag_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	User User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tag  UserTag `json:"tag,omitempty" gorm:"foreignKey:TagID"`
}
