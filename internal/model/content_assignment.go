package model

import "time"

// Assignment rows are pure join records granting a content item visibility to a
// community, a user tag or an individual user. They have no lifecycle beyond
// create/delete and are fully replaced on each save.

// ContentCommunityAssignment grants a content item to a community
type ContentCommunityAssignment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContentItemID uint      `json:"content_item_id" gorm:"index:idx_content_community,unique;not null"`
	CommunityID   uint      `json:"community_id" gorm:"index:idx_content_community,unique;not null"`
	AssignedBy    uint      `json:"assigned_by"`
	AssignedAt    time.Time `json:"assigned_at" gorm:"autoCreateTime"`
}

// ContentUserAssignment grants a content item to an individual user
type ContentUserAssignment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContentItemID uint      `json:"content_item_id" gorm:"index:idx_content_user,unique;not null"`
	UserID        uint      `json:"user_id" gorm:"index:idx_content_user,unique;not null"`
	AssignedBy    uint      `json:"assigned_by"`
	AssignedAt    time.Time `json:"assigned_at" gorm:"autoCreateTime"`
}

// ContentTagAssignment grants a content item to every user carrying a tag
type ContentTagAssignment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContentItemID uint      `json:"content_item_id" gorm:"index:idx_content_tag,unique;not null"`
	TagID         uint      `json:"tag_id" gorm:"index:idx_content_tag,unique;not null"`
	AssignedBy    uint      `json:"assigned_by"`
	AssignedAt    time.Time `json:"assigned_at" gorm:"autoCreateTime"`
}
