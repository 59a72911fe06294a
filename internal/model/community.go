package model

import (
	"time"

	"gorm.io/gorm"
)

// Community statuses
const (
	CommunityStatusActive   = "active"
	CommunityStatusArchived = "archived"
)

// Community represents a tenant organization whose users and content visibility are scoped together
type Community struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	ProjectName      string         `json:"project_name" gorm:"type:varchar(100)"`
	LogoURL          string         `json:"logo_url" gorm:"type:text"`
	BrandColor       string         `json:"brand_color" gorm:"type:varchar(20);default:'#3B82F6'"`
	ForumEnabled     bool           `json:"forum_enabled" gorm:"default:false"`
	APIKeyID         *uint          `json:"api_key_id,omitempty" gorm:"index"`
	Status           string         `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	IsTemplate       bool           `json:"is_template" gorm:"default:false"`
	TemplateSourceID *uint          `json:"template_source_id,omitempty" gorm:"index"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}
