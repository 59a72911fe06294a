package model

import "time"

// PlatformFeatures lists the feature flags a community can toggle
var PlatformFeatures = []string{
	"agents_marketplace",
	"courses",
	"missions",
	"forums",
	"documents",
	"prompts",
	"automations",
}

// CommunityFeature represents a feature flag scoped to one community
type CommunityFeature struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CommunityID uint      `json:"community_id" gorm:"index;not null"`
	FeatureName string    `json:"feature_name" gorm:"type:varchar(100);not null"`
	Enabled     bool      `json:"enabled" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Community Community `json:"community,omitempty" gorm:"foreignKey:CommunityID"`
}
