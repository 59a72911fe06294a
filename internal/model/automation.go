package model

import (
	"time"

	"gorm.io/datatypes"
)

// Automation holds the type-specific fields of an 'automation' content item
type Automation struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	ContentItemID     uint           `json:"content_item_id" gorm:"uniqueIndex;not null"`
	AutomationURL     string         `json:"automation_url" gorm:"type:text;not null"`
	RequiredTools     datatypes.JSON `json:"required_tools" gorm:"type:jsonb"`
	ToolDescription   string         `json:"tool_description" gorm:"type:text"`
	SetupInstructions string         `json:"setup_instructions" gorm:"type:text"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
