package model

import (
	"time"

	"gorm.io/datatypes"
)

// AIAgent holds the type-specific fields of an 'ai_agent' content item
type AIAgent struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	ContentItemID     uint           `json:"content_item_id" gorm:"uniqueIndex;not null"`
	AgentName         string         `json:"agent_name" gorm:"type:varchar(255);not null"`
	SystemPrompt      string         `json:"system_prompt" gorm:"type:text;not null"`
	ShortDescription  string         `json:"short_description" gorm:"type:text"`
	TestConversations datatypes.JSON `json:"test_conversations" gorm:"type:jsonb"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
