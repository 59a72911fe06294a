package model

import (
	"time"

	"gorm.io/gorm"
)

// Folder repository types
const (
	RepositoryTypeWods   = "wods"
	RepositoryTypeBlocks = "blocks"
)

// Folder represents a node in the self-referential folder tree used to organize
// training content. There is one tree per repository type.
type Folder struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	Name           string         `json:"name" gorm:"type:varchar(100);not null"`
	ParentFolderID *uint          `json:"parent_folder_id,omitempty" gorm:"index"`
	RepositoryType string         `json:"repository_type" gorm:"type:varchar(20);index;not null"` // 'wods' or 'blocks'
	Color          string         `json:"color" gorm:"type:varchar(20);default:'#6B7280'"`
	Path           string         `json:"path" gorm:"type:text"`
	Depth          int            `json:"depth" gorm:"default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
