package model

import (
	"time"

	"gorm.io/datatypes"
)

// Bulk upload statuses
const (
	BulkUploadStatusProcessing = "processing"
	BulkUploadStatusCompleted  = "completed"
	BulkUploadStatusFailed     = "failed"
)

// BulkUpload records the outcome of one CSV user import
type BulkUpload struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	CommunityID    uint           `json:"community_id" gorm:"index;not null"`
	UploadType     string         `json:"upload_type" gorm:"type:varchar(50);default:'users'"`
	FileName       string         `json:"file_name" gorm:"type:varchar(255)"`
	TotalRows      int            `json:"total_rows"`
	SuccessfulRows int            `json:"successful_rows"`
	FailedRows     int            `json:"failed_rows"`
	Status         string         `json:"status" gorm:"type:varchar(20);not null;default:'processing'"`
	ErrorReport    datatypes.JSON `json:"error_report" gorm:"type:jsonb"`
	CreatedBy      uint           `json:"created_by"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
