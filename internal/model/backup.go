package model

import "time"

const (
	BackupStatusPending   = "pending"
	BackupStatusUploading = "uploading"
	BackupStatusComplete  = "complete"
	BackupStatusFailed    = "failed"
)

// Backup records one encrypted database snapshot uploaded to object storage.
type Backup struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	S3Key       string     `json:"s3_key"`
	SizeBytes   int64      `json:"size_bytes"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
