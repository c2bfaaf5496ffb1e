package models

import "time"

// ProcessingJob は1件の処理リクエスト（同期・非同期の両方を記録する）
type ProcessingJob struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	URL          string     `json:"url"`
	VideoID      string     `json:"video_id,omitempty"`
	OutputFormat string     `json:"output_format"`
	Status       string     `json:"status"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	Message      string     `json:"message,omitempty"`
	FileID       string     `json:"file_id,omitempty"`
	RetryCount   int        `json:"retry_count"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ジョブタイプ
const (
	JobTypeProcess = "process"
)

// ジョブステータス
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)
