package gateway

import (
	"context"
	"time"
)

const (
	EventVideoUploaded      = "video.uploaded"
	EventTranscodeStarted   = "transcode.started"
	EventTranscodeCompleted = "transcode.completed"
	EventTranscodeFailed    = "transcode.failed"
)

// VideoEvent 视频生命周期事件
type VideoEvent struct {
	Type        string    `json:"type"`
	VideoID     string    `json:"video_id"`
	State       string    `json:"state"`
	StoragePath string    `json:"storage_path,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// VideoEventPublisher notifies downstream consumers about lifecycle changes.
// Publishing is best effort; callers log failures and move on.
type VideoEventPublisher interface {
	Publish(ctx context.Context, evt VideoEvent) error
}
