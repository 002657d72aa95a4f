package media

import (
	"context"
	"time"
)

// FailureReport is a translated player failure kept for diagnostics
type FailureReport struct {
	ID        int64     `json:"id"`
	VideoID   string    `json:"video_id,omitempty"`
	URL       string    `json:"url"`
	Platform  Platform  `json:"platform"`
	Code      *int      `json:"code,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PlatformFailureCount is the number of reported failures for one platform
type PlatformFailureCount struct {
	Platform Platform   `json:"platform"`
	Count    int64      `json:"count"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// ReportStore persists player failure reports
type ReportStore interface {
	RecordFailure(ctx context.Context, report *FailureReport) error
	FailureStats(ctx context.Context) ([]PlatformFailureCount, error)
	RecentFailures(ctx context.Context, limit int) ([]FailureReport, error)
}

// NewFailureReport builds the report for a translated failure
func NewFailureReport(videoID, rawURL string, failure PlayerFailure, msg DiagnosticMessage) *FailureReport {
	return &FailureReport{
		VideoID:  videoID,
		URL:      rawURL,
		Platform: failure.Platform,
		Code:     failure.Code,
		Message:  msg.Text,
	}
}
