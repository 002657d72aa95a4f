package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/openvideohub/videohub/internal/media"
)

// PlaybackReportRepository stores translated player failures. It satisfies
// media.ReportStore.
type PlaybackReportRepository struct {
	db *DB
}

func NewPlaybackReportRepository(db *DB) *PlaybackReportRepository {
	return &PlaybackReportRepository{db: db}
}

var _ media.ReportStore = (*PlaybackReportRepository)(nil)

// RecordFailure inserts a report and fills in its ID and creation time
func (r *PlaybackReportRepository) RecordFailure(ctx context.Context, report *media.FailureReport) error {
	query := `
		INSERT INTO playback_reports (video_id, url, platform, code, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		report.VideoID, report.URL, string(report.Platform), nullableCode(report.Code), report.Message,
	).Scan(&report.ID, &report.CreatedAt)
}

// FailureStats counts reports per platform, most failing first
func (r *PlaybackReportRepository) FailureStats(ctx context.Context) ([]media.PlatformFailureCount, error) {
	query := `
		SELECT platform, COUNT(*), MAX(created_at)
		FROM playback_reports
		GROUP BY platform
		ORDER BY COUNT(*) DESC, platform ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []media.PlatformFailureCount
	for rows.Next() {
		var (
			s        media.PlatformFailureCount
			platform string
			lastSeen sql.NullTime
		)
		if err := rows.Scan(&platform, &s.Count, &lastSeen); err != nil {
			return nil, err
		}
		s.Platform = media.Platform(platform)
		if lastSeen.Valid {
			t := lastSeen.Time
			s.LastSeen = &t
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

// RecentFailures returns the newest reports
func (r *PlaybackReportRepository) RecentFailures(ctx context.Context, limit int) ([]media.FailureReport, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, video_id, url, platform, code, message, created_at
		FROM playback_reports
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []media.FailureReport
	for rows.Next() {
		var (
			fr        media.FailureReport
			platform  string
			code      sql.NullInt32
			createdAt time.Time
		)
		if err := rows.Scan(&fr.ID, &fr.VideoID, &fr.URL, &platform, &code, &fr.Message, &createdAt); err != nil {
			return nil, err
		}
		fr.Platform = media.Platform(platform)
		fr.Code = codeFromNull(code)
		fr.CreatedAt = createdAt
		reports = append(reports, fr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reports, nil
}

func nullableCode(code *int) sql.NullInt32 {
	if code == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*code), Valid: true}
}

func codeFromNull(code sql.NullInt32) *int {
	if !code.Valid {
		return nil
	}
	v := int(code.Int32)
	return &v
}
