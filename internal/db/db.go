package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

// Options holds the PostgreSQL connection settings
type Options struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// ConnString renders the options as a lib/pq connection string
func (o Options) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		o.Host, o.Port, o.User, o.Password, o.Name,
	)
}

func New(ctx context.Context, opts Options) (*DB, error) {
	db, err := sql.Open("postgres", opts.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS playback_reports (
		id BIGSERIAL PRIMARY KEY,
		video_id VARCHAR(255) NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		platform VARCHAR(32) NOT NULL,
		code INTEGER,
		message TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_playback_reports_platform ON playback_reports(platform);
	CREATE INDEX IF NOT EXISTS idx_playback_reports_created_at ON playback_reports(created_at DESC);
	`

	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
