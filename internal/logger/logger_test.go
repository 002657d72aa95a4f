package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/openvideohub/videohub/internal/errors"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log entry %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "media")

	log.Info(context.Background(), "url validated", map[string]interface{}{
		"platform": "youtube",
	})

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != "info" {
		t.Errorf("expected level info, got %s", entry.Level)
	}
	if entry.Message != "url validated" {
		t.Errorf("unexpected message %q", entry.Message)
	}
	if entry.Component != "media" {
		t.Errorf("expected component media, got %q", entry.Component)
	}
	if entry.Fields["platform"] != "youtube" {
		t.Errorf("expected field platform=youtube, got %v", entry.Fields["platform"])
	}
}

func TestLogger_RequestIDPropagation(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "")

	ctx := apperrors.WithRequestID(context.Background(), "test-request-id")
	log.Info(ctx, "test message")

	entries := decodeEntries(t, &buf)
	if entries[0].RequestID != "test-request-id" {
		t.Errorf("expected request_id 'test-request-id', got %s", entries[0].RequestID)
	}
}

func TestLogger_LogLevels(t *testing.T) {
	tests := []struct {
		minLevel     Level
		logLevel     string
		shouldOutput bool
	}{
		{LevelInfo, "debug", false},
		{LevelInfo, "info", true},
		{LevelWarn, "info", false},
		{LevelWarn, "warn", true},
		{LevelError, "warn", false},
		{LevelError, "error", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_at_%s", tt.logLevel, tt.minLevel), func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, tt.minLevel, "")
			ctx := context.Background()

			switch tt.logLevel {
			case "debug":
				log.Debug(ctx, "msg")
			case "info":
				log.Info(ctx, "msg")
			case "warn":
				log.Warn(ctx, "msg")
			case "error":
				log.Error(ctx, "msg", nil)
			}

			if got := buf.Len() > 0; got != tt.shouldOutput {
				t.Errorf("output = %v, want %v", got, tt.shouldOutput)
			}
		})
	}
}

func TestLogger_ErrorDetails(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "")

	err := fmt.Errorf("fetching video: %w", apperrors.UpstreamError("video api returned 503"))
	log.Error(context.Background(), "fetch failed", err)

	entry := decodeEntries(t, &buf)[0]
	if entry.Error == nil {
		t.Fatal("expected error details")
	}
	if entry.Error.Code != apperrors.CodeUpstreamError {
		t.Errorf("expected code %s, got %q", apperrors.CodeUpstreamError, entry.Error.Code)
	}
	if entry.Error.Category != string(apperrors.CategoryExternal) {
		t.Errorf("expected category external, got %q", entry.Error.Category)
	}
	if entry.Caller == "" {
		t.Error("expected caller on error entries")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, LevelDebug, "videos")
	log := base.With(map[string]interface{}{"video_id": "v1"})

	log.Info(context.Background(), "comment added", map[string]interface{}{"author": "ada"})

	entry := decodeEntries(t, &buf)[0]
	if entry.Fields["video_id"] != "v1" {
		t.Errorf("expected inherited field video_id, got %v", entry.Fields["video_id"])
	}
	if entry.Fields["author"] != "ada" {
		t.Errorf("expected call field author, got %v", entry.Fields["author"])
	}

	buf.Reset()
	base.Info(context.Background(), "plain")
	if entry := decodeEntries(t, &buf)[0]; entry.Fields["video_id"] != nil {
		t.Error("With must not mutate the parent logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"chatty":  LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_StackTraceOnlyForServerFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantStack bool
	}{
		{"plain error", fmt.Errorf("disk full"), true},
		{"server app error", apperrors.DatabaseError("insert failed"), true},
		{"upstream app error", apperrors.UpstreamError("video api down"), false},
		{"client app error", apperrors.VideoNotFound(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(&buf, LevelDebug, "").Error(context.Background(), "failed", tt.err)

			entry := decodeEntries(t, &buf)[0]
			if got := entry.Error.StackTrace != ""; got != tt.wantStack {
				t.Errorf("stack trace present = %v, want %v", got, tt.wantStack)
			}
			if !strings.HasPrefix(entry.Caller, "logger/logger_test.go:") {
				t.Errorf("caller = %q", entry.Caller)
			}
		})
	}
}

func TestDefault_Replace(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(New(&buf, LevelInfo, "main"))
	Default().Info(context.Background(), "started")

	if entry := decodeEntries(t, &buf)[0]; entry.Component != "main" {
		t.Errorf("component = %q", entry.Component)
	}
}
