package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/health"
	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/media"
	"github.com/openvideohub/videohub/internal/metrics"
	"github.com/openvideohub/videohub/internal/videoapi"
	"github.com/openvideohub/videohub/internal/videos"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/videos":
			json.NewEncoder(w).Encode(map[string]any{
				"videos": []videoapi.Video{{ID: "v1", Title: "Intro", VideoURL: "https://youtu.be/abc123"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Video not found"})
		}
	}))
	t.Cleanup(upstream.Close)

	log := logger.New(io.Discard, logger.LevelError, "")
	m := metrics.New()
	client := videoapi.NewClient(upstream.URL+"/api", 5*time.Second, log, m)

	return NewRouter(Handlers{
		Media:   media.NewHandlers(nil, media.PlayerEnvironment{Origin: "http://localhost:3000"}, nil, m, log),
		Videos:  videos.NewHandlers(videos.NewService(client, nil, nil, "mehyar_alkhouri", log)),
		Health:  health.NewHandler(health.NewChecker(&health.CheckerConfig{Upstream: client.Ping})),
		Metrics: m,
	})
}

func serve(r http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{"liveness", http.MethodGet, "/health", "", http.StatusOK},
		{"readiness", http.MethodGet, "/ready", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"validate query", http.MethodGet, "/api/v1/media/validate?url=youtube.com/watch?v=abc123", "", http.StatusOK},
		{"validate body invalid", http.MethodPost, "/api/v1/media/validate", `{"url":"ftp://example.com/x"}`, http.StatusUnprocessableEntity},
		{"classify", http.MethodGet, "/api/v1/media/classify?url=https://vimeo.com/1", "", http.StatusOK},
		{"platforms", http.MethodGet, "/api/v1/media/platforms", "", http.StatusOK},
		{"player config", http.MethodGet, "/api/v1/media/player-config?url=https://vimeo.com/1", "", http.StatusOK},
		{"player event", http.MethodPost, "/api/v1/media/player-events", `{"url":"https://youtu.be/abc","type":"error","payload":150}`, http.StatusOK},
		{"failure stats", http.MethodGet, "/api/v1/media/player-errors/stats", "", http.StatusOK},
		{"recent failures", http.MethodGet, "/api/v1/media/player-errors", "", http.StatusOK},
		{"list videos", http.MethodGet, "/api/v1/videos", "", http.StatusOK},
		{"missing video", http.MethodGet, "/api/v1/videos/nope", "", http.StatusNotFound},
		{"uploads disabled", http.MethodPost, "/api/v1/uploads", "", http.StatusServiceUnavailable},
		{"upload links disabled", http.MethodGet, "/api/v1/uploads/abc.mp4", "", http.StatusServiceUnavailable},
		{"live disabled", http.MethodGet, "/api/v1/videos/v1/live", "", http.StatusServiceUnavailable},
		{"unknown api route", http.MethodGet, "/api/v1/nothing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, tt.method, tt.target, strings.NewReader(tt.body))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_ListVideosEnriched(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/v1/videos", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Videos []videos.VideoView `json:"videos"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Videos, 1)
	assert.Equal(t, media.PlatformYouTube, resp.Videos[0].Platform)
	assert.Equal(t, "https://img.youtube.com/vi/abc123/maxresdefault.jpg", resp.Videos[0].ThumbnailURL)
}

func TestRouter_UnknownRouteEnvelope(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, http.MethodGet, "/api/v1/nothing", nil)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apperrors.CodeNotFound, resp.Error.Code)
}
