package videoapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.New()
	c := NewClient(srv.URL+"/api/", 5*time.Second, logger.New(io.Discard, logger.LevelError, ""), m)
	c.SetRetryConfig(&apperrors.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
	})
	return c, m
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_ListVideos(t *testing.T) {
	c, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/videos", r.URL.Path)
		assert.Equal(t, "ada", r.URL.Query().Get("user_id"))
		writeJSON(w, http.StatusOK, map[string]any{
			"videos": []Video{{ID: "v1", UserID: "ada", Title: "Intro", VideoURL: "https://vimeo.com/1"}},
		})
	})

	videos, err := c.ListVideos(context.Background(), "ada")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Intro", videos[0].Title)
	assert.Equal(t, uint64(1), m.Value(metrics.FamilyUpstreamRequests, "operation", "list_videos", "outcome", "ok"))
}

func TestClient_ListVideos_EmptyBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	videos, err := c.ListVideos(context.Background(), "ada")
	require.NoError(t, err)
	assert.NotNil(t, videos)
	assert.Empty(t, videos)
}

func TestClient_GetVideo_WrappedAndBare(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"wrapped", map[string]any{"video": Video{ID: "v1", Title: "Wrapped"}}},
		{"bare", Video{ID: "v1", Title: "Bare"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/videos/single", r.URL.Path)
				assert.Equal(t, "v1", r.URL.Query().Get("video_id"))
				assert.Equal(t, "ada", r.URL.Query().Get("user_id"))
				writeJSON(w, http.StatusOK, tt.body)
			})

			video, err := c.GetVideo(context.Background(), "v1", "ada")
			require.NoError(t, err)
			assert.Equal(t, "v1", video.ID)
		})
	}
}

func TestClient_GetVideo_NotFound(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Video not found"})
	})

	_, err := c.GetVideo(context.Background(), "missing", "ada")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "Video not found", statusErr.Detail)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "404 must not be retried")
}

func TestClient_RetriesServerErrorsOnReads(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"comments": []Comment{{ID: "c1", Content: "hi"}}})
	})

	comments, err := c.ListComments(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_UnexpectedClientStatusIsUpstreamAndFinal(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.ListVideos(context.Background(), "ada")
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeUpstreamError, appErr.Code)
	assert.Equal(t, apperrors.CategoryExternal, appErr.Category)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryWrites(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.EditVideo(context.Background(), EditVideoRequest{VideoID: "v1", Title: "New"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CategoryExternal, apperrors.CategoryOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_CreateVideo(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/videos", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateVideoRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://www.youtube.com/watch?v=abc", req.VideoURL)
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Video created"})
	})

	video, err := c.CreateVideo(context.Background(), CreateVideoRequest{
		UserID:      "ada",
		Title:       "Intro",
		Description: "First lecture",
		VideoURL:    "https://www.youtube.com/watch?v=abc",
	})
	require.NoError(t, err)
	assert.Nil(t, video)
}

func TestClient_CreateVideo_ValidationDetail(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{
				{"loc": []any{"body", "title"}, "msg": "field required", "type": "value_error.missing"},
			},
		})
	})

	_, err := c.CreateVideo(context.Background(), CreateVideoRequest{})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeValidationError, appErr.Code)
	assert.Equal(t, "title: field required", appErr.Message)
}

func TestClient_CreateComment_SynthesizesWhenNotEchoed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/videos/comments", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})

	comment, err := c.CreateComment(context.Background(), CreateCommentRequest{VideoID: "v1", UserID: "ada", Content: "Great talk"})
	require.NoError(t, err)
	assert.Equal(t, "v1", comment.VideoID)
	assert.Equal(t, "Great talk", comment.Content)
	assert.NotEmpty(t, comment.CreatedAt)
}

func TestClient_CreateComment_Echoed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"comment": Comment{ID: "c9", VideoID: "v1", Content: "Great talk"}})
	})

	comment, err := c.CreateComment(context.Background(), CreateCommentRequest{VideoID: "v1", UserID: "ada", Content: "Great talk"})
	require.NoError(t, err)
	assert.Equal(t, "c9", comment.ID)
}

func TestClient_PropagatesRequestID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-42", r.Header.Get(apperrors.RequestIDHeader))
		writeJSON(w, http.StatusOK, map[string]any{"videos": []Video{}})
	})

	ctx := apperrors.WithRequestID(context.Background(), "req-42")
	_, err := c.ListVideos(ctx, "ada")
	require.NoError(t, err)
}

func TestClient_Ping(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	assert.NoError(t, c.Ping(context.Background()))

	down, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Ping(context.Background()))
}

func TestParseDetail(t *testing.T) {
	assert.Equal(t, "Video not found", parseDetail([]byte(`{"detail":"Video not found"}`)))
	assert.Equal(t, "oops", parseDetail([]byte(`oops`)))
	assert.Equal(t, "video_id: field required; content: too short",
		parseDetail([]byte(`{"detail":[{"loc":["query","video_id"],"msg":"field required"},{"loc":["body","content"],"msg":"too short"}]}`)))
}
