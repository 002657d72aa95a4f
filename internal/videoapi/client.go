package videoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/metrics"
)

const (
	userAgent       = "VideoHub/1.0.0"
	maxResponseSize = 8 << 20
)

// ErrNotFound matches errors for resources the API does not know
var ErrNotFound = errors.New("not found")

// StatusError is a non-2xx response from the video API
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("video api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("video api returned status %d: %s", e.StatusCode, e.Detail)
}

// Is reports 404 responses as ErrNotFound
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client provides access to the video API
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      *apperrors.RetryConfig
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a new video API client
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Client {
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:   apperrors.UpstreamRetryConfig(),
		log:     log.WithComponent("videoapi"),
		metrics: m,
	}
}

// SetRetryConfig replaces the retry policy used for reads
func (c *Client) SetRetryConfig(cfg *apperrors.RetryConfig) {
	c.retry = cfg
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateVideo creates a video entry. The API's response shape is not
// guaranteed to echo the video, so the result may be nil.
func (c *Client) CreateVideo(ctx context.Context, req CreateVideoRequest) (*Video, error) {
	body, err := c.do(ctx, "create_video", http.MethodPost, "/videos", nil, req)
	if err != nil {
		return nil, err
	}
	video, _ := decodeVideo(body)
	return video, nil
}

// ListVideos returns the videos owned by userID
func (c *Client) ListVideos(ctx context.Context, userID string) ([]Video, error) {
	query := url.Values{"user_id": {userID}}
	body, err := c.get(ctx, "list_videos", "/videos", query)
	if err != nil {
		return nil, err
	}

	var resp listVideosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.UpstreamError("malformed video list").WithCause(err)
	}
	if resp.Videos == nil {
		resp.Videos = []Video{}
	}
	return resp.Videos, nil
}

// GetVideo returns one video. The API answers either {"video": {...}} or
// the bare object.
func (c *Client) GetVideo(ctx context.Context, videoID, userID string) (*Video, error) {
	query := url.Values{"video_id": {videoID}, "user_id": {userID}}
	body, err := c.get(ctx, "get_video", "/videos/single", query)
	if err != nil {
		return nil, err
	}

	video, ok := decodeVideo(body)
	if !ok {
		return nil, apperrors.UpstreamError("malformed video").WithCause(fmt.Errorf("unexpected body: %.200s", body))
	}
	return video, nil
}

// EditVideo updates a video entry
func (c *Client) EditVideo(ctx context.Context, req EditVideoRequest) error {
	_, err := c.do(ctx, "edit_video", http.MethodPut, "/videos", nil, req)
	return err
}

// CreateComment posts a comment. When the API does not echo the comment,
// the returned one is built from the request.
func (c *Client) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	body, err := c.do(ctx, "create_comment", http.MethodPost, "/videos/comments", nil, req)
	if err != nil {
		return nil, err
	}

	if comment, ok := decodeComment(body); ok {
		return comment, nil
	}
	return &Comment{
		VideoID:   req.VideoID,
		UserID:    req.UserID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ListComments returns the comments on a video
func (c *Client) ListComments(ctx context.Context, videoID string) ([]Comment, error) {
	query := url.Values{"video_id": {videoID}}
	body, err := c.get(ctx, "list_comments", "/videos/comments", query)
	if err != nil {
		return nil, err
	}

	var resp listCommentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.UpstreamError("malformed comment list").WithCause(err)
	}
	if resp.Comments == nil {
		resp.Comments = []Comment{}
	}
	return resp.Comments, nil
}

// Ping checks that the API answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?user_id=", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// get performs an idempotent read with retries
func (c *Client) get(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	policy := *c.retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Warn(ctx, "retrying api request", map[string]interface{}{
			"path":    path,
			"attempt": attempt,
			"wait_ms": wait.Milliseconds(),
			"error":   err.Error(),
		})
	}
	policy.ShouldRetry = retryableRead
	return apperrors.RetryWithResult(ctx, &policy, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, operation, http.MethodGet, path, query, nil)
	})
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := apperrors.GetRequestID(ctx); requestID != "" {
		req.Header.Set(apperrors.RequestIDHeader, requestID)
	}

	c.log.Debug(ctx, "api request", map[string]interface{}{
		"method": method,
		"path":   path,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Inc(metrics.FamilyUpstreamRequests, "operation", operation, "outcome", "transport_error")
		c.log.Warn(ctx, "api request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, apperrors.UpstreamError("failed to read video api response").WithCause(err)
	}

	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.Inc(metrics.FamilyUpstreamRequests, "operation", operation, "outcome", fmt.Sprintf("%dxx", resp.StatusCode/100))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
		fields["detail"] = statusErr.Detail
		c.log.Warn(ctx, "api response error", fields)
		return nil, classifyStatus(statusErr)
	}

	c.metrics.Inc(metrics.FamilyUpstreamRequests, "operation", operation, "outcome", "ok")
	c.log.Debug(ctx, "api response", fields)
	return body, nil
}

// classifyStatus wraps a status error in the application error matching how
// callers should treat it. The StatusError stays reachable via errors.As.
func classifyStatus(e *StatusError) error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return apperrors.VideoNotFound().WithCause(e)
	case e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity:
		msg := e.Detail
		if msg == "" {
			msg = "the video service rejected the request"
		}
		return apperrors.ValidationError(msg).WithCause(e)
	case apperrors.HTTPRetryableStatus(e.StatusCode):
		return apperrors.UpstreamError("video service unavailable").WithCause(e)
	default:
		return apperrors.New(apperrors.CodeUpstreamError, "video service request failed", apperrors.CategoryExternal, http.StatusBadGateway).WithCause(e)
	}
}

// retryableRead retries a read only when the API answered with a transient
// status; other refusals are final even though they surface as upstream
// errors.
func retryableRead(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return apperrors.HTTPRetryableStatus(statusErr.StatusCode)
	}
	return apperrors.Retryable(err)
}

func transportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.ExternalTimeout("video api").WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperrors.UpstreamError("video service unreachable").WithCause(err)
}

// parseDetail extracts the "detail" field the API puts in error bodies. It
// is either a string or a list of field errors.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var fieldErrors []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &fieldErrors); err == nil {
		msgs := make([]string, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			if len(fe.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", fe.Loc[len(fe.Loc)-1], fe.Msg))
			} else {
				msgs = append(msgs, fe.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return string(envelope.Detail)
}

func decodeVideo(body []byte) (*Video, bool) {
	var wrapped struct {
		Video *Video `json:"video"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Video != nil && wrapped.Video.ID != "" {
		return wrapped.Video, true
	}

	var bare Video
	if err := json.Unmarshal(body, &bare); err == nil && bare.ID != "" {
		return &bare, true
	}
	return nil, false
}

func decodeComment(body []byte) (*Comment, bool) {
	var wrapped struct {
		Comment *Comment `json:"comment"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Comment != nil && wrapped.Comment.Content != "" {
		return wrapped.Comment, true
	}

	var bare Comment
	if err := json.Unmarshal(body, &bare); err == nil && bare.Content != "" {
		return &bare, true
	}
	return nil, false
}
