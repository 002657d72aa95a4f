package media

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/metrics"
)

const (
	eventReady = "ready"
	eventError = "error"

	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Handlers provides HTTP handlers for the media core
type Handlers struct {
	normalizer *Normalizer
	env        PlayerEnvironment
	reports    ReportStore
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// NewHandlers creates a new Handlers instance. reports may be nil, in which
// case failures are translated but not persisted.
func NewHandlers(normalizer *Normalizer, env PlayerEnvironment, reports ReportStore, m *metrics.Metrics, log *logger.Logger) *Handlers {
	if normalizer == nil {
		normalizer = defaultNormalizer
	}
	if m == nil {
		m = metrics.Default()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Handlers{
		normalizer: normalizer,
		env:        env,
		reports:    reports,
		metrics:    m,
		log:        log.WithComponent("media"),
	}
}

// ValidateURLRequest is the request body for URL validation
type ValidateURLRequest struct {
	URL string `json:"url"`
}

// ClassifyResponse is the response for URL classification
type ClassifyResponse struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
}

// PlatformsResponse lists the supported platforms and direct-file extensions
type PlatformsResponse struct {
	Platforms       []Platform `json:"platforms"`
	Canonicalized   []Platform `json:"canonicalized"`
	VideoExtensions []string   `json:"video_extensions"`
	AudioExtensions []string   `json:"audio_extensions"`
}

// PlayerConfigResponse carries the player options for one URL
type PlayerConfigResponse struct {
	URL          string         `json:"url"`
	Platform     Platform       `json:"platform"`
	VideoID      string         `json:"video_id,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	Config       PlaybackConfig `json:"config"`
}

// PlayerEventRequest is an event emitted by an embedded player
type PlayerEventRequest struct {
	URL     string          `json:"url"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	VideoID string          `json:"video_id,omitempty"`
}

// PlayerEventResponse clears or sets the player's error state
type PlayerEventResponse struct {
	Error *DiagnosticMessage `json:"error"`
}

// FailureStatsResponse aggregates stored failure reports
type FailureStatsResponse struct {
	Stats []PlatformFailureCount `json:"stats"`
}

// RecentFailuresResponse lists the newest stored failure reports
type RecentFailuresResponse struct {
	Reports []FailureReport `json:"reports"`
}

// ValidateURL handles POST /api/v1/media/validate
func (h *Handlers) ValidateURL(w http.ResponseWriter, r *http.Request) error {
	var req ValidateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid JSON body")
	}
	h.writeValidation(w, r, req.URL)
	return nil
}

// ValidateURLQuery handles GET /api/v1/media/validate?url=...
func (h *Handlers) ValidateURLQuery(w http.ResponseWriter, r *http.Request) error {
	h.writeValidation(w, r, r.URL.Query().Get("url"))
	return nil
}

func (h *Handlers) writeValidation(w http.ResponseWriter, r *http.Request, rawURL string) {
	result := h.validate(r, rawURL)

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusUnprocessableEntity
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), status, result)
}

// validate runs the normalizer and records the outcome
func (h *Handlers) validate(r *http.Request, rawURL string) ValidationResult {
	result := h.normalizer.ValidateAndFix(rawURL)

	outcome := "valid"
	if !result.Valid {
		outcome = "invalid"
	}
	h.metrics.Inc(metrics.FamilyURLValidations, "platform", string(result.Platform), "outcome", outcome)

	if result.Valid && result.NormalizedURL != strings.TrimSpace(rawURL) {
		h.metrics.Inc(metrics.FamilyURLRewrites, "platform", string(result.Platform))
		h.log.Debug(r.Context(), "url rewritten", map[string]interface{}{
			"platform":   result.Platform,
			"normalized": result.NormalizedURL,
		})
	}

	return result
}

// Classify handles GET /api/v1/media/classify?url=...
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request) error {
	rawURL := r.URL.Query().Get("url")
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, ClassifyResponse{
		URL:      rawURL,
		Platform: Classify(rawURL),
	})
	return nil
}

// ListPlatforms handles GET /api/v1/media/platforms
func (h *Handlers) ListPlatforms(w http.ResponseWriter, r *http.Request) error {
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, PlatformsResponse{
		Platforms:       Platforms(),
		Canonicalized:   h.normalizer.registry.Platforms(),
		VideoExtensions: VideoExtensions(),
		AudioExtensions: AudioExtensions(),
	})
	return nil
}

// PlayerConfig handles GET /api/v1/media/player-config?url=&playing=&muted=
func (h *Handlers) PlayerConfig(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	rawURL := strings.TrimSpace(query.Get("url"))
	if rawURL == "" {
		return apperrors.ValidationError(ErrURLRequired)
	}

	state := PlaybackState{
		Playing: parseFlag(query.Get("playing")),
		Muted:   parseFlag(query.Get("muted")),
	}

	platform := Classify(rawURL)
	resp := PlayerConfigResponse{
		URL:      rawURL,
		Platform: platform,
		Config:   ConfigFor(platform, rawURL, state, h.env),
	}
	if platform == PlatformYouTube {
		resp.VideoID = YouTubeVideoID(rawURL)
		resp.ThumbnailURL = ThumbnailURL(rawURL)
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, resp)
	return nil
}

// PlayerEvent handles POST /api/v1/media/player-events
func (h *Handlers) PlayerEvent(w http.ResponseWriter, r *http.Request) error {
	var req PlayerEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid JSON body")
	}

	requestID := apperrors.GetRequestID(r.Context())

	switch strings.ToLower(req.Type) {
	case eventReady:
		apperrors.WriteJSON(w, requestID, http.StatusOK, PlayerEventResponse{})
		return nil

	case eventError:
		failure := FailureFromEvent(req.URL, req.Payload)
		msg := Translate(failure)
		h.metrics.Inc(metrics.FamilyPlaybackFailures, "platform", string(failure.Platform))
		h.record(r, NewFailureReport(req.VideoID, req.URL, failure, msg))

		apperrors.WriteJSON(w, requestID, http.StatusOK, PlayerEventResponse{Error: &msg})
		return nil

	default:
		return apperrors.BadRequest("event type must be \"ready\" or \"error\"")
	}
}

// record stores a failure report. Storage problems are logged and never
// reach the player.
func (h *Handlers) record(r *http.Request, report *FailureReport) {
	fields := map[string]interface{}{
		"platform": report.Platform,
		"video_id": report.VideoID,
	}
	if report.Code != nil {
		fields["code"] = *report.Code
	}

	if h.reports == nil {
		h.log.Info(r.Context(), "player failure", fields)
		return
	}

	if err := h.reports.RecordFailure(r.Context(), report); err != nil {
		h.log.Error(r.Context(), "failed to store player failure", err, fields)
		return
	}
	h.log.Info(r.Context(), "player failure recorded", fields)
}

// FailureStats handles GET /api/v1/media/player-errors/stats
func (h *Handlers) FailureStats(w http.ResponseWriter, r *http.Request) error {
	stats := []PlatformFailureCount{}
	if h.reports != nil {
		found, err := h.reports.FailureStats(r.Context())
		if err != nil {
			return apperrors.DatabaseError("failed to load failure stats").WithCause(err)
		}
		if found != nil {
			stats = found
		}
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, FailureStatsResponse{Stats: stats})
	return nil
}

// RecentFailures handles GET /api/v1/media/player-errors?limit=
func (h *Handlers) RecentFailures(w http.ResponseWriter, r *http.Request) error {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.ValidationError("limit must be a positive integer")
		}
		limit = min(parsed, maxRecentLimit)
	}

	reports := []FailureReport{}
	if h.reports != nil {
		found, err := h.reports.RecentFailures(r.Context(), limit)
		if err != nil {
			return apperrors.DatabaseError("failed to load failure reports").WithCause(err)
		}
		if found != nil {
			reports = found
		}
	}

	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), http.StatusOK, RecentFailuresResponse{Reports: reports})
	return nil
}

func parseFlag(s string) bool {
	v, err := strconv.ParseBool(s)
	return err == nil && v
}
