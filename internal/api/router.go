package api

import (
	"net/http"

	apperrors "github.com/openvideohub/videohub/internal/errors"
	"github.com/openvideohub/videohub/internal/health"
	"github.com/openvideohub/videohub/internal/media"
	"github.com/openvideohub/videohub/internal/metrics"
	"github.com/openvideohub/videohub/internal/middleware"
	"github.com/openvideohub/videohub/internal/uploads"
	"github.com/openvideohub/videohub/internal/videos"
	"github.com/openvideohub/videohub/internal/websocket"
)

// Handlers groups everything the router serves. Uploads and Live may be nil
// when object storage or the live feed is not configured.
type Handlers struct {
	Media   *media.Handlers
	Videos  *videos.Handlers
	Uploads *uploads.Handler
	Live    *websocket.Handler
	Health  *health.Handler
	Metrics *metrics.Metrics
}

type Router struct {
	mux *http.ServeMux
	h   Handlers
}

func NewRouter(h Handlers) *Router {
	r := &Router{
		mux: http.NewServeMux(),
		h:   h,
	}
	r.setupRoutes()
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	// Health and metrics
	r.mux.HandleFunc("GET /health", r.h.Health.HealthHandler)
	r.mux.HandleFunc("GET /ready", r.h.Health.ReadinessHandler)
	r.mux.Handle("GET /metrics", r.h.Metrics.Handler())

	// URL validation and player configuration
	m := r.h.Media
	r.mux.HandleFunc("POST /api/v1/media/validate", apperrors.HandleFunc(m.ValidateURL))
	r.mux.HandleFunc("GET /api/v1/media/validate", apperrors.HandleFunc(m.ValidateURLQuery))
	r.mux.HandleFunc("GET /api/v1/media/classify", apperrors.HandleFunc(m.Classify))
	r.mux.Handle("GET /api/v1/media/platforms", middleware.ETag(apperrors.HandleFunc(m.ListPlatforms)))
	r.mux.HandleFunc("GET /api/v1/media/player-config", apperrors.HandleFunc(m.PlayerConfig))
	r.mux.HandleFunc("POST /api/v1/media/player-events", apperrors.HandleFunc(m.PlayerEvent))
	r.mux.HandleFunc("GET /api/v1/media/player-errors", apperrors.HandleFunc(m.RecentFailures))
	r.mux.HandleFunc("GET /api/v1/media/player-errors/stats", apperrors.HandleFunc(m.FailureStats))

	// Video library
	v := r.h.Videos
	r.mux.HandleFunc("GET /api/v1/videos", apperrors.HandleFunc(v.List))
	r.mux.HandleFunc("POST /api/v1/videos", apperrors.HandleFunc(v.Create))
	r.mux.HandleFunc("GET /api/v1/videos/{id}", apperrors.HandleFunc(v.Get))
	r.mux.HandleFunc("PUT /api/v1/videos/{id}", apperrors.HandleFunc(v.Edit))
	r.mux.HandleFunc("GET /api/v1/videos/{id}/comments", apperrors.HandleFunc(v.Comments))
	r.mux.HandleFunc("POST /api/v1/videos/{id}/comments", apperrors.HandleFunc(v.AddComment))

	if r.h.Live != nil {
		r.mux.HandleFunc("GET /api/v1/videos/{id}/live", r.h.Live.ServeWS)
	} else {
		r.mux.HandleFunc("GET /api/v1/videos/{id}/live", apperrors.HandleFunc(unavailable("live comments")))
	}

	// Direct file uploads
	if r.h.Uploads != nil {
		r.mux.HandleFunc("POST /api/v1/uploads", apperrors.HandleFunc(r.h.Uploads.Upload))
		r.mux.HandleFunc("GET /api/v1/uploads/{object}", apperrors.HandleFunc(r.h.Uploads.Resolve))
	} else {
		r.mux.HandleFunc("POST /api/v1/uploads", apperrors.HandleFunc(unavailable("uploads")))
		r.mux.HandleFunc("GET /api/v1/uploads/{object}", apperrors.HandleFunc(unavailable("uploads")))
	}

	// Unmatched API paths get the JSON error envelope
	r.mux.HandleFunc("/api/", apperrors.HandleFunc(func(w http.ResponseWriter, req *http.Request) error {
		return apperrors.NotFound("route")
	}))
}

// unavailable answers for a feature whose backing service is not configured
func unavailable(feature string) apperrors.Handler {
	return func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.New(apperrors.CodeInternalError, feature+" not configured", apperrors.CategoryServer, http.StatusServiceUnavailable)
	}
}
