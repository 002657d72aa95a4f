package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusDisabled  Status = "disabled"
)

// severity orders statuses for rolling components up into one
var severity = map[Status]int{
	StatusDisabled:  0,
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

type ComponentHealth struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

type HealthResponse struct {
	Status     Status                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// PingFunc reports whether a dependency is reachable
type PingFunc func(ctx context.Context) error

type CheckerConfig struct {
	DB           *sql.DB
	RedisCheck   PingFunc
	StorageCheck PingFunc
	Upstream     PingFunc
	Version      string
	Timeout      time.Duration
}

// dependency is one entry in a readiness check. Optional dependencies
// degrade the service when they fail and report disabled when absent;
// required ones make it unhealthy either way.
type dependency struct {
	name     string
	label    string
	check    PingFunc
	required bool
}

// Checker runs liveness and readiness checks. The video API is required;
// the database, Redis and object storage are optional.
type Checker struct {
	deps    []dependency
	version string
	timeout time.Duration
}

func NewChecker(cfg *CheckerConfig) *Checker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var dbCheck PingFunc
	if cfg.DB != nil {
		dbCheck = sqlPing(cfg.DB)
	}

	return &Checker{
		deps: []dependency{
			{name: "database", label: "database", check: dbCheck},
			{name: "redis", label: "redis", check: cfg.RedisCheck},
			{name: "storage", label: "storage", check: cfg.StorageCheck},
			{name: "video_api", label: "video api", check: cfg.Upstream, required: true},
		},
		version: cfg.Version,
		timeout: timeout,
	}
}

// sqlPing pings the pool and runs a trivial query, since a ping alone can
// succeed on a connection the server is about to drop.
func sqlPing(db *sql.DB) PingFunc {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		var one int
		return db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	}
}

func (c *Checker) run(ctx context.Context, p dependency) ComponentHealth {
	if p.check == nil {
		if p.required {
			return ComponentHealth{Status: StatusUnhealthy, Message: p.label + " not configured"}
		}
		return ComponentHealth{Status: StatusDisabled, Message: p.label + " not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := p.check(ctx)
	result := ComponentHealth{Status: StatusHealthy, Duration: time.Since(start).String()}
	if err != nil {
		result.Status = StatusDegraded
		if p.required {
			result.Status = StatusUnhealthy
		}
		result.Message = p.label + " check failed"
	}
	return result
}

// CheckUpstream checks that the video API answers
func (c *Checker) CheckUpstream(ctx context.Context) ComponentHealth {
	for _, p := range c.deps {
		if p.name == "video_api" {
			return c.run(ctx, p)
		}
	}
	return ComponentHealth{Status: StatusUnhealthy}
}

// Check is the liveness answer: the process is up
func (c *Checker) Check(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   c.version,
	}
}

// DeepCheck checks every dependency concurrently and reports the worst
// component status.
func (c *Checker) DeepCheck(ctx context.Context) *HealthResponse {
	results := make([]ComponentHealth, len(c.deps))

	var wg sync.WaitGroup
	for i, p := range c.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.run(ctx, p)
		}()
	}
	wg.Wait()

	response := c.Check(ctx)
	response.Components = make(map[string]ComponentHealth, len(c.deps))
	for i, p := range c.deps {
		response.Components[p.name] = results[i]
		if severity[results[i].Status] > severity[response.Status] {
			response.Status = results[i].Status
		}
	}
	return response
}

type Handler struct {
	checker *Checker
}

func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, h.checker.Check(r.Context()))
}

// ReadinessHandler answers 503 only when a required dependency is down. A
// degraded service still accepts traffic.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, h.checker.DeepCheck(r.Context()))
}

// HealthHandler serves /health; ?deep=true runs the readiness checks
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") == "true" {
		h.ReadinessHandler(w, r)
		return
	}
	h.LivenessHandler(w, r)
}

func writeHealth(w http.ResponseWriter, response *HealthResponse) {
	status := http.StatusOK
	if response.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
