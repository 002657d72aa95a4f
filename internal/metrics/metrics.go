package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const namespace = "vh"

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Request metrics
	requestCount    map[string]*uint64    // endpoint:method -> count
	requestDuration map[string]*Histogram // endpoint:method -> duration histogram
	requestErrors   map[string]*uint64    // endpoint:method:status_class -> count

	// Application metrics
	activeWSConnections int64

	// Labelled domain counters, keyed by family then rendered label set
	families map[string]*family

	startTime time.Time
}

// family is a counter family sharing one name and help text
type family struct {
	help   string
	series map[string]*uint64
}

// Histogram tracks value distributions
type Histogram struct {
	mu    sync.Mutex
	count uint64
	sum   float64
	// Buckets: 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s
	buckets    []float64
	bucketVals []uint64
}

// NewHistogram creates a new histogram with default buckets
func NewHistogram() *Histogram {
	return &Histogram{
		buckets:    []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		bucketVals: make([]uint64, 11),
	}
}

// Observe records a value
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i, b := range h.buckets {
		if v <= b {
			h.bucketVals[i]++
		}
	}
}

// Domain counter families
const (
	FamilyURLValidations   = "url_validations_total"
	FamilyURLRewrites      = "url_rewrites_total"
	FamilyPlaybackFailures = "playback_failures_total"
	FamilyCacheRequests    = "cache_requests_total"
	FamilyUpstreamRequests = "upstream_requests_total"
	FamilyUploads          = "uploads_total"
	FamilyCommentEvents    = "comment_broadcasts_total"
)

var familyHelp = map[string]string{
	FamilyURLValidations:   "Video URL validations by platform and outcome",
	FamilyURLRewrites:      "Video URLs rewritten to canonical form",
	FamilyPlaybackFailures: "Player failures reported by embedded players",
	FamilyCacheRequests:    "Video list cache lookups by result",
	FamilyUpstreamRequests: "Requests to the video API by operation and outcome",
	FamilyUploads:          "Direct media uploads by outcome",
	FamilyCommentEvents:    "Comment events broadcast to live viewers",
}

// New creates a new Metrics instance
func New() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]*uint64),
		requestDuration: make(map[string]*Histogram),
		requestErrors:   make(map[string]*uint64),
		families:        make(map[string]*family),
		startTime:       time.Now(),
	}
}

// global metrics instance
var defaultMetrics = New()

// Default returns the default metrics instance
func Default() *Metrics {
	return defaultMetrics
}

// RecordRequest records a request
func (m *Metrics) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	key := fmt.Sprintf("%s:%s", normalizeEndpoint(path), method)

	m.mu.Lock()
	count := m.requestCount[key]
	if count == nil {
		count = new(uint64)
		m.requestCount[key] = count
	}
	hist := m.requestDuration[key]
	if hist == nil {
		hist = NewHistogram()
		m.requestDuration[key] = hist
	}
	var errCount *uint64
	if statusCode >= 400 {
		errorKey := fmt.Sprintf("%s:%d", key, statusCode/100*100)
		errCount = m.requestErrors[errorKey]
		if errCount == nil {
			errCount = new(uint64)
			m.requestErrors[errorKey] = errCount
		}
	}
	m.mu.Unlock()

	atomic.AddUint64(count, 1)
	hist.Observe(duration.Seconds())
	if errCount != nil {
		atomic.AddUint64(errCount, 1)
	}
}

// normalizeEndpoint normalizes an endpoint path for metrics (removes IDs)
func normalizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		// UUID pattern (simplified)
		if len(part) == 36 && strings.Count(part, "-") == 4 {
			parts[i] = "{id}"
		} else if len(part) > 0 && isNumeric(part) {
			parts[i] = "{id}"
		} else if i > 0 && parts[i-1] == "videos" && part != "" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	atomic.AddInt64(&m.activeWSConnections, 1)
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	atomic.AddInt64(&m.activeWSConnections, -1)
}

// Inc increments the series of family identified by label pairs, given as
// alternating names and values.
func (m *Metrics) Inc(name string, labels ...string) {
	m.Add(name, 1, labels...)
}

// Add adds delta to the series of family identified by label pairs
func (m *Metrics) Add(name string, delta uint64, labels ...string) {
	key := renderLabels(labels)

	m.mu.Lock()
	f := m.families[name]
	if f == nil {
		f = &family{help: familyHelp[name], series: make(map[string]*uint64)}
		m.families[name] = f
	}
	counter := f.series[key]
	if counter == nil {
		counter = new(uint64)
		f.series[key] = counter
	}
	m.mu.Unlock()

	atomic.AddUint64(counter, delta)
}

// Value returns the current value of one series, zero when absent
func (m *Metrics) Value(name string, labels ...string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f := m.families[name]
	if f == nil {
		return 0
	}
	counter := f.series[renderLabels(labels)]
	if counter == nil {
		return 0
	}
	return atomic.LoadUint64(counter)
}

func renderLabels(labels []string) string {
	if len(labels) < 2 {
		return ""
	}
	pairs := make([]string, 0, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		pairs = append(pairs, fmt.Sprintf("%s=%q", labels[i], labels[i+1]))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.Write([]byte(m.render()))
	}
}

func (m *Metrics) render() string {
	var sb strings.Builder

	uptime := time.Since(m.startTime).Seconds()
	fmt.Fprintf(&sb, "# HELP %s_uptime_seconds Time since the server started\n", namespace)
	fmt.Fprintf(&sb, "# TYPE %s_uptime_seconds gauge\n", namespace)
	fmt.Fprintf(&sb, "%s_uptime_seconds %f\n\n", namespace, uptime)

	fmt.Fprintf(&sb, "# HELP %s_websocket_connections_active Active live comment connections\n", namespace)
	fmt.Fprintf(&sb, "# TYPE %s_websocket_connections_active gauge\n", namespace)
	fmt.Fprintf(&sb, "%s_websocket_connections_active %d\n\n", namespace, atomic.LoadInt64(&m.activeWSConnections))

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.requestCount) > 0 {
		fmt.Fprintf(&sb, "# HELP %s_http_requests_total Total HTTP requests\n", namespace)
		fmt.Fprintf(&sb, "# TYPE %s_http_requests_total counter\n", namespace)
		for _, key := range sortedKeys(m.requestCount) {
			parts := strings.SplitN(key, ":", 2)
			if len(parts) == 2 {
				count := atomic.LoadUint64(m.requestCount[key])
				fmt.Fprintf(&sb, "%s_http_requests_total{endpoint=\"%s\",method=\"%s\"} %d\n", namespace, parts[0], parts[1], count)
			}
		}
		sb.WriteString("\n")
	}

	if len(m.requestDuration) > 0 {
		fmt.Fprintf(&sb, "# HELP %s_http_request_duration_seconds HTTP request latency\n", namespace)
		fmt.Fprintf(&sb, "# TYPE %s_http_request_duration_seconds histogram\n", namespace)
		for _, key := range sortedKeys(m.requestDuration) {
			parts := strings.SplitN(key, ":", 2)
			if len(parts) != 2 {
				continue
			}
			h := m.requestDuration[key]
			h.mu.Lock()
			for i, bucket := range h.buckets {
				fmt.Fprintf(&sb, "%s_http_request_duration_seconds_bucket{endpoint=\"%s\",method=\"%s\",le=\"%g\"} %d\n", namespace, parts[0], parts[1], bucket, h.bucketVals[i])
			}
			fmt.Fprintf(&sb, "%s_http_request_duration_seconds_bucket{endpoint=\"%s\",method=\"%s\",le=\"+Inf\"} %d\n", namespace, parts[0], parts[1], h.count)
			fmt.Fprintf(&sb, "%s_http_request_duration_seconds_sum{endpoint=\"%s\",method=\"%s\"} %f\n", namespace, parts[0], parts[1], h.sum)
			fmt.Fprintf(&sb, "%s_http_request_duration_seconds_count{endpoint=\"%s\",method=\"%s\"} %d\n", namespace, parts[0], parts[1], h.count)
			h.mu.Unlock()
		}
		sb.WriteString("\n")
	}

	if len(m.requestErrors) > 0 {
		fmt.Fprintf(&sb, "# HELP %s_http_errors_total Total HTTP errors by status class\n", namespace)
		fmt.Fprintf(&sb, "# TYPE %s_http_errors_total counter\n", namespace)
		for _, key := range sortedKeys(m.requestErrors) {
			// key format: endpoint:method:statusClass
			parts := strings.Split(key, ":")
			if len(parts) >= 3 {
				count := atomic.LoadUint64(m.requestErrors[key])
				fmt.Fprintf(&sb, "%s_http_errors_total{endpoint=\"%s\",method=\"%s\",status_class=\"%sxx\"} %d\n", namespace, parts[0], parts[1], parts[2][:1], count)
			}
		}
		sb.WriteString("\n")
	}

	names := make([]string, 0, len(m.families))
	for name := range m.families {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := m.families[name]
		if f.help != "" {
			fmt.Fprintf(&sb, "# HELP %s_%s %s\n", namespace, name, f.help)
		}
		fmt.Fprintf(&sb, "# TYPE %s_%s counter\n", namespace, name)
		for _, labels := range sortedKeys(f.series) {
			fmt.Fprintf(&sb, "%s_%s%s %d\n", namespace, name, labels, atomic.LoadUint64(f.series[labels]))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MetricsMiddleware creates middleware that records request metrics
func MetricsMiddleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &statusResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(wrapped, r)

			m.RecordRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
		})
	}
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the wrapper
func (w *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
