package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler()(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return w.Body.String()
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := New()

	m.RecordRequest("GET", "/api/v1/media/platforms", 200, 100*time.Millisecond)
	m.RecordRequest("GET", "/api/v1/media/platforms", 200, 150*time.Millisecond)
	m.RecordRequest("GET", "/api/v1/media/platforms", 500, 50*time.Millisecond)

	body := scrape(t, m)

	if !strings.Contains(body, `vh_http_requests_total{endpoint="/api/v1/media/platforms",method="GET"} 3`) {
		t.Errorf("expected request count of 3, got:\n%s", body)
	}
	if !strings.Contains(body, "vh_http_request_duration_seconds") {
		t.Error("expected vh_http_request_duration_seconds metric")
	}
	if !strings.Contains(body, `status_class="5xx"} 1`) {
		t.Errorf("expected one 5xx error, got:\n%s", body)
	}
}

func TestMetrics_WSConnections(t *testing.T) {
	m := New()

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	body := scrape(t, m)
	if !strings.Contains(body, "vh_websocket_connections_active 1") {
		t.Errorf("expected vh_websocket_connections_active 1, got:\n%s", body)
	}
}

func TestMetrics_LabelledCounters(t *testing.T) {
	m := New()

	m.Inc(FamilyURLValidations, "platform", "youtube", "outcome", "valid")
	m.Inc(FamilyURLValidations, "platform", "youtube", "outcome", "valid")
	m.Inc(FamilyURLValidations, "platform", "unknown", "outcome", "invalid")
	m.Add(FamilyUploads, 3, "outcome", "stored")

	if got := m.Value(FamilyURLValidations, "platform", "youtube", "outcome", "valid"); got != 2 {
		t.Errorf("youtube valid = %d, want 2", got)
	}
	if got := m.Value(FamilyUploads, "outcome", "stored"); got != 3 {
		t.Errorf("uploads stored = %d, want 3", got)
	}
	if got := m.Value(FamilyPlaybackFailures, "platform", "vimeo"); got != 0 {
		t.Errorf("absent series = %d, want 0", got)
	}

	body := scrape(t, m)
	if !strings.Contains(body, `vh_url_validations_total{platform="youtube",outcome="valid"} 2`) {
		t.Errorf("missing validation series in:\n%s", body)
	}
	if !strings.Contains(body, "# HELP vh_url_validations_total") {
		t.Error("expected help text for validation family")
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"/api/v1/videos/abc123":                               "/api/v1/videos/{id}",
		"/api/v1/videos/42/comments":                          "/api/v1/videos/{id}/comments",
		"/api/v1/videos/550e8400-e29b-41d4-a716-446655440000": "/api/v1/videos/{id}",
		"/api/v1/media/platforms":                             "/api/v1/media/platforms",
		"/api/v1/videos":                                      "/api/v1/videos",
	}
	for in, want := range tests {
		if got := normalizeEndpoint(in); got != want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := New()
	h := MetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/videos/xyz", nil))

	body := scrape(t, m)
	if !strings.Contains(body, `vh_http_errors_total{endpoint="/api/v1/videos/{id}",method="GET",status_class="4xx"} 1`) {
		t.Errorf("expected 4xx error count, got:\n%s", body)
	}
}
