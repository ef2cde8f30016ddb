package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestObserveAndExpose(t *testing.T) {
	m := NewHTTP("test")
	m.Observe(http.MethodGet, "/bookings", http.StatusOK, 42*time.Millisecond)
	m.Observe(http.MethodGet, "/bookings", http.StatusOK, 10*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	m.Handler().ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, "gearshare_http_requests_total") {
		t.Fatalf("missing requests counter in exposition:\n%s", body)
	}
	if !strings.Contains(body, `route="/bookings"`) {
		t.Fatal("missing route label")
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *HTTP
	m.Observe(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	resp := httptest.NewRecorder()
	m.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 from nil metrics got %d", resp.Code)
	}
}
