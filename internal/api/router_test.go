package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ishmeet5ingh/tracking-backend/internal/realtime"
)

func TestNewRouter_ExposesHTTPMetrics(t *testing.T) {
	e, err := NewRouter(Deps{
		Hub:         realtime.NewHub(nil, zerolog.Nop()),
		CORSOrigins: []string{"*"},
		Log:         zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"tracking_http_requests_total{", `url="/health"`, "tracking_realtime_connections"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, body)
		}
	}
}
