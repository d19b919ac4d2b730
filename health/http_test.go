package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func probe(t *testing.T, handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLivenessHandler(t *testing.T) {
	rec := probe(t, LivenessHandler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		checker  Checker
		wantCode int
		wantBody string
	}{
		{"closed breaker", closedChecker("openai"), http.StatusOK, "healthy"},
		{"open breaker", openChecker("openai"), http.StatusServiceUnavailable, "unhealthy"},
		{
			"half-open breaker",
			NewProviderChecker("openai", func() ProviderStats {
				return ProviderStats{BreakerState: BreakerHalfOpen}
			}),
			http.StatusOK,
			"degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register("openai", tt.checker)

			rec := probe(t, ReadinessHandler(agg), "/readyz")
			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestStatusHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("openai", closedChecker("openai"))
	agg.Register("anthropic", openChecker("anthropic"))

	rec := probe(t, StatusHandler(agg), "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body StatusResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Errorf("status = %q", body.Status)
	}
	if body.CheckedAt == "" {
		t.Error("checked_at empty")
	}
	if len(body.Providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(body.Providers))
	}
	if body.Providers["openai"].Status != "healthy" {
		t.Errorf("openai = %q", body.Providers["openai"].Status)
	}
	anthropic := body.Providers["anthropic"]
	if anthropic.Status != "unhealthy" {
		t.Errorf("anthropic = %q", anthropic.Status)
	}
	if anthropic.Details["breaker_state"] != BreakerOpen {
		t.Errorf("breaker_state = %v", anthropic.Details["breaker_state"])
	}
	if anthropic.Error == "" {
		t.Error("expected error detail for the open breaker")
	}
}

func TestProviderHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register("openai", openChecker("openai"))

	rec := probe(t, ProviderHandler(agg, "openai"), "/health/openai")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d", rec.Code)
	}
	var body ProviderResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Errorf("status = %q", body.Status)
	}

	rec = probe(t, ProviderHandler(agg, "mistral"), "/health/mistral")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown provider code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown provider") {
		t.Errorf("unknown provider body = %q", rec.Body.String())
	}
}

func TestRegisterHandlers(t *testing.T) {
	agg := NewAggregator()
	agg.Register("openai", closedChecker("openai"))

	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)

	for _, path := range []string{"/healthz", "/readyz", "/health"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s code = %d", path, rec.Code)
		}
	}
}
