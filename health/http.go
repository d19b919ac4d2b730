package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const probeTimeout = 5 * time.Second

// LivenessHandler answers /healthz. It only proves the process serves HTTP.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// ReadinessHandler answers /readyz from the aggregated provider checks. A
// degraded gateway still reports ready; only unhealthy flips to 503.
func ReadinessHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		overall := Overall(agg.CheckAll(ctx))

		w.Header().Set("Content-Type", "text/plain")
		if overall == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_, _ = w.Write([]byte(overall.String()))
	}
}

// StatusResponse is the JSON body served by StatusHandler.
type StatusResponse struct {
	Status    string                      `json:"status"`
	CheckedAt string                      `json:"checked_at"`
	Providers map[string]ProviderResponse `json:"providers,omitempty"`
}

// ProviderResponse is one provider's entry in StatusResponse.
type ProviderResponse struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Details   map[string]any `json:"details,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// StatusHandler answers /health with the full per-provider breakdown.
func StatusHandler(agg *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		results := agg.CheckAll(ctx)
		overall := Overall(results)

		body := StatusResponse{
			Status:    overall.String(),
			CheckedAt: time.Now().UTC().Format(time.RFC3339),
			Providers: make(map[string]ProviderResponse, len(results)),
		}
		for name, result := range results {
			body.Providers[name] = providerResponse(result)
		}

		w.Header().Set("Content-Type", "application/json")
		if overall == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}

// ProviderHandler serves the status of a single provider.
func ProviderHandler(agg *Aggregator, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		result, err := agg.Check(ctx, name)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		if result.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(providerResponse(result))
	}
}

func providerResponse(result Result) ProviderResponse {
	out := ProviderResponse{
		Status:    result.Status.String(),
		Message:   result.Message,
		ElapsedMS: result.Elapsed.Milliseconds(),
		Details:   result.Details,
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}
	return out
}

// RegisterHandlers mounts the probe endpoints on mux.
func RegisterHandlers(mux *http.ServeMux, agg *Aggregator) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(agg))
	mux.HandleFunc("/health", StatusHandler(agg))
}
