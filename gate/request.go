package gate

import (
	"time"

	"github.com/jonwraymond/modelgate/tokens"
)

// ProviderKey identifies a configured upstream target. All per-provider
// state (bucket, breaker, pool, cache) is keyed by it.
type ProviderKey string

// CompletionRequest is one logical chat completion call.
type CompletionRequest struct {
	// Provider selects the configured upstream.
	Provider ProviderKey

	// Model is the model id sent to the provider.
	Model string

	// Messages is the ordered conversation.
	Messages []tokens.Message

	// Temperature is the sampling temperature. Zero means deterministic.
	Temperature float64

	// TopP is the nucleus sampling parameter. Zero means provider default.
	TopP float64

	// MaxTokens caps the completion length. Zero means provider default.
	MaxTokens int

	// Stop lists stop sequences.
	Stop []string

	// Stream requests a streamed response. Streamed responses are never
	// cached.
	Stream bool

	// Deadline bounds the whole call, all stages included. Zero means the
	// caller's context alone governs cancellation.
	Deadline time.Time

	// Metadata carries caller annotations. It never influences the cache
	// fingerprint.
	Metadata map[string]string
}

// deterministic reports whether equal requests should produce equal output.
func (r *CompletionRequest) deterministic() bool {
	return !r.Stream && r.Temperature == 0 && r.TopP == 0
}

// fingerprintContent returns the semantically relevant fields used as the
// cache key. Metadata and deadline are deliberately excluded.
func (r *CompletionRequest) fingerprintContent() map[string]any {
	msgs := make([]any, len(r.Messages))
	for i, m := range r.Messages {
		msgs[i] = map[string]any{"role": m.Role, "content": m.Content}
	}

	content := map[string]any{
		"messages":    msgs,
		"temperature": r.Temperature,
	}
	if r.TopP != 0 {
		content["top_p"] = r.TopP
	}
	if r.MaxTokens != 0 {
		content["max_tokens"] = r.MaxTokens
	}
	if len(r.Stop) > 0 {
		stops := make([]any, len(r.Stop))
		for i, s := range r.Stop {
			stops[i] = s
		}
		content["stop"] = stops
	}
	return content
}

// Usage reports the estimated size and cost of a call.
type Usage struct {
	// PromptTokens is the estimated token count of the submitted messages.
	PromptTokens int

	// CompletionTokens is the token count reported by the provider, zero
	// when unknown.
	CompletionTokens int

	// EstimatedCost is the estimated spend in USD, zero when the model has
	// no configured price.
	EstimatedCost float64
}

// CompletionResult is the outcome of a successful call.
type CompletionResult struct {
	// Content is the completion text.
	Content string

	// Model is the model id the provider reports having used.
	Model string

	// Provider is the provider that served the call.
	Provider ProviderKey

	// Usage is the estimated size and cost.
	Usage Usage

	// Cached reports whether the result came from the response cache.
	Cached bool
}
