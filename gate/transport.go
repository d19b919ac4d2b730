package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxResponseBytes bounds how much of an upstream response is read.
const maxResponseBytes = 16 << 20 // 16 MiB

// chatMessage is one message on the wire.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-compatible chat completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// chatResponse is the subset of the response body the gateway needs.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// statusError is a non-2xx upstream response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("upstream status %d", e.status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.status, e.body)
}

// clientFault reports whether the status indicates malformed input rather
// than upstream failure. 408 and 429 are upstream conditions a retry can
// clear, so they are excluded.
func (e *statusError) clientFault() bool {
	if e.status == http.StatusRequestTimeout || e.status == http.StatusTooManyRequests {
		return false
	}
	return e.status >= 400 && e.status < 500
}

// endpointURL joins the provider base URL with the chat completions path.
func (rt *providerRuntime) endpointURL() string {
	base := strings.TrimRight(rt.baseURL.String(), "/")
	return base + "/chat/completions"
}

// dispatch performs one network call over a pooled connection and returns
// the raw response body. The returned error, if any, is already classified.
// The connection is always released; it is returned to the pool only after
// a complete HTTP exchange, since its state after a transport error or an
// abandoned deadline is unknown.
func (rt *providerRuntime) dispatch(ctx context.Context, req *CompletionRequest) ([]byte, error) {
	conn, err := rt.pool.Acquire(ctx, rt.baseURL.Host)
	if err != nil {
		return nil, newError(classify(err), StagePool, rt.key, err)
	}

	reusable := false
	defer func() { rt.pool.Release(conn, reusable) }()

	body, err := json.Marshal(buildChatRequest(req))
	if err != nil {
		reusable = true
		return nil, newError(KindClient, StageCall, rt.key, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, rt.endpointURL(), bytes.NewReader(body))
	if err != nil {
		reusable = true
		return nil, newError(KindClient, StageCall, rt.key, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if err := rt.cred.Apply(httpReq); err != nil {
		reusable = true
		return nil, newError(KindConfig, StageCall, rt.key, err)
	}

	resp, err := conn.RoundTrip(httpReq)
	if err != nil {
		return nil, newError(classify(err), StageCall, rt.key, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newError(classify(err), StageCall, rt.key, err)
	}

	// A fully drained exchange leaves the session usable for keep-alive.
	reusable = true

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &statusError{status: resp.StatusCode, body: truncate(string(payload), 256)}
		return nil, newError(classify(serr), StageCall, rt.key, serr)
	}

	return payload, nil
}

func buildChatRequest(req *CompletionRequest) chatRequest {
	msgs := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	return chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
		Stream:      req.Stream,
	}
}

// decodeChatResponse parses a cached or live response payload.
func decodeChatResponse(payload []byte) (*chatResponse, error) {
	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
