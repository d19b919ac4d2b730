package tokens

import (
	"errors"
	"strings"
	"testing"
)

func TestEstimator_UnknownProvider(t *testing.T) {
	e := NewEstimator(nil)

	_, err := e.Estimate("nope", "m", nil)
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Estimate() = %v, want ErrUnknownProvider", err)
	}
}

func TestEstimator_TokenCount(t *testing.T) {
	e := NewEstimator(map[string]Profile{
		"p": {CharsPerToken: 4.0, MessageOverhead: 4},
	})

	// 40 content chars + 4 role chars = 44 chars -> 11 tokens, +4 overhead.
	msgs := []Message{{Role: "user", Content: strings.Repeat("a", 40)}}
	est, err := e.Estimate("p", "m", msgs)
	if err != nil {
		t.Fatalf("Estimate() = %v", err)
	}
	if est.Tokens != 15 {
		t.Errorf("Tokens = %d, want 15", est.Tokens)
	}
}

func TestEstimator_MultiMessageOverhead(t *testing.T) {
	e := NewEstimator(map[string]Profile{
		"p": {CharsPerToken: 4.0, MessageOverhead: 3},
	})

	msgs := []Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
	}
	est, err := e.Estimate("p", "m", msgs)
	if err != nil {
		t.Fatalf("Estimate() = %v", err)
	}

	// Each message contributes its own formatting overhead.
	single, _ := e.Estimate("p", "m", msgs[:1])
	if est.Tokens <= single.Tokens+3 {
		t.Errorf("Tokens = %d, want > %d", est.Tokens, single.Tokens+3)
	}
}

func TestEstimator_Cost(t *testing.T) {
	e := NewEstimator(map[string]Profile{
		"p": {
			CharsPerToken:   4.0,
			MessageOverhead: 4,
			PricePer1K:      map[string]float64{"paid": 0.01},
		},
	})

	msgs := []Message{{Role: "user", Content: strings.Repeat("x", 3996)}}
	est, err := e.Estimate("p", "paid", msgs)
	if err != nil {
		t.Fatalf("Estimate() = %v", err)
	}
	// 4000 chars / 4 + 4 overhead = 1004 tokens -> $0.01004
	if est.Cost < 0.0100 || est.Cost > 0.0101 {
		t.Errorf("Cost = %v, want ~0.01004", est.Cost)
	}

	// Unpriced models report zero cost.
	free, _ := e.Estimate("p", "unpriced", msgs)
	if free.Cost != 0 {
		t.Errorf("Cost for unpriced model = %v, want 0", free.Cost)
	}
}

func TestEstimator_ContextWindow(t *testing.T) {
	e := NewEstimator(map[string]Profile{
		"p": {
			CharsPerToken:   1.0,
			MessageOverhead: 1,
			ContextWindows:  map[string]int{"tiny": 10},
		},
	})

	small, _ := e.Estimate("p", "tiny", []Message{{Role: "u", Content: "abc"}})
	if small.OverLimit {
		t.Error("OverLimit = true for small request")
	}
	if small.ContextWindow != 10 {
		t.Errorf("ContextWindow = %d, want 10", small.ContextWindow)
	}

	big, _ := e.Estimate("p", "tiny", []Message{{Role: "u", Content: strings.Repeat("x", 100)}})
	if !big.OverLimit {
		t.Error("OverLimit = false for oversized request")
	}
}

func TestEstimator_DefaultProfiles(t *testing.T) {
	e := NewEstimator(nil)

	for _, provider := range []string{"openai", "anthropic", "ollama"} {
		t.Run(provider, func(t *testing.T) {
			est, err := e.Estimate(provider, "any", []Message{{Role: "user", Content: "hello world"}})
			if err != nil {
				t.Fatalf("Estimate() = %v", err)
			}
			if est.Tokens <= 0 {
				t.Errorf("Tokens = %d, want > 0", est.Tokens)
			}
		})
	}
}

func TestEstimator_OverrideDefaults(t *testing.T) {
	e := NewEstimator(map[string]Profile{
		"openai": {CharsPerToken: 2.0},
	})

	msg := []Message{{Role: "user", Content: strings.Repeat("x", 100)}}
	custom, _ := e.Estimate("openai", "m", msg)

	base := NewEstimator(nil)
	stock, _ := base.Estimate("openai", "m", msg)

	if custom.Tokens <= stock.Tokens {
		t.Errorf("override Tokens = %d, want > default %d", custom.Tokens, stock.Tokens)
	}
}

func TestEstimator_EmptyMessages(t *testing.T) {
	e := NewEstimator(nil)

	est, err := e.Estimate("openai", "gpt-4o", nil)
	if err != nil {
		t.Fatalf("Estimate() = %v", err)
	}
	if est.Tokens != 0 {
		t.Errorf("Tokens = %d, want 0", est.Tokens)
	}
}
