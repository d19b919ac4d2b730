package tokens

import (
	"errors"
	"fmt"
)

// Sentinel errors for estimation.
var (
	// ErrUnknownProvider is returned when no profile exists for a provider.
	ErrUnknownProvider = errors.New("tokens: unknown provider")
)

// Message is the minimal view of a chat message the estimator needs.
type Message struct {
	Role    string
	Content string
}

// Estimate is the result of a size/cost estimation.
type Estimate struct {
	// Tokens is the approximate token count across all messages.
	Tokens int

	// Cost is the estimated cost in USD, zero when the model has no price.
	Cost float64

	// ContextWindow is the model's context window, zero when unknown.
	ContextWindow int

	// OverLimit reports whether the estimate exceeds the context window.
	OverLimit bool
}

// Profile holds a provider's empirically calibrated estimation parameters.
type Profile struct {
	// CharsPerToken is the provider's average characters-per-token ratio.
	// Default: 4.0
	CharsPerToken float64

	// MessageOverhead is the per-message token overhead for role markers
	// and separators.
	// Default: 4
	MessageOverhead int

	// ContextWindows maps model id to its context window in tokens.
	ContextWindows map[string]int

	// PricePer1K maps model id to USD per 1,000 tokens.
	PricePer1K map[string]float64
}

// Estimator estimates request size and cost per provider. It is stateless
// and side-effect-free; its output feeds token-budget rate limiting and
// cost reporting but enforces nothing itself.
type Estimator struct {
	profiles map[string]Profile
}

// NewEstimator creates an estimator with the built-in default profiles.
// Profiles in overrides replace or extend the defaults per provider.
func NewEstimator(overrides map[string]Profile) *Estimator {
	profiles := make(map[string]Profile, len(defaultProfiles)+len(overrides))
	for name, p := range defaultProfiles {
		profiles[name] = p
	}
	for name, p := range overrides {
		profiles[name] = withProfileDefaults(p)
	}
	return &Estimator{profiles: profiles}
}

func withProfileDefaults(p Profile) Profile {
	if p.CharsPerToken <= 0 {
		p.CharsPerToken = 4.0
	}
	if p.MessageOverhead <= 0 {
		p.MessageOverhead = 4
	}
	return p
}

// Estimate approximates the token count and cost for messages sent to the
// given provider and model.
func (e *Estimator) Estimate(provider, model string, messages []Message) (Estimate, error) {
	profile, ok := e.profiles[provider]
	if !ok {
		return Estimate{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	chars := 0
	for _, m := range messages {
		chars += len(m.Content) + len(m.Role)
	}

	count := int(float64(chars)/profile.CharsPerToken) + len(messages)*profile.MessageOverhead

	est := Estimate{Tokens: count}

	if price, ok := profile.PricePer1K[model]; ok {
		est.Cost = float64(count) / 1000 * price
	}
	if window, ok := profile.ContextWindows[model]; ok {
		est.ContextWindow = window
		est.OverLimit = count > window
	}

	return est, nil
}

// Providers returns the provider names the estimator knows about.
func (e *Estimator) Providers() []string {
	names := make([]string, 0, len(e.profiles))
	for name := range e.profiles {
		names = append(names, name)
	}
	return names
}
