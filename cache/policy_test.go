package cache

import (
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	if p.Mode != ModeAggressive {
		t.Errorf("Mode = %v, want aggressive", p.Mode)
	}
	if p.DeterministicTTL != time.Hour {
		t.Errorf("DeterministicTTL = %v, want 1h", p.DeterministicTTL)
	}
	if p.VolatileTTL != 30*time.Second {
		t.Errorf("VolatileTTL = %v, want 30s", p.VolatileTTL)
	}
}

func TestPolicy_TTLFor(t *testing.T) {
	tests := []struct {
		name          string
		policy        Policy
		deterministic bool
		streaming     bool
		model         string
		want          time.Duration
	}{
		{
			name:   "disabled caches nothing",
			policy: Policy{Mode: ModeDisabled},
			want:   0,
		},
		{
			name:          "streaming never cached",
			policy:        DefaultPolicy(),
			deterministic: true,
			streaming:     true,
			want:          0,
		},
		{
			name:          "aggressive deterministic gets long TTL",
			policy:        DefaultPolicy(),
			deterministic: true,
			want:          time.Hour,
		},
		{
			name:   "aggressive volatile gets short TTL",
			policy: DefaultPolicy(),
			want:   30 * time.Second,
		},
		{
			name:          "conservative deterministic cached",
			policy:        Policy{Mode: ModeConservative, DeterministicTTL: time.Hour},
			deterministic: true,
			want:          time.Hour,
		},
		{
			name:   "conservative volatile not cached",
			policy: Policy{Mode: ModeConservative, DeterministicTTL: time.Hour},
			want:   0,
		},
		{
			name:          "selective allows listed model",
			policy:        Policy{Mode: ModeSelective, AllowModels: []string{"llama3"}, DeterministicTTL: time.Hour},
			deterministic: true,
			model:         "llama3",
			want:          time.Hour,
		},
		{
			name:          "selective rejects unlisted model",
			policy:        Policy{Mode: ModeSelective, AllowModels: []string{"llama3"}, DeterministicTTL: time.Hour},
			deterministic: true,
			model:         "gpt-4o",
			want:          0,
		},
		{
			name:          "max TTL clamps",
			policy:        Policy{Mode: ModeAggressive, DeterministicTTL: time.Hour, MaxTTL: time.Minute},
			deterministic: true,
			want:          time.Minute,
		},
		{
			name:   "zero volatile TTL falls back to default",
			policy: Policy{Mode: ModeAggressive},
			want:   30 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.TTLFor(tt.deterministic, tt.streaming, tt.model)
			if got != tt.want {
				t.Errorf("TTLFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"aggressive", ModeAggressive},
		{"conservative", ModeConservative},
		{"selective", ModeSelective},
		{"disabled", ModeDisabled},
		{"", ModeDisabled},
		{"bogus", ModeDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseMode(tt.in); got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeDisabled, "disabled"},
		{ModeConservative, "conservative"},
		{ModeSelective, "selective"},
		{ModeAggressive, "aggressive"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.mode.String(); got != tt.want {
				t.Errorf("Mode.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
