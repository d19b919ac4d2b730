package tokens

// defaultProfiles carries empirically calibrated ratios and public price
// points for the common provider families. Config overrides replace these
// per provider; prices here are a fallback for cost reporting, not a
// billing source.
var defaultProfiles = map[string]Profile{
	"openai": {
		CharsPerToken:   4.0,
		MessageOverhead: 4,
		ContextWindows: map[string]int{
			"gpt-4o":        128000,
			"gpt-4o-mini":   128000,
			"gpt-3.5-turbo": 16385,
		},
		PricePer1K: map[string]float64{
			"gpt-4o":        0.00625,
			"gpt-4o-mini":   0.000375,
			"gpt-3.5-turbo": 0.001,
		},
	},
	"anthropic": {
		CharsPerToken:   3.8,
		MessageOverhead: 5,
		ContextWindows: map[string]int{
			"claude-3-5-sonnet": 200000,
			"claude-3-haiku":    200000,
		},
		PricePer1K: map[string]float64{
			"claude-3-5-sonnet": 0.009,
			"claude-3-haiku":    0.0008,
		},
	},
	"ollama": {
		// Local models tokenize slightly denser than the OpenAI family and
		// cost nothing to call.
		CharsPerToken:   3.5,
		MessageOverhead: 4,
		ContextWindows: map[string]int{
			"llama3":  8192,
			"mistral": 32768,
		},
	},
}
