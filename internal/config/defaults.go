package config

import "time"

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".topicreader.yml"

// qualityPresets maps each provider and quality tier to a model.
var qualityPresets = map[ProviderType]map[QualityTier]string{
	ProviderGoogle: {
		QualityLite:   "gemini-2.5-flash-lite",
		QualityNormal: "gemini-2.5-flash",
		QualityMax:    "gemini-2.5-pro",
	},
	ProviderOpenAI: {
		QualityLite:   "gpt-4o-mini",
		QualityNormal: "gpt-4o",
		QualityMax:    "gpt-4.1",
	},
	ProviderAnthropic: {
		QualityLite:   "claude-haiku-4-5-20251001",
		QualityNormal: "claude-sonnet-4-5-20250929",
		QualityMax:    "claude-opus-4-6",
	},
	ProviderOpenRouter: {
		QualityLite:   "google/gemini-2.5-flash-lite",
		QualityNormal: "google/gemini-2.5-flash",
		QualityMax:    "google/gemini-2.5-pro",
	},
	ProviderOllama: {
		QualityLite:   "llama3",
		QualityNormal: "llama3",
		QualityMax:    "llama3:70b",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderGoogle,
		Model:          "gemini-2.5-flash",
		Quality:        QualityNormal,
		AITimeout:      "90s",
		ListenPort:     5001,
		DataDir:        ".topicreader",
		SessionTTL:     "12h",
		MaxConcurrency: 4,
		RateLimitRPM:   60,
		MaxCostUSD:     5.0,
	}
}

// PresetModel returns the model for a provider and tier, falling back to
// the normal Google model for unknown combinations.
func PresetModel(provider ProviderType, tier QualityTier) string {
	if tiers, ok := qualityPresets[provider]; ok {
		if model, ok := tiers[tier]; ok {
			return model
		}
	}
	return qualityPresets[ProviderGoogle][QualityNormal]
}

// SessionIdle returns session_ttl as a duration. Zero keeps sessions
// until the server stops.
func (c *Config) SessionIdle() time.Duration {
	d, _ := parseDuration(c.SessionTTL)
	return d
}

// RequestTimeout returns ai_timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := parseDuration(c.AITimeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
