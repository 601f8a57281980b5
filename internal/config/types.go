package config

// QualityTier trades model speed and cost against summary quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle     ProviderType = "google"
	ProviderOpenAI     ProviderType = "openai"
	ProviderAnthropic  ProviderType = "anthropic"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOllama     ProviderType = "ollama"
)

// Config is the top-level topicreader configuration, corresponding to
// .topicreader.yml.
type Config struct {
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	Quality  QualityTier  `yaml:"quality" koanf:"quality"`

	// AIServiceURL points at a remote reader service exposing /status,
	// /summarize and /chat. Empty means AI runs in-process.
	AIServiceURL string `yaml:"ai_service_url" koanf:"ai_service_url"`
	AITimeout    string `yaml:"ai_timeout" koanf:"ai_timeout"`

	ListenPort      int    `yaml:"listen_port" koanf:"listen_port"`
	DataDir         string `yaml:"data_dir" koanf:"data_dir"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	SessionTTL      string `yaml:"session_ttl" koanf:"session_ttl"`

	MaxConcurrency int     `yaml:"max_concurrency" koanf:"max_concurrency"`
	RateLimitRPM   int     `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	MaxCostUSD     float64 `yaml:"max_cost_usd" koanf:"max_cost_usd"`
}
