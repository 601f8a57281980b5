package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/config"
	"github.com/ziadkadry99/topicreader/internal/db"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `topicreader init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openDatabase opens the credentials and summary cache database under the
// configured data directory.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	dbPath := filepath.Join(cfg.DataDir, "topicreader.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// newLLMService creates the in-process AI service for cfg. Summaries are
// cached in database when it is non-nil.
func newLLMService(cfg *config.Config, database *db.DB) *ai.LLMService {
	var cache *ai.Cache
	if database != nil {
		cache = ai.NewCache(database)
	}
	return ai.NewLLMService(ai.Config{
		Provider: string(cfg.Provider),
		Model:    cfg.Model,
		RPM:      cfg.RateLimitRPM,
		Cache:    cache,
		YouTube:  ai.NewYouTube(),
	})
}

// newAIService returns a client for the remote AI service when one is
// configured, and the in-process service otherwise.
func newAIService(cfg *config.Config, database *db.DB) ai.Service {
	if cfg.AIServiceURL != "" {
		return ai.NewClient(cfg.AIServiceURL)
	}
	return newLLMService(cfg, database)
}
