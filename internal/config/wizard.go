package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to topicreader! Let's configure the reader.")
	fmt.Println()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for summaries and chat",
		Items: []string{"google", "openai", "anthropic", "openrouter", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	// 2. Quality tier.
	qualityPrompt := promptui.Select{
		Label: "Select quality tier",
		Items: []string{
			"lite   : fastest and cheapest",
			"normal : balanced",
			"max    : highest quality",
		},
		CursorPos: 1,
	}
	qualityIdx, _, err := qualityPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("quality selection: %w", err)
	}
	tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
	quality := tiers[qualityIdx]

	defaults := DefaultConfig()

	// 3. Listen port.
	portPrompt := promptui.Prompt{
		Label:   "Port for topicreader serve",
		Default: strconv.Itoa(defaults.ListenPort),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("listen port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Directory for credentials and the summary cache",
		Default: defaults.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. Remote AI service.
	remotePrompt := promptui.Prompt{
		Label:   "Remote AI service URL (leave blank to call the provider directly)",
		Default: "",
	}
	remote, err := remotePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("ai service url: %w", err)
	}

	cfg := defaults
	cfg.Provider = provider
	cfg.Quality = quality
	cfg.Model = PresetModel(provider, quality)
	cfg.ListenPort = port
	cfg.DataDir = dataDir
	cfg.AIServiceURL = remote

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: set %s in your environment or .env, or save a key from the reader page.\n", envVar)
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
