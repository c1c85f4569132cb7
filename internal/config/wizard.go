package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .anaphor.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to anaphor! Let's configure reference resolution.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Topical scorer selection.
	scorerPrompt := promptui.Select{
		Label: "Select topical scorer",
		Items: []string{
			"lexical   - keyword overlap, no model required",
			"embedding - vector similarity, needs openai or ollama",
		},
	}
	scorerIdx, _, err := scorerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("scorer selection: %w", err)
	}
	scorers := []ScorerKind{ScorerLexical, ScorerEmbedding}
	cfg.Resolver.TopicalScorer = scorers[scorerIdx]

	// 2. Embedding backend, only when the scorer needs one.
	if cfg.Resolver.TopicalScorer == ScorerEmbedding {
		providerPrompt := promptui.Select{
			Label: "Select embedding provider",
			Items: []string{"openai", "ollama"},
		}
		_, provider, err := providerPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("provider selection: %w", err)
		}
		cfg.Embeddings.Provider = provider

		defaultModel := "text-embedding-3-small"
		if provider == "ollama" {
			defaultModel = "nomic-embed-text"
		}
		modelPrompt := promptui.Prompt{
			Label:   "Embedding model",
			Default: defaultModel,
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		cfg.Embeddings.Model = model

		if provider == "ollama" {
			urlPrompt := promptui.Prompt{
				Label:   "Ollama URL",
				Default: "http://localhost:11434",
			}
			url, err := urlPrompt.Run()
			if err != nil {
				return nil, fmt.Errorf("ollama url: %w", err)
			}
			cfg.Embeddings.OllamaURL = url
		}
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for session storage",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	// 4. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// Check for API key.
	envVar := APIKeyEnvVar(cfg.Embeddings.Provider)
	if cfg.Resolver.TopicalScorer == ScorerEmbedding && envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running anaphor serve.\n", envVar)
		}
	}

	// Save to .anaphor.yml.
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}
