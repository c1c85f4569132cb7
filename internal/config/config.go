package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = ".anaphor.yml"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ANAPHOR_*). Nested keys use a double
// underscore: ANAPHOR_SERVER__PORT overrides server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: ANAPHOR_DATA_DIR -> data_dir, etc.
	if err := k.Load(env.Provider("ANAPHOR_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "ANAPHOR_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validScorers is the set of recognized topical scorer values.
var validScorers = map[ScorerKind]bool{
	ScorerLexical:   true,
	ScorerEmbedding: true,
}

// validEmbeddingProviders is the set of recognized embedding backends.
var validEmbeddingProviders = map[string]bool{
	"openai": true,
	"ollama": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	r := c.Resolver
	if r.ClarificationThreshold < 0 || r.ClarificationThreshold > 1 {
		return fmt.Errorf("resolver.clarification_threshold must be between 0 and 1")
	}
	if r.ClosenessBand < 0 || r.ClosenessBand > 1 {
		return fmt.Errorf("resolver.closeness_band must be between 0 and 1")
	}
	if r.HighConfidence < 0 || r.HighConfidence > 1 {
		return fmt.Errorf("resolver.high_confidence must be between 0 and 1")
	}
	if r.TemporalDecay <= 0 {
		return fmt.Errorf("resolver.temporal_decay must be positive")
	}
	if r.MinTopicalTokens < 1 {
		return fmt.Errorf("resolver.min_topical_tokens must be at least 1")
	}
	if r.DisplayField == "" {
		return fmt.Errorf("resolver.display_field is required")
	}
	if !validScorers[r.TopicalScorer] {
		return fmt.Errorf("invalid resolver.topical_scorer %q: must be one of lexical, embedding", r.TopicalScorer)
	}

	if d, err := time.ParseDuration(c.Session.StateTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid session.state_ttl %q: must be a positive duration", c.Session.StateTTL)
	}
	if d, err := time.ParseDuration(c.Session.IdlePurge); err != nil || d <= 0 {
		return fmt.Errorf("invalid session.idle_purge %q: must be a positive duration", c.Session.IdlePurge)
	}
	if c.Session.HistoryWindow < 1 {
		return fmt.Errorf("session.history_window must be at least 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if !validEmbeddingProviders[c.Embeddings.Provider] {
		return fmt.Errorf("invalid embeddings.provider %q: must be one of openai, ollama", c.Embeddings.Provider)
	}
	if c.Embeddings.Model == "" {
		return fmt.Errorf("embeddings.model is required")
	}

	return nil
}

// StateTTL returns the parsed clarification state lifetime. Validate
// rejects bad values; an unparseable string here falls back to five
// minutes rather than disabling expiry.
func (c *Config) StateTTL() time.Duration {
	d, err := time.ParseDuration(c.Session.StateTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// IdlePurge returns the parsed idle session retention period.
func (c *Config) IdlePurge() time.Duration {
	d, err := time.ParseDuration(c.Session.IdlePurge)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// DatabasePath returns the SQLite file location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "anaphor.db")
}

// VectorPath returns the vector index location under the data directory.
func (c *Config) VectorPath() string {
	return filepath.Join(c.DataDir, "vectors")
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given embedding provider.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
