package config

// ScorerKind selects the similarity scorer used for topical references.
type ScorerKind string

const (
	// ScorerLexical scores turns by keyword overlap. No model required.
	ScorerLexical ScorerKind = "lexical"
	// ScorerEmbedding scores turns by vector similarity over indexed history.
	ScorerEmbedding ScorerKind = "embedding"
)

// Config is the full configuration, read from .anaphor.yml.
type Config struct {
	DataDir    string           `yaml:"data_dir" koanf:"data_dir"`
	Resolver   ResolverConfig   `yaml:"resolver" koanf:"resolver"`
	Session    SessionConfig    `yaml:"session" koanf:"session"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" koanf:"embeddings"`
}

// ResolverConfig tunes reference detection and candidate scoring.
type ResolverConfig struct {
	ClarificationThreshold float64    `yaml:"clarification_threshold" koanf:"clarification_threshold"`
	ClosenessBand          float64    `yaml:"closeness_band" koanf:"closeness_band"`
	HighConfidence         float64    `yaml:"high_confidence" koanf:"high_confidence"`
	TemporalDecay          float64    `yaml:"temporal_decay" koanf:"temporal_decay"`
	MinTopicalTokens       int        `yaml:"min_topical_tokens" koanf:"min_topical_tokens"`
	DisplayField           string     `yaml:"display_field" koanf:"display_field"`
	TopicalScorer          ScorerKind `yaml:"topical_scorer" koanf:"topical_scorer"`
}

// SessionConfig tunes conversation storage. Durations are Go duration
// strings so the YAML stays readable.
type SessionConfig struct {
	StateTTL      string `yaml:"state_ttl" koanf:"state_ttl"`
	HistoryWindow int    `yaml:"history_window" koanf:"history_window"`
	IdlePurge     string `yaml:"idle_purge" koanf:"idle_purge"`
}

// ServerConfig holds the HTTP listener settings. With AllowAllOrigins
// unset, CORS admits localhost origins only.
type ServerConfig struct {
	Host            string `yaml:"host" koanf:"host"`
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// EmbeddingsConfig selects the embedding backend used when the topical
// scorer is "embedding".
type EmbeddingsConfig struct {
	Provider  string `yaml:"provider" koanf:"provider"`
	Model     string `yaml:"model" koanf:"model"`
	OllamaURL string `yaml:"ollama_url" koanf:"ollama_url"`
}
