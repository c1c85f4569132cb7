package config

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() *Config {
	return &Config{
		DataDir: ".anaphor",
		Resolver: ResolverConfig{
			ClarificationThreshold: 0.7,
			ClosenessBand:          0.1,
			HighConfidence:         0.9,
			TemporalDecay:          0.5,
			MinTopicalTokens:       3,
			DisplayField:           "name",
			TopicalScorer:          ScorerLexical,
		},
		Session: SessionConfig{
			StateTTL:      "5m",
			HistoryWindow: 20,
			IdlePurge:     "24h",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Embeddings: EmbeddingsConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
	}
}
