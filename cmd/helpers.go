package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/anaphor-dev/anaphor/internal/clarify"
	"github.com/anaphor-dev/anaphor/internal/config"
	"github.com/anaphor-dev/anaphor/internal/db"
	"github.com/anaphor-dev/anaphor/internal/embeddings"
	"github.com/anaphor-dev/anaphor/internal/logging"
	"github.com/anaphor-dev/anaphor/internal/orchestrator"
	"github.com/anaphor-dev/anaphor/internal/reference"
	"github.com/anaphor-dev/anaphor/internal/selection"
	"github.com/anaphor-dev/anaphor/internal/session"
	"github.com/anaphor-dev/anaphor/internal/similarity"
	"github.com/anaphor-dev/anaphor/internal/vocab"
)

// app bundles everything a command wires up from config: the database,
// the resolution engine, and the stores it runs on.
type app struct {
	cfg      *config.Config
	db       *db.DB
	engine   *orchestrator.Engine
	recorder *session.Recorder
	turns    *session.TurnStore
	states   *session.StateStore
	detector *reference.Detector
	resolver *reference.Resolver
	tables   *vocab.Tables
	log      zerolog.Logger
}

func (a *app) Close() error {
	return a.db.Close()
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `anaphor init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// buildEmbedder creates an embeddings.Embedder from config. Only called
// when the topical scorer is embedding-based.
func buildEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.Embeddings.Provider
	if envVar := config.APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		return nil, fmt.Errorf("%s environment variable is required for %s embeddings", envVar, provider)
	}
	apiKey := os.Getenv(config.APIKeyEnvVar(provider))
	return embeddings.New(embeddings.Provider(provider), cfg.Embeddings.Model, apiKey, cfg.Embeddings.OllamaURL)
}

// buildScorer creates the topical scorer the config asks for. The second
// return value is non-nil only for scorers that maintain a persistent
// index and therefore need to see recorded turns.
func buildScorer(cfg *config.Config, tables *vocab.Tables) (reference.Scorer, session.TurnIndexer, error) {
	switch cfg.Resolver.TopicalScorer {
	case config.ScorerEmbedding:
		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return nil, nil, err
		}
		index, err := similarity.NewTurnIndex(cfg.VectorPath(), embedder)
		if err != nil {
			return nil, nil, fmt.Errorf("creating turn index: %w", err)
		}
		return index, index, nil
	default:
		return similarity.NewLexical(tables), nil, nil
	}
}

// buildApp loads config, opens the database, and wires the full engine.
// Callers own the returned app and must Close it.
func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logging.New(os.Stderr, verbose)

	database, err := db.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tables := vocab.Default()

	scorer, indexer, err := buildScorer(cfg, tables)
	if err != nil {
		database.Close()
		return nil, err
	}

	detector := reference.NewDetector(tables, cfg.Resolver.MinTopicalTokens)
	resolver := reference.NewResolver(scorer, reference.ResolverConfig{
		ClosenessBand:  cfg.Resolver.ClosenessBand,
		HighConfidence: cfg.Resolver.HighConfidence,
		TemporalDecay:  cfg.Resolver.TemporalDecay,
	}, log)

	selResolver := selection.NewResolver(tables, cfg.Resolver.DisplayField)
	clarifier := clarify.NewEngine(selResolver, cfg.Resolver.ClarificationThreshold)

	turns := session.NewTurnStore(database)
	states := session.NewStateStore(session.NewSQLiteBackend(database), cfg.StateTTL())

	engine := orchestrator.NewEngine(orchestrator.Deps{
		Detector:  detector,
		Resolver:  resolver,
		Clarifier: clarifier,
		Turns:     turns,
		States:    states,
		Window:    cfg.Session.HistoryWindow,
		Log:       log,
	})

	return &app{
		cfg:      cfg,
		db:       database,
		engine:   engine,
		recorder: session.NewRecorder(turns, indexer, log),
		turns:    turns,
		states:   states,
		detector: detector,
		resolver: resolver,
		tables:   tables,
		log:      log,
	}, nil
}
