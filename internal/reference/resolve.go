package reference

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/anaphor-dev/anaphor/internal/session"
)

// Tuning defaults; all overridable through ResolverConfig.
const (
	DefaultClosenessBand  = 0.1
	DefaultHighConfidence = 0.9
	DefaultTemporalDecay  = 0.5
)

// ResolverConfig tunes candidate scoring and ambiguity detection. Zero
// values select the defaults.
type ResolverConfig struct {
	// ClosenessBand is how near the top score a runner-up must be to make
	// the resolution ambiguous.
	ClosenessBand float64
	// HighConfidence is the top score at or above which ambiguity is
	// never declared.
	HighConfidence float64
	// TemporalDecay controls how fast temporal scores fall off per turn
	// of distance from the most recent turn.
	TemporalDecay float64
}

func (c ResolverConfig) withDefaults() ResolverConfig {
	if c.ClosenessBand <= 0 {
		c.ClosenessBand = DefaultClosenessBand
	}
	if c.HighConfidence <= 0 {
		c.HighConfidence = DefaultHighConfidence
	}
	if c.TemporalDecay <= 0 {
		c.TemporalDecay = DefaultTemporalDecay
	}
	return c
}

// Resolver matches a detected intent against a history window and ranks
// the candidate turns.
type Resolver struct {
	cfg    ResolverConfig
	scorer Scorer
	log    zerolog.Logger
}

// NewResolver builds a resolver. The scorer is only consulted for topical
// intents and may be nil when topical resolution is not needed.
func NewResolver(scorer Scorer, cfg ResolverConfig, log zerolog.Logger) *Resolver {
	return &Resolver{cfg: cfg.withDefaults(), scorer: scorer, log: log}
}

// Resolve ranks history turns against the intent. Ordinal, temporal, and
// relative intents score in closed form; topical intents consult the
// injected scorer, whose failures count as zero for the affected turn
// rather than aborting the resolution.
func (r *Resolver) Resolve(ctx context.Context, intent *Intent, history []session.Turn) Resolution {
	if intent == nil || len(history) == 0 {
		return Resolution{}
	}

	latest := 0
	for i := range history {
		if history[i].TurnNumber > latest {
			latest = history[i].TurnNumber
		}
	}
	// The message being resolved would become this turn.
	current := latest + 1

	var cands []Candidate
	for i := range history {
		turn := history[i]
		var score float64

		switch intent.Type {
		case IntentOrdinal:
			if turn.TurnNumber == intent.Position {
				score = 1.0
			}
		case IntentTemporal:
			score = math.Exp(-r.cfg.TemporalDecay * float64(latest-turn.TurnNumber))
		case IntentRelative:
			if turn.TurnNumber == current-intent.Offset {
				score = 1.0
			}
		case IntentTopical:
			score = r.topicalScore(ctx, intent.Query, &turn)
		}

		if score > 0 {
			cands = append(cands, Candidate{Turn: turn, Score: score})
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Turn.TurnNumber > cands[j].Turn.TurnNumber
	})

	res := Resolution{Candidates: cands}
	if len(cands) > 0 {
		best := cands[0].Turn
		res.Best = &best
	}
	res.IsAmbiguous = r.ambiguous(cands)
	return res
}

func (r *Resolver) topicalScore(ctx context.Context, query string, turn *session.Turn) float64 {
	if r.scorer == nil {
		return 0
	}
	score, err := r.scorer.Score(ctx, query, turn)
	if err != nil {
		r.log.Warn().Err(err).Int("turn", turn.TurnNumber).Msg("topical scorer failed, treating as no match")
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ambiguous applies the closeness-band rule: with the candidates sorted
// descending, the resolution is ambiguous when the runner-up sits within
// the band of a top score that is itself below the high-confidence cutoff.
func (r *Resolver) ambiguous(cands []Candidate) bool {
	if len(cands) < 2 {
		return false
	}
	top := cands[0].Score
	if top >= r.cfg.HighConfidence {
		return false
	}
	return cands[1].Score >= top-r.cfg.ClosenessBand
}
