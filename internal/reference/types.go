package reference

import (
	"context"

	"github.com/anaphor-dev/anaphor/internal/session"
)

// IntentType classifies how an utterance points back at earlier turns.
type IntentType string

const (
	IntentOrdinal  IntentType = "ordinal"
	IntentTemporal IntentType = "temporal"
	IntentRelative IntentType = "relative"
	IntentTopical  IntentType = "topical"
)

// Intent is the dominant reference signal extracted from an utterance. It
// is derived from the utterance text alone and knows nothing about the
// conversation history.
type Intent struct {
	Type       IntentType `json:"type"`
	Indicators []string   `json:"indicators"`
	Confidence float64    `json:"confidence"`

	// Query is the utterance the intent was extracted from; topical
	// scoring needs it verbatim.
	Query string `json:"query"`

	// Position is the 1-based turn position for ordinal intents.
	Position int `json:"position,omitempty"`
	// Offset is the distance back from the current turn for relative
	// intents ("two queries ago" is 2).
	Offset int `json:"offset,omitempty"`
}

// Candidate pairs a turn with its match score in [0,1].
type Candidate struct {
	Turn  session.Turn `json:"turn"`
	Score float64      `json:"score"`
}

// Resolution ranks the turns an intent could refer to, best first.
// IsAmbiguous is true exactly when at least two candidates sit within the
// closeness band of the top score and the top score itself is below the
// high-confidence cutoff; with fewer than two candidates it is always
// false.
type Resolution struct {
	Candidates  []Candidate   `json:"candidates"`
	Best        *session.Turn `json:"best,omitempty"`
	IsAmbiguous bool          `json:"is_ambiguous"`
}

// BestScore returns the top candidate's score, or 0 with no candidates.
func (r Resolution) BestScore() float64 {
	if len(r.Candidates) == 0 {
		return 0
	}
	return r.Candidates[0].Score
}

// Scorer supplies topical similarity between a query and a past turn, in
// [0,1]. Implementations may reach the network or disk; the resolver
// treats their errors as a zero score rather than aborting.
type Scorer interface {
	Score(ctx context.Context, query string, turn *session.Turn) (float64, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, query string, turn *session.Turn) (float64, error)

func (f ScorerFunc) Score(ctx context.Context, query string, turn *session.Turn) (float64, error) {
	return f(ctx, query, turn)
}
