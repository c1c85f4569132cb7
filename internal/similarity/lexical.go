package similarity

import (
	"context"

	"github.com/anaphor-dev/anaphor/internal/session"
	"github.com/anaphor-dev/anaphor/internal/vocab"
)

// Lexical scores topical similarity as the share of the query's content
// keywords that also appear in the turn's query or response. It needs no
// model and no network, and is the default scorer.
type Lexical struct {
	tables *vocab.Tables
}

func NewLexical(tables *vocab.Tables) *Lexical {
	return &Lexical{tables: tables}
}

func (l *Lexical) Score(_ context.Context, query string, turn *session.Turn) (float64, error) {
	turnWords := make(map[string]bool)
	for _, k := range l.tables.Keywords(turn.Query + " " + turn.Response) {
		turnWords[k] = true
	}
	if len(turnWords) == 0 {
		return 0, nil
	}

	seen := make(map[string]bool)
	matched := 0
	for _, k := range l.tables.Keywords(query) {
		if seen[k] {
			continue
		}
		seen[k] = true
		if turnWords[k] {
			matched++
		}
	}
	if len(seen) == 0 {
		return 0, nil
	}
	return float64(matched) / float64(len(seen)), nil
}
