package reference

import (
	"strings"

	"github.com/anaphor-dev/anaphor/internal/vocab"
)

// DefaultMinTopicalTokens is the shortest utterance, in tokens, that can
// still fall back to a topical intent.
const DefaultMinTopicalTokens = 3

// Intent confidences by signal strength. Explicit positional markers are
// near-certain; bare temporal words less so; topical fallback is a guess
// the per-turn scores have to back up.
const (
	confidenceMarker   = 0.9
	confidenceTemporal = 0.8
	confidenceTopical  = 0.5
)

// Detector classifies an utterance into at most one dominant reference
// intent.
type Detector struct {
	tables           *vocab.Tables
	minTopicalTokens int
}

// NewDetector builds a detector over the given vocabulary tables.
// minTopicalTokens <= 0 selects DefaultMinTopicalTokens.
func NewDetector(tables *vocab.Tables, minTopicalTokens int) *Detector {
	if minTopicalTokens <= 0 {
		minTopicalTokens = DefaultMinTopicalTokens
	}
	return &Detector{tables: tables, minTopicalTokens: minTopicalTokens}
}

// Detect returns the dominant reference intent of the query, or nil when
// nothing in it points back at earlier turns and the caller should treat
// the message as a fresh query. The check order is fixed: explicit ordinal
// markers shadow temporal ones, temporal shadow relative phrasing, and
// topical is the fallback for any non-trivial utterance with content
// keywords.
func (d *Detector) Detect(query string) *Intent {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil
	}

	if idx, word, ok := d.tables.ScanOrdinal(trimmed); ok {
		return &Intent{
			Type:       IntentOrdinal,
			Indicators: []string{word},
			Confidence: confidenceMarker,
			Query:      trimmed,
			Position:   idx + 1,
		}
	}

	if markers := d.tables.TemporalIndicators(trimmed); len(markers) > 0 {
		return &Intent{
			Type:       IntentTemporal,
			Indicators: markers,
			Confidence: confidenceTemporal,
			Query:      trimmed,
		}
	}

	if offset, phrase, ok := d.tables.RelativeOffset(trimmed); ok {
		return &Intent{
			Type:       IntentRelative,
			Indicators: []string{phrase},
			Confidence: confidenceMarker,
			Query:      trimmed,
			Offset:     offset,
		}
	}

	if len(vocab.Tokenize(trimmed)) >= d.minTopicalTokens {
		if kws := d.tables.Keywords(trimmed); len(kws) > 0 {
			return &Intent{
				Type:       IntentTopical,
				Indicators: kws,
				Confidence: confidenceTopical,
				Query:      trimmed,
			}
		}
	}

	return nil
}
