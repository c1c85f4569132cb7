package selection

import (
	"strconv"
	"strings"

	"github.com/anaphor-dev/anaphor/internal/vocab"
)

// DefaultDisplayField is the option field matched by the name strategy when
// no other field is configured.
const DefaultDisplayField = "name"

// Resolver interprets a user reply against a list of presented options. It
// tries each strategy in fixed priority order and stops at the first match;
// the order is part of the contract, not an optimization: numeric beats
// ordinal words, ordinal words beat phrase scanning, phrase scanning beats
// name matching.
//
// Resolve is a pure function over its inputs. It performs no I/O, keeps no
// state between calls, and is safe for concurrent use.
type Resolver struct {
	tables       *vocab.Tables
	displayField string
}

// NewResolver builds a resolver over the given vocabulary tables.
// displayField names the option field used for name matching; empty selects
// DefaultDisplayField.
func NewResolver(tables *vocab.Tables, displayField string) *Resolver {
	if displayField == "" {
		displayField = DefaultDisplayField
	}
	return &Resolver{tables: tables, displayField: displayField}
}

// DisplayField returns the option field this resolver matches names against.
func (r *Resolver) DisplayField() string {
	return r.displayField
}

// Resolve determines which option, if any, the input selects. Empty or
// whitespace-only input and an empty option list always resolve to nothing.
func (r *Resolver) Resolve(input string, options []Option) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || len(options) == 0 {
		return noMatch()
	}

	if res := matchNumeric(trimmed, len(options)); res.Matched() {
		return res
	}
	if res := r.matchOrdinal(trimmed, len(options)); res.Matched() {
		return res
	}
	if res := r.matchPhrase(trimmed, len(options)); res.Matched() {
		return res
	}
	return r.matchName(trimmed, options)
}

// matchNumeric accepts the whole input as a 1-based option number. Zero,
// negative, and out-of-range values are rejected outright, never clamped.
func matchNumeric(input string, n int) Result {
	v, err := strconv.Atoi(input)
	if err != nil || v < 1 || v > n {
		return noMatch()
	}
	return match(v-1, StrategyNumeric, confidenceExact, input)
}

// matchOrdinal accepts the whole input as a single ordinal word, English
// first, then Tagalog. Indices beyond the option list are rejected.
func (r *Resolver) matchOrdinal(input string, n int) Result {
	if idx, ok := r.tables.EnglishOrdinal(input); ok && idx < n {
		return match(idx, StrategyOrdinalEnglish, confidenceExact, strings.ToLower(strings.TrimSpace(input)))
	}
	if idx, ok := r.tables.TagalogOrdinal(input); ok && idx < n {
		return match(idx, StrategyOrdinalTagalog, confidenceExact, strings.ToLower(strings.TrimSpace(input)))
	}
	return noMatch()
}

// matchPhrase scans the utterance for an ordinal word from either language
// anywhere in the phrase and takes the leftmost occurrence.
func (r *Resolver) matchPhrase(input string, n int) Result {
	idx, word, ok := r.tables.ScanOrdinal(input)
	if !ok || idx >= n {
		return noMatch()
	}
	return match(idx, StrategyPhrase, confidencePhrase, word)
}

// matchName does a case-insensitive substring test of the input against each
// option's display field. Exactly one hit resolves; zero or several resolve
// nothing, so ambiguity is never settled by picking the first. Options
// without a usable display field are skipped and counted.
func (r *Resolver) matchName(input string, options []Option) Result {
	needle := strings.ToLower(input)
	matched := -1
	hits := 0
	skipped := 0

	for i, opt := range options {
		display, ok := opt.Display(r.displayField)
		if !ok {
			skipped++
			continue
		}
		if strings.Contains(strings.ToLower(display), needle) {
			hits++
			matched = i
		}
	}

	if hits != 1 {
		res := noMatch()
		res.SkippedOptions = skipped
		return res
	}
	res := match(matched, StrategyName, confidenceName, input)
	res.SkippedOptions = skipped
	return res
}
