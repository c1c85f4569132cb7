package clarify

import (
	"fmt"
	"strings"

	"github.com/anaphor-dev/anaphor/internal/reference"
	"github.com/anaphor-dev/anaphor/internal/selection"
)

// DefaultThreshold is the resolution confidence below which the engine
// hands the choice back to the user instead of acting on it.
const DefaultThreshold = 0.7

// snippetLimit caps how much of a past query is echoed back in a question.
const snippetLimit = 60

const answerHint = `You can reply with a number, an ordinal like "first" or "una", or part of the text.`

// Engine renders deterministic clarification questions for uncertain
// resolutions and maps the user's answer back onto the offered options.
type Engine struct {
	threshold float64
	resolver  *selection.Resolver
}

// NewEngine creates a clarification engine. A non-positive threshold falls
// back to DefaultThreshold.
func NewEngine(resolver *selection.Resolver, threshold float64) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{threshold: threshold, resolver: resolver}
}

// Threshold returns the configured confidence threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

// NeedsClarification reports whether a resolution is too uncertain to act
// on: ambiguous, or best score under the threshold. A resolution with no
// best candidate never needs clarifying; there is nothing to choose from.
func (e *Engine) NeedsClarification(res reference.Resolution) bool {
	if res.Best == nil {
		return false
	}
	return res.IsAmbiguous || res.BestScore() < e.threshold
}

// TurnOptions converts resolution candidates into selectable options. The
// turn's query text goes under the resolver's display field so numeric,
// ordinal, and name answers all work against the same records.
func (e *Engine) TurnOptions(candidates []reference.Candidate) []selection.Option {
	opts := make([]selection.Option, 0, len(candidates))
	for _, c := range candidates {
		opts = append(opts, selection.Option{
			e.resolver.DisplayField(): c.Turn.Query,
			"turn_id":                 c.Turn.ID,
			"turn_number":             c.Turn.TurnNumber,
		})
	}
	return opts
}

// Question renders the question for an uncertain reference resolution.
// Candidates are listed in resolution order, so the numbering a user
// answers with lines up with the option list saved alongside it.
func (e *Engine) Question(res reference.Resolution) string {
	var b strings.Builder
	b.WriteString("Which earlier turn did you mean?\n")
	for i, c := range res.Candidates {
		fmt.Fprintf(&b, "%d. (turn %d) %s\n", i+1, c.Turn.TurnNumber, snippet(c.Turn.Query))
	}
	b.WriteString(answerHint)
	return b.String()
}

// QuestionForOptions renders the question for an explicit option list, for
// callers that already know the user's utterance matched several records.
func (e *Engine) QuestionForOptions(originalQuery string, options []selection.Option) string {
	var b strings.Builder
	if originalQuery != "" {
		fmt.Fprintf(&b, "%q matches more than one option. Which one did you mean?\n", originalQuery)
	} else {
		b.WriteString("Which option did you mean?\n")
	}
	for i, opt := range options {
		label, ok := opt.Display(e.resolver.DisplayField())
		if !ok {
			label = fmt.Sprintf("option %d", i+1)
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, snippet(label))
	}
	b.WriteString(answerHint)
	return b.String()
}

// ApplyAnswer resolves the user's answer against the options that were
// offered. A nil option means the answer picked nothing; the caller decides
// whether to re-ask or treat the answer as a fresh query.
func (e *Engine) ApplyAnswer(answer string, options []selection.Option) (*selection.Option, selection.Result) {
	res := e.resolver.Resolve(answer, options)
	if !res.Matched() {
		return nil, res
	}
	opt := options[*res.Index]
	return &opt, res
}

// TurnNumber extracts the turn number from an option built by TurnOptions.
// Options that round-tripped through JSON carry float64s.
func TurnNumber(opt selection.Option) (int, bool) {
	switch v := opt["turn_number"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= snippetLimit {
		return s
	}
	return string(r[:snippetLimit-3]) + "..."
}
