package selection

// Option is one candidate presented to the user during a clarification. The
// engine treats it as an opaque record of named fields; only the configured
// display field is ever matched against.
type Option map[string]any

// Display returns the option's value for the given display field. It reports
// false when the field is absent, empty, or not a string, which callers
// treat as a malformed option.
func (o Option) Display(field string) (string, bool) {
	v, ok := o[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Strategy identifies which interpretation strategy produced a match. The
// set is closed; dispatch over it is exhaustive in the resolver.
type Strategy string

const (
	StrategyNumeric        Strategy = "numeric"
	StrategyOrdinalEnglish Strategy = "ordinal_en"
	StrategyOrdinalTagalog Strategy = "ordinal_tl"
	StrategyPhrase         Strategy = "phrase"
	StrategyName           Strategy = "name"
)

// Strategy confidence levels. The scale is ordinal, not probabilistic:
// whole-input matches outrank phrase scans, which outrank name matches.
const (
	confidenceExact  = 1.0
	confidencePhrase = 0.9
	confidenceName   = 0.8
)

// Result is the outcome of resolving an utterance against a set of options.
// Index and Strategy are either both set or both nil, and Confidence is 0
// when there is no match.
type Result struct {
	Index       *int      `json:"index"`
	Strategy    *Strategy `json:"strategy"`
	Confidence  float64   `json:"confidence"`
	MatchedText string    `json:"matched_text,omitempty"`

	// SkippedOptions counts options missing the display field during name
	// matching, for the caller to log.
	SkippedOptions int `json:"skipped_options,omitempty"`
}

// Matched reports whether any strategy produced an index.
func (r Result) Matched() bool {
	return r.Index != nil
}

func noMatch() Result {
	return Result{}
}

// match constructs a successful Result. A zero or negative confidence here
// is a programming defect, not a runtime condition.
func match(index int, strategy Strategy, confidence float64, matchedText string) Result {
	if confidence <= 0 {
		panic("selection: match constructed with non-positive confidence")
	}
	if index < 0 {
		panic("selection: match constructed with negative index")
	}
	return Result{
		Index:       &index,
		Strategy:    &strategy,
		Confidence:  confidence,
		MatchedText: matchedText,
	}
}
