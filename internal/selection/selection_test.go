package selection

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/anaphor-dev/anaphor/internal/vocab"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return NewResolver(vocab.Default(), "name")
}

func namedOptions(names ...string) []Option {
	opts := make([]Option, 0, len(names))
	for _, n := range names {
		opts = append(opts, Option{"name": n, "count": len(n)})
	}
	return opts
}

func TestResolveNumericInRange(t *testing.T) {
	r := newTestResolver(t)
	opts := namedOptions("Alpha", "Beta", "Gamma", "Delta", "Epsilon")

	for n := 1; n <= len(opts); n++ {
		res := r.Resolve(strconv.Itoa(n), opts)
		if !res.Matched() {
			t.Fatalf("Resolve(%d) did not match", n)
		}
		if *res.Index != n-1 {
			t.Errorf("Resolve(%d) index = %d, want %d", n, *res.Index, n-1)
		}
		if *res.Strategy != StrategyNumeric {
			t.Errorf("Resolve(%d) strategy = %s, want numeric", n, *res.Strategy)
		}
		if res.Confidence != 1.0 {
			t.Errorf("Resolve(%d) confidence = %v, want 1.0", n, res.Confidence)
		}
	}
}

func TestResolveNumericRejectsOutOfRange(t *testing.T) {
	r := newTestResolver(t)
	opts := namedOptions("Alpha", "Beta", "Gamma")

	for _, input := range []string{"0", "-1", "4", "100", "3.5", "two2", "abc"} {
		res := r.Resolve(input, opts)
		if res.Matched() && *res.Strategy == StrategyNumeric {
			t.Errorf("Resolve(%q) matched numerically with index %d, want rejection", input, *res.Index)
		}
	}

	// Out of range must never clamp to the nearest valid index.
	if res := r.Resolve("4", opts); res.Matched() {
		t.Errorf("Resolve(4) over 3 options matched index %d, want no match", *res.Index)
	}
	if res := r.Resolve("0", opts); res.Matched() {
		t.Errorf("Resolve(0) matched index %d, want no match", *res.Index)
	}
}

func TestResolveOrdinalWords(t *testing.T) {
	r := newTestResolver(t)
	opts := namedOptions("Alpha", "Beta", "Gamma")

	tests := []struct {
		input    string
		index    int
		strategy Strategy
	}{
		{"first", 0, StrategyOrdinalEnglish},
		{"First", 0, StrategyOrdinalEnglish},
		{"FIRST", 0, StrategyOrdinalEnglish},
		{"second", 1, StrategyOrdinalEnglish},
		{"third", 2, StrategyOrdinalEnglish},
		{"2nd", 1, StrategyOrdinalEnglish},
		{"una", 0, StrategyOrdinalTagalog},
		{"UNA", 0, StrategyOrdinalTagalog},
		{"pangalawa", 1, StrategyOrdinalTagalog},
		{"ikatlo", 2, StrategyOrdinalTagalog},
	}

	for _, tt := range tests {
		res := r.Resolve(tt.input, opts)
		if !res.Matched() {
			t.Errorf("Resolve(%q) did not match", tt.input)
			continue
		}
		if *res.Index != tt.index || *res.Strategy != tt.strategy {
			t.Errorf("Resolve(%q) = (%d, %s), want (%d, %s)",
				tt.input, *res.Index, *res.Strategy, tt.index, tt.strategy)
		}
	}
}

func TestResolveOrdinalBeyondOptions(t *testing.T) {
	r := newTestResolver(t)
	opts := namedOptions("Alpha", "Beta")

	// "fifth" maps to index 4, beyond the two options; no strategy may fire.
	if res := r.Resolve("fifth", opts); res.Matched() {
		t.Errorf("Resolve(fifth) over 2 options matched index %d, want no match", *res.Index)
	}
}

func TestResolvePhrase(t *testing.T) {
	r := newTestResolver(t)
	opts := namedOptions("Alpha", "Beta", "Gamma")

	tests := []struct {
		input string
		index int
	}{
		{"the second one", 1},
		{"yung una", 0},
		{"ang pangalawa po", 1},
		{"I think the third result", 2},
	}

	for _, tt := range tests {
		res := r.Resolve(tt.input, opts)
		if !res.Matched() {
			t.Errorf("Resolve(%q) did not match", tt.input)
			continue
		}
		if *res.Index != tt.index {
			t.Errorf("Resolve(%q) index = %d, want %d", tt.input, *res.Index, tt.index)
		}
		if *res.Strategy != StrategyPhrase {
			t.Errorf("Resolve(%q) strategy = %s, want phrase", tt.input, *res.Strategy)
		}
	}
}

func TestResolveNameUniqueSubstring(t *testing.T) {
	r := newTestResolver(t)
	opts := namedOptions("Payments Service", "Auth Service", "Billing")

	res := r.Resolve("billing", opts)
	if !res.Matched() {
		t.Fatal("Resolve(billing) did not match")
	}
	if *res.Index != 2 || *res.Strategy != StrategyName {
		t.Errorf("Resolve(billing) = (%d, %s), want (2, name)", *res.Index, *res.Strategy)
	}

	// "service" is a substring of two display names; ambiguity must not be
	// silently resolved by picking the first.
	if res := r.Resolve("service", opts); res.Matched() {
		t.Errorf("Resolve(service) matched index %d, want no match", *res.Index)
	}

	if res := r.Resolve("zzz", opts); res.Matched() {
		t.Errorf("Resolve(zzz) matched index %d, want no match", *res.Index)
	}
}

func TestResolvePriorityNumericBeatsName(t *testing.T) {
	r := newTestResolver(t)
	// "2" parses as a number and also appears in the first option's name.
	opts := namedOptions("Thing 2", "Other")

	res := r.Resolve("2", opts)
	if !res.Matched() {
		t.Fatal("Resolve(2) did not match")
	}
	if *res.Strategy != StrategyNumeric {
		t.Errorf("Resolve(2) strategy = %s, want numeric", *res.Strategy)
	}
	if *res.Index != 1 {
		t.Errorf("Resolve(2) index = %d, want 1 (second option)", *res.Index)
	}
}

func TestResolveEmptyInputs(t *testing.T) {
	r := newTestResolver(t)

	if res := r.Resolve("first", nil); res.Matched() {
		t.Error("Resolve over empty options matched")
	}
	if res := r.Resolve("   ", namedOptions("Alpha")); res.Matched() {
		t.Error("Resolve of whitespace input matched")
	}
	if res := r.Resolve("", namedOptions("Alpha")); res.Matched() {
		t.Error("Resolve of empty input matched")
	}
}

func TestResolveSkipsMalformedOptions(t *testing.T) {
	r := newTestResolver(t)
	opts := []Option{
		{"count": 3},          // missing display field
		{"name": 42},          // non-string display field
		{"name": "Inventory"}, // the only usable one
	}

	res := r.Resolve("invent", opts)
	if !res.Matched() {
		t.Fatal("Resolve(invent) did not match")
	}
	if *res.Index != 2 {
		t.Errorf("Resolve(invent) index = %d, want 2", *res.Index)
	}
	if res.SkippedOptions != 2 {
		t.Errorf("SkippedOptions = %d, want 2", res.SkippedOptions)
	}
}

func TestResultInvariant(t *testing.T) {
	r := newTestResolver(t)
	opts := namedOptions("Alpha", "Beta")

	matched := r.Resolve("1", opts)
	if (matched.Index == nil) != (matched.Strategy == nil) {
		t.Error("matched result: index and strategy must be set together")
	}

	missed := r.Resolve("nope", opts)
	if missed.Index != nil || missed.Strategy != nil {
		t.Error("missed result: index and strategy must both be nil")
	}
	if missed.Confidence != 0 {
		t.Errorf("missed result confidence = %v, want 0", missed.Confidence)
	}
}

func TestHandleResolve(t *testing.T) {
	router := chi.NewRouter()
	RegisterRoutes(router, vocab.Default(), "name")

	body, _ := json.Marshal(resolveRequest{
		Input:   "pangalawa",
		Options: namedOptions("Alpha", "Beta", "Gamma"),
	})

	req := httptest.NewRequest(http.MethodPost, "/api/resolve", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var res Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !res.Matched() || *res.Index != 1 {
		t.Errorf("resolved index = %v, want 1", res.Index)
	}
	if *res.Strategy != StrategyOrdinalTagalog {
		t.Errorf("strategy = %s, want ordinal_tl", *res.Strategy)
	}
}

func TestHandleResolveBadBody(t *testing.T) {
	router := chi.NewRouter()
	RegisterRoutes(router, vocab.Default(), "name")

	req := httptest.NewRequest(http.MethodPost, "/api/resolve", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
