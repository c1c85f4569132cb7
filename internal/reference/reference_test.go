package reference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/anaphor-dev/anaphor/internal/db"
	"github.com/anaphor-dev/anaphor/internal/session"
	"github.com/anaphor-dev/anaphor/internal/vocab"
)

func newTestDetector() *Detector {
	return NewDetector(vocab.Default(), 0)
}

func newTestResolver(scorer Scorer) *Resolver {
	return NewResolver(scorer, ResolverConfig{}, zerolog.Nop())
}

func historyOf(queries ...string) []session.Turn {
	turns := make([]session.Turn, 0, len(queries))
	for i, q := range queries {
		turns = append(turns, session.Turn{
			ID:         fmt.Sprintf("t%d", i+1),
			SessionID:  "s1",
			TurnNumber: i + 1,
			Query:      q,
			Response:   fmt.Sprintf("answer %d", i+1),
			CreatedAt:  time.Now().UTC(),
		})
	}
	return turns
}

// scoreByTurn maps turn numbers to fixed scores for topical tests.
func scoreByTurn(scores map[int]float64) Scorer {
	return ScorerFunc(func(_ context.Context, _ string, turn *session.Turn) (float64, error) {
		return scores[turn.TurnNumber], nil
	})
}

func TestDetectOrdinal(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		query    string
		position int
	}{
		{"yung una", 1},
		{"the second one", 2},
		{"The FIRST one", 1},
		{"ang pangatlo", 3},
	}

	for _, tt := range tests {
		intent := d.Detect(tt.query)
		if intent == nil {
			t.Errorf("Detect(%q) = nil, want ordinal intent", tt.query)
			continue
		}
		if intent.Type != IntentOrdinal {
			t.Errorf("Detect(%q) type = %s, want ordinal", tt.query, intent.Type)
		}
		if intent.Position != tt.position {
			t.Errorf("Detect(%q) position = %d, want %d", tt.query, intent.Position, tt.position)
		}
		if len(intent.Indicators) == 0 {
			t.Errorf("Detect(%q) has no indicators", tt.query)
		}
	}
}

func TestDetectTemporal(t *testing.T) {
	d := newTestDetector()

	intent := d.Detect("what did I ask earlier?")
	if intent == nil || intent.Type != IntentTemporal {
		t.Fatalf("Detect = %+v, want temporal intent", intent)
	}
	if len(intent.Indicators) != 1 || intent.Indicators[0] != "earlier" {
		t.Errorf("indicators = %v, want [earlier]", intent.Indicators)
	}

	if intent := d.Detect("yung tanong ko kanina"); intent == nil || intent.Type != IntentTemporal {
		t.Errorf("Detect(tagalog temporal) = %+v, want temporal", intent)
	}
}

func TestDetectRelative(t *testing.T) {
	d := newTestDetector()

	intent := d.Detect("two queries ago")
	if intent == nil || intent.Type != IntentRelative {
		t.Fatalf("Detect = %+v, want relative intent", intent)
	}
	if intent.Offset != 2 {
		t.Errorf("offset = %d, want 2", intent.Offset)
	}

	if intent := d.Detect("what about the one before"); intent == nil || intent.Type != IntentRelative {
		t.Errorf("Detect(the one before) = %+v, want relative", intent)
	}
}

func TestDetectTopicalFallback(t *testing.T) {
	d := newTestDetector()

	intent := d.Detect("how did the database migration go?")
	if intent == nil || intent.Type != IntentTopical {
		t.Fatalf("Detect = %+v, want topical intent", intent)
	}
	if len(intent.Indicators) != 2 {
		t.Errorf("indicators = %v, want the two content keywords", intent.Indicators)
	}
	if intent.Query == "" {
		t.Error("topical intent lost the query text")
	}
}

func TestDetectNoSignal(t *testing.T) {
	d := newTestDetector()

	for _, query := range []string{"", "   ", "hi", "ok po", "what about this"} {
		if intent := d.Detect(query); intent != nil {
			t.Errorf("Detect(%q) = %+v, want nil", query, intent)
		}
	}
}

func TestDetectOrderOrdinalShadowsTemporal(t *testing.T) {
	d := newTestDetector()

	// Both an ordinal word and a temporal marker are present; ordinal wins.
	intent := d.Detect("the first one from earlier")
	if intent == nil || intent.Type != IntentOrdinal {
		t.Fatalf("Detect = %+v, want ordinal to shadow temporal", intent)
	}
}

func TestResolveOrdinal(t *testing.T) {
	d := newTestDetector()
	r := newTestResolver(nil)
	history := historyOf("deploy status", "db usage", "error rates")

	intent := d.Detect("yung una")
	res := r.Resolve(context.Background(), intent, history)

	if res.Best == nil || res.Best.TurnNumber != 1 {
		t.Fatalf("best = %+v, want turn 1", res.Best)
	}
	if res.IsAmbiguous {
		t.Error("exact ordinal match reported ambiguous")
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Score != 1.0 {
		t.Errorf("candidates = %+v, want single 1.0 match", res.Candidates)
	}
}

func TestResolveOrdinalBeyondHistory(t *testing.T) {
	r := newTestResolver(nil)
	history := historyOf("a", "b", "c")

	res := r.Resolve(context.Background(), &Intent{Type: IntentOrdinal, Position: 5, Query: "the fifth"}, history)
	if res.Best != nil || len(res.Candidates) != 0 || res.IsAmbiguous {
		t.Errorf("resolution = %+v, want empty and unambiguous", res)
	}
}

func TestResolveTemporalRecency(t *testing.T) {
	r := newTestResolver(nil)
	history := historyOf("a", "b", "c")

	res := r.Resolve(context.Background(), &Intent{Type: IntentTemporal, Query: "earlier"}, history)
	if res.Best == nil || res.Best.TurnNumber != 3 {
		t.Fatalf("best = %+v, want the most recent turn", res.Best)
	}
	if len(res.Candidates) != 3 {
		t.Fatalf("candidates = %d, want all 3", len(res.Candidates))
	}
	for i := 1; i < len(res.Candidates); i++ {
		if res.Candidates[i].Score >= res.Candidates[i-1].Score {
			t.Errorf("scores not strictly decaying: %v then %v",
				res.Candidates[i-1].Score, res.Candidates[i].Score)
		}
	}
	if res.Candidates[0].Score != 1.0 {
		t.Errorf("most recent turn score = %v, want 1.0", res.Candidates[0].Score)
	}
	if res.IsAmbiguous {
		t.Error("temporal resolution with a 1.0 top score reported ambiguous")
	}
}

func TestResolveRelative(t *testing.T) {
	r := newTestResolver(nil)
	history := historyOf("a", "b", "c")

	// Current turn would be 4; two queries ago is turn 2.
	res := r.Resolve(context.Background(), &Intent{Type: IntentRelative, Offset: 2, Query: "two queries ago"}, history)
	if res.Best == nil || res.Best.TurnNumber != 2 {
		t.Fatalf("best = %+v, want turn 2", res.Best)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Score != 1.0 {
		t.Errorf("candidates = %+v, want exact single match", res.Candidates)
	}

	// An offset reaching before the session yields nothing, never a clamp.
	res = r.Resolve(context.Background(), &Intent{Type: IntentRelative, Offset: 10, Query: "ten queries ago"}, history)
	if res.Best != nil || len(res.Candidates) != 0 {
		t.Errorf("out-of-range offset resolved to %+v", res.Best)
	}
}

func TestResolveTopicalAmbiguity(t *testing.T) {
	history := historyOf("a", "b", "c")
	intent := &Intent{Type: IntentTopical, Query: "the database thing"}

	tests := []struct {
		name      string
		scores    map[int]float64
		ambiguous bool
		bestTurn  int
	}{
		{name: "two close low scores", scores: map[int]float64{1: 0.6, 2: 0.55}, ambiguous: true, bestTurn: 1},
		{name: "clear gap", scores: map[int]float64{1: 0.6, 2: 0.45}, ambiguous: false, bestTurn: 1},
		{name: "close but top confident", scores: map[int]float64{1: 0.95, 2: 0.9}, ambiguous: false, bestTurn: 1},
		{name: "single candidate", scores: map[int]float64{2: 0.4}, ambiguous: false, bestTurn: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(scoreByTurn(tt.scores))
			res := r.Resolve(context.Background(), intent, history)
			if res.IsAmbiguous != tt.ambiguous {
				t.Errorf("IsAmbiguous = %v, want %v", res.IsAmbiguous, tt.ambiguous)
			}
			if res.Best == nil || res.Best.TurnNumber != tt.bestTurn {
				t.Errorf("best = %+v, want turn %d", res.Best, tt.bestTurn)
			}
		})
	}
}

func TestResolveTopicalScorerFailure(t *testing.T) {
	history := historyOf("a", "b", "c")
	scorer := ScorerFunc(func(_ context.Context, _ string, turn *session.Turn) (float64, error) {
		if turn.TurnNumber == 2 {
			return 0, errors.New("embedding service down")
		}
		return 0.8, nil
	})

	r := newTestResolver(scorer)
	res := r.Resolve(context.Background(), &Intent{Type: IntentTopical, Query: "whatever"}, history)

	for _, c := range res.Candidates {
		if c.Turn.TurnNumber == 2 {
			t.Error("failed-scorer turn still became a candidate")
		}
	}
	if len(res.Candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(res.Candidates))
	}
}

func TestResolveClampsScores(t *testing.T) {
	history := historyOf("a", "b")
	scorer := ScorerFunc(func(_ context.Context, _ string, turn *session.Turn) (float64, error) {
		if turn.TurnNumber == 1 {
			return 1.5, nil
		}
		return -0.2, nil
	})

	r := newTestResolver(scorer)
	res := r.Resolve(context.Background(), &Intent{Type: IntentTopical, Query: "whatever"}, history)

	if len(res.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1 (negative dropped)", len(res.Candidates))
	}
	if res.Candidates[0].Score != 1.0 {
		t.Errorf("score = %v, want clamped to 1.0", res.Candidates[0].Score)
	}
}

func TestResolveEmptyHistory(t *testing.T) {
	r := newTestResolver(nil)
	res := r.Resolve(context.Background(), &Intent{Type: IntentTemporal, Query: "earlier"}, nil)
	if res.Best != nil || len(res.Candidates) != 0 || res.IsAmbiguous {
		t.Errorf("resolution over empty history = %+v, want zero value", res)
	}
}

func TestDetectRoute(t *testing.T) {
	router := chi.NewRouter()
	RegisterRoutes(router, newTestDetector(), newTestResolver(nil), nil, 0)

	body, _ := json.Marshal(detectRequest{Query: "yung una"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/detect", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var intent Intent
	if err := json.NewDecoder(rec.Body).Decode(&intent); err != nil {
		t.Fatalf("decoding intent: %v", err)
	}
	if intent.Type != IntentOrdinal || intent.Position != 1 {
		t.Errorf("intent = %+v, want ordinal position 1", intent)
	}

	// No signal serializes as null.
	body, _ = json.Marshal(detectRequest{Query: "hi"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/detect", bytes.NewReader(body)))
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "null" {
		t.Errorf("no-signal body = %s, want null", got)
	}
}

func TestReferenceRoute(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	turns := session.NewTurnStore(database)

	ctx := context.Background()
	for _, q := range []string{"deploy status", "db usage", "error rates"} {
		if _, err := turns.Append(ctx, "s1", q, "some answer", nil); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	router := chi.NewRouter()
	RegisterRoutes(router, newTestDetector(), newTestResolver(nil), turns, 20)

	body, _ := json.Marshal(referenceRequest{SessionID: "s1", Query: "yung una"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reference", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp referenceResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Intent == nil || resp.Intent.Type != IntentOrdinal {
		t.Fatalf("intent = %+v, want ordinal", resp.Intent)
	}
	if resp.Resolution.Best == nil || resp.Resolution.Best.TurnNumber != 1 {
		t.Errorf("best = %+v, want turn 1", resp.Resolution.Best)
	}
	if resp.Resolution.IsAmbiguous {
		t.Error("ordinal reference reported ambiguous")
	}
}
