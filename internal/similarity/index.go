package similarity

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/anaphor-dev/anaphor/internal/embeddings"
	"github.com/anaphor-dev/anaphor/internal/session"
)

const collectionPrefix = "turns-"

// TurnIndex keeps one persistent chromem collection of turn text per
// session and scores queries against it with embeddings. It implements
// the reference scorer contract; the session comes from the turn itself.
type TurnIndex struct {
	db        *chromem.DB
	embedder  embeddings.Embedder
	embedFunc chromem.EmbeddingFunc

	// One resolve pass scores every turn in the window against the same
	// query, so memoizing the last query keeps that to one embedding call.
	mu       sync.Mutex
	lastKey  string
	lastSims map[string]float64
}

// NewTurnIndex opens (or creates) the vector store under dir.
func NewTurnIndex(dir string, embedder embeddings.Embedder) (*TurnIndex, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	return &TurnIndex{
		db:        db,
		embedder:  embedder,
		embedFunc: toEmbeddingFunc(embedder),
	}, nil
}

// toEmbeddingFunc adapts an Embedder to chromem's one-text-at-a-time shape.
func toEmbeddingFunc(e embeddings.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vecs) == 0 {
			return nil, fmt.Errorf("embedder %s returned no vector", e.Name())
		}
		return vecs[0], nil
	}
}

// Index adds one turn to its session's collection.
func (x *TurnIndex) Index(ctx context.Context, turn *session.Turn) error {
	col, err := x.db.GetOrCreateCollection(collectionPrefix+turn.SessionID, nil, x.embedFunc)
	if err != nil {
		return fmt.Errorf("opening session collection: %w", err)
	}

	doc := chromem.Document{
		ID:      turn.ID,
		Content: turn.Query + "\n" + turn.Response,
		Metadata: map[string]string{
			"turn_number": strconv.Itoa(turn.TurnNumber),
			"created_at":  turn.CreatedAt.Format(time.RFC3339),
		},
	}
	if err := col.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("indexing turn %d: %w", turn.TurnNumber, err)
	}
	x.invalidate()
	return nil
}

// DropSession removes a session's collection. Missing collections are fine.
func (x *TurnIndex) DropSession(_ context.Context, sessionID string) error {
	x.invalidate()
	return x.db.DeleteCollection(collectionPrefix + sessionID)
}

func (x *TurnIndex) invalidate() {
	x.mu.Lock()
	x.lastKey, x.lastSims = "", nil
	x.mu.Unlock()
}

// Score returns the cosine similarity between the query and the turn's
// indexed text. Turns that never made it into the index score 0.
func (x *TurnIndex) Score(ctx context.Context, query string, turn *session.Turn) (float64, error) {
	sims, err := x.sessionSimilarities(ctx, turn.SessionID, query)
	if err != nil {
		return 0, err
	}
	return sims[turn.ID], nil
}

func (x *TurnIndex) sessionSimilarities(ctx context.Context, sessionID, query string) (map[string]float64, error) {
	key := sessionID + "\x00" + query

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.lastKey == key && x.lastSims != nil {
		return x.lastSims, nil
	}

	sims := map[string]float64{}
	col := x.db.GetCollection(collectionPrefix+sessionID, x.embedFunc)
	if col != nil && col.Count() > 0 {
		results, err := col.Query(ctx, query, col.Count(), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("querying session vectors: %w", err)
		}
		for _, r := range results {
			sims[r.ID] = float64(r.Similarity)
		}
	}

	x.lastKey = key
	x.lastSims = sims
	return sims, nil
}
