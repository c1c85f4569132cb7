package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TurnIndexer ingests appended turns into a similarity index and drops
// per-session data when the session goes away.
type TurnIndexer interface {
	Index(ctx context.Context, turn *Turn) error
	DropSession(ctx context.Context, sessionID string) error
}

// Recorder appends turns and keeps the similarity index in step with the
// history. Index failures are logged and swallowed; the turn store is the
// source of truth and topical scoring degrades without vectors.
type Recorder struct {
	turns   *TurnStore
	indexer TurnIndexer
	log     zerolog.Logger
}

// NewRecorder wraps a turn store. indexer may be nil when no similarity
// index is configured.
func NewRecorder(turns *TurnStore, indexer TurnIndexer, log zerolog.Logger) *Recorder {
	return &Recorder{turns: turns, indexer: indexer, log: log}
}

// Turns exposes the wrapped store for read paths.
func (r *Recorder) Turns() *TurnStore {
	return r.turns
}

// Record appends one turn and feeds it to the index.
func (r *Recorder) Record(ctx context.Context, sessionID, query, response string, metadata map[string]string) (*Turn, error) {
	turn, err := r.turns.Append(ctx, sessionID, query, response, metadata)
	if err != nil {
		return nil, err
	}
	if r.indexer != nil {
		if err := r.indexer.Index(ctx, turn); err != nil {
			r.log.Warn().Err(err).Str("session", sessionID).Int("turn", turn.TurnNumber).
				Msg("indexing turn failed")
		}
	}
	return turn, nil
}

// Delete removes the session's turns and its index data.
func (r *Recorder) Delete(ctx context.Context, sessionID string) error {
	if r.indexer != nil {
		if err := r.indexer.DropSession(ctx, sessionID); err != nil {
			r.log.Warn().Err(err).Str("session", sessionID).Msg("dropping session index failed")
		}
	}
	return r.turns.DeleteSession(ctx, sessionID)
}

// PurgeIdle removes sessions idle for longer than idleFor along with
// their index data. Returns how many sessions went.
func (r *Recorder) PurgeIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	ids, err := r.turns.PurgeIdleSessions(ctx, idleFor)
	if err != nil {
		return 0, err
	}
	if r.indexer != nil {
		for _, id := range ids {
			if err := r.indexer.DropSession(ctx, id); err != nil {
				r.log.Warn().Err(err).Str("session", id).Msg("dropping session index failed")
			}
		}
	}
	return len(ids), nil
}
