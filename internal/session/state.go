package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL bounds how long a pending clarification stays answerable.
const DefaultTTL = 5 * time.Minute

// StateStore owns the clarification state lifecycle per session: overwrite
// on save, lazy TTL expiry on read, idempotent clear. A session is always
// either idle (no state) or awaiting clarification (state present and
// fresh); expiry is observed at most once because the expired entry is
// deleted by the read that notices it.
type StateStore struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
}

// NewStateStore wraps the backend with TTL semantics. A non-positive ttl
// selects DefaultTTL.
func NewStateStore(backend Backend, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &StateStore{backend: backend, ttl: ttl, now: time.Now}
}

// TTL returns the configured state lifetime.
func (s *StateStore) TTL() time.Duration {
	return s.ttl
}

// Save persists state for its session, replacing any prior state outright;
// there is no merging. CreatedAt is stamped here when unset, which is when
// the TTL clock starts.
func (s *StateStore) Save(ctx context.Context, state ClarificationState) error {
	if state.SessionID == "" {
		return errors.New("session id is required")
	}
	if state.Step <= 0 {
		state.Step = 1
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = s.now().UTC()
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding clarification state: %w", err)
	}
	if err := s.backend.Put(ctx, state.SessionID, data); err != nil {
		return fmt.Errorf("saving clarification state: %w", err)
	}
	return nil
}

// Get returns the pending state for the session, or nil when none exists.
// Expiry is enforced here and only here: a state older than the TTL is
// deleted on read and reported as absent. There is no background sweep.
func (s *StateStore) Get(ctx context.Context, sessionID string) (*ClarificationState, error) {
	data, ok, err := s.backend.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading clarification state: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var state ClarificationState
	if err := json.Unmarshal(data, &state); err != nil {
		// Undecodable state is as good as absent; drop it so the session
		// recovers on its own.
		_ = s.backend.Delete(ctx, sessionID)
		return nil, nil
	}

	if s.now().Sub(state.CreatedAt) > s.ttl {
		// Best effort: a failed delete just means the next read expires it
		// again.
		_ = s.backend.Delete(ctx, sessionID)
		return nil, nil
	}
	return &state, nil
}

// Clear removes any pending state for the session. Clearing an absent
// session is a no-op, never an error.
func (s *StateStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.backend.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clearing clarification state: %w", err)
	}
	return nil
}
