package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anaphor-dev/anaphor/internal/db"
)

// SQLiteBackend persists clarification state in the clarification_states
// table, one row per session. SQLite gives the per-key atomicity the
// Backend contract asks for.
type SQLiteBackend struct {
	db *db.DB
}

// NewSQLiteBackend creates a state backend over the given database.
func NewSQLiteBackend(database *db.DB) *SQLiteBackend {
	return &SQLiteBackend{db: database}
}

func (b *SQLiteBackend) Put(ctx context.Context, sessionID string, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO clarification_states (session_id, state, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, created_at = excluded.created_at`,
		sessionID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing state for session %s: %w", sessionID, err)
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, sessionID string) ([]byte, bool, error) {
	var state string
	err := b.db.QueryRowContext(ctx,
		`SELECT state FROM clarification_states WHERE session_id = ?`, sessionID,
	).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading state for session %s: %w", sessionID, err)
	}
	return []byte(state), true, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, sessionID string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM clarification_states WHERE session_id = ?`, sessionID,
	)
	if err != nil {
		return fmt.Errorf("deleting state for session %s: %w", sessionID, err)
	}
	return nil
}
