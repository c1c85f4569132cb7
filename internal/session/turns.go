package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anaphor-dev/anaphor/internal/db"
)

// DefaultWindow is how many recent turns the history window carries.
const DefaultWindow = 20

// TurnStore manages sessions and their append-only turn history.
type TurnStore struct {
	db *db.DB
}

// NewTurnStore creates a turn store over the given database.
func NewTurnStore(database *db.DB) *TurnStore {
	return &TurnStore{db: database}
}

// CreateSession creates a new session with a generated ID.
func (s *TurnStore) CreateSession(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	sess := Session{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		sess.ID, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return &sess, nil
}

// Append records the next turn of a session. Turn numbers start at 1 and
// increase monotonically; assignment is atomic within the transaction. The
// session row is created on first use for caller-chosen session IDs.
func (s *TurnStore) Append(ctx context.Context, sessionID, query, response string, metadata map[string]string) (*Turn, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if response == "" {
		return nil, errors.New("response cannot be empty")
	}

	meta := "{}"
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encoding turn metadata: %w", err)
		}
		meta = string(b)
	}

	now := time.Now().UTC()
	turn := Turn{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Query:     query,
		Response:  response,
		Metadata:  metadata,
		CreatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, created_at, updated_at) VALUES (?, ?, ?)`,
		sessionID, now, now,
	); err != nil {
		return nil, fmt.Errorf("ensuring session: %w", err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(turn_number), 0) + 1 FROM turns WHERE session_id = ?`, sessionID,
	).Scan(&turn.TurnNumber); err != nil {
		return nil, fmt.Errorf("assigning turn number: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, turn_number, query, response, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.TurnNumber, turn.Query, turn.Response, meta, turn.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("inserting turn: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, now, sessionID,
	); err != nil {
		return nil, fmt.Errorf("touching session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing turn: %w", err)
	}
	return &turn, nil
}

// Window returns the sliding history window: the most recent n turns plus
// always the first turn of the session, in ascending turn order. n <= 0
// selects DefaultWindow.
func (s *TurnStore) Window(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	if n <= 0 {
		n = DefaultWindow
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, turn_number, query, response, metadata, created_at
		 FROM turns WHERE session_id = ?
		 ORDER BY turn_number DESC LIMIT ?`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history window: %w", err)
	}
	recent, err := scanTurns(rows)
	if err != nil {
		return nil, err
	}

	// Reverse into ascending order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	if len(recent) == 0 || recent[0].TurnNumber == 1 {
		return recent, nil
	}

	// The window scrolled past the session opener; prepend it.
	first, err := s.Turn(ctx, sessionID, 1)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return recent, nil
	}
	return append([]Turn{*first}, recent...), nil
}

// Turn fetches a single turn by its number within the session. Returns nil
// when no such turn exists.
func (s *TurnStore) Turn(ctx context.Context, sessionID string, number int) (*Turn, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, turn_number, query, response, metadata, created_at
		 FROM turns WHERE session_id = ? AND turn_number = ?`,
		sessionID, number,
	)

	var t Turn
	var meta string
	err := row.Scan(&t.ID, &t.SessionID, &t.TurnNumber, &t.Query, &t.Response, &meta, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting turn %d: %w", number, err)
	}
	decodeMetadata(&t, meta)
	return &t, nil
}

// List returns up to limit turns of the session in ascending order.
// limit <= 0 returns all of them.
func (s *TurnStore) List(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	query := `SELECT id, session_id, turn_number, query, response, metadata, created_at
		 FROM turns WHERE session_id = ? ORDER BY turn_number ASC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	return scanTurns(rows)
}

// DeleteSession removes a session and all of its turns. Turns only ever
// leave the store this way, en masse with their session.
func (s *TurnStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return tx.Commit()
}

// PurgeIdleSessions deletes sessions whose last activity is older than
// idleFor, together with their turns. Returns the ids of the sessions
// that went so callers can clean up derived data.
func (s *TurnStore) PurgeIdleSessions(ctx context.Context, idleFor time.Duration) ([]string, error) {
	cutoff := time.Now().UTC().Add(-idleFor)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids, err := scanIDs(tx.QueryContext(ctx, `SELECT id FROM sessions WHERE updated_at < ?`, cutoff))
	if err != nil {
		return nil, fmt.Errorf("finding idle sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM turns WHERE session_id IN (SELECT id FROM sessions WHERE updated_at < ?)`, cutoff,
	); err != nil {
		return nil, fmt.Errorf("purging idle turns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("purging idle sessions: %w", err)
	}
	return ids, tx.Commit()
}

func scanIDs(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanTurns(rows *sql.Rows) ([]Turn, error) {
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var meta string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.TurnNumber, &t.Query, &t.Response, &meta, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		decodeMetadata(&t, meta)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func decodeMetadata(t *Turn, meta string) {
	if meta == "" || meta == "{}" {
		return
	}
	// Metadata is informational; a bad blob should not fail a read.
	_ = json.Unmarshal([]byte(meta), &t.Metadata)
}
