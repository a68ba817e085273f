package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sensai/internal/models"
)

// ErrDocNotFound is returned by Append when the user has no document yet.
var ErrDocNotFound = errors.New("session document not found")

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite {
	return &SessionSQLite{db: db}
}

var _ SessionRepo = (*SessionSQLite)(nil)

const (
	selectSessionDocSQL = `SELECT sessions FROM session_docs WHERE user_id = ?`

	insertSessionDocSQL = `INSERT INTO session_docs (user_id, sessions, updated_at) VALUES (?, ?, ?)`

	// json_insert with '$[#]' appends to the end of the stored array.
	appendSessionSQL = `
		UPDATE session_docs
		SET sessions = json_insert(sessions, '$[#]', json(?)), updated_at = ?
		WHERE user_id = ?
	`

	resetSessionDocSQL = `
		INSERT INTO session_docs (user_id, sessions, updated_at)
		VALUES (?, '[]', ?)
		ON CONFLICT(user_id) DO UPDATE SET
			sessions='[]',
			updated_at=excluded.updated_at
	`
)

// Load returns the user's sessions in insertion order; none if there is no document.
func (r *SessionSQLite) Load(ctx context.Context, userID string) ([]models.SessionData, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, selectSessionDocSQL, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.SessionData{}, nil
		}
		return nil, fmt.Errorf("select sessions of %s: %w", userID, err)
	}
	out := []models.SessionData{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode sessions of %s: %w", userID, err)
	}
	return out, nil
}

// Append adds one session to an existing document.
func (r *SessionSQLite) Append(ctx context.Context, userID string, s models.SessionData) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	res, err := r.db.ExecContext(ctx, appendSessionSQL, string(b), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("append session of %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append session of %s: %w", userID, err)
	}
	if n == 0 {
		return ErrDocNotFound
	}
	return nil
}

// Create writes a new document with the given sessions.
func (r *SessionSQLite) Create(ctx context.Context, userID string, sessions []models.SessionData) error {
	if sessions == nil {
		sessions = []models.SessionData{}
	}
	b, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, insertSessionDocSQL, userID, string(b), time.Now().UTC()); err != nil {
		return fmt.Errorf("create session document of %s: %w", userID, err)
	}
	return nil
}

// Reset empties the user's document, creating it if needed.
func (r *SessionSQLite) Reset(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, resetSessionDocSQL, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reset sessions of %s: %w", userID, err)
	}
	return nil
}
