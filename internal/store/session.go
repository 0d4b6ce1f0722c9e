package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is one finished speech capture session.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Bytes     int       `json:"bytes"`
	Text      string    `json:"text,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Duration returns how long the session recorded.
func (s *Session) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionRepository stores capture sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a session.
func (r *SessionRepository) Create(s *Session) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	_, err := r.db.Exec(
		`INSERT INTO capture_sessions (id, started_at, ended_at, bytes, text, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.StartedAt, s.EndedAt, s.Bytes, s.Text, s.Error,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s := &Session{}
	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, bytes, text, error FROM capture_sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.Bytes, &s.Text, &s.Error)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns up to limit sessions, newest first.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, bytes, text, error FROM capture_sessions
		 ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.EndedAt, &s.Bytes, &s.Text, &s.Error); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
