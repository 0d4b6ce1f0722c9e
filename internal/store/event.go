package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is one journaled desktop action.
type Event struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Action  string    `json:"action"`
	Detail  string    `json:"detail,omitempty"`
	FiredAt time.Time `json:"fired_at"`
}

// EventRepository stores the action journal.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts an event. An empty ID is assigned a new UUID and a zero
// FiredAt is set to now.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.FiredAt.IsZero() {
		e.FiredAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO action_events (id, label, action, detail, fired_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Label, e.Action, e.Detail, e.FiredAt,
	)
	return err
}

// List returns up to limit events, newest first.
func (r *EventRepository) List(limit int) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, label, action, detail, fired_at FROM action_events
		 ORDER BY fired_at DESC, rowid DESC LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.Label, &e.Action, &e.Detail, &e.FiredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// Count returns the number of journaled events.
func (r *EventRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM action_events`).Scan(&n)
	return n, err
}
