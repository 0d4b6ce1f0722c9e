package app

import (
	"log"

	"github.com/ayusman/mudra/internal/actuator"
	"github.com/ayusman/mudra/internal/speech"
	"github.com/ayusman/mudra/internal/store"
)

// EventRecorder stores journaled actions in the events table.
type EventRecorder struct {
	events *store.EventRepository
}

// NewEventRecorder creates an EventRecorder backed by s.
func NewEventRecorder(s *store.Store) *EventRecorder {
	return &EventRecorder{events: s.Events()}
}

func (r *EventRecorder) Record(e actuator.Entry) error {
	return r.events.Create(&store.Event{
		Label:   e.Label,
		Action:  e.Action,
		Detail:  e.Detail,
		FiredAt: e.At,
	})
}

// SessionJournal stores finished capture sessions.
type SessionJournal struct {
	sessions *store.SessionRepository
}

// NewSessionJournal creates a SessionJournal backed by s.
func NewSessionJournal(s *store.Store) *SessionJournal {
	return &SessionJournal{sessions: s.Sessions()}
}

func (j *SessionJournal) ObserveSession(ev speech.SessionEvent) {
	sess := &store.Session{
		ID:        ev.ID,
		StartedAt: ev.StartedAt,
		EndedAt:   ev.EndedAt,
		Bytes:     ev.Bytes,
		Text:      ev.Text,
	}
	if ev.Err != nil {
		sess.Error = ev.Err.Error()
	}
	if err := j.sessions.Create(sess); err != nil {
		log.Printf("Failed to save capture session %s: %v", ev.ID, err)
	}
}
