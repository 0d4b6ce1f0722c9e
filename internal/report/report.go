// Package report forwards errors to Sentry when a DSN is configured.
package report

import (
	"errors"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ayusman/mudra/internal/speech"
)

// FlushTimeout bounds how long Flush waits for queued events.
const FlushTimeout = 2 * time.Second

// Reporter sends errors to Sentry. A Reporter created with an empty DSN
// drops everything.
type Reporter struct {
	enabled bool
}

// New initializes Sentry. An empty dsn returns a disabled Reporter.
func New(dsn, release string) (*Reporter, error) {
	if dsn == "" {
		return &Reporter{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          release,
		AttachStacktrace: true,
	})
	if err != nil {
		return &Reporter{}, err
	}
	log.Println("Sentry initialized")
	return &Reporter{enabled: true}, nil
}

// Enabled reports whether errors are forwarded.
func (r *Reporter) Enabled() bool {
	return r.enabled
}

// Error captures err tagged with component.
func (r *Reporter) Error(component string, err error) {
	if !r.enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", component)
		sentry.CaptureException(err)
	})
}

// ObserveSession captures session failures other than empty transcripts.
func (r *Reporter) ObserveSession(ev speech.SessionEvent) {
	err := sessionFailure(ev.Err)
	if err == nil || !r.enabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", "speech")
		scope.SetExtra("session", ev.ID)
		scope.SetExtra("bytes", ev.Bytes)
		sentry.CaptureException(err)
	})
}

// sessionFailure strips ErrEmptyTranscript from err, keeping any other
// error it was joined with.
func sessionFailure(err error) error {
	if err == nil || err == speech.ErrEmptyTranscript {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return err
	}
	var rest []error
	for _, e := range joined.Unwrap() {
		if e = sessionFailure(e); e != nil {
			rest = append(rest, e)
		}
	}
	return errors.Join(rest...)
}

// Recover reports a panic and re-panics. Use as a deferred call.
func (r *Reporter) Recover() {
	if !r.enabled {
		return
	}
	if v := recover(); v != nil {
		sentry.CurrentHub().Recover(v)
		sentry.Flush(FlushTimeout)
		panic(v)
	}
}

// Flush waits up to FlushTimeout for queued events to be sent.
func (r *Reporter) Flush() {
	if r.enabled {
		sentry.Flush(FlushTimeout)
	}
}
