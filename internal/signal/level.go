// Package signal provides the level-triggered capture flag shared by the
// action state machine and the speech coordinator.
package signal

import (
	"context"
	"sync"
)

// Level is a boolean level with one writer and one reader. Only the
// instantaneous value is observable: a Set followed by a Clear before the
// reader looks is indistinguishable from no change at all.
//
// The zero value is ready to use and cleared.
type Level struct {
	mu  sync.Mutex
	set bool
	// raised is closed while the level is set and replaced on Clear.
	raised chan struct{}
}

// NewLevel creates a cleared Level.
func NewLevel() *Level {
	return &Level{}
}

func (l *Level) init() {
	if l.raised == nil {
		l.raised = make(chan struct{})
	}
}

// Set raises the level. It reports whether the level changed.
func (l *Level) Set() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.init()
	if l.set {
		return false
	}
	l.set = true
	close(l.raised)
	return true
}

// Clear lowers the level. It reports whether the level changed.
func (l *Level) Clear() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.init()
	if !l.set {
		return false
	}
	l.set = false
	l.raised = make(chan struct{})
	return true
}

// IsSet returns the current level.
func (l *Level) IsSet() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set
}

// Wait blocks until the level is set or ctx is done.
func (l *Level) Wait(ctx context.Context) error {
	l.mu.Lock()
	l.init()
	ch := l.raised
	l.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
