// Package status carries per-frame pipeline status to display surfaces.
package status

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Update is the status of one pipeline iteration.
type Update struct {
	Label    gesture.Label `json:"label"`
	Progress float64       `json:"progress"`
	Note     string        `json:"note,omitempty"`
	// Fired names the action actuated this frame, if any.
	Fired   string    `json:"fired,omitempty"`
	Enabled bool      `json:"enabled"`
	At      time.Time `json:"at"`
}

// Sink receives status updates. Update is called from the pipeline
// goroutine once per frame and must not block.
type Sink interface {
	Update(u Update)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(u Update)

func (f SinkFunc) Update(u Update) { f(u) }

// Multi fans updates out to every sink in order.
type Multi []Sink

func (m Multi) Update(u Update) {
	for _, s := range m {
		s.Update(u)
	}
}

// Latest remembers the most recent update.
type Latest struct {
	mu   sync.RWMutex
	last Update
	ok   bool
}

func (l *Latest) Update(u Update) {
	l.mu.Lock()
	l.last, l.ok = u, true
	l.mu.Unlock()
}

// Get returns the last update and whether there has been one.
func (l *Latest) Get() (Update, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last, l.ok
}

// Broadcaster forwards updates to subscribers. A slow subscriber only ever
// sees the newest pending update.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Update]struct{}
}

// NewBroadcaster creates a Broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Update]struct{})}
}

// Subscribe returns a channel of updates and a function that ends the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) Update(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case <-ch:
		default:
		}
		ch <- u
	}
}

// LabelLogger logs each change of gesture label and every fired action.
type LabelLogger struct {
	last gesture.Label
	seen bool
}

func (l *LabelLogger) Update(u Update) {
	if !l.seen || u.Label != l.last {
		log.Printf("Gesture: %s", u.Label)
		l.last, l.seen = u.Label, true
	}
	if u.Fired != "" {
		log.Printf("Action: %s", u.Fired)
	}
}
