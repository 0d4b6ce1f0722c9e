package actuator

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Entry is one journaled action.
type Entry struct {
	Label  string
	Action string
	Detail string
	At     time.Time
}

// Recorder persists journal entries.
type Recorder interface {
	Record(e Entry) error
}

// DefaultJournalQueue is the number of entries a Journal buffers before
// dropping.
const DefaultJournalQueue = 128

// Journal wraps an Actuator and records every discrete action it passes
// through. Cursor moves are forwarded but not recorded. Entries are written
// by a background goroutine so a slow Recorder never stalls the caller;
// Close flushes them.
type Journal struct {
	next Actuator
	rec  Recorder
	now  func() time.Time

	mu      sync.Mutex
	label   string
	entries chan Entry
	closed  bool
	done    chan struct{}
}

// NewJournal creates a Journal forwarding to next and recording into rec.
func NewJournal(next Actuator, rec Recorder) *Journal {
	j := &Journal{
		next:    next,
		rec:     rec,
		now:     time.Now,
		entries: make(chan Entry, DefaultJournalQueue),
		done:    make(chan struct{}),
	}
	go j.write()
	return j
}

func (j *Journal) write() {
	defer close(j.done)
	for e := range j.entries {
		if err := j.rec.Record(e); err != nil {
			log.Printf("Failed to journal %s: %v", e.Action, err)
		}
	}
}

// SetLabel sets the gesture label stamped onto subsequent gesture entries.
func (j *Journal) SetLabel(label string) {
	j.mu.Lock()
	j.label = label
	j.mu.Unlock()
}

// Close writes the pending entries and stops the writer. Actions after
// Close are still forwarded but no longer recorded.
func (j *Journal) Close() {
	j.mu.Lock()
	if !j.closed {
		j.closed = true
		close(j.entries)
	}
	j.mu.Unlock()
	<-j.done
}

// record queues an entry stamped with the current gesture label.
func (j *Journal) record(action, detail string) {
	j.mu.Lock()
	label := j.label
	j.mu.Unlock()
	j.enqueue(Entry{Label: label, Action: action, Detail: detail, At: j.now()})
}

func (j *Journal) enqueue(e Entry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return
	}
	select {
	case j.entries <- e:
	default:
		log.Printf("Journal queue full, dropping %s", e.Action)
	}
}

func (j *Journal) MoveCursor(x, y int) {
	j.next.MoveCursor(x, y)
}

func (j *Journal) Click() {
	j.next.Click()
	j.record(ActionClick, "")
}

func (j *Journal) PressKey(name string) {
	j.next.PressKey(name)
	j.record(ActionKeyPress, name)
}

func (j *Journal) KeyDown(name string) {
	j.next.KeyDown(name)
	j.record(ActionKeyDown, name)
}

func (j *Journal) KeyUp(name string) {
	j.next.KeyUp(name)
	j.record(ActionKeyUp, name)
}

func (j *Journal) SetBrightness(percent int) {
	j.next.SetBrightness(percent)
	j.record(ActionBrightnessSet, fmt.Sprintf("%d", percent))
}

func (j *Journal) Brightness() int {
	return j.next.Brightness()
}

func (j *Journal) SaveScreenshot(path string) {
	j.next.SaveScreenshot(path)
	j.record(ActionScreenshot, path)
}

// TypeText entries carry no label: typing comes from speech capture, not
// from the gesture currently in view.
func (j *Journal) TypeText(text string) {
	j.next.TypeText(text)
	j.enqueue(Entry{Action: ActionTypeText, Detail: text, At: j.now()})
}

// CursorPosition forwards to the wrapped actuator when it supports it.
func (j *Journal) CursorPosition() (x, y int, ok bool) {
	if cp, ok := j.next.(CursorPositioner); ok {
		return cp.CursorPosition()
	}
	return 0, 0, false
}
