package speech

import (
	"context"
	"errors"
	"sync"
)

// MockSource hands out MockStreams for testing.
type MockSource struct {
	mu      sync.Mutex
	opens   int
	openErr error
	// OnOpen runs before each Open returns.
	OnOpen func()
	// NewStream builds the stream for each Open. Defaults to silent chunks.
	NewStream func() *MockStream
	streams   []*MockStream
}

// Open returns a new stream, or the error set with SetOpenError.
func (s *MockSource) Open() (Stream, error) {
	s.mu.Lock()
	s.opens++
	err := s.openErr
	onOpen := s.OnOpen
	newStream := s.NewStream
	s.mu.Unlock()

	if onOpen != nil {
		onOpen()
	}
	if err != nil {
		return nil, err
	}

	var st *MockStream
	if newStream != nil {
		st = newStream()
	} else {
		st = &MockStream{ChunkSize: 2048}
	}
	s.mu.Lock()
	s.streams = append(s.streams, st)
	s.mu.Unlock()
	return st, nil
}

// SetOpenError makes Open fail with err.
func (s *MockSource) SetOpenError(err error) {
	s.mu.Lock()
	s.openErr = err
	s.mu.Unlock()
}

// Opens returns how many times Open was called.
func (s *MockSource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Streams returns the streams opened so far.
func (s *MockSource) Streams() []*MockStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*MockStream(nil), s.streams...)
}

// MockStream returns ChunkSize zero bytes per read. After Limit reads (if
// non-zero) it calls OnLimit once. Reads listed in Overflow return
// ErrInputOverflowed; a read numbered FailAt returns an error.
type MockStream struct {
	ChunkSize int
	Limit     int
	OnLimit   func()
	Overflow  map[int]bool
	FailAt    int

	mu     sync.Mutex
	reads  int
	closed bool
}

var errMockRead = errors.New("mock read failure")

func (m *MockStream) ReadChunk() ([]byte, error) {
	m.mu.Lock()
	m.reads++
	n := m.reads
	m.mu.Unlock()

	if m.FailAt > 0 && n == m.FailAt {
		return nil, errMockRead
	}
	if m.Limit > 0 && n == m.Limit && m.OnLimit != nil {
		m.OnLimit()
	}
	chunk := make([]byte, m.ChunkSize)
	if m.Overflow[n] {
		return chunk, ErrInputOverflowed
	}
	return chunk, nil
}

func (m *MockStream) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Reads returns the number of ReadChunk calls.
func (m *MockStream) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Closed reports whether Close was called.
func (m *MockStream) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockTranscriber returns a fixed transcript.
type MockTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls [][]byte
}

// NewMockTranscriber creates a MockTranscriber returning text.
func NewMockTranscriber(text string) *MockTranscriber {
	return &MockTranscriber{text: text}
}

// SetResult changes the transcript and error returned.
func (m *MockTranscriber) SetResult(text string, err error) {
	m.mu.Lock()
	m.text, m.err = text, err
	m.mu.Unlock()
}

func (m *MockTranscriber) Transcribe(_ context.Context, pcm []byte, _, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, pcm)
	return m.text, m.err
}

// Calls returns the buffers passed to Transcribe.
func (m *MockTranscriber) Calls() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.calls...)
}
