package speech

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// Recorder writes session audio to WAV files for debugging transcription.
type Recorder struct {
	fs         afero.Fs
	dir        string
	sampleRate int
}

// NewRecorder creates a Recorder writing into dir on fs.
func NewRecorder(fs afero.Fs, dir string, sampleRate int) *Recorder {
	return &Recorder{fs: fs, dir: dir, sampleRate: sampleRate}
}

// ObserveSession saves the audio of every transcribed session.
func (r *Recorder) ObserveSession(ev SessionEvent) {
	if !ev.Transcribed {
		return
	}
	path, err := r.Save(ev.ID, ev.Audio)
	if err != nil {
		log.Printf("Failed to save session audio: %v", err)
		return
	}
	log.Printf("Saved session audio to %s", path)
}

// Save writes pcm as dir/session_<id>.wav and returns the path.
func (r *Recorder) Save(id string, pcm []byte) (string, error) {
	if err := r.fs.MkdirAll(r.dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, fmt.Sprintf("session_%s.wav", id))
	f, err := r.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, r.sampleRate, 16, 1, 1)
	if err := enc.Write(PCMBuffer(pcm, r.sampleRate)); err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("finish %s: %w", path, err)
	}
	return path, nil
}
