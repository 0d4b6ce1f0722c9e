package capture

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestFrameBuffer_PublishOnlyWhileWatched(t *testing.T) {
	b := NewFrameBuffer()
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	if err := b.Publish(&frame); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if _, seq, _ := b.Latest(); seq != 0 {
		t.Errorf("frame encoded with no viewers, seq = %d", seq)
	}

	stop := b.Watch()
	if !b.Watching() {
		t.Fatal("Watching() = false after Watch()")
	}
	if err := b.Publish(&frame); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	jpeg, seq, _ := b.Latest()
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
	if len(jpeg) < 2 || jpeg[0] != 0xFF || jpeg[1] != 0xD8 {
		t.Error("published frame is not a JPEG")
	}

	stop()
	stop()
	if b.Watching() {
		t.Error("Watching() = true after stop")
	}
}

func TestFrameBuffer_LatestWakesOnPublish(t *testing.T) {
	b := NewFrameBuffer()
	_, _, next := b.Latest()

	go b.PublishJPEG([]byte{0xFF, 0xD8})

	select {
	case <-next:
	case <-time.After(time.Second):
		t.Fatal("Latest() channel not closed by PublishJPEG")
	}
	if jpeg, seq, _ := b.Latest(); seq != 1 || len(jpeg) != 2 {
		t.Errorf("Latest() = %v, %d", jpeg, seq)
	}
}
