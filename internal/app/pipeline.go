package app

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/status"
)

// runPipeline is the detection loop. Each frame:
//  1. apply a pending pause (release held keys, forget votes)
//  2. extract the finger signature
//  3. vote over the recent window
//  4. classify to a label
//  5. step the action machine
//  6. publish the status update
//
// Frame errors are logged and retried after ErrorDelay; io.EOF ends the loop.
func (a *App) runPipeline(ctx context.Context) error {
	failing := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hand, err := a.source.NextFrame()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			log.Printf("Error reading frame: %v", err)
			if !failing {
				// No frames means no tracking: let go of alt and capture.
				a.machine.Release()
				a.voter.Reset()
				if a.config.OnError != nil {
					a.config.OnError(err)
				}
			}
			failing = true
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.config.ErrorDelay):
			}
			continue
		}
		failing = false

		a.sink.Update(a.step(a.now(), hand))
		a.frames.Add(1)
	}
}

// step runs one pipeline iteration and returns its status.
func (a *App) step(now time.Time, hand *detector.HandLandmarks) status.Update {
	a.mu.Lock()
	enabled, release := a.enabled, a.release
	a.release = false
	a.mu.Unlock()

	if release {
		a.machine.Release()
		a.voter.Reset()
	}
	if !enabled {
		return status.Update{Label: gesture.Scanning, Note: NotePaused, At: now}
	}

	label := a.classify(hand)
	if a.labeler != nil {
		a.labeler.SetLabel(label.String())
	}

	res := a.machine.Step(now, label, hand)
	return status.Update{
		Label:    res.Label,
		Progress: res.Progress,
		Note:     res.Note,
		Fired:    string(res.Fired),
		Enabled:  true,
		At:       now,
	}
}

func (a *App) classify(hand *detector.HandLandmarks) gesture.Label {
	sig, ok := gesture.Extract(hand, a.config.Thresholds)
	if !ok {
		if a.config.ResetVoterOnLoss {
			a.voter.Reset()
		}
		return a.classifier.Classify(sig, nil, false)
	}
	return a.classifier.Classify(a.voter.Vote(sig), hand, true)
}
