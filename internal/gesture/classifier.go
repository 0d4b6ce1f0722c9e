package gesture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

// ThumbOnly is the signature of a fist with only the thumb out. It is not
// looked up in the table: the thumb direction picks VolumeUp or VolumeDown.
var ThumbOnly = Sig(1, 0, 0, 0, 0)

// Table maps stable signatures to labels.
type Table map[Signature]Label

// DefaultTable returns the standard gesture mapping.
func DefaultTable() Table {
	return Table{
		Sig(0, 1, 0, 0, 0): CursorMode,
		Sig(1, 1, 0, 0, 0): SpeechToText,
		Sig(0, 1, 1, 0, 0): VictorySpace,
		Sig(0, 1, 1, 1, 0): BrightnessUp,
		Sig(0, 1, 1, 1, 1): BrightnessDown,
		Sig(1, 1, 1, 1, 1): OpenPalmSnap,
		Sig(0, 0, 0, 0, 0): FistAltTab,
	}
}

// Validate rejects tables that map to non-actionable or direction-resolved
// labels, or that claim the thumb-only signature.
func (t Table) Validate() error {
	var errs []error
	for sig, label := range t {
		if sig == ThumbOnly {
			errs = append(errs, fmt.Errorf("signature %s is reserved for volume direction", sig))
			continue
		}
		switch label {
		case Scanning, Unknown, VolumeUp, VolumeDown:
			errs = append(errs, fmt.Errorf("signature %s: label %q cannot be mapped", sig, label))
		}
	}
	return errors.Join(errs...)
}

// Classifier resolves voted signatures to labels.
type Classifier struct {
	table Table
}

// NewClassifier creates a Classifier over table. A nil table selects DefaultTable.
func NewClassifier(table Table) (*Classifier, error) {
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gesture table: %w", err)
	}
	return &Classifier{table: table}, nil
}

// Classify returns the label for a voted signature. ok reports whether a
// hand was detected this frame; hand supplies the landmarks for the thumb
// direction test and may be nil only when ok is false.
func (c *Classifier) Classify(sig Signature, hand *detector.HandLandmarks, ok bool) Label {
	if !ok || hand == nil {
		return Scanning
	}
	if sig == ThumbOnly {
		if hand.Points[detector.ThumbTip].Y < hand.Points[detector.ThumbIP].Y {
			return VolumeUp
		}
		return VolumeDown
	}
	if label, found := c.table[sig]; found {
		return label
	}
	return Unknown
}

var defaultClassifier = &Classifier{table: DefaultTable()}

// Classify resolves sig with the default table.
func Classify(sig Signature, hand *detector.HandLandmarks, ok bool) Label {
	return defaultClassifier.Classify(sig, hand, ok)
}

// MarshalText encodes the signature as five 0/1 digits, thumb first.
func (s Signature) MarshalText() ([]byte, error) {
	b := make([]byte, NumFingers)
	for i, up := range s {
		b[i] = '0'
		if up {
			b[i] = '1'
		}
	}
	return b, nil
}

// UnmarshalText accepts "01000" or "(0,1,0,0,0)".
func (s *Signature) UnmarshalText(text []byte) error {
	digits := strings.NewReplacer("(", "", ")", "", ",", "", " ", "").Replace(string(text))
	if len(digits) != NumFingers {
		return fmt.Errorf("signature %q: want %d fingers", text, NumFingers)
	}
	var out Signature
	for i, c := range digits {
		switch c {
		case '0':
		case '1':
			out[i] = true
		default:
			return fmt.Errorf("signature %q: invalid digit %q", text, c)
		}
	}
	*s = out
	return nil
}
