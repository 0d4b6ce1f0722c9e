// Package gesture reduces hand landmarks to finger signatures, stabilizes
// them over time and resolves them to gesture labels.
package gesture

import (
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

// Finger positions within a Signature.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// Signature records, per finger, whether it is extended.
// Order is thumb, index, middle, ring, pinky.
type Signature [NumFingers]bool

// Sig builds a Signature from 0/1 flags, thumb first.
func Sig(thumb, index, middle, ring, pinky int) Signature {
	return Signature{thumb != 0, index != 0, middle != 0, ring != 0, pinky != 0}
}

// String renders the signature as "(1,0,0,0,0)".
func (s Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, up := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte(')')
	return b.String()
}

// Thresholds are the ratio multipliers used by Extract.
type Thresholds struct {
	// FingerRatio: a finger is extended when tip-to-wrist exceeds
	// MCP-to-wrist by this factor.
	FingerRatio float64 `json:"finger_ratio"`
	// ThumbRatio: the thumb is extended when tip-to-pinky-MCP exceeds
	// thumb-MCP-to-pinky-MCP by this factor.
	ThumbRatio float64 `json:"thumb_ratio"`
}

// DefaultThresholds returns the standard 1.1 finger and 1.2 thumb ratios.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FingerRatio: 1.1,
		ThumbRatio:  1.2,
	}
}

// fingerJoints pairs each non-thumb finger tip with its MCP joint.
var fingerJoints = [4][2]int{
	{detector.IndexTip, detector.IndexMCP},
	{detector.MiddleTip, detector.MiddleMCP},
	{detector.RingTip, detector.RingMCP},
	{detector.PinkyTip, detector.PinkyMCP},
}

// Extract computes the finger signature of a hand. It reports false when
// there is no hand.
//
// Ratios rather than absolute distances keep the test independent of how
// far the hand is from the camera.
func Extract(hand *detector.HandLandmarks, th Thresholds) (Signature, bool) {
	if hand == nil {
		return Signature{}, false
	}

	var sig Signature
	sig[Thumb] = hand.Distance(detector.ThumbTip, detector.PinkyMCP) >
		hand.Distance(detector.ThumbMCP, detector.PinkyMCP)*th.ThumbRatio

	for i, j := range fingerJoints {
		tipToWrist := hand.Distance(j[0], detector.Wrist)
		mcpToWrist := hand.Distance(j[1], detector.Wrist)
		sig[Index+i] = tipToWrist > mcpToWrist*th.FingerRatio
	}

	return sig, true
}
