package gesture

// DefaultWindow is the number of recent signatures considered by a Voter.
const DefaultWindow = 5

// Voter smooths per-frame signatures by majority vote over a sliding window.
//
// Ties are resolved toward the previous vote so the output does not
// oscillate between equally frequent signatures. Without a usable previous
// vote the most recently inserted of the tied signatures wins.
type Voter struct {
	window  []Signature
	size    int
	last    Signature
	hasLast bool
}

// NewVoter creates a Voter over the last capacity signatures.
// A non-positive capacity selects DefaultWindow.
func NewVoter(capacity int) *Voter {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &Voter{
		window: make([]Signature, 0, capacity),
		size:   capacity,
	}
}

// Vote records sig and returns the voted signature for the current window.
func (v *Voter) Vote(sig Signature) Signature {
	if len(v.window) >= v.size {
		copy(v.window, v.window[1:])
		v.window = v.window[:v.size-1]
	}
	v.window = append(v.window, sig)

	counts := make(map[Signature]int, len(v.window))
	best := 0
	for _, s := range v.window {
		counts[s]++
		if counts[s] > best {
			best = counts[s]
		}
	}

	var voted Signature
	switch {
	case v.hasLast && counts[v.last] == best:
		voted = v.last
	default:
		// Newest first: the first signature found with the top count is
		// the most recently inserted among the tied ones.
		for i := len(v.window) - 1; i >= 0; i-- {
			if counts[v.window[i]] == best {
				voted = v.window[i]
				break
			}
		}
	}

	v.last = voted
	v.hasLast = true
	return voted
}

// Reset empties the window and forgets the previous vote.
func (v *Voter) Reset() {
	v.window = v.window[:0]
	v.hasLast = false
}

// Len returns the number of signatures currently in the window.
func (v *Voter) Len() int {
	return len(v.window)
}
