package action

import "math"

// cursor is an exponentially smoothed screen position.
type cursor struct {
	x, y float64
	init bool
}

func (c *cursor) seed(x, y float64) {
	c.x, c.y = x, y
	c.init = true
}

// approach moves a fraction k of the remaining distance toward (tx, ty).
// For 0 < k <= 1 the offset shrinks by (1-k) per call and never overshoots.
func (c *cursor) approach(tx, ty, k float64) {
	c.x += (tx - c.x) * k
	c.y += (ty - c.y) * k
}

// pixel rounds the position and clamps it onto a w x h screen.
func (c *cursor) pixel(w, h int) (int, int) {
	x := int(math.Round(c.x))
	y := int(math.Round(c.y))
	return min(max(x, 0), w-1), min(max(y, 0), h-1)
}
