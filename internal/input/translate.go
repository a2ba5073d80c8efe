// Package input implements the coordinate translation, key/button
// vocabulary use, and simulation dispatch described in spec.md §4.9.
package input

// Translate maps a window-local pixel position (mx, my) within image rect
// (l, t, w, h) to remote-screen integer coordinates for a remote frame of
// size (W, H): remote_x = (mx-l)/w * W, remote_y = (my-t)/h * H, truncated
// to int32 (spec.md §4.9).
func Translate(mx, my, l, t, w, h, W, H int) (x, y int32) {
	if w == 0 || h == 0 {
		return 0, 0
	}
	x = int32(float64(mx-l) / float64(w) * float64(W))
	y = int32(float64(my-t) / float64(h) * float64(H))
	return x, y
}

// MoveCoalescer emits only when the translated integer coordinate changes
// from the last emitted value (spec.md §4.9: mouse-move events are
// coalesced per tick).
type MoveCoalescer struct {
	hasLast  bool
	lastX, lastY int32
}

// Next reports whether (x, y) should be emitted, updating internal state
// when it does.
func (c *MoveCoalescer) Next(x, y int32) bool {
	if c.hasLast && c.lastX == x && c.lastY == y {
		return false
	}
	c.hasLast = true
	c.lastX, c.lastY = x, y
	return true
}
