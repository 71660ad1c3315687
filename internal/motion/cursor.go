package motion

// Cursor is a playback position over a store of known length.
type Cursor struct {
	Index int
}

// Next advances by one frame, wrapping past the last frame to 0.
func (c *Cursor) Next(n int) {
	c.Index = Wrap(c.Index+1, n)
}

// Prev steps back one frame, wrapping below 0 to the last frame.
func (c *Cursor) Prev(n int) {
	c.Index = Wrap(c.Index-1, n)
}

// Seek moves to frame i, wrapped into [0, n).
func (c *Cursor) Seek(i, n int) {
	c.Index = Wrap(i, n)
}

// Wrap maps i into [0, n) for any integer i. n must be positive.
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
