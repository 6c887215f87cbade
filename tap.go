package dust

// Tap is a persistent list of output transforms. Every string written to
// a chunk runs through the chunk's taps, newest first.
//
// Push never modifies the receiver, so two sections that extend the same
// chain do not see each other's transforms.
type Tap struct {
	head func(string) string
	tail *Tap
}

// NewTap creates a chain holding a single transform.
func NewTap(fn func(string) string) *Tap {
	return &Tap{head: fn}
}

// Push returns a new chain with fn in front of t.
func (t *Tap) Push(fn func(string) string) *Tap {
	return &Tap{head: fn, tail: t}
}

// Tail returns the chain without its newest transform.
func (t *Tap) Tail() *Tap {
	if t == nil {
		return nil
	}
	return t.tail
}

// Go applies the chain to s.
func (t *Tap) Go(s string) string {
	for tap := t; tap != nil; tap = tap.tail {
		s = tap.head(s)
	}
	return s
}
