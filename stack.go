package dust

import (
	"github.com/dustgo/dust/value"
)

// Stack is one scope frame. Frames are immutable and shared: pushing onto
// a context allocates a new frame whose tail is the previous one.
type Stack struct {
	head     value.Value
	tail     *Stack
	isObject bool

	// set only on frames pushed while iterating a sequence
	indexed bool
	index   int
	length  int
}

// NewStack creates a single frame holding head.
func NewStack(head value.Value) *Stack {
	return newStack(head, nil)
}

func newStack(head value.Value, tail *Stack) *Stack {
	return &Stack{
		head:     head,
		tail:     tail,
		isObject: head.IsStructured(),
	}
}

func newIndexedStack(head value.Value, tail *Stack, index, length int) *Stack {
	s := newStack(head, tail)
	s.indexed = true
	s.index = index
	s.length = length
	return s
}

// withTail returns a copy of s on top of tail. Iteration metadata is kept.
func (s *Stack) withTail(tail *Stack) *Stack {
	cp := *s
	cp.tail = tail
	return &cp
}

// Head returns the value of the frame.
func (s *Stack) Head() value.Value {
	if s == nil {
		return value.Undefined()
	}
	return s.head
}

// Tail returns the parent frame, or nil.
func (s *Stack) Tail() *Stack {
	if s == nil {
		return nil
	}
	return s.tail
}

// Index returns the iteration index of the frame.
func (s *Stack) Index() (int, bool) {
	if s == nil || !s.indexed {
		return 0, false
	}
	return s.index, true
}

// Length returns the length of the sequence the frame iterates.
func (s *Stack) Length() (int, bool) {
	if s == nil || !s.indexed {
		return 0, false
	}
	return s.length, true
}

// nearestIndexed returns the closest frame pushed by an iteration.
func (s *Stack) nearestIndexed() *Stack {
	for f := s; f != nil; f = f.tail {
		if f.indexed {
			return f
		}
	}
	return nil
}
