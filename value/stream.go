package value

import (
	"iter"
	"sync"
)

// StreamEventKind tells the kind of a stream event.
type StreamEventKind int

const (
	// StreamData carries one item.
	StreamData StreamEventKind = iota
	// StreamError carries a terminal error.
	StreamError
	// StreamEnd marks the end of the stream.
	StreamEnd
)

func (k StreamEventKind) String() string {
	switch k {
	case StreamData:
		return "data"
	case StreamError:
		return "error"
	case StreamEnd:
		return "end"
	default:
		return "unknown"
	}
}

// StreamEvent is a single event delivered to a stream subscriber.
type StreamEvent struct {
	Kind  StreamEventKind
	Value Value
	Err   error
}

// Stream is a push-stream: zero or more data events followed by an end or
// error event.
//
// Producers call Send, Fail and Close from any goroutine. A stream has a
// single subscriber; events sent before it subscribes are buffered and
// replayed in order. The stream itself forwards whatever it is sent, so a
// consumer that needs a single terminal event has to latch on its side.
type Stream struct {
	mu      sync.Mutex
	pending []StreamEvent
	sub     func(StreamEvent)
}

// NewStream returns an empty stream with no subscriber.
func NewStream() *Stream {
	return &Stream{}
}

// Send emits one item.
func (s *Stream) Send(v any) {
	s.emit(StreamEvent{Kind: StreamData, Value: FromAny(v)})
}

// Fail emits a terminal error.
func (s *Stream) Fail(err error) {
	s.emit(StreamEvent{Kind: StreamError, Err: err})
}

// Close emits the end event.
func (s *Stream) Close() {
	s.emit(StreamEvent{Kind: StreamEnd})
}

// emit holds the lock while calling the subscriber so that events from
// concurrent producers reach it in a single order.
func (s *Stream) emit(ev StreamEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		s.pending = append(s.pending, ev)
		return
	}
	s.sub(ev)
}

// Subscribe attaches fn as the subscriber and replays buffered events. It
// returns false if the stream already has a subscriber. fn must not call
// back into the stream.
func (s *Stream) Subscribe(fn func(StreamEvent)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub != nil {
		return false
	}
	s.sub = fn
	pending := s.pending
	s.pending = nil
	for _, ev := range pending {
		fn(ev)
	}
	return true
}

// FromChan returns a stream that sends every item received from ch and
// closes when ch is closed.
func FromChan[T any](ch <-chan T) *Stream {
	s := NewStream()
	go func() {
		for item := range ch {
			s.Send(item)
		}
		s.Close()
	}()
	return s
}

// FromSeq returns a stream fed lazily from seq on its own goroutine.
func FromSeq(seq iter.Seq[Value]) *Stream {
	s := NewStream()
	go func() {
		for item := range seq {
			s.Send(item)
		}
		s.Close()
	}()
	return s
}
