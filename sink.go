package dust

import (
	"io"
	"strings"
)

// sink owns the head of a chunk list and drains it in order.
type sink interface {
	flush()
}

// Stub collects the output of a render into a string.
//
// Each flush appends the contiguous flushable chunks at the head and stops
// at the first chunk that is still open. When the list is exhausted the
// callback receives the output; when a failed chunk is reached it receives
// the output up to that point and the error. The callback runs once.
type Stub struct {
	head     *Chunk
	out      strings.Builder
	callback func(string, error)
	stopped  bool
}

func newStub(r *run, callback func(string, error)) *Stub {
	s := &Stub{callback: callback}
	s.head = &Chunk{root: s, r: r}
	return s
}

func (s *Stub) flush() {
	if s.stopped {
		return
	}
	chunk := s.head
	for chunk != nil {
		if chunk.err != nil {
			s.stopped = true
			s.callback(s.out.String(), chunk.err)
			return
		}
		if !chunk.flushable {
			return
		}
		for _, d := range chunk.data {
			s.out.WriteString(d)
		}
		chunk = chunk.next
		s.head = chunk
	}
	s.stopped = true
	s.callback(s.out.String(), nil)
}

// EventKind is the kind of a render event.
type EventKind int

const (
	// EventData carries the text of one chunk.
	EventData EventKind = iota
	// EventError carries the error that stopped the render.
	EventError
	// EventEnd is the last event of every render.
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is emitted by a Stream.
type Event struct {
	Kind EventKind
	Data string
	Err  error
}

// Stream delivers the output of a render as events, one data event per
// chunk in output order, followed by an end event. A failed chunk produces
// an error event and then the end event. The channel is closed after the
// end event, or early if the render's context is cancelled.
type Stream struct {
	head    *Chunk
	r       *run
	events  chan Event
	stopped bool
	err     error
}

func newStream(r *run) *Stream {
	s := &Stream{r: r, events: make(chan Event, 16)}
	s.head = &Chunk{root: s, r: r}
	return s
}

// Events returns the event channel.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err returns the error that ended the render, once Events is closed.
func (s *Stream) Err() error {
	return s.err
}

func (s *Stream) flush() {
	if s.stopped {
		return
	}
	chunk := s.head
	for chunk != nil {
		if chunk.err != nil {
			if s.emit(Event{Kind: EventError, Err: chunk.err}) {
				s.emit(Event{Kind: EventEnd})
			}
			s.finish(chunk.err)
			return
		}
		if !chunk.flushable {
			return
		}
		if !s.emit(Event{Kind: EventData, Data: strings.Join(chunk.data, "")}) {
			return
		}
		chunk = chunk.next
		s.head = chunk
	}
	s.emit(Event{Kind: EventEnd})
	s.finish(nil)
}

// emit sends ev unless the render context is cancelled first.
func (s *Stream) emit(ev Event) bool {
	if s.stopped {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-s.r.ctx.Done():
		s.finish(s.r.ctx.Err())
		return false
	}
}

func (s *Stream) finish(err error) {
	if s.stopped {
		return
	}
	s.stopped = true
	s.err = err
	s.r.loop.stop()
	s.r.cancel()
	close(s.events)
}

// WriteTo writes the data events to w until the end event. It returns the
// render error, if any. A failed write cancels the render and returns at
// once.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for ev := range s.events {
		switch ev.Kind {
		case EventData:
			m, err := io.WriteString(w, ev.Data)
			n += int64(m)
			if err != nil {
				s.r.cancel()
				return n, err
			}
		case EventError:
			for range s.events {
			}
			return n, ev.Err
		}
	}
	return n, s.err
}

// discard is the sink behind Context.Resolve. It never emits.
type discard struct {
	head *Chunk
}

func (d *discard) flush() {}
