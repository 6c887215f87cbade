package value

import (
	"errors"
	"slices"
	"testing"
)

func collect(t *testing.T, s *Stream) chan []StreamEvent {
	t.Helper()
	out := make(chan []StreamEvent, 1)
	var events []StreamEvent
	ok := s.Subscribe(func(ev StreamEvent) {
		events = append(events, ev)
		if ev.Kind != StreamData {
			out <- events
		}
	})
	if !ok {
		t.Fatal("Subscribe returned false")
	}
	return out
}

func TestStreamReplaysPending(t *testing.T) {
	s := NewStream()
	s.Send("a")
	s.Send("b")
	done := collect(t, s)
	s.Send("c")
	s.Close()

	events := <-done
	var got []string
	for _, ev := range events {
		if ev.Kind == StreamData {
			got = append(got, ev.Value.String())
		}
	}
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}
	if last := events[len(events)-1]; last.Kind != StreamEnd {
		t.Errorf("last event is %s, want end", last.Kind)
	}
}

func TestStreamSingleSubscriber(t *testing.T) {
	s := NewStream()
	if !s.Subscribe(func(StreamEvent) {}) {
		t.Fatal("first Subscribe failed")
	}
	if s.Subscribe(func(StreamEvent) {}) {
		t.Error("second Subscribe succeeded")
	}
}

func TestStreamFail(t *testing.T) {
	s := NewStream()
	boom := errors.New("boom")
	s.Send(1)
	s.Fail(boom)
	events := <-collect(t, s)
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if events[1].Kind != StreamError || !errors.Is(events[1].Err, boom) {
		t.Errorf("got %+v", events[1])
	}
}

func TestFromChan(t *testing.T) {
	ch := make(chan int)
	s := FromChan(ch)
	done := collect(t, s)
	go func() {
		for i := range 3 {
			ch <- i
		}
		close(ch)
	}()
	events := <-done
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for i := range 3 {
		if n, _ := events[i].Value.AsInt(); n != int64(i) {
			t.Errorf("event %d = %v", i, events[i].Value)
		}
	}
}

func TestFromSeq(t *testing.T) {
	s := FromSeq(slices.Values([]Value{FromString("x"), FromString("y")}))
	events := <-collect(t, s)
	if len(events) != 3 || events[0].Value.String() != "x" || events[1].Value.String() != "y" {
		t.Errorf("got %+v", events)
	}
}

func TestStreamEventKindString(t *testing.T) {
	for kind, want := range map[StreamEventKind]string{
		StreamData:  "data",
		StreamError: "error",
		StreamEnd:   "end",
	} {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
