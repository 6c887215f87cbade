package dust

import (
	"errors"
	"strings"
	"testing"

	"github.com/dustgo/dust/value"
)

func TestStreamSectionRendersInArrivalOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	s := value.NewStream()
	go func() {
		for i := 1; i <= 3; i++ {
			s.Send(i)
		}
		s.Close()
	}()
	body := seq(text("<"), section("s", Bodies{BodyBlock: ref(".")}), text(">"))
	if out := mustRender(t, e, body, map[string]any{"s": s}); out != "<123>" {
		t.Errorf("got %q, want %q", out, "<123>")
	}
}

func TestStreamItemsWithAsyncBodies(t *testing.T) {
	e, _ := newTestEngine(t)
	slow := value.NewDeferred()
	s := value.NewStream()
	s.Send(map[string]any{"v": slow})
	s.Send(map[string]any{"v": "fast"})
	s.Close()
	go slow.Resolve("slow")

	body := section("s", Bodies{BodyBlock: seq(ref("v"), text(";"))})
	if out := mustRender(t, e, body, map[string]any{"s": s}); out != "slow;fast;" {
		t.Errorf("got %q", out)
	}
}

func TestStreamReference(t *testing.T) {
	e, _ := newTestEngine(t)
	s := value.FromChan(func() <-chan string {
		ch := make(chan string, 3)
		ch <- "a"
		ch <- "<b>"
		ch <- "c"
		close(ch)
		return ch
	}())
	if out := mustRender(t, e, ref("s"), map[string]any{"s": s}); out != "a&lt;b&gt;c" {
		t.Errorf("got %q", out)
	}
}

func TestStreamTerminatesOnce(t *testing.T) {
	e, _ := newTestEngine(t)
	s := value.NewStream()
	s.Send("a")
	s.Close()
	s.Send("b")
	s.Fail(errors.New("late"))
	s.Close()
	if out := mustRender(t, e, seq(ref("s"), text("!")), map[string]any{"s": s}); out != "a!" {
		t.Errorf("got %q, want %q", out, "a!")
	}
}

func TestStreamErrorBody(t *testing.T) {
	e, _ := newTestEngine(t)
	s := value.NewStream()
	s.Send(1)
	s.Fail(errors.New("boom"))
	body := section("s", Bodies{
		BodyBlock: ref("."),
		BodyError: seq(text(" error: "), ref("message")),
	})
	if out := mustRender(t, e, body, map[string]any{"s": s}); out != "1 error: boom" {
		t.Errorf("got %q", out)
	}
}

func TestStreamErrorWithoutBody(t *testing.T) {
	e, logs := newTestEngine(t)
	s := value.NewStream()
	s.Send("x")
	s.Fail(errors.New("boom"))
	out, err := render(t, e, seq(ref("s"), text("!")), map[string]any{"s": s})
	if err != nil {
		t.Fatal(err)
	}
	if out != "x!" {
		t.Errorf("got %q", out)
	}
	if !strings.Contains(logs.String(), "Unhandled stream error") {
		t.Errorf("logs:\n%s", logs)
	}

	e.SetStrictRejections(true)
	s = value.NewStream()
	s.Fail(errors.New("boom"))
	if _, err := render(t, e, ref("s"), map[string]any{"s": s}); !IsKind(err, ErrRejected) {
		t.Errorf("strict err = %v", err)
	}
}

func TestStreamSecondSubscriber(t *testing.T) {
	e, _ := newTestEngine(t)
	s := value.NewStream()
	s.Close()
	_, err := render(t, e, seq(ref("s"), ref("s")), map[string]any{"s": s})
	if !IsKind(err, ErrStream) {
		t.Errorf("err = %v", err)
	}
}

func TestRejectedDeferredIsLenient(t *testing.T) {
	e, logs := newTestEngine(t)
	out, err := render(t, e, seq(text("a"), ref("d"), text("b")), map[string]any{
		"d": value.Rejected(errors.New("nope")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "ab" {
		t.Errorf("got %q", out)
	}
	if !strings.Contains(logs.String(), "Unhandled promise rejection") {
		t.Errorf("logs:\n%s", logs)
	}
}

func TestRejectedDeferredStrict(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetStrictRejections(true)
	nope := errors.New("nope")
	out, err := render(t, e, seq(text("a"), ref("d"), text("b")), map[string]any{
		"d": value.Rejected(nope),
	})
	if out != "a" {
		t.Errorf("got %q, want output up to the rejection", out)
	}
	if !IsKind(err, ErrRejected) || !errors.Is(err, nope) {
		t.Errorf("err = %v", err)
	}
}

func TestRejectedDeferredErrorBody(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetStrictRejections(true)
	body := section("d", Bodies{
		BodyBlock: text("ok"),
		BodyError: seq(text("failed: "), ref("message")),
	})
	out := mustRender(t, e, body, map[string]any{"d": value.Rejected(errors.New("nope"))})
	if out != "failed: nope" {
		t.Errorf("got %q", out)
	}
}

func TestDeferredInsidePath(t *testing.T) {
	e, _ := newTestEngine(t)
	user := value.Go(func() (any, error) {
		return map[string]any{"profile": map[string]any{"name": "ann"}}, nil
	})
	out := mustRender(t, e, ref("user.profile.name"), map[string]any{"user": user})
	if out != "ann" {
		t.Errorf("got %q", out)
	}
}

func TestDeferredResolvingToStream(t *testing.T) {
	e, _ := newTestEngine(t)
	s := value.NewStream()
	s.Send("x")
	s.Send("y")
	s.Close()
	if out := mustRender(t, e, ref("d"), map[string]any{"d": value.Resolved(s)}); out != "xy" {
		t.Errorf("got %q", out)
	}
}
