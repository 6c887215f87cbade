package dust

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dustgo/dust/value"
)

func permutations(n int) [][]int {
	if n == 0 {
		return [][]int{{}}
	}
	var out [][]int
	for _, p := range permutations(n - 1) {
		for i := 0; i <= len(p); i++ {
			q := make([]int, 0, n)
			q = append(q, p[:i]...)
			q = append(q, n-1)
			q = append(q, p[i:]...)
			out = append(out, q)
		}
	}
	return out
}

func TestOutputOrderIndependentOfResolution(t *testing.T) {
	e, _ := newTestEngine(t)
	tmpl := e.NewTemplate("order", seq(
		text("a"), ref("d0"),
		text("b"), ref("d1"),
		text("c"), ref("d2"),
		text("d"),
	), nil)

	for _, perm := range permutations(3) {
		t.Run(fmt.Sprint(perm), func(t *testing.T) {
			ds := []*value.Deferred{value.NewDeferred(), value.NewDeferred(), value.NewDeferred()}
			data := map[string]any{"d0": ds[0], "d1": ds[1], "d2": ds[2]}

			type result struct {
				out string
				err error
			}
			done := make(chan result, 1)
			tmpl.RenderAsync(t.Context(), data, func(out string, err error) {
				done <- result{out, err}
			})
			for _, i := range perm {
				ds[i].Resolve(i)
			}

			select {
			case res := <-done:
				if res.err != nil {
					t.Fatal(res.err)
				}
				if res.out != "a0b1c2d" {
					t.Errorf("got %q, want %q", res.out, "a0b1c2d")
				}
			case <-time.After(5 * time.Second):
				t.Fatal("render did not complete")
			}
		})
	}
}

func TestNestedBranchesKeepOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	outer := value.NewDeferred()
	inner := value.NewDeferred()
	body := seq(
		text("["),
		section("outer", Bodies{BodyBlock: seq(text("("), ref("inner"), text(")"))}),
		text("]"),
	)

	done := make(chan string, 1)
	e.NewTemplate("nested", body, nil).RenderAsync(t.Context(), map[string]any{
		"outer": outer,
		"inner": inner,
	}, func(out string, err error) {
		if err != nil {
			t.Error(err)
		}
		done <- out
	})
	inner.Resolve("i")
	outer.Resolve(map[string]any{"x": 1})

	if got := <-done; got != "[(i)]" {
		t.Errorf("got %q, want %q", got, "[(i)]")
	}
}

func TestRenderSyncCompletesInline(t *testing.T) {
	e, _ := newTestEngine(t)
	called := false
	e.NewTemplate("sync", seq(text("hello "), ref("name")), nil).
		RenderAsync(t.Context(), map[string]any{"name": "world"}, func(out string, err error) {
			called = true
			if err != nil || out != "hello world" {
				t.Errorf("got %q, %v", out, err)
			}
		})
	if !called {
		t.Error("callback did not run before RenderAsync returned")
	}
}

func TestRenderWaitsForEveryBranch(t *testing.T) {
	e, _ := newTestEngine(t)
	d := value.NewDeferred()
	called := make(chan string, 1)
	e.NewTemplate("async", seq(text("x"), ref("d")), nil).
		RenderAsync(t.Context(), map[string]any{"d": d}, func(out string, _ error) {
			called <- out
		})
	select {
	case out := <-called:
		t.Fatalf("callback ran with %q before the deferred resolved", out)
	case <-time.After(20 * time.Millisecond):
	}
	d.Resolve("y")
	if got := <-called; got != "xy" {
		t.Errorf("got %q", got)
	}
}

func TestErrorCutsOffOutput(t *testing.T) {
	e, _ := newTestEngine(t)
	boom := errors.New("boom")
	e.AddHelper("fail", func(c *Chunk, _ *Context, _ Bodies, _ Params) (*Chunk, value.Value, error) {
		return nil, value.Undefined(), boom
	})
	body := seq(
		text("before"),
		func(c *Chunk, _ *Context) *Chunk {
			return c.Map(func(branch *Chunk) {
				branch.Write("-mid").End()
			})
		},
		helper("fail", nil, nil),
		text("after"),
	)

	out, err := render(t, e, body, nil)
	if out != "before-mid" {
		t.Errorf("got %q, want %q", out, "before-mid")
	}
	if !IsKind(err, ErrHelper) {
		t.Errorf("err = %v, want a helper error", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v does not wrap boom", err)
	}
	if want := "helper error: fail (in test): boom"; err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}
}

func TestRenderCancelled(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	_, err := e.NewTemplate("stuck", ref("never"), nil).Render(ctx, map[string]any{
		"never": value.NewDeferred(),
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestStreamSink(t *testing.T) {
	e, _ := newTestEngine(t)
	d := value.NewDeferred()
	tmpl := e.NewTemplate("stream", seq(text("a"), ref("d"), text("c")), nil)

	s := tmpl.Stream(t.Context(), map[string]any{"d": d})
	go d.Resolve("b")

	var (
		data   strings.Builder
		events []Event
	)
	for ev := range s.Events() {
		events = append(events, ev)
		if ev.Kind == EventData {
			data.WriteString(ev.Data)
		}
	}
	if data.String() != "abc" {
		t.Errorf("data = %q, want %q", data.String(), "abc")
	}
	if len(events) == 0 || events[len(events)-1].Kind != EventEnd {
		t.Errorf("last event is not end: %+v", events)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v", s.Err())
	}
}

func TestStreamSinkError(t *testing.T) {
	e, _ := newTestEngine(t)
	body := seq(text("ok"), func(c *Chunk, _ *Context) *Chunk {
		return c.Map(func(branch *Chunk) {
			branch.End()
		}).SetError(errors.New("broken"))
	})
	s := e.NewTemplate("broken", body, nil).Stream(t.Context(), nil)

	var kinds []EventKind
	var sb strings.Builder
	for ev := range s.Events() {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == EventData {
			sb.WriteString(ev.Data)
		}
	}
	if sb.String() != "ok" {
		t.Errorf("data = %q", sb.String())
	}
	n := len(kinds)
	if n < 2 || kinds[n-2] != EventError || kinds[n-1] != EventEnd {
		t.Errorf("kinds = %v, want ... error end", kinds)
	}
	if s.Err() == nil {
		t.Error("Err() is nil")
	}
}

func TestStreamWriteTo(t *testing.T) {
	e, _ := newTestEngine(t)
	var sb strings.Builder
	n, err := e.NewTemplate("w", seq(text("x"), ref("v")), nil).
		Stream(t.Context(), map[string]any{"v": value.Resolved("y")}).
		WriteTo(&sb)
	if err != nil {
		t.Fatal(err)
	}
	if sb.String() != "xy" || n != 2 {
		t.Errorf("wrote %d bytes %q", n, sb.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestStreamWriteToStopsOnWriteError(t *testing.T) {
	e, _ := newTestEngine(t)
	s := e.NewTemplate("w", seq(text("x"), ref("d")), nil).
		Stream(t.Context(), map[string]any{"d": value.NewDeferred()})

	done := make(chan error, 1)
	go func() {
		_, err := s.WriteTo(failingWriter{})
		done <- err
	}()
	select {
	case err := <-done:
		if err == nil || err.Error() != "broken pipe" {
			t.Errorf("err = %v, want the write error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WriteTo blocked after the writer failed")
	}

	closed := make(chan struct{})
	go func() {
		for range s.Events() {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("render kept running after WriteTo failed")
	}
	if !errors.Is(s.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", s.Err())
	}
}

func TestRenderFile(t *testing.T) {
	e, _ := newTestEngine(t)
	e.Register(e.NewTemplate("page", seq(text("hi "), ref("who")), nil))
	path := filepath.Join(t.TempDir(), "out.txt")

	if err := e.RenderFile(t.Context(), "page", map[string]any{"who": "you"}, path); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi you" {
		t.Errorf("file holds %q", got)
	}

	if err := e.RenderFile(t.Context(), "missing", nil, path); err == nil {
		t.Error("expected an error for a missing template")
	}
	if got, _ := os.ReadFile(path); string(got) != "hi you" {
		t.Errorf("failed render replaced the file with %q", got)
	}
}

func TestPackageLevelRender(t *testing.T) {
	Register(NewTemplate("pkg-level-hello", text("hello"), nil))
	out, err := Render(t.Context(), "pkg-level-hello", nil)
	if err != nil || out != "hello" {
		t.Errorf("got %q, %v", out, err)
	}
	var sb strings.Builder
	if _, err := RenderStream(t.Context(), "pkg-level-hello", nil).WriteTo(&sb); err != nil || sb.String() != "hello" {
		t.Errorf("stream got %q, %v", sb.String(), err)
	}
}
