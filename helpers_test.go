package dust

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/dustgo/dust/value"
)

// syncBuffer is a bytes.Buffer that can be written by the loop goroutine
// while a test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestEngine returns an engine that logs everything into the returned
// buffer.
func newTestEngine(t *testing.T) (*Engine, *syncBuffer) {
	t.Helper()
	e := NewEngine()
	logs := &syncBuffer{}
	e.SetLogger(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return e, logs
}

func text(s string) Body {
	return func(c *Chunk, _ *Context) *Chunk {
		return c.Write(s)
	}
}

func ref(path string, filters ...string) Body {
	return func(c *Chunk, ctx *Context) *Chunk {
		return c.Reference(ctx.Get(path), ctx, "h", filters)
	}
}

func seq(steps ...Body) Body {
	return func(c *Chunk, ctx *Context) *Chunk {
		for _, step := range steps {
			c = step(c, ctx)
		}
		return c
	}
}

func section(path string, bodies Bodies) Body {
	return func(c *Chunk, ctx *Context) *Chunk {
		return c.Section(ctx.Get(path), ctx, bodies, nil)
	}
}

func helper(name string, bodies Bodies, params Params) Body {
	return func(c *Chunk, ctx *Context) *Chunk {
		return c.Helper(name, ctx, bodies, params, "h")
	}
}

func partial(name string, params Params) Body {
	return func(c *Chunk, ctx *Context) *Chunk {
		return c.Partial(value.FromString(name), ctx, nil, params)
	}
}

func block(name string, def Body) Body {
	return func(c *Chunk, ctx *Context) *Chunk {
		override, _ := ctx.GetBlock(name)
		return c.Block(override, ctx, Bodies{BodyBlock: def})
	}
}

func render(t *testing.T, e *Engine, body Body, data any) (string, error) {
	t.Helper()
	return e.NewTemplate("test", body, nil).Render(t.Context(), data)
}

func mustRender(t *testing.T, e *Engine, body Body, data any) string {
	t.Helper()
	out, err := render(t, e, body, data)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return out
}
