package dust

import (
	"context"
	"strings"

	"github.com/natefinch/atomic"
)

// Template is a compiled template: a body plus the block overrides it
// defines for the partials it renders.
type Template struct {
	Name   string
	Body   Body
	Blocks map[string]Body
	eng    *Engine
}

// NewTemplate creates a template that is not bound to an engine. It
// renders with the engine it is registered with, or the default engine.
func NewTemplate(name string, body Body, blocks map[string]Body) *Template {
	return &Template{Name: name, Body: body, Blocks: blocks}
}

// Engine returns the engine the template renders with.
func (t *Template) Engine() *Engine {
	if t.eng == nil {
		return Default()
	}
	return t.eng
}

func (t *Template) exec(chunk *Chunk, ctx *Context) *Chunk {
	ctx = ctx.withTemplate(t.Name).ShiftBlocks(t.Blocks)
	return t.Body(chunk, ctx)
}

// Render renders the template and waits for the output.
func (t *Template) Render(ctx context.Context, data any) (string, error) {
	return t.Engine().render(ctx, t.Name, data, t.start)
}

// RenderAsync renders the template and calls cb with the output. A
// template with no async content completes before RenderAsync returns;
// otherwise cb runs on a goroutine of the engine.
func (t *Template) RenderAsync(ctx context.Context, data any, cb func(string, error)) {
	t.Engine().renderAsync(ctx, t.Name, data, t.start, cb)
}

// Stream renders the template into a Stream.
func (t *Template) Stream(ctx context.Context, data any) *Stream {
	return t.Engine().stream(ctx, t.Name, data, t.start)
}

func (t *Template) start(chunk *Chunk, c *Context) *Chunk {
	return t.exec(chunk, c)
}

func (e *Engine) byName(name string) func(*Chunk, *Context) *Chunk {
	return func(chunk *Chunk, c *Context) *Chunk {
		return e.load(name, chunk, c)
	}
}

// Render renders the named template and waits for the output.
//
// If a chunk fails, the output before the failed position is returned
// together with the error. If ctx is done first, ctx.Err() is returned.
func (e *Engine) Render(ctx context.Context, name string, data any) (string, error) {
	return e.render(ctx, name, data, e.byName(name))
}

// RenderAsync renders the named template and calls cb with the output.
func (e *Engine) RenderAsync(ctx context.Context, name string, data any, cb func(string, error)) {
	e.renderAsync(ctx, name, data, e.byName(name), cb)
}

// Stream starts rendering the named template on a new goroutine and
// returns the stream of its output.
func (e *Engine) Stream(ctx context.Context, name string, data any) *Stream {
	return e.stream(ctx, name, data, e.byName(name))
}

// RenderFile renders the named template and atomically replaces the file
// at path with the output. Nothing is written if the render fails.
func (e *Engine) RenderFile(ctx context.Context, name string, data any, path string) error {
	out, err := e.Render(ctx, name, data)
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, strings.NewReader(out))
}

func (e *Engine) newRun(ctx context.Context) *run {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &run{ctx: ctx, cancel: cancel, eng: e, loop: newLoop()}
}

func (e *Engine) render(ctx context.Context, name string, data any, start func(*Chunk, *Context) *Chunk) (string, error) {
	var (
		out  string
		rerr error
	)
	r := e.newRun(ctx)
	defer r.cancel()
	stub := newStub(r, func(s string, err error) {
		out, rerr = s, err
		r.loop.stop()
	})
	start(stub.head, e.NewContext(data).withTemplate(name)).End()
	if err := r.loop.run(r.ctx); err != nil {
		return "", err
	}
	return out, rerr
}

func (e *Engine) renderAsync(ctx context.Context, name string, data any, start func(*Chunk, *Context) *Chunk, cb func(string, error)) {
	r := e.newRun(ctx)
	stub := newStub(r, func(s string, err error) {
		r.loop.stop()
		r.cancel()
		cb(s, err)
	})
	start(stub.head, e.NewContext(data).withTemplate(name)).End()
	if r.loop.stopped() {
		return
	}
	go func() {
		if err := r.loop.run(r.ctx); err != nil {
			r.cancel()
			cb("", err)
		}
	}()
}

func (e *Engine) stream(ctx context.Context, name string, data any, start func(*Chunk, *Context) *Chunk) *Stream {
	r := e.newRun(ctx)
	s := newStream(r)
	go func() {
		start(s.head, e.NewContext(data).withTemplate(name)).End()
		if err := r.loop.run(r.ctx); err != nil {
			s.finish(err)
		}
	}()
	return s
}

// Render renders the named template with the default engine.
func Render(ctx context.Context, name string, data any) (string, error) {
	return Default().Render(ctx, name, data)
}

// RenderStream renders the named template with the default engine.
func RenderStream(ctx context.Context, name string, data any) *Stream {
	return Default().Stream(ctx, name, data)
}

// Register registers t with the default engine.
func Register(t *Template) {
	Default().Register(t)
}
