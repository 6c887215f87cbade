package dust

import (
	"context"

	"github.com/dustgo/dust/value"
)

// Chunk is one piece of output that may not be complete yet.
//
// The chunks of a render form a linked list that starts at the sink's
// head. The order of that list is the order of the output, fixed when
// each chunk is created. A chunk becomes flushable when it is ended; after
// that its data is never changed.
//
// All chunk methods must be called on the render's loop goroutine, which
// is the goroutine running the template body or one of the continuations
// the engine schedules for deferreds, streams and loaders.
type Chunk struct {
	root      sink
	r         *run
	next      *Chunk
	data      []string
	flushable bool
	err       error
	taps      *Tap
}

// run holds what every chunk of one render shares.
type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	eng    *Engine
	loop   *loop
}

func (c *Chunk) spawn(next *Chunk) *Chunk {
	return &Chunk{root: c.root, r: c.r, next: next, taps: c.taps}
}

// Context returns the Go context of the render.
func (c *Chunk) Context() context.Context {
	return c.r.ctx
}

// Engine returns the engine that runs the render.
func (c *Chunk) Engine() *Engine {
	return c.r.eng
}

// Write appends s, transformed by the chunk's taps.
func (c *Chunk) Write(s string) *Chunk {
	if c.taps != nil {
		s = c.taps.Go(s)
	}
	c.data = append(c.data, s)
	return c
}

// End marks the chunk flushable and flushes the sink.
func (c *Chunk) End() *Chunk {
	c.flushable = true
	c.root.flush()
	return c
}

// Map opens an async branch. The receiver becomes flushable and two new
// chunks are linked after it: branch, handed to fn, and the returned
// cursor. Whatever fn or its continuations write to branch appears before
// anything written to cursor, no matter which completes first. fn (or a
// continuation it schedules) must End the branch.
func (c *Chunk) Map(fn func(branch *Chunk)) *Chunk {
	cursor := c.spawn(c.next)
	branch := c.spawn(cursor)
	c.next = branch
	c.flushable = true
	fn(branch)
	return cursor
}

// SetError marks the chunk failed and flushes the sink. Output stops at
// the position of a failed chunk.
func (c *Chunk) SetError(err error) *Chunk {
	c.err = err
	c.root.flush()
	return c
}

// Render renders body into the chunk.
func (c *Chunk) Render(body Body, ctx *Context) *Chunk {
	return body(c, ctx)
}

// Tap adds fn to the transforms applied to later writes.
func (c *Chunk) Tap(fn func(string) string) *Chunk {
	if c.taps == nil {
		c.taps = NewTap(fn)
	} else {
		c.taps = c.taps.Push(fn)
	}
	return c
}

// Untap removes the newest transform.
func (c *Chunk) Untap() *Chunk {
	c.taps = c.taps.Tail()
	return c
}

// Capture renders body into a private buffer and, once it completes, calls
// fn with the text and the branch that takes the body's place in the
// output. fn must End the branch.
func (c *Chunk) Capture(body Body, ctx *Context, fn func(out string, branch *Chunk)) *Chunk {
	return c.Map(func(branch *Chunk) {
		stub := newStub(c.r, func(out string, err error) {
			if err != nil {
				branch.SetError(err)
				return
			}
			fn(out, branch)
		})
		body(stub.head, ctx).End()
	})
}

// post schedules fn on the loop of the render.
func (c *Chunk) post(fn func()) {
	c.r.loop.post(fn)
}

// call invokes fn with a state that gives chunk-level functions access to
// the chunk. A Body or Func returns the chunk to continue with as out.
func (c *Chunk) call(fn value.Callable, ctx *Context, bodies Bodies, params Params) (out *Chunk, v value.Value, err error) {
	st := &callState{chunk: c, ctx: ctx, bodies: bodies, params: params}
	v, err = fn.Call(st, ctx.Current())
	return st.out, v, err
}
