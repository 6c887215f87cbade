package dust

import (
	"context"

	"github.com/dustgo/dust/value"
)

// Body is a compiled template body. It writes into chunk and returns the
// chunk that later writes go to.
//
// A Body stored in template data is a value.Callable: referencing it
// renders it in place.
type Body func(chunk *Chunk, ctx *Context) *Chunk

// Call renders the body into the chunk of the render that invoked it.
func (b Body) Call(state value.State, _ value.Value) (value.Value, error) {
	st, ok := state.(*callState)
	if !ok {
		return value.Undefined(), NewError(ErrCallable, "body called outside of a render")
	}
	st.out = b(st.chunk, st.ctx)
	return value.Undefined(), nil
}

// Body keys of a section.
const (
	BodyBlock = "block"
	BodyElse  = "else"
	BodyError = "error"
)

// Bodies holds the bodies of a section, keyed by BodyBlock, BodyElse and
// BodyError.
type Bodies map[string]Body

// Params are the parameters of a section, partial or helper.
type Params map[string]value.Value

// Value returns the params as a map value.
func (p Params) Value() value.Value {
	return value.FromMap(p)
}

// Func is a chunk-level function, used for helpers and for functions in
// template data that need to write or branch.
//
// A Func either returns the chunk to continue with, or a nil chunk and a
// value that is rendered in its place. A returned error fails the chunk.
type Func func(chunk *Chunk, ctx *Context, bodies Bodies, params Params) (*Chunk, value.Value, error)

// Call invokes f with the chunk of the render that invoked it.
func (f Func) Call(state value.State, _ value.Value) (value.Value, error) {
	st, ok := state.(*callState)
	if !ok {
		return value.Undefined(), NewError(ErrCallable, "chunk function called outside of a render")
	}
	out, v, err := f(st.chunk, st.ctx, st.bodies, st.params)
	st.out = out
	return v, err
}

// callState is the value.State handed to callables during a render.
type callState struct {
	chunk  *Chunk
	ctx    *Context
	bodies Bodies
	params Params
	out    *Chunk
}

func (s *callState) Context() context.Context {
	return s.chunk.r.ctx
}

func (s *callState) Lookup(path string) value.Value {
	return s.ctx.Get(path)
}

func (s *callState) Name() string {
	return s.ctx.TemplateName()
}

// isBody reports whether fn renders a template body, possibly bound by a
// path lookup.
func isBody(fn value.Callable) bool {
	switch f := fn.(type) {
	case Body:
		return true
	case *boundCallable:
		return isBody(f.fn)
	default:
		return false
	}
}

// asBody returns the body held by v.
func asBody(v value.Value) (Body, bool) {
	fn, ok := v.AsCallable()
	if !ok {
		return nil, false
	}
	for {
		switch f := fn.(type) {
		case Body:
			return f, true
		case *boundCallable:
			fn = f.fn
		default:
			return nil, false
		}
	}
}
