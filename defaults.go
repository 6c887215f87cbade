package dust

import (
	"strings"

	"github.com/dustgo/dust/value"
)

func registerDefaultHelpers(e *Engine) {
	e.AddHelper("sep", HelperSep)
	e.AddHelper("first", HelperFirst)
	e.AddHelper("last", HelperLast)
	e.AddHelper("idx", HelperIdx)
	e.AddHelper("indent", HelperIndent)
	e.AddHelper("tap", HelperTap)
}

// iteration returns the index and length of the closest iteration frame.
func iteration(ctx *Context) (index, length int, ok bool) {
	f := ctx.Stack().nearestIndexed()
	if f == nil {
		return 0, 0, false
	}
	return f.index, f.length, true
}

// HelperSep renders its block on every iteration but the last.
func HelperSep(chunk *Chunk, ctx *Context, bodies Bodies, _ Params) (*Chunk, value.Value, error) {
	idx, n, ok := iteration(ctx)
	if !ok || idx == n-1 {
		return chunk, value.Undefined(), nil
	}
	if body := bodies[BodyBlock]; body != nil {
		return body(chunk, ctx), value.Undefined(), nil
	}
	return chunk, value.Undefined(), nil
}

// HelperFirst renders its block on the first iteration.
func HelperFirst(chunk *Chunk, ctx *Context, bodies Bodies, _ Params) (*Chunk, value.Value, error) {
	idx, _, ok := iteration(ctx)
	if body := bodies[BodyBlock]; ok && idx == 0 && body != nil {
		return body(chunk, ctx), value.Undefined(), nil
	}
	return chunk, value.Undefined(), nil
}

// HelperLast renders its block on the last iteration.
func HelperLast(chunk *Chunk, ctx *Context, bodies Bodies, _ Params) (*Chunk, value.Value, error) {
	idx, n, ok := iteration(ctx)
	if body := bodies[BodyBlock]; ok && idx == n-1 && body != nil {
		return body(chunk, ctx), value.Undefined(), nil
	}
	return chunk, value.Undefined(), nil
}

// HelperIdx renders its block with the iteration index pushed.
func HelperIdx(chunk *Chunk, ctx *Context, bodies Bodies, _ Params) (*Chunk, value.Value, error) {
	body := bodies[BodyBlock]
	if body == nil {
		return chunk, value.Undefined(), nil
	}
	idx, _, ok := iteration(ctx)
	if !ok {
		return chunk, value.Undefined(), nil
	}
	return body(chunk, ctx.Push(value.FromInt(int64(idx)))), value.Undefined(), nil
}

// HelperIndent renders its block with every line indented by the "by"
// param, two spaces by default.
func HelperIndent(chunk *Chunk, ctx *Context, bodies Bodies, params Params) (*Chunk, value.Value, error) {
	body := bodies[BodyBlock]
	if body == nil {
		return chunk, value.Undefined(), nil
	}
	pad := "  "
	if by, ok := params["by"]; ok {
		pad = ctx.Resolve(by).String()
	}
	chunk = chunk.Write(pad).Tap(func(s string) string {
		return strings.ReplaceAll(s, "\n", "\n"+pad)
	})
	return body(chunk, ctx).Untap(), value.Undefined(), nil
}

// HelperTap resolves its "value" param, rendering it first when it is a
// body. The result is referenced, or used as the section value when the
// helper has bodies.
func HelperTap(_ *Chunk, ctx *Context, _ Bodies, params Params) (*Chunk, value.Value, error) {
	v, ok := params["value"]
	if !ok {
		return nil, value.Undefined(), nil
	}
	return nil, ctx.Resolve(v), nil
}
