package dust

import (
	"strings"

	"github.com/dustgo/dust/value"
)

// Reference writes v. Callables are invoked with the current scope as
// receiver and their result referenced in turn; deferreds and streams open
// async branches. Empty values write nothing. Everything else is written
// through filters, then escaped with auto unless an "s" filter is present.
func (c *Chunk) Reference(v value.Value, ctx *Context, auto string, filters []string) *Chunk {
	switch v.Kind() {
	case value.KindCallable:
		fn, _ := v.AsCallable()
		out, res, err := c.call(fn, ctx, nil, nil)
		if err != nil {
			return c.SetError(err)
		}
		if out != nil {
			return out
		}
		return c.Reference(res, ctx, auto, filters)
	case value.KindDeferred:
		d, _ := v.AsDeferred()
		return c.Await(d, ctx, nil, auto, filters)
	case value.KindStream:
		s, _ := v.AsStream()
		return c.Stream(s, ctx, nil, auto, filters)
	}
	if v.IsEmpty() {
		return c
	}
	out, err := c.r.eng.applyFilters(v, ctx, auto, filters)
	if err != nil {
		return c.SetError(err)
	}
	return c.Write(out.String())
}

// Section renders bodies against v:
//
//   - a callable that is not a body is invoked first and its result used
//   - without bodies nothing is rendered
//   - params are pushed as a scope frame
//   - a sequence renders the block once per item, or the else body when
//     it is empty
//   - deferreds and streams open async branches
//   - true renders the block in the current scope
//   - any other true value, and 0, renders the block with v pushed
//   - everything else renders the else body
func (c *Chunk) Section(v value.Value, ctx *Context, bodies Bodies, params Params) *Chunk {
	if fn, ok := v.AsCallable(); ok && !isBody(fn) {
		out, res, err := c.call(fn, ctx, bodies, params)
		if err != nil {
			ctx.logger().Error("Error in section function",
				"template", ctx.TemplateName(),
				"error", err)
			return c.SetError(err)
		}
		if out != nil {
			return out
		}
		v = res
	}

	if len(bodies) == 0 {
		return c
	}
	if len(params) > 0 {
		ctx = ctx.Push(params.Value())
	}
	body, skip := bodies[BodyBlock], bodies[BodyElse]

	switch v.Kind() {
	case value.KindSeq:
		items, _ := v.AsSlice()
		if body == nil {
			break
		}
		if len(items) == 0 {
			if skip != nil {
				return skip(c, ctx)
			}
			break
		}
		chunk := c
		for i, item := range items {
			chunk = body(chunk, ctx.PushIndexed(item, i, len(items)))
		}
		return chunk
	case value.KindDeferred:
		d, _ := v.AsDeferred()
		return c.Await(d, ctx, bodies, "", nil)
	case value.KindStream:
		s, _ := v.AsStream()
		return c.Stream(s, ctx, bodies, "", nil)
	default:
		if b, ok := v.AsBool(); ok && b {
			if body != nil {
				return body(c, ctx)
			}
			break
		}
		if v.IsTrue() || v.IsZero() {
			if body != nil {
				return body(c, ctx.Push(v))
			}
			break
		}
		if skip != nil {
			return skip(c, ctx)
		}
	}
	ctx.logger().Debug("Section without corresponding key", "template", ctx.TemplateName())
	return c
}

// Exists renders the block when v is not empty, else the else body.
func (c *Chunk) Exists(v value.Value, ctx *Context, bodies Bodies) *Chunk {
	body, skip := bodies[BodyBlock], bodies[BodyElse]
	if !v.IsEmpty() {
		if body != nil {
			return body(c, ctx)
		}
		ctx.logger().Debug("No block for exists check", "template", ctx.TemplateName())
	} else if skip != nil {
		return skip(c, ctx)
	}
	return c
}

// NotExists renders the block when v is empty, else the else body.
func (c *Chunk) NotExists(v value.Value, ctx *Context, bodies Bodies) *Chunk {
	body, skip := bodies[BodyBlock], bodies[BodyElse]
	if v.IsEmpty() {
		if body != nil {
			return body(c, ctx)
		}
		ctx.logger().Debug("No block for not-exists check", "template", ctx.TemplateName())
	} else if skip != nil {
		return skip(c, ctx)
	}
	return c
}

// Block renders the override elem, or the default block body when there
// is none.
func (c *Chunk) Block(elem Body, ctx *Context, bodies Bodies) *Chunk {
	body := elem
	if body == nil {
		body = bodies[BodyBlock]
	}
	if body != nil {
		return body(c, ctx)
	}
	return c
}

// Partial renders another template in place. name is a template name, a
// body whose output is the name, or a deferred resolving to either.
//
// partialCtx is the scope the partial renders against; nil means ctx.
// Params are merged under the top frame so that lookups see the top frame
// first, then the params, then the rest of the scope.
func (c *Chunk) Partial(name value.Value, ctx, partialCtx *Context, params Params) *Chunk {
	if partialCtx == nil {
		partialCtx = ctx
	}
	if len(params) > 0 {
		partialCtx = partialCtx.pushUnder(params.Value())
	}

	if d, ok := name.AsDeferred(); ok {
		return c.Map(func(branch *Chunk) {
			d.OnSettle(func(v value.Value, err error) {
				branch.post(func() {
					if err != nil {
						branch.SetError(WrapError(ErrLoad, "partial name", err))
						return
					}
					branch.Partial(v, ctx, partialCtx, nil).End()
				})
			})
		})
	}
	if body, ok := asBody(name); ok {
		return c.Capture(body, ctx, func(out string, branch *Chunk) {
			branch.r.eng.load(out, branch, partialCtx).End()
		})
	}
	tname := ""
	if !name.IsUndefined() && !name.IsNone() {
		tname = name.String()
	}
	return c.r.eng.load(tname, c, partialCtx)
}

// Helper calls the named helper. A returned chunk is used as is. A
// returned value is rendered as a section when bodies were given and as a
// reference otherwise. A missing helper is logged and writes nothing.
func (c *Chunk) Helper(name string, ctx *Context, bodies Bodies, params Params, auto string) *Chunk {
	h, ok := c.r.eng.helper(name)
	if !ok {
		ctx.logger().Warn("Helper does not exist",
			"helper", name,
			"template", ctx.TemplateName())
		return c
	}

	var filters []string
	if f, ok := params["filters"]; ok {
		if s, ok := f.AsString(); ok {
			filters = strings.Split(s, "|")
		}
	}

	out, ret, err := h(c, ctx, bodies, params)
	if err != nil {
		ctx.logger().Error("Error in helper",
			"helper", name,
			"template", ctx.TemplateName(),
			"error", err)
		return c.SetError(attachErrorInfo(WrapError(ErrHelper, name, err), ctx))
	}
	if out != nil {
		return out
	}
	if len(bodies) > 0 {
		return c.Section(ret, ctx, bodies, params)
	}
	return c.Reference(ret, ctx, auto, filters)
}
