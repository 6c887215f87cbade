package dust

import (
	"github.com/dustgo/dust/value"
)

// Await opens a branch for d. Once d resolves the value is rendered as a
// section when bodies is non-nil and as a reference otherwise. A rejection
// renders the error body with the error pushed; without one it is logged
// and the branch ends empty, or fails when the engine is configured with
// StrictRejections.
func (c *Chunk) Await(d *value.Deferred, ctx *Context, bodies Bodies, auto string, filters []string) *Chunk {
	return c.Map(func(branch *Chunk) {
		d.OnSettle(func(v value.Value, err error) {
			branch.post(func() {
				if err != nil {
					branch.rejected(err, ctx, bodies, "Unhandled promise rejection")
					return
				}
				chunk := branch
				if bodies != nil {
					chunk = chunk.Section(v, ctx, bodies, nil)
				} else {
					chunk = chunk.Reference(v, ctx, auto, filters)
				}
				chunk.End()
			})
		})
	})
}

// rejected ends c after a failed deferred or stream.
func (c *Chunk) rejected(err error, ctx *Context, bodies Bodies, msg string) {
	if errBody := bodies[BodyError]; errBody != nil {
		c.Render(errBody, ctx.Push(value.FromError(err))).End()
		return
	}
	ctx.logger().Info(msg, "template", ctx.TemplateName(), "error", err)
	if c.r.eng.config.StrictRejections {
		c.SetError(attachErrorInfo(WrapError(ErrRejected, "", err), ctx))
		return
	}
	c.End()
}

// Stream opens a branch for s. With a block body every item gets its own
// nested branch, so items render independently and appear in arrival
// order. Without bodies every item is referenced straight into the branch.
// The first end or error event closes the branch; later events are
// ignored.
func (c *Chunk) Stream(s *value.Stream, ctx *Context, bodies Bodies, auto string, filters []string) *Chunk {
	body := bodies[BodyBlock]
	return c.Map(func(branch *Chunk) {
		ended := false
		cur := branch
		ok := s.Subscribe(func(ev value.StreamEvent) {
			branch.post(func() {
				if ended {
					return
				}
				switch ev.Kind {
				case value.StreamData:
					if body != nil {
						item := ev.Value
						cur = cur.Map(func(sub *Chunk) {
							sub.Render(body, ctx.Push(item)).End()
						})
					} else if bodies == nil {
						cur = cur.Reference(ev.Value, ctx, auto, filters)
					}
				case value.StreamError:
					ended = true
					if errBody := bodies[BodyError]; errBody != nil {
						cur = cur.Render(errBody, ctx.Push(value.FromError(ev.Err)))
						cur.End()
						return
					}
					cur.rejected(ev.Err, ctx, nil, "Unhandled stream error")
				case value.StreamEnd:
					ended = true
					cur.End()
				}
			})
		})
		if !ok {
			branch.SetError(attachErrorInfo(NewError(ErrStream, "stream already has a subscriber"), ctx))
		}
	})
}
