package dust

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dustgo/dust/value"
)

// Options are per-render settings handed to loaders.
type Options map[string]any

// Context is the scope a template body renders against: a stack of
// frames, a global map, block overrides and the render options.
//
// A Context is never modified after creation. Push, Pop, Rebase and
// ShiftBlocks return new contexts that share the unchanged parts, so
// concurrently open branches can hold on to the contexts they were given.
type Context struct {
	stack        *Stack
	global       value.Value
	options      Options
	blocks       []map[string]Body
	templateName string
	eng          *Engine
}

// NewContext wraps data as the first scope frame of a context bound to
// the default engine.
func NewContext(data any) *Context {
	return Default().NewContext(data)
}

// NewContext wraps data as the first scope frame. A *Context is returned
// unchanged.
func (e *Engine) NewContext(data any) *Context {
	if c, ok := data.(*Context); ok {
		return c
	}
	c := e.Base(nil, nil)
	if v := value.FromAny(data); !v.IsUndefined() && !v.IsNone() {
		c.stack = NewStack(v)
	}
	return c
}

// Base creates a context with no frames. Names missing from every frame
// fall back to global, then to the engine globals.
func (e *Engine) Base(global map[string]any, opts Options) *Context {
	sources := []value.Value{value.FromMap(e.globalsSnapshot())}
	if global != nil {
		sources = append(sources, value.FromAny(global))
	}
	if opts == nil {
		opts = Options{}
	}
	return &Context{
		global:  value.MergeMaps(sources...),
		options: opts,
		eng:     e,
	}
}

func (c *Context) engine() *Engine {
	if c.eng == nil {
		return Default()
	}
	return c.eng
}

func (c *Context) logger() *slog.Logger {
	return c.engine().Logger()
}

func (c *Context) derive(stack *Stack) *Context {
	return &Context{
		stack:        stack,
		global:       c.global,
		options:      c.options,
		blocks:       c.blocks,
		templateName: c.templateName,
		eng:          c.eng,
	}
}

// withTemplate returns a copy of c named after the template it renders.
func (c *Context) withTemplate(name string) *Context {
	if c.templateName == name {
		return c
	}
	n := c.derive(c.stack)
	n.templateName = name
	return n
}

// TemplateName returns the name of the template being rendered.
func (c *Context) TemplateName() string {
	return c.templateName
}

// Options returns the render options.
func (c *Context) Options() Options {
	return c.options
}

// Global returns the global data.
func (c *Context) Global() value.Value {
	return c.global
}

// Stack returns the top frame, or nil.
func (c *Context) Stack() *Stack {
	return c.stack
}

// Current returns the value of the top frame.
func (c *Context) Current() value.Value {
	return c.stack.Head()
}

// Get resolves a dotted path such as "a.b[0].c". A leading "." limits
// the lookup of the first segment to the top frame; "." alone is the top
// frame itself.
func (c *Context) Get(path string) value.Value {
	currentOnly := false
	if strings.HasPrefix(path, ".") {
		currentOnly = true
		path = path[1:]
	}
	return c.GetPath(currentOnly, splitPath(path))
}

// GetPath resolves keys. Without currentOnly the first key is searched in
// every structured frame from the top, then in the global data. The rest
// of the keys are member lookups on what was found.
//
// When the walk meets a deferred value before the last key, the result is
// a new deferred that continues the walk on the resolved value.
func (c *Context) GetPath(currentOnly bool, keys []string) value.Value {
	var (
		cur  value.Value
		this value.Value
		i    = 1
	)

	switch {
	case currentOnly && len(keys) == 0:
		cur = c.stack.Head()
		this = cur
	case len(keys) == 0:
		return value.Undefined()
	case !currentOnly:
		first := keys[0]
		if v, ok := c.iterationMeta(first); ok {
			cur = v
			break
		}
		for f := c.stack; f != nil; f = f.tail {
			if !f.isObject {
				continue
			}
			this = f.head
			if v := f.head.Member(first); !v.IsUndefined() {
				cur = v
				break
			}
		}
		if cur.IsUndefined() {
			this = c.global
			cur = c.global.Member(first)
		}
	default:
		this = c.stack.Head()
		cur = this.Member(keys[0])
	}

	for i < len(keys) && !cur.IsUndefined() && !cur.IsNone() {
		if d, ok := cur.AsDeferred(); ok {
			rest := keys[i:]
			return value.FromDeferred(d.Then(func(v value.Value) (value.Value, error) {
				return c.Push(v).GetPath(true, rest), nil
			}))
		}
		this = cur
		cur = cur.Member(keys[i])
		i++
	}
	if i < len(keys) {
		cur = value.Undefined()
	}

	if fn, ok := cur.AsCallable(); ok {
		return value.FromCallable(&boundCallable{
			fn:   fn,
			this: this,
			path: strings.Join(keys, "."),
			ctx:  c,
		})
	}
	if cur.IsUndefined() {
		c.logger().Info("Cannot find reference",
			"path", strings.Join(keys, "."),
			"template", c.templateName)
	}
	return cur
}

// iterationMeta answers $idx and $len from the closest iteration frame.
func (c *Context) iterationMeta(key string) (value.Value, bool) {
	if key != "$idx" && key != "$len" {
		return value.Undefined(), false
	}
	f := c.stack.nearestIndexed()
	if f == nil {
		return value.Undefined(), false
	}
	if key == "$idx" {
		return value.FromInt(int64(f.index)), true
	}
	return value.FromInt(int64(f.length)), true
}

// splitPath splits "a.b[0]" into ["a", "b", "0"].
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var keys []string
	for _, seg := range strings.Split(path, ".") {
		for seg != "" {
			open := strings.IndexByte(seg, '[')
			if open < 0 {
				keys = append(keys, seg)
				break
			}
			if open > 0 {
				keys = append(keys, seg[:open])
			}
			end := strings.IndexByte(seg[open:], ']')
			if end < 0 {
				keys = append(keys, seg[open+1:])
				break
			}
			keys = append(keys, seg[open+1:open+end])
			seg = seg[open+end+1:]
		}
	}
	return keys
}

// Push returns a context with v as a new top frame. Pushing an undefined
// value returns c unchanged.
func (c *Context) Push(v value.Value) *Context {
	if v.IsUndefined() {
		c.logger().Info("Not pushing an undefined variable onto the context",
			"template", c.templateName)
		return c
	}
	return c.derive(newStack(v, c.stack))
}

// PushIndexed is Push for a frame created while iterating a sequence of
// the given length.
func (c *Context) PushIndexed(v value.Value, index, length int) *Context {
	if v.IsUndefined() {
		return c
	}
	return c.derive(newIndexedStack(v, c.stack, index, length))
}

// Pop returns the top value and a context without the top frame.
func (c *Context) Pop() (value.Value, *Context) {
	return c.stack.Head(), c.derive(c.stack.Tail())
}

// pushUnder inserts a frame holding v directly below the top frame. The top
// frame keeps its iteration index and length.
func (c *Context) pushUnder(v value.Value) *Context {
	if c.stack == nil {
		return c.Push(v)
	}
	return c.derive(c.stack.withTail(newStack(v, c.stack.tail)))
}

// Rebase returns a context whose only frame holds v. Globals, options and
// blocks are kept.
func (c *Context) Rebase(v value.Value) *Context {
	if v.IsUndefined() {
		return c.derive(nil)
	}
	return c.derive(NewStack(v))
}

// Clone returns a copy of c.
func (c *Context) Clone() *Context {
	return c.derive(c.stack)
}

// GetBlock returns the newest override registered for name.
func (c *Context) GetBlock(name string) (Body, bool) {
	if len(c.blocks) == 0 {
		c.logger().Debug("No blocks for context", "block", name, "template", c.templateName)
		return nil, false
	}
	for i := len(c.blocks) - 1; i >= 0; i-- {
		if fn, ok := c.blocks[i][name]; ok && fn != nil {
			return fn, true
		}
	}
	c.logger().Debug("Malformed template was missing one or more blocks",
		"block", name, "template", c.templateName)
	return nil, false
}

// ShiftBlocks returns a context with locals as the newest override layer.
func (c *Context) ShiftBlocks(locals map[string]Body) *Context {
	if len(locals) == 0 {
		return c
	}
	n := c.derive(c.stack)
	n.blocks = make([]map[string]Body, len(c.blocks), len(c.blocks)+1)
	copy(n.blocks, c.blocks)
	n.blocks = append(n.blocks, locals)
	return n
}

// Resolve renders a body value synchronously and returns its text. Any
// other value is returned unchanged. Output from async values inside the
// body is dropped.
func (c *Context) Resolve(v value.Value) value.Value {
	body, ok := asBody(v)
	if !ok {
		return v
	}
	r := &run{ctx: context.Background(), cancel: func() {}, eng: c.engine(), loop: newLoop()}
	r.loop.stop()
	root := &discard{}
	root.head = &Chunk{root: root, r: r}
	body(root.head, c)

	var sb strings.Builder
	for chunk := root.head; chunk != nil; chunk = chunk.next {
		for _, d := range chunk.data {
			sb.WriteString(d)
		}
	}
	return value.FromString(sb.String())
}

// boundCallable is a function found by a path lookup, bound to the value
// that contained it.
type boundCallable struct {
	fn   value.Callable
	this value.Value
	path string
	ctx  *Context
}

func (b *boundCallable) Call(state value.State, _ value.Value) (value.Value, error) {
	v, err := b.fn.Call(state, b.this)
	if err != nil {
		b.ctx.logger().Error("Error calling function",
			"path", b.path,
			"template", b.ctx.templateName,
			"error", err)
		return value.Undefined(), attachErrorInfo(WrapError(ErrCallable, b.path, err), b.ctx)
	}
	return v, nil
}
