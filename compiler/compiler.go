// Package compiler turns compiled template programs into templates.
//
// A program is a YAML document describing an already compiled template
// tree. It is the interchange format between a template front end and the
// engine; no template syntax is parsed here.
//
//	name: page
//	partials:
//	  title: [Welcome]
//	body:
//	  - "<h1>"
//	  - override: title
//	    default: [Untitled]
//	  - "</h1>"
//	  - section: items
//	    block:
//	      - ref: name
//	        filters: [j]
//	      - helper: sep
//	        block: [", "]
//	    else: [Nothing here]
//	  - partial: footer
//	    params:
//	      year: 2024
//	      who: {ref: user.name}
//
// A body is a list of nodes. A plain string is text. The other nodes are
// mappings keyed by their kind: text, ref, section, exists, notexists,
// partial, helper and override.
package compiler

import (
	"github.com/dustgo/dust"
	"github.com/dustgo/dust/internal/ast"
	"github.com/dustgo/dust/internal/errors"
	"github.com/dustgo/dust/value"
)

// Compiler compiles program sources. It implements dust.Compiler.
type Compiler struct {
	// Escape is the filter applied to references, "h" unless set.
	// "none" turns default escaping off.
	Escape string
}

// New creates a compiler with HTML escaping.
func New() *Compiler {
	return &Compiler{Escape: "h"}
}

// Compile decodes and compiles source.
func (c *Compiler) Compile(source, name string) (*dust.Template, error) {
	prog, err := Decode(source, name)
	if err != nil {
		return nil, err
	}
	return c.CompileProgram(prog)
}

// CompileProgram compiles a decoded program.
func (c *Compiler) CompileProgram(prog *ast.Program) (*dust.Template, error) {
	escape := c.Escape
	switch escape {
	case "":
		escape = "h"
	case "none":
		escape = ""
	}
	g := &gen{escape: escape}

	body, err := g.body(prog.Body)
	if err != nil {
		return nil, err
	}
	var blocks map[string]dust.Body
	if len(prog.Partials) > 0 {
		blocks = make(map[string]dust.Body, len(prog.Partials))
		for name, nodes := range prog.Partials {
			b, err := g.body(nodes)
			if err != nil {
				return nil, err
			}
			blocks[name] = b
		}
	}
	return dust.NewTemplate(prog.Name, body, blocks), nil
}

// Compile compiles source with a default compiler.
func Compile(source, name string) (*dust.Template, error) {
	return New().Compile(source, name)
}

type gen struct {
	escape string
}

func (g *gen) body(nodes []ast.Node) (dust.Body, error) {
	steps := make([]dust.Body, 0, len(nodes))
	for _, n := range nodes {
		step, err := g.node(n)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
		for _, step := range steps {
			chunk = step(chunk, ctx)
		}
		return chunk
	}, nil
}

func (g *gen) bodies(m map[string][]ast.Node) (dust.Bodies, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(dust.Bodies, len(m))
	for key, nodes := range m {
		b, err := g.body(nodes)
		if err != nil {
			return nil, err
		}
		out[key] = b
	}
	return out, nil
}

func (g *gen) node(n ast.Node) (dust.Body, error) {
	switch n := n.(type) {
	case *ast.Text:
		text := n.Value
		return func(chunk *dust.Chunk, _ *dust.Context) *dust.Chunk {
			return chunk.Write(text)
		}, nil

	case *ast.Reference:
		path, filters, escape := n.Path, n.Filters, g.escape
		return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
			return chunk.Reference(ctx.Get(path), ctx, escape, filters)
		}, nil

	case *ast.Section:
		bodies, err := g.bodies(n.Bodies)
		if err != nil {
			return nil, err
		}
		params, err := g.params(n.Params)
		if err != nil {
			return nil, err
		}
		path := n.Path
		switch n.Kind {
		case ast.SectionExists:
			return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
				return chunk.Exists(ctx.Get(path), ctx, bodies)
			}, nil
		case ast.SectionNotExists:
			return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
				return chunk.NotExists(ctx.Get(path), ctx, bodies)
			}, nil
		default:
			return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
				return chunk.Section(ctx.Get(path), ctx, bodies, params(ctx))
			}, nil
		}

	case *ast.Partial:
		params, err := g.params(n.Params)
		if err != nil {
			return nil, err
		}
		name := value.FromString(n.Name)
		if n.NameBody != nil {
			b, err := g.body(n.NameBody)
			if err != nil {
				return nil, err
			}
			name = value.FromCallable(b)
		}
		ctxPath := n.Context
		return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
			var partialCtx *dust.Context
			if ctxPath != "" {
				partialCtx = ctx.Rebase(ctx.Get(ctxPath))
			}
			return chunk.Partial(name, ctx, partialCtx, params(ctx))
		}, nil

	case *ast.Helper:
		bodies, err := g.bodies(n.Bodies)
		if err != nil {
			return nil, err
		}
		params, err := g.params(n.Params)
		if err != nil {
			return nil, err
		}
		name, escape := n.Name, g.escape
		return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
			return chunk.Helper(name, ctx, bodies, params(ctx), escape)
		}, nil

	case *ast.Override:
		def, err := g.body(n.Default)
		if err != nil {
			return nil, err
		}
		bodies := dust.Bodies{dust.BodyBlock: def}
		name := n.Name
		return func(chunk *dust.Chunk, ctx *dust.Context) *dust.Chunk {
			override, _ := ctx.GetBlock(name)
			return chunk.Block(override, ctx, bodies)
		}, nil

	default:
		return nil, errors.NewError(errors.ErrSyntax, "unsupported node").WithSpan(n.Span())
	}
}

// params returns a function building the params of one render.
func (g *gen) params(ps []*ast.Param) (func(*dust.Context) dust.Params, error) {
	if len(ps) == 0 {
		return func(*dust.Context) dust.Params { return nil }, nil
	}
	type binding struct {
		key  string
		path string
		val  value.Value
	}
	bindings := make([]binding, 0, len(ps))
	for _, p := range ps {
		switch p.Kind {
		case ast.ParamRef:
			bindings = append(bindings, binding{key: p.Key, path: p.Path})
		case ast.ParamBody:
			b, err := g.body(p.Body)
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, binding{key: p.Key, val: value.FromCallable(b)})
		default:
			bindings = append(bindings, binding{key: p.Key, val: value.FromAny(p.Literal)})
		}
	}
	return func(ctx *dust.Context) dust.Params {
		out := make(dust.Params, len(bindings))
		for _, b := range bindings {
			if b.path != "" {
				out[b.key] = ctx.Get(b.path)
			} else {
				out[b.key] = b.val
			}
		}
		return out
	}, nil
}
