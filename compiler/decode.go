package compiler

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/dustgo/dust/internal/ast"
	"github.com/dustgo/dust/internal/errors"
)

// node kinds, checked in this order
var nodeKinds = []string{"text", "ref", "section", "exists", "notexists", "partial", "helper", "override"}

var bodyKeys = map[string]bool{"block": true, "else": true, "error": true}

type decoder struct {
	name   string
	source string
}

// Decode parses a program file into its node tree.
func Decode(source, name string) (*ast.Program, error) {
	d := &decoder{name: name, source: source}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(source), &doc); err != nil {
		return nil, errors.Wrap(errors.ErrSyntax, "invalid program", err).WithName(name)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.NewError(errors.ErrSyntax, "empty program").WithName(name)
	}
	return d.program(doc.Content[0])
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	return errors.NewError(errors.ErrSyntax, fmt.Sprintf(format, args...)).
		WithName(d.name).
		WithSpan(spanOf(n)).
		WithSource(d.source)
}

func spanOf(n *yaml.Node) ast.Span {
	return ast.Span{Line: n.Line, Column: n.Column}
}

// program accepts either a plain node list or a mapping with name,
// partials and body.
func (d *decoder) program(n *yaml.Node) (*ast.Program, error) {
	if n.Kind == yaml.SequenceNode {
		body, err := d.nodes(n)
		if err != nil {
			return nil, err
		}
		return ast.NewProgram(d.name, nil, body, spanOf(n)), nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "program must be a mapping or a list of nodes")
	}

	name := d.name
	var (
		partials map[string][]ast.Node
		body     []ast.Node
		err      error
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "name":
			if name == "" {
				name = val.Value
			}
		case "partials":
			if val.Kind != yaml.MappingNode {
				return nil, d.errorf(val, "partials must be a mapping")
			}
			partials = make(map[string][]ast.Node)
			for j := 0; j+1 < len(val.Content); j += 2 {
				nodes, err := d.nodes(val.Content[j+1])
				if err != nil {
					return nil, err
				}
				partials[val.Content[j].Value] = nodes
			}
		case "body":
			if body, err = d.nodes(val); err != nil {
				return nil, err
			}
		default:
			return nil, d.errorf(key, "unknown program key %q", key.Value)
		}
	}
	return ast.NewProgram(name, partials, body, spanOf(n)), nil
}

// nodes decodes a body: a list of nodes, or a single scalar of text.
func (d *decoder) nodes(n *yaml.Node) ([]ast.Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return []ast.Node{ast.NewText(n.Value, spanOf(n))}, nil
	case yaml.SequenceNode:
		out := make([]ast.Node, 0, len(n.Content))
		for _, item := range n.Content {
			node, err := d.node(item)
			if err != nil {
				return nil, err
			}
			out = append(out, node)
		}
		return out, nil
	case yaml.MappingNode:
		node, err := d.node(n)
		if err != nil {
			return nil, err
		}
		return []ast.Node{node}, nil
	default:
		return nil, d.errorf(n, "expected a list of nodes")
	}
}

func (d *decoder) node(n *yaml.Node) (ast.Node, error) {
	if n.Kind == yaml.ScalarNode {
		return ast.NewText(n.Value, spanOf(n)), nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected text or a node mapping")
	}

	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[n.Content[i].Value] = n.Content[i+1]
	}

	kind := ""
	for _, k := range nodeKinds {
		if _, ok := fields[k]; ok {
			kind = k
			break
		}
	}
	span := spanOf(n)

	switch kind {
	case "text":
		return ast.NewText(fields["text"].Value, span), nil
	case "ref":
		filters, err := d.strings(fields["filters"])
		if err != nil {
			return nil, err
		}
		return ast.NewReference(fields["ref"].Value, filters, span), nil
	case "section", "exists", "notexists":
		bodies, err := d.bodies(fields)
		if err != nil {
			return nil, err
		}
		params, err := d.params(fields["params"])
		if err != nil {
			return nil, err
		}
		sk := ast.SectionNormal
		switch kind {
		case "exists":
			sk = ast.SectionExists
		case "notexists":
			sk = ast.SectionNotExists
		}
		return ast.NewSection(sk, fields[kind].Value, bodies, params, span), nil
	case "partial":
		target := fields["partial"]
		var (
			name     string
			nameBody []ast.Node
			err      error
		)
		if target.Kind == yaml.ScalarNode {
			name = target.Value
		} else if nameBody, err = d.nodes(target); err != nil {
			return nil, err
		}
		params, err := d.params(fields["params"])
		if err != nil {
			return nil, err
		}
		ctxPath := ""
		if c := fields["context"]; c != nil {
			ctxPath = c.Value
		}
		return ast.NewPartial(name, nameBody, ctxPath, params, span), nil
	case "helper":
		bodies, err := d.bodies(fields)
		if err != nil {
			return nil, err
		}
		params, err := d.params(fields["params"])
		if err != nil {
			return nil, err
		}
		return ast.NewHelper(fields["helper"].Value, bodies, params, span), nil
	case "override":
		var def []ast.Node
		if dn := fields["default"]; dn != nil {
			var err error
			if def, err = d.nodes(dn); err != nil {
				return nil, err
			}
		}
		return ast.NewOverride(fields["override"].Value, def, span), nil
	default:
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, d.errorf(n, "unknown node with keys %v", keys)
	}
}

func (d *decoder) bodies(fields map[string]*yaml.Node) (map[string][]ast.Node, error) {
	var out map[string][]ast.Node
	for key := range bodyKeys {
		n, ok := fields[key]
		if !ok {
			continue
		}
		nodes, err := d.nodes(n)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = make(map[string][]ast.Node)
		}
		out[key] = nodes
	}
	return out, nil
}

func (d *decoder) strings(n *yaml.Node) ([]string, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, d.errorf(item, "filter names must be strings")
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, d.errorf(n, "filters must be a name or a list of names")
	}
}

// params decodes a params mapping. A scalar is a literal, {ref: path} a
// lookup, a list a body, and any other mapping a literal map.
func (d *decoder) params(n *yaml.Node) ([]*ast.Param, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "params must be a mapping")
	}
	out := make([]*ast.Param, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		span := spanOf(val)
		switch val.Kind {
		case yaml.SequenceNode:
			body, err := d.nodes(val)
			if err != nil {
				return nil, err
			}
			out = append(out, ast.NewBodyParam(key, body, span))
		case yaml.MappingNode:
			if len(val.Content) == 2 && val.Content[0].Value == "ref" {
				out = append(out, ast.NewRefParam(key, val.Content[1].Value, span))
				continue
			}
			fallthrough
		default:
			var lit any
			if err := val.Decode(&lit); err != nil {
				return nil, d.errorf(val, "param %q: %v", key, err)
			}
			out = append(out, ast.NewLiteralParam(key, lit, span))
		}
	}
	return out, nil
}
