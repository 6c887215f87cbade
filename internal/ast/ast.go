// Package ast holds the node tree of a compiled template program.
package ast

import (
	"github.com/dustgo/dust/internal/errors"
)

// Span is the position of a node in the program file.
type Span = errors.Span

// Node is the interface implemented by all AST nodes.
type Node interface {
	node()
	Span() Span
}

// Program is the root node of a decoded program.
type Program struct {
	Name     string
	Partials map[string][]Node // inline partials, used as block overrides
	Body     []Node
	span     Span
}

func (p *Program) node()      {}
func (p *Program) Span() Span { return p.span }

// NewProgram creates a program node.
func NewProgram(name string, partials map[string][]Node, body []Node, span Span) *Program {
	return &Program{Name: name, Partials: partials, Body: body, span: span}
}

// Text outputs literal text.
type Text struct {
	Value string
	span  Span
}

func (t *Text) node()      {}
func (t *Text) Span() Span { return t.span }

// NewText creates a text node.
func NewText(v string, span Span) *Text {
	return &Text{Value: v, span: span}
}

// Reference outputs the value at Path.
type Reference struct {
	Path    string
	Filters []string
	span    Span
}

func (r *Reference) node()      {}
func (r *Reference) Span() Span { return r.span }

// NewReference creates a reference node.
func NewReference(path string, filters []string, span Span) *Reference {
	return &Reference{Path: path, Filters: filters, span: span}
}

// SectionKind tells the three section forms apart.
type SectionKind int

const (
	SectionNormal SectionKind = iota
	SectionExists
	SectionNotExists
)

func (k SectionKind) String() string {
	switch k {
	case SectionNormal:
		return "section"
	case SectionExists:
		return "exists"
	case SectionNotExists:
		return "notexists"
	default:
		return "unknown"
	}
}

// Section renders its bodies against the value at Path.
type Section struct {
	Kind   SectionKind
	Path   string
	Bodies map[string][]Node
	Params []*Param
	span   Span
}

func (s *Section) node()      {}
func (s *Section) Span() Span { return s.span }

// NewSection creates a section node.
func NewSection(kind SectionKind, path string, bodies map[string][]Node, params []*Param, span Span) *Section {
	return &Section{Kind: kind, Path: path, Bodies: bodies, Params: params, span: span}
}

// Partial renders another template. Either Name or NameBody is set.
type Partial struct {
	Name     string
	NameBody []Node
	Context  string // optional path rebased as the partial's scope
	Params   []*Param
	span     Span
}

func (p *Partial) node()      {}
func (p *Partial) Span() Span { return p.span }

// NewPartial creates a partial node.
func NewPartial(name string, nameBody []Node, context string, params []*Param, span Span) *Partial {
	return &Partial{Name: name, NameBody: nameBody, Context: context, Params: params, span: span}
}

// Helper calls a registered helper.
type Helper struct {
	Name   string
	Bodies map[string][]Node
	Params []*Param
	span   Span
}

func (h *Helper) node()      {}
func (h *Helper) Span() Span { return h.span }

// NewHelper creates a helper node.
func NewHelper(name string, bodies map[string][]Node, params []*Param, span Span) *Helper {
	return &Helper{Name: name, Bodies: bodies, Params: params, span: span}
}

// Override renders the block override called Name, or Default.
type Override struct {
	Name    string
	Default []Node
	span    Span
}

func (o *Override) node()      {}
func (o *Override) Span() Span { return o.span }

// NewOverride creates an override node.
func NewOverride(name string, def []Node, span Span) *Override {
	return &Override{Name: name, Default: def, span: span}
}

// ParamKind is the kind of a parameter value.
type ParamKind int

const (
	ParamLiteral ParamKind = iota
	ParamRef
	ParamBody
)

// Param is one key of a params map.
type Param struct {
	Key     string
	Kind    ParamKind
	Literal any
	Path    string
	Body    []Node
	span    Span
}

func (p *Param) node()      {}
func (p *Param) Span() Span { return p.span }

// NewLiteralParam creates a parameter with a constant value.
func NewLiteralParam(key string, v any, span Span) *Param {
	return &Param{Key: key, Kind: ParamLiteral, Literal: v, span: span}
}

// NewRefParam creates a parameter looked up at render time.
func NewRefParam(key, path string, span Span) *Param {
	return &Param{Key: key, Kind: ParamRef, Path: path, span: span}
}

// NewBodyParam creates a parameter holding a body.
func NewBodyParam(key string, body []Node, span Span) *Param {
	return &Param{Key: key, Kind: ParamBody, Body: body, span: span}
}
