package dust

import (
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/dustgo/dust/value"
)

// Filter transforms a referenced value before it is written.
type Filter func(v value.Value, ctx *Context) (value.Value, error)

// Compiler turns template source into a template. The engine calls it for
// sources returned by a Loader.
type Compiler interface {
	Compile(source, name string) (*Template, error)
}

// CompilerFunc adapts a function to the Compiler interface.
type CompilerFunc func(source, name string) (*Template, error)

// Compile calls f(source, name).
func (f CompilerFunc) Compile(source, name string) (*Template, error) {
	return f(source, name)
}

// Engine holds the registries of a set of templates: the template cache,
// filters, helpers and globals, plus the loader and compiler used for
// templates that are not registered yet.
//
// Registration methods are not meant to race with renders; set up the
// engine before rendering. The template cache is safe for concurrent use.
type Engine struct {
	templates   map[string]*Template
	templatesMu sync.RWMutex
	filters     map[string]Filter
	helpers     map[string]Func
	globals     map[string]value.Value
	loader      Loader
	compiler    Compiler
	config      Config
	logger      *slog.Logger
}

var (
	defaultEngine *Engine
	defaultOnce   sync.Once
)

// Default returns the engine used by package-level functions and by
// templates that are not registered with an engine.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = NewEngine()
	})
	return defaultEngine
}

// NewEngine creates an engine with the default configuration, filters and
// helpers.
func NewEngine() *Engine {
	e := EmptyEngine()
	registerDefaultFilters(e)
	registerDefaultHelpers(e)
	return e
}

// EmptyEngine creates an engine with no filters and no helpers.
func EmptyEngine() *Engine {
	cfg := DefaultConfig()
	return &Engine{
		templates: make(map[string]*Template),
		filters:   make(map[string]Filter),
		helpers:   make(map[string]Func),
		globals:   make(map[string]value.Value),
		config:    cfg,
		logger:    NewLogger(os.Stderr, cfg.LogLevel),
	}
}

// Configure applies cfg. The logger is replaced by a stderr logger at the
// configured level unless a logger was set with SetLogger afterwards.
func (e *Engine) Configure(cfg Config) {
	e.config = cfg
	e.logger = NewLogger(os.Stderr, cfg.LogLevel)
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	return e.config
}

// SetLogger sets the logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// Logger returns the logger.
func (e *Engine) Logger() *slog.Logger {
	return e.logger
}

// SetCache turns the template cache on or off. With the cache off every
// render by name goes through the loader.
func (e *Engine) SetCache(on bool) {
	e.config.Cache = on
}

// SetStrictRejections makes rejected deferreds and failed streams without
// an error body fail the render.
func (e *Engine) SetStrictRejections(on bool) {
	e.config.StrictRejections = on
}

// SetLoader sets the loader for templates missing from the cache.
func (e *Engine) SetLoader(loader Loader) {
	e.loader = loader
}

// SetCompiler sets the compiler for loaded sources.
func (e *Engine) SetCompiler(c Compiler) {
	e.compiler = c
}

// AddFilter registers a filter.
func (e *Engine) AddFilter(name string, f Filter) {
	e.filters[name] = f
}

// AddHelper registers a helper.
func (e *Engine) AddHelper(name string, h Func) {
	e.helpers[name] = h
}

// AddGlobal registers a global variable.
func (e *Engine) AddGlobal(name string, v any) {
	e.globals[name] = value.FromAny(v)
}

func (e *Engine) globalsSnapshot() map[string]value.Value {
	return maps.Clone(e.globals)
}

func (e *Engine) filter(name string) (Filter, bool) {
	f, ok := e.filters[name]
	return f, ok
}

func (e *Engine) helper(name string) (Func, bool) {
	h, ok := e.helpers[name]
	return h, ok
}

// Register adds t to the template cache under t.Name.
func (e *Engine) Register(t *Template) {
	if t.eng == nil {
		t.eng = e
	}
	e.templatesMu.Lock()
	e.templates[t.Name] = t
	e.templatesMu.Unlock()
}

// NewTemplate creates a template bound to e without registering it.
func (e *Engine) NewTemplate(name string, body Body, blocks map[string]Body) *Template {
	return &Template{Name: name, Body: body, Blocks: blocks, eng: e}
}

// Template returns a registered template.
func (e *Engine) Template(name string) (*Template, bool) {
	e.templatesMu.RLock()
	defer e.templatesMu.RUnlock()
	t, ok := e.templates[name]
	return t, ok
}

// Templates returns the names of the registered templates, sorted.
func (e *Engine) Templates() []string {
	e.templatesMu.RLock()
	defer e.templatesMu.RUnlock()
	return slices.Sorted(maps.Keys(e.templates))
}

// RemoveTemplate removes a template from the cache.
func (e *Engine) RemoveTemplate(name string) {
	e.templatesMu.Lock()
	delete(e.templates, name)
	e.templatesMu.Unlock()
}

// ClearTemplates empties the cache.
func (e *Engine) ClearTemplates() {
	e.templatesMu.Lock()
	clear(e.templates)
	e.templatesMu.Unlock()
}

// cached returns a registered template when the cache is on.
func (e *Engine) cached(name string) (*Template, bool) {
	if !e.config.Cache {
		return nil, false
	}
	return e.Template(name)
}
