package dust

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Loaded is what a loader delivers: a compiled template, or source for the
// engine's compiler.
type Loaded struct {
	Template *Template
	Source   string
}

// LoadDone receives the outcome of a load. It may be called from any
// goroutine; calls after the first are ignored.
type LoadDone func(Loaded, error)

// Loader fetches templates that are not in the cache.
type Loader interface {
	Load(ctx context.Context, name string, opts Options, done LoadDone)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, name string, opts Options, done LoadDone)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, name string, opts Options, done LoadDone) {
	f(ctx, name, opts, done)
}

// SimpleLoader is a loader that only needs the template name.
type SimpleLoader func(name string, done LoadDone)

// Load calls f(name, done).
func (f SimpleLoader) Load(_ context.Context, name string, _ Options, done LoadDone) {
	f(name, done)
}

// DirLoader loads template sources from files under dir. Names are
// slash separated; a name without an extension gets ext appended. Files
// are read on a new goroutine.
func DirLoader(dir, ext string) Loader {
	return SimpleLoader(func(name string, done LoadDone) {
		go func() {
			path, err := safeJoin(dir, name, ext)
			if err != nil {
				done(Loaded{}, err)
				return
			}
			contents, err := os.ReadFile(path)
			if err != nil {
				done(Loaded{}, err)
				return
			}
			done(Loaded{Source: string(contents)}, nil)
		}()
	})
}

func safeJoin(dir, name, ext string) (string, error) {
	path := dir
	for _, piece := range strings.Split(name, "/") {
		if piece == "" || piece == "." || piece == ".." || strings.Contains(piece, "\\") {
			return "", fmt.Errorf("invalid template name: %s", name)
		}
		path = filepath.Join(path, piece)
	}
	if filepath.Ext(path) == "" {
		path += ext
	}
	return path, nil
}

// load renders the named template into chunk. A registered template runs
// in place. Otherwise the loader is called on a new branch, which the
// loaded template renders into once it arrives.
func (e *Engine) load(name string, chunk *Chunk, ctx *Context) *Chunk {
	if name == "" {
		return chunk.SetError(NewError(ErrNoTemplate, "no template or template name provided to render"))
	}
	if t, ok := e.cached(name); ok {
		return t.exec(chunk, ctx)
	}
	if e.loader == nil {
		return chunk.SetError(NewError(ErrTemplateNotFound, name))
	}
	return chunk.Map(func(branch *Chunk) {
		var once sync.Once
		e.loader.Load(branch.r.ctx, name, ctx.Options(), func(l Loaded, err error) {
			once.Do(func() {
				branch.post(func() {
					if err != nil {
						e.logger.Error("Failed to load template", "template", name, "error", err)
						branch.SetError(attachErrorInfo(WrapError(ErrLoad, name, err), ctx))
						return
					}
					t, err := e.resolveLoaded(name, l)
					if err != nil {
						branch.SetError(err)
						return
					}
					t.exec(branch, ctx).End()
				})
			})
		})
	})
}

// resolveLoaded turns a loader result into a template, compiling source
// when needed. Compiled templates are registered when the cache is on.
func (e *Engine) resolveLoaded(name string, l Loaded) (*Template, error) {
	if l.Template != nil {
		if l.Template.Name == "" {
			l.Template.Name = name
		}
		return l.Template, nil
	}
	if t, ok := e.cached(name); ok {
		return t, nil
	}
	if e.compiler == nil {
		return nil, NewError(ErrCompilerUnavailable, name)
	}
	t, err := e.compiler.Compile(l.Source, name)
	if err != nil {
		return nil, err
	}
	if t.Name == "" {
		t.Name = name
	}
	if e.config.Cache {
		e.Register(t)
	} else if t.eng == nil {
		t.eng = e
	}
	return t, nil
}

// Preload loads and compiles the named templates concurrently and
// registers them. Templates that are already registered are skipped.
func (e *Engine) Preload(ctx context.Context, names ...string) error {
	if e.loader == nil {
		return NewError(ErrTemplateNotFound, "no loader configured")
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		if _, ok := e.Template(name); ok {
			continue
		}
		g.Go(func() error {
			type result struct {
				l   Loaded
				err error
			}
			ch := make(chan result, 1)
			var once sync.Once
			e.loader.Load(ctx, name, Options{}, func(l Loaded, err error) {
				once.Do(func() { ch <- result{l, err} })
			})

			var res result
			select {
			case res = <-ch:
			case <-ctx.Done():
				return ctx.Err()
			}
			if res.err != nil {
				return WrapError(ErrLoad, name, res.err)
			}
			t, err := e.resolveLoaded(name, res.l)
			if err != nil {
				return err
			}
			e.Register(t)
			e.logger.Debug("Preloaded template", "template", name)
			return nil
		})
	}
	return g.Wait()
}
