package dust

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dustgo/dust/value"
)

func TestEmptyEngineHasNoBuiltins(t *testing.T) {
	e := EmptyEngine()
	if _, ok := e.helper("sep"); ok {
		t.Error("empty engine has the sep helper")
	}
	if _, ok := e.filter("h"); ok {
		t.Error("empty engine has the h filter")
	}
	out := mustRender(t, e, ref("v"), map[string]any{"v": "<raw>"})
	if out != "<raw>" {
		t.Errorf("got %q", out)
	}
}

func TestDefaultEngine(t *testing.T) {
	e := Default()
	if e != Default() {
		t.Fatal("Default returned two engines")
	}
	for _, name := range []string{"sep", "first", "last", "idx"} {
		if _, ok := e.helper(name); !ok {
			t.Errorf("default engine is missing helper %q", name)
		}
	}
}

func TestGlobals(t *testing.T) {
	e, _ := newTestEngine(t)
	e.AddGlobal("version", "1.0")
	e.AddGlobal("shadowed", "global")
	out := mustRender(t, e, seq(ref("version"), text(" "), ref("shadowed")), map[string]any{"shadowed": "local"})
	if out != "1.0 local" {
		t.Errorf("got %q", out)
	}

	ctx := e.Base(map[string]any{"version": "2.0"}, nil)
	if got := ctx.Get("version").String(); got != "2.0" {
		t.Errorf("Base global did not override engine global: %q", got)
	}
}

func TestConfigure(t *testing.T) {
	e := NewEngine()
	cfg := DefaultConfig()
	if !cfg.Cache || cfg.LogLevel != "warn" || cfg.StrictRejections {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	cfg.StrictRejections = true
	cfg.LogLevel = "none"
	e.Configure(cfg)
	if !e.Config().StrictRejections {
		t.Error("Configure did not apply")
	}
	if e.Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("log level none still logs errors")
	}

	_, err := render(t, e, ref("d"), map[string]any{"d": value.Rejected(errors.New("x"))})
	if !IsKind(err, ErrRejected) {
		t.Errorf("err = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		lvl  slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		lvl, ok := ParseLevel(tt.name)
		if lvl != tt.lvl || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.name, lvl, ok)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "error")
	logger.Warn("quiet")
	logger.Error("loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Errorf("log output:\n%s", buf.String())
	}
}

func TestTemplateEngineBinding(t *testing.T) {
	e := NewEngine()
	unbound := NewTemplate("x", text("x"), nil)
	if unbound.Engine() != Default() {
		t.Error("unbound template does not use the default engine")
	}
	e.Register(unbound)
	if unbound.Engine() != e {
		t.Error("Register did not bind the template")
	}
}

func TestIsKind(t *testing.T) {
	err := WrapError(ErrLoad, "a", NewError(ErrTemplateNotFound, "b"))
	if !IsKind(err, ErrLoad) || !IsKind(err, ErrTemplateNotFound) {
		t.Error("IsKind missed a kind in the chain")
	}
	if IsKind(err, ErrHelper) {
		t.Error("IsKind matched an absent kind")
	}
	if IsKind(errors.New("plain"), ErrLoad) {
		t.Error("IsKind matched a plain error")
	}
	if IsKind(nil, ErrLoad) {
		t.Error("IsKind matched nil")
	}
}
