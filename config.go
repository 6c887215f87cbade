package dust

import (
	"io"
	"log/slog"
	"strings"
)

// Config holds the engine settings. The yaml tags are used by the
// command line tool's config file.
type Config struct {
	// Cache keeps compiled templates registered under their names.
	Cache bool `yaml:"cache"`

	// LogLevel is one of debug, info, warn, error or none.
	LogLevel string `yaml:"log_level"`

	// StrictRejections fails the render when a deferred is rejected or a
	// stream fails and no error body handles it. By default the failure
	// is only logged.
	StrictRejections bool `yaml:"strict_rejections"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Cache:    true,
		LogLevel: "warn",
	}
}

// ParseLevel maps a level name to a slog level. "none" and unknown names
// report false.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning", "":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewLogger returns a text logger writing to w at the named level. The
// level "none" discards everything.
func NewLogger(w io.Writer, level string) *slog.Logger {
	if strings.EqualFold(level, "none") {
		return slog.New(slog.DiscardHandler)
	}
	lvl, ok := ParseLevel(level)
	if !ok {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
