// Package store keeps template program sources in a SQLite database and
// serves them to an engine as a loader.
//
// The default build uses the pure Go modernc.org/sqlite driver. Building
// with the cgo_sqlite tag switches to github.com/mattn/go-sqlite3.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustgo/dust"
)

// ErrNotFound is returned by Get for a name that is not stored.
var ErrNotFound = errors.New("store: template not found")

// SetupSchema creates the templates table.
func SetupSchema(db *sql.DB) error {
	const schemaTemplates = `
CREATE TABLE IF NOT EXISTS templates (
    name TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`
	if _, err := db.Exec(schemaTemplates); err != nil {
		return fmt.Errorf("failed to create templates table: %w", err)
	}
	return nil
}

// Store reads and writes template sources.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and sets up the schema.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an open database whose schema is already set up.
func New(db *sql.DB) *Store {
	return &Store{
		db:     db,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// SetLogger sets the logger.
func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores source under name, replacing any previous source.
func (s *Store) Put(ctx context.Context, name, source string) error {
	const q = `
INSERT INTO templates (name, source, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, q, name, source, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to store template %q: %w", name, err)
	}
	return nil
}

// Get returns the source stored under name.
func (s *Store) Get(ctx context.Context, name string) (string, error) {
	var source string
	err := s.db.QueryRowContext(ctx, `SELECT source FROM templates WHERE name = ?`, name).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read template %q: %w", name, err)
	}
	return source, nil
}

// Delete removes name. Deleting a missing name is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete template %q: %w", name, err)
	}
	return nil
}

// Names returns the stored names, sorted.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ImportDir stores every file under dir with the extension ext. Names are
// the slash separated paths relative to dir without the extension. It
// returns the number of stored templates.
func (s *Store) ImportDir(ctx context.Context, dir, ext string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ext {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ext)
		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := s.Put(ctx, name, string(contents)); err != nil {
			return err
		}
		s.logger.Debug("Imported template", "template", name, "path", path)
		count++
		return nil
	})
	return count, err
}

// Loader returns a loader that reads sources from the store on a new
// goroutine.
func (s *Store) Loader() dust.Loader {
	return dust.LoaderFunc(func(ctx context.Context, name string, _ dust.Options, done dust.LoadDone) {
		go func() {
			source, err := s.Get(ctx, name)
			if err != nil {
				done(dust.Loaded{}, err)
				return
			}
			done(dust.Loaded{Source: source}, nil)
		}()
	})
}
