// Command dust renders compiled template programs.
//
//	dust [flags] TEMPLATE
//
// Templates are read from a directory of program files, or from a SQLite
// database when -db is given. Data is read from a YAML (or JSON) file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/dustgo/dust"
	"github.com/dustgo/dust/compiler"
	"github.com/dustgo/dust/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("dust", flag.ContinueOnError)
	var (
		configPath = fs.String("config", "dust.yaml", "config file, created with defaults if missing")
		dir        = fs.String("templates", "", "template directory (overrides the config)")
		dbPath     = fs.String("db", "", "SQLite database to load templates from")
		importDir  = fs.Bool("import", false, "import the template directory into the database and exit")
		dataPath   = fs.String("data", "", "YAML or JSON data file")
		stream     = fs.Bool("stream", false, "write chunks as they complete")
		outPath    = fs.String("out", "", "write the output to this file instead of stdout")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: dust [flags] TEMPLATE\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dir != "" {
		config.TemplateDir = *dir
	}
	if *dbPath != "" {
		config.DatabasePath = *dbPath
	}

	logger := dust.NewLogger(os.Stderr, config.Engine.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := dust.NewEngine()
	engine.Configure(config.Engine)
	engine.SetLogger(logger)
	engine.SetCompiler(&compiler.Compiler{Escape: config.DefaultEscape})

	if config.DatabasePath != "" {
		db, err := store.Open(config.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		db.SetLogger(logger)

		if *importDir {
			n, err := db.ImportDir(ctx, config.TemplateDir, config.TemplateExt)
			if err != nil {
				return fmt.Errorf("failed to import templates: %w", err)
			}
			logger.Info("Imported templates", "count", n, "dir", config.TemplateDir)
			return nil
		}
		engine.SetLoader(db.Loader())
	} else {
		if *importDir {
			return errors.New("-import needs a database")
		}
		engine.SetLoader(dust.DirLoader(config.TemplateDir, config.TemplateExt))
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one template name")
	}
	name := fs.Arg(0)

	data, err := loadData(*dataPath)
	if err != nil {
		return err
	}

	switch {
	case *outPath != "":
		if err := engine.RenderFile(ctx, name, data, *outPath); err != nil {
			return err
		}
		logger.Debug("Wrote output", "template", name, "path", *outPath)
		return nil
	case *stream:
		_, err := engine.Stream(ctx, name, data).WriteTo(os.Stdout)
		return err
	default:
		out, err := engine.Render(ctx, name, data)
		if _, werr := os.Stdout.WriteString(out); werr != nil {
			logger.Error("Failed to write output", "error", werr)
		}
		return err
	}
}

// loadData reads the data file. JSON is valid YAML, so both are accepted.
func loadData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(contents, &data); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	return data, nil
}
