package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/dustgo/dust"
)

// Config is the command line tool's config file.
type Config struct {
	Engine       dust.Config `yaml:"engine"`
	TemplateDir  string      `yaml:"template_dir"`
	TemplateExt  string      `yaml:"template_ext"`
	DatabasePath string      `yaml:"database_path"`

	// DefaultEscape is the filter the compiler applies to references that
	// do not name one. "none" turns escaping off.
	DefaultEscape string `yaml:"default_escape"`
}

func defaultConfig() *Config {
	return &Config{
		Engine:        dust.DefaultConfig(),
		TemplateDir:   "./templates",
		TemplateExt:   ".yaml",
		DefaultEscape: "h",
	}
}

// loadConfig reads the config at path. A missing file is created with the
// defaults.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = yaml.Marshal(config)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
