// Package testutil provides fixture loading for the engine tests.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixture is one render test case read from a YAML file:
//
//	description: sections iterate sequences
//	context:
//	  items: [a, b]
//	templates:
//	  item: [{ref: .}]
//	program:
//	  body:
//	    - section: items
//	      block: [{partial: item}]
//	expected: ab
type Fixture struct {
	Name        string
	Description string
	Context     map[string]any
	Program     string            // the program re-encoded as YAML
	Templates   map[string]string // extra programs by name, re-encoded
	Expected    string
	Error       string // substring of the expected error, if any
	Skip        bool
}

type rawFixture struct {
	Description string               `yaml:"description"`
	Context     map[string]any       `yaml:"context"`
	Program     yaml.Node            `yaml:"program"`
	Templates   map[string]yaml.Node `yaml:"templates"`
	Expected    string               `yaml:"expected"`
	Error       string               `yaml:"error"`
	Skip        bool                 `yaml:"skip"`
}

// ParseFixtureFile reads and parses a fixture file. The fixture is named
// after the file without its extension.
func ParseFixtureFile(path string) (*Fixture, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fx, err := ParseFixture(string(content))
	if err != nil {
		return nil, err
	}
	fx.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fx, nil
}

// ParseFixture parses fixture content.
func ParseFixture(content string) (*Fixture, error) {
	var raw rawFixture
	if err := yaml.Unmarshal([]byte(content), &raw); err != nil {
		return nil, err
	}
	fx := &Fixture{
		Description: raw.Description,
		Context:     raw.Context,
		Expected:    raw.Expected,
		Error:       raw.Error,
		Skip:        raw.Skip,
		Templates:   make(map[string]string, len(raw.Templates)),
	}
	if fx.Context == nil {
		fx.Context = make(map[string]any)
	}
	if raw.Program.Kind != 0 {
		program, err := yaml.Marshal(&raw.Program)
		if err != nil {
			return nil, err
		}
		fx.Program = string(program)
	}
	for name, node := range raw.Templates {
		src, err := yaml.Marshal(&node)
		if err != nil {
			return nil, err
		}
		fx.Templates[name] = string(src)
	}
	return fx, nil
}

// GlobFixtures finds all fixture files matching a pattern, sorted.
func GlobFixtures(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// TestResult represents the result of running a single fixture.
type TestResult struct {
	Name     string
	Passed   bool
	Skipped  bool
	Error    error
	Expected string
	Actual   string
}

// Diff returns a simple diff between expected and actual output.
func (r *TestResult) Diff() string {
	if r.Expected == r.Actual {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("=== Expected ===\n")
	sb.WriteString(r.Expected)
	if !strings.HasSuffix(r.Expected, "\n") {
		sb.WriteString("⏎\n")
	}
	sb.WriteString("=== Actual ===\n")
	sb.WriteString(r.Actual)
	if !strings.HasSuffix(r.Actual, "\n") {
		sb.WriteString("⏎\n")
	}
	sb.WriteString("=== End ===\n")
	return sb.String()
}
