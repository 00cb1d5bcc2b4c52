// =============================================================================
// config.go - Configuration for trace-generator
// =============================================================================
//
// The built-in scenarios cover the three consolidation cases the analyzer
// cares about; a TOML config file can replace them wholesale for custom
// window arrangements. Flags given on the command line override the file.
//
// =============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileSpec is one generated oplog: a name suffix and a time window in
// seconds relative to the shared epoch.
type FileSpec struct {
	Suffix    string  `toml:"suffix"`
	StartSecs float64 `toml:"start_secs"`
	EndSecs   float64 `toml:"end_secs"`
}

// Scenario is a named group of files generated together.
type Scenario struct {
	Name  string     `toml:"name"`
	Files []FileSpec `toml:"file"`
}

// Config holds the run configuration for trace-generator.
type Config struct {
	// OutDir receives the generated files.
	OutDir string

	// Ops is the number of operations per file.
	Ops int64

	// Seed drives all randomness; the same seed reproduces the same files.
	Seed int64

	// Compress writes .tsv.zst instead of plain .tsv.
	Compress bool

	// Scenarios are the file groups to generate.
	Scenarios []Scenario
}

// fileConfig mirrors the configurable fields in the optional TOML file.
type fileConfig struct {
	OutDir    string     `toml:"out_dir"`
	Ops       int64      `toml:"ops"`
	Seed      int64      `toml:"seed"`
	Compress  bool       `toml:"compress"`
	Scenarios []Scenario `toml:"scenario"`
}

// DefaultConfig returns the built-in defaults: the three canonical overlap
// scenarios, 2000 ops per file, seed 42.
func DefaultConfig() *Config {
	return &Config{
		OutDir: "test-data",
		Ops:    2000,
		Seed:   42,
		Scenarios: []Scenario{
			// No overlap: B starts 5s after A ends.
			{Name: "sequential", Files: []FileSpec{
				{Suffix: "A", StartSecs: 0, EndSecs: 60},
				{Suffix: "B", StartSecs: 65, EndSecs: 125},
			}},
			// ~50% overlap: the resolved window is [30,60].
			{Name: "partial", Files: []FileSpec{
				{Suffix: "A", StartSecs: 0, EndSecs: 60},
				{Suffix: "B", StartSecs: 30, EndSecs: 90},
			}},
			// ~99% overlap: near-fully concurrent runs.
			{Name: "concurrent", Files: []FileSpec{
				{Suffix: "A", StartSecs: 0, EndSecs: 60},
				{Suffix: "B", StartSecs: 0.5, EndSecs: 60.5},
			}},
		},
	}
}

// ApplyFile overlays values from a TOML config file onto c. A file that
// defines any scenarios replaces the built-in set entirely.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.OutDir != "" {
		c.OutDir = fc.OutDir
	}
	if fc.Ops > 0 {
		c.Ops = fc.Ops
	}
	if fc.Seed != 0 {
		c.Seed = fc.Seed
	}
	if fc.Compress {
		c.Compress = true
	}
	if len(fc.Scenarios) > 0 {
		c.Scenarios = fc.Scenarios
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.OutDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if c.Ops <= 0 {
		return fmt.Errorf("ops must be positive, got %d", c.Ops)
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("no scenarios to generate")
	}
	for _, sc := range c.Scenarios {
		if sc.Name == "" {
			return fmt.Errorf("scenario with empty name")
		}
		if len(sc.Files) == 0 {
			return fmt.Errorf("scenario %s has no files", sc.Name)
		}
		for _, fs := range sc.Files {
			if fs.Suffix == "" {
				return fmt.Errorf("scenario %s: file with empty suffix", sc.Name)
			}
			if fs.EndSecs <= fs.StartSecs {
				return fmt.Errorf("scenario %s file %s: window end %.1fs not after start %.1fs",
					sc.Name, fs.Suffix, fs.EndSecs, fs.StartSecs)
			}
		}
	}
	return nil
}

// Filter keeps only the named scenario.
func (c *Config) Filter(name string) error {
	for _, sc := range c.Scenarios {
		if sc.Name == name {
			c.Scenarios = []Scenario{sc}
			return nil
		}
	}
	return fmt.Errorf("unknown scenario %q", name)
}
