// =============================================================================
// config.go - Configuration for trace-analyzer
// =============================================================================
//
// Configuration comes from three layers, later layers winning:
//
//   1. DefaultConfig()       built-in defaults
//   2. --config FILE         optional TOML file
//   3. command-line flags    only the flags actually given override the file
//
// The positional arguments are the trace files. Their order is preserved
// end to end: the consolidated window fold resolves file spans in this
// order, so reordering the arguments can change the consolidated window.
//
// =============================================================================

package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/karthikiyer56/oplog-analysis/helpers"
)

// =============================================================================
// Config
// =============================================================================

// Config holds the run configuration for trace-analyzer.
type Config struct {
	// Files are the trace files to analyze, in command-line order.
	Files []string

	// SkipRaw is the --skip value exactly as given (echoed back in the
	// console output); Skip is its parsed duration. Zero means no skip
	// filtering.
	SkipRaw string
	Skip    time.Duration

	// PerClient and PerEndpoint request the extra breakdown tables.
	PerClient   bool
	PerEndpoint bool

	// ExcelPath is where the workbook goes; empty disables export.
	ExcelPath string

	// LogFile tees diagnostics into a file; Verbose adds per-file loading
	// diagnostics to the log stream.
	LogFile string
	Verbose bool
}

// fileConfig mirrors the configurable fields in the optional TOML file.
type fileConfig struct {
	Skip        string `toml:"skip"`
	PerClient   bool   `toml:"per_client"`
	PerEndpoint bool   `toml:"per_endpoint"`
	ExcelPath   string `toml:"excel_path"`
	LogFile     string `toml:"log_file"`
	Verbose     bool   `toml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// ApplyFile overlays values from a TOML config file onto c. Zero-valued
// file fields leave the current values alone.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Skip != "" {
		c.SkipRaw = fc.Skip
	}
	if fc.PerClient {
		c.PerClient = true
	}
	if fc.PerEndpoint {
		c.PerEndpoint = true
	}
	if fc.ExcelPath != "" {
		c.ExcelPath = fc.ExcelPath
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.Verbose {
		c.Verbose = true
	}
	return nil
}

// Validate checks the configuration and resolves the skip duration.
func (c *Config) Validate() error {
	if len(c.Files) == 0 {
		return fmt.Errorf("no trace files given (expected one or more paths)")
	}
	for _, path := range c.Files {
		if !helpers.FileExists(path) {
			return fmt.Errorf("trace file does not exist: %s", path)
		}
		if helpers.IsDir(path) {
			return fmt.Errorf("trace path is a directory: %s", path)
		}
	}

	if c.SkipRaw != "" {
		skip, err := ParseSkip(c.SkipRaw)
		if err != nil {
			return err
		}
		c.Skip = skip
	}
	return nil
}

// PrintConfig logs the resolved configuration.
func (c *Config) PrintConfig(logger *Logger) {
	logger.Separator()
	logger.Info("                         CONFIGURATION")
	logger.Separator()
	logger.Info("")
	logger.Info("Trace files (%d):", len(c.Files))
	for i, path := range c.Files {
		logger.Info("  %2d. %s", i+1, path)
	}
	logger.Info("")
	if c.Skip > 0 {
		logger.Info("Skip:         %s (raw: %s)", c.Skip, c.SkipRaw)
	} else {
		logger.Info("Skip:         none")
	}
	logger.Info("Per-client:   %t", c.PerClient)
	logger.Info("Per-endpoint: %t", c.PerEndpoint)
	if c.ExcelPath != "" {
		logger.Info("Workbook:     %s", c.ExcelPath)
	} else {
		logger.Info("Workbook:     disabled")
	}
	if c.LogFile != "" {
		logger.Info("Log file:     %s", c.LogFile)
	}
	logger.Info("")
}

// =============================================================================
// Skip Notation
// =============================================================================

// skipPattern accepts a non-negative integer with an optional s/m unit.
var skipPattern = regexp.MustCompile(`^(\d+)([sm]?)$`)

// ParseSkip parses the --skip notation: "30" and "30s" are 30 seconds,
// "5m" is 5 minutes.
func ParseSkip(raw string) (time.Duration, error) {
	m := skipPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0, fmt.Errorf("invalid skip value %q (expected e.g. 30, 30s or 5m)", raw)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid skip value %q: %w", raw, err)
	}
	if m[2] == "m" {
		return time.Duration(n) * time.Minute, nil
	}
	return time.Duration(n) * time.Second, nil
}
