// =============================================================================
// main.go - Entry Point for trace-generator
// =============================================================================
//
// trace-generator writes synthetic oplog files whose time windows exercise
// the analyzer's consolidation paths.
//
// USAGE:
//
//	trace-generator \
//	  [--out test-data] \
//	  [--ops 2000] \
//	  [--seed 42] \
//	  [--scenario partial] \
//	  [--compress] \
//	  [--config scenarios.toml]
//
// The built-in scenarios are:
//
//	sequential   A: 0-60s,   B: 65-125s    (no overlap)
//	partial      A: 0-60s,   B: 30-90s     (~50% overlap)
//	concurrent   A: 0-60s,   B: 0.5-60.5s  (~99% overlap)
//
// EXIT CODES:
//
//	0 - Success
//	1 - Bad usage or configuration
//	2 - Write failure
//
// =============================================================================

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/karthikiyer56/oplog-analysis/helpers"
)

const (
	Version  = "1.0.0"
	ToolName = "trace-generator"
)

const (
	ExitSuccess      = 0
	ExitBadInput     = 1
	ExitRuntimeError = 2
)

func main() {
	config, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(ExitBadInput)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(ExitBadInput)
	}

	if err := helpers.EnsureDir(config.OutDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output dir %s: %v\n", config.OutDir, err)
		os.Exit(ExitRuntimeError)
	}

	if err := NewGenerator(config).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(ExitRuntimeError)
	}
	fmt.Printf("\nDone.  Test files are in %s/\n", config.OutDir)
}

// parseFlags parses command-line flags, applying the optional config file
// first so that explicitly-given flags override it.
func parseFlags() (*Config, error) {
	config := DefaultConfig()

	var (
		out         = flag.String("out", config.OutDir, "Output directory")
		ops         = flag.Int64("ops", config.Ops, "Operations per generated file")
		seed        = flag.Int64("seed", config.Seed, "Random seed (same seed, same files)")
		compress    = flag.Bool("compress", false, "Write zstd-compressed .tsv.zst files")
		scenario    = flag.String("scenario", "", "Generate only the named scenario")
		configPath  = flag.String("config", "", "Load scenarios from a TOML file (flags win)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)

	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", ToolName, Version)
		os.Exit(ExitSuccess)
	}

	if *configPath != "" {
		if err := config.ApplyFile(*configPath); err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			config.OutDir = *out
		case "ops":
			config.Ops = *ops
		case "seed":
			config.Seed = *seed
		case "compress":
			config.Compress = *compress
		}
	})

	if *scenario != "" {
		if err := config.Filter(*scenario); err != nil {
			return nil, err
		}
	}
	return config, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", ToolName)
	fmt.Fprintf(os.Stderr, "%s writes synthetic oplog files for analyzer overlap testing.\n\n", ToolName)
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --out DIR          Output directory (default: test-data)\n")
	fmt.Fprintf(os.Stderr, "  --ops N            Operations per file (default: 2000)\n")
	fmt.Fprintf(os.Stderr, "  --seed N           Random seed (default: 42)\n")
	fmt.Fprintf(os.Stderr, "  --scenario NAME    Generate only sequential, partial, or concurrent\n")
	fmt.Fprintf(os.Stderr, "  --compress         Write zstd-compressed .tsv.zst files\n")
	fmt.Fprintf(os.Stderr, "  --config PATH      Load custom scenarios from a TOML file\n")
	fmt.Fprintf(os.Stderr, "  --version          Show version and exit\n")
}
