// =============================================================================
// main.go - Entry Point for trace-analyzer
// =============================================================================
//
// This is the entry point for the trace-analyzer tool. It handles:
//   - Command-line flag parsing (plus optional TOML config file)
//   - Signal handling (SIGINT/SIGTERM abort the run)
//   - Logger initialization
//   - Workflow orchestration
//
// USAGE:
//
//	trace-analyzer \
//	  [--skip=30s] \
//	  [--per-client] \
//	  [--per-endpoint] \
//	  [--excel=warp-stats.xlsx] \
//	  [--config analyzer.toml] \
//	  [--log-file /path/to/run.log] \
//	  [--verbose] \
//	  warp-node1.tsv.zst warp-node2.tsv.zst
//
// The positional arguments are oplog trace files. Their order is
// significant: it anchors the consolidated window fold.
//
// SIGNAL HANDLING:
//
//	SIGINT / SIGTERM:
//	  - Abort the run cleanly between pipeline stages
//	  - No partial table is emitted after an interrupt
//
// EXIT CODES:
//
//	0 - Success (including single file, no consolidation possible)
//	1 - Bad usage, malformed/missing input, all rows skipped, or
//	    no overlapping time range between files
//	2 - Runtime error (log file, workbook write)
//	130 - Interrupted by SIGINT
//	143 - Terminated by SIGTERM
//
// =============================================================================

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/consolidate"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/report"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/stats"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/window"
)

// =============================================================================
// Version Information
// =============================================================================

const (
	// Version is the tool version
	Version = "1.0.0"

	// ToolName is the name of this tool
	ToolName = "trace-analyzer"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess      = 0
	ExitBadInput     = 1
	ExitRuntimeError = 2
	ExitInterrupted  = 130 // 128 + SIGINT(2)
	ExitTerminated   = 143 // 128 + SIGTERM(15)
)

// =============================================================================
// Main Entry Point
// =============================================================================

func main() {
	// Parse command-line flags (and the optional config file)
	config, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(ExitBadInput)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(ExitBadInput)
	}

	// Create logger
	logger, err := NewLogger(config.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(ExitRuntimeError)
	}
	defer logger.Close()

	// Create workflow
	workflow, err := NewWorkflow(config, logger, os.Stdout)
	if err != nil {
		logger.Error("Failed to create workflow: %v", err)
		logger.Sync()
		os.Exit(ExitRuntimeError)
	}
	defer workflow.Close()

	// Log startup when anyone is going to read it
	if config.Verbose || config.LogFile != "" {
		logStartup(logger, workflow.RunID())
		config.PrintConfig(logger)
	}

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run the workflow in a separate goroutine so we can handle signals
	errChan := make(chan error, 1)
	go func() {
		errChan <- workflow.Run()
	}()

	// Wait for workflow completion or signal
	select {
	case err := <-errChan:
		if err != nil {
			// The consolidation-stage conditions were already reported
			// on stdout; everything else gets a diagnostic here.
			if !errors.Is(err, window.ErrNoOverlap) && !errors.Is(err, consolidate.ErrNoValidData) {
				logger.Error("%v", err)
			}
			logger.Sync()
			os.Exit(exitCodeFor(err))
		}
		logger.Sync()
		os.Exit(ExitSuccess)

	case sig := <-sigChan:
		logger.Info("Received signal: %v, aborting", sig)
		logger.Sync()
		if sig == syscall.SIGINT {
			os.Exit(ExitInterrupted)
		}
		os.Exit(ExitTerminated)
	}
}

// =============================================================================
// Exit Code Mapping
// =============================================================================

// badInputErrors are the data-shaped failures that exit 1. Anything else
// that escapes the workflow is a runtime failure and exits 2.
var badInputErrors = []error{
	oplog.ErrMalformedTrace,
	oplog.ErrTimestampParse,
	oplog.ErrInvalidEvent,
	stats.ErrInsufficientData,
	window.ErrNoOverlap,
	consolidate.ErrNoValidData,
	fs.ErrNotExist,
}

func exitCodeFor(err error) int {
	for _, sentinel := range badInputErrors {
		if errors.Is(err, sentinel) {
			return ExitBadInput
		}
	}
	return ExitRuntimeError
}

// =============================================================================
// Flag Parsing
// =============================================================================

// excelValue implements the --excel[=PATH] flag: bare --excel turns the
// workbook on at the default path, --excel=PATH picks the path.
type excelValue struct {
	path string
}

func (e *excelValue) String() string { return e.path }

func (e *excelValue) Set(v string) error {
	if v == "" || v == "true" {
		e.path = report.DefaultWorkbookPath
	} else {
		e.path = v
	}
	return nil
}

// IsBoolFlag lets the flag package accept --excel without a value.
func (e *excelValue) IsBoolFlag() bool { return true }

// parseFlags parses command-line flags, applying the optional config file
// first so that explicitly-given flags override it.
func parseFlags() (*Config, error) {
	config := DefaultConfig()

	var (
		skip        = flag.String("skip", "", "Drop each file's first N seconds/minutes of rows (e.g. 30, 30s, 5m)")
		perClient   = flag.Bool("per-client", false, "Add a per-client breakdown table")
		perEndpoint = flag.Bool("per-endpoint", false, "Add a per-endpoint breakdown table")
		excel       excelValue
		configPath  = flag.String("config", "", "Load defaults from a TOML file (flags win)")
		logFile     = flag.String("log-file", "", "Tee diagnostics into a file")
		verbose     = flag.Bool("verbose", false, "Log per-file loading diagnostics")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Var(&excel, "excel", "Write an xlsx workbook (default path: "+report.DefaultWorkbookPath+")")

	flag.Usage = printUsage
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("%s version %s\n", ToolName, Version)
		os.Exit(ExitSuccess)
	}

	// Config file first, then explicitly-set flags on top
	if *configPath != "" {
		if err := config.ApplyFile(*configPath); err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "skip":
			config.SkipRaw = *skip
		case "per-client":
			config.PerClient = *perClient
		case "per-endpoint":
			config.PerEndpoint = *perEndpoint
		case "excel":
			config.ExcelPath = excel.path
		case "log-file":
			config.LogFile = *logFile
		case "verbose":
			config.Verbose = *verbose
		}
	})

	config.Files = flag.Args()
	return config, nil
}

// printUsage writes the custom usage message.
func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] TRACE_FILE [TRACE_FILE...]\n\n", ToolName)
	fmt.Fprintf(os.Stderr, "%s computes latency and throughput statistics from storage-benchmark\n", ToolName)
	fmt.Fprintf(os.Stderr, "operation traces, and consolidates multiple overlapping traces into one\n")
	fmt.Fprintf(os.Stderr, "combined report. Files are processed in the order given.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --skip=N[s|m]      Drop each file's first N seconds (default) or minutes\n")
	fmt.Fprintf(os.Stderr, "  --per-client       Add a per-client breakdown table\n")
	fmt.Fprintf(os.Stderr, "  --per-endpoint     Add a per-endpoint breakdown table\n")
	fmt.Fprintf(os.Stderr, "  --excel[=PATH]     Write an xlsx workbook (default: %s)\n", report.DefaultWorkbookPath)
	fmt.Fprintf(os.Stderr, "  --config PATH      Load defaults from a TOML file (flags win)\n")
	fmt.Fprintf(os.Stderr, "  --log-file PATH    Tee diagnostics into a file\n")
	fmt.Fprintf(os.Stderr, "  --verbose          Log per-file loading diagnostics\n")
	fmt.Fprintf(os.Stderr, "  --version          Show version and exit\n")
	fmt.Fprintf(os.Stderr, "\nInput files are tab- or comma-separated oplogs (optionally .zst/.zstd\n")
	fmt.Fprintf(os.Stderr, "compressed) with the header row:\n")
	fmt.Fprintf(os.Stderr, "  idx thread op client_id n_objects bytes endpoint file error start\n")
	fmt.Fprintf(os.Stderr, "  first_byte end duration_ns\n")
	fmt.Fprintf(os.Stderr, "\nExit codes:\n")
	fmt.Fprintf(os.Stderr, "  0    success\n")
	fmt.Fprintf(os.Stderr, "  1    bad usage or malformed/insufficient/non-overlapping input\n")
	fmt.Fprintf(os.Stderr, "  2    runtime failure (log file, workbook)\n")
	fmt.Fprintf(os.Stderr, "  130  interrupted (SIGINT)\n")
	fmt.Fprintf(os.Stderr, "  143  terminated (SIGTERM)\n")
	fmt.Fprintf(os.Stderr, "\nExample:\n")
	fmt.Fprintf(os.Stderr, "  %s --skip=30s --per-client --excel=warp.xlsx \\\n", ToolName)
	fmt.Fprintf(os.Stderr, "    warp-node1.tsv.zst warp-node2.tsv.zst\n")
}

// =============================================================================
// Startup Logging
// =============================================================================

// logStartup logs startup information.
func logStartup(logger *Logger, runID string) {
	logger.Separator()
	logger.Info("                    %s v%s", ToolName, Version)
	logger.Separator()
	logger.Info("")
	logger.Info("Process ID: %d", os.Getpid())
	logger.Info("Run ID:     %s", runID)
	logger.Info("Working Dir: %s", mustGetwd())
	logger.Info("")
}

// mustGetwd returns the current working directory or "unknown".
func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return wd
}
