// =============================================================================
// main.go - Quick Oplog Inspection
// =============================================================================
//
// trace-info answers "what is in this trace?" without running the full
// analyzer: row/column counts, detected separator, time range, operation
// mix, category totals, and a few sample rows.
//
// USAGE:
//
//	trace-info warp-node1.tsv.zst [more files...]
//
// EXIT CODES:
//
//	0 - Success
//	1 - Unreadable or malformed input
//
// =============================================================================

package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/karthikiyer56/oplog-analysis/helpers"
	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/bucket"
)

const (
	Version  = "1.0.0"
	ToolName = "trace-info"
)

const (
	ExitSuccess  = 0
	ExitBadInput = 1
)

// sampleRows is how many data rows to echo per file.
const sampleRows = 5

// fallbackWidth truncates sample rows when stdout is not a terminal.
const fallbackWidth = 120

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s TRACE_FILE [TRACE_FILE...]\n\n", ToolName)
		fmt.Fprintf(os.Stderr, "%s prints the shape, time range, and operation mix of oplog files.\n", ToolName)
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", ToolName, Version)
		os.Exit(ExitSuccess)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(ExitBadInput)
	}

	for _, path := range flag.Args() {
		if err := describe(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			os.Exit(ExitBadInput)
		}
	}
}

// describe prints everything trace-info knows about one file.
func describe(path string) error {
	// A second, cheap pass over the header and first rows keeps the raw
	// text available for the sample dump; the loader only keeps typed
	// events.
	r, err := oplog.NewReader(path)
	if err != nil {
		return err
	}
	columns := r.Columns()
	sep := r.Separator()
	var samples []string
	for len(samples) < sampleRows {
		fields, ok, err := r.Next()
		if err != nil {
			r.Close()
			return err
		}
		if !ok {
			break
		}
		samples = append(samples, strings.Join(fields, string(sep)))
	}
	r.Close()

	tr, err := oplog.LoadFile(path)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n", path)
	fmt.Printf("  Shape:     %s rows x %d columns\n",
		helpers.FormatNumber(int64(len(tr.Events))), len(columns))
	if tr.DroppedRows > 0 {
		fmt.Printf("  Dropped:   %s rows\n", helpers.FormatNumber(tr.DroppedRows))
	}
	fmt.Printf("  Separator: %s\n", sepName(sep))
	fmt.Printf("  Columns:   %s\n", strings.Join(columns, ", "))
	fmt.Printf("  Start:     %s\n", oplog.FormatTimestamp(tr.Start))
	fmt.Printf("  End:       %s\n", oplog.FormatTimestamp(tr.End))
	fmt.Printf("  Span:      %s\n", helpers.FormatDuration(tr.Span()))

	printOpMix(tr)
	printSamples(samples)
	return nil
}

func sepName(sep byte) string {
	if sep == '\t' {
		return "tab"
	}
	return "comma"
}

// printOpMix prints per-op counts with percentages, then category totals.
func printOpMix(tr *oplog.Trace) {
	opCounts := make(map[string]int64)
	catCounts := make(map[string]int64)
	for i := range tr.Events {
		op := tr.Events[i].Op
		opCounts[op]++
		if cat, ok := bucket.Categorize(op); ok {
			catCounts[cat.Name]++
		}
	}

	ops := make([]string, 0, len(opCounts))
	for op := range opCounts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if opCounts[ops[i]] != opCounts[ops[j]] {
			return opCounts[ops[i]] > opCounts[ops[j]]
		}
		return ops[i] < ops[j]
	})

	total := int64(len(tr.Events))
	fmt.Printf("  Operations:\n")
	for _, op := range ops {
		pct := float64(opCounts[op]) / float64(total) * 100
		fmt.Printf("    %-8s %10s  %s\n", op,
			helpers.FormatNumber(opCounts[op]), helpers.FormatPercent(pct, 1))
	}
	fmt.Printf("  Categories:\n")
	for _, cat := range bucket.Categories {
		n := catCounts[cat.Name]
		if n == 0 {
			continue
		}
		pct := float64(n) / float64(total) * 100
		fmt.Printf("    %-8s %10s  %s\n", cat.Name,
			helpers.FormatNumber(n), helpers.FormatPercent(pct, 1))
	}
}

// printSamples echoes the first rows, truncated to the terminal width when
// stdout is a TTY and to a fixed width otherwise.
func printSamples(samples []string) {
	width := fallbackWidth
	if term.IsTerminal(int(os.Stdout.Fd())) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 8 {
			width = w
		}
	}

	fmt.Printf("  First %d rows:\n", len(samples))
	for _, row := range samples {
		line := "    " + row
		if len(line) > width {
			line = line[:width-3] + "..."
		}
		fmt.Println(line)
	}
}
