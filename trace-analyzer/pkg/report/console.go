// Package report renders aggregated statistics as console tables and an
// optional spreadsheet workbook. No statistics are computed here; rows
// arrive fully aggregated and already sorted.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/karthikiyer56/oplog-analysis/helpers"
	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/stats"
)

// statColumns lays out the 13 statistics columns. Shared by the header and
// data lines so the columns stay aligned.
const statColumns = "%8s %12s %8s %11s %11s %10s %10s %10s %10s %10s %9s %9s %9s\n"

// breakdownColumns lays out the per-client and per-endpoint tables. The
// grouping key is left-aligned so long endpoint URLs stay readable.
const breakdownColumns = "%-28s %9s %11s %11s %10s %10s %10s %10s %9s %9s %8s\n"

// Console writes the human-readable report to w.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Processing announces the file about to be analyzed.
func (c *Console) Processing(path string) {
	fmt.Fprintf(c.w, "\nProcessing file: %s\n", path)
}

// UsingSkip echoes the skip value exactly as given on the command line.
func (c *Console) UsingSkip(raw string) {
	fmt.Fprintf(c.w, "Using skip value of %s\n", raw)
}

// SkipNotice reports the per-file threshold below which rows are dropped.
func (c *Console) SkipNotice(threshold time.Time) {
	fmt.Fprintf(c.w, "Skipping rows with 'start' <= %s.\n", oplog.FormatTimestamp(threshold))
}

// FileRunTime reports one file's elapsed analysis window.
func (c *Console) FileRunTime(elapsed time.Duration) {
	fmt.Fprintf(c.w, "The file run time is %s, time in seconds is: %.2f\n",
		helpers.FormatRunTime(elapsed), elapsed.Seconds())
}

// ProcessedIn reports the wall-clock cost of analyzing one file.
func (c *Console) ProcessedIn(d time.Duration) {
	fmt.Fprintf(c.w, "Processed file in %s\n", helpers.FormatDuration(d))
}

// ConsolidationStart marks the transition from per-file to consolidated
// output.
func (c *Console) ConsolidationStart() {
	fmt.Fprintf(c.w, "\nDone Processing Files... Consolidating Results\n")
}

// NoOverlap reports that the resolved window has no span.
func (c *Console) NoOverlap() {
	fmt.Fprintf(c.w, "No overlapping time range found between files, no Consolidated results are valid.\n")
}

// NoValidData reports an empty consolidation pool.
func (c *Console) NoValidData() {
	fmt.Fprintf(c.w, "No valid data to consolidate.\n")
}

// ConsolidatedRunTime reports the intersected window's elapsed time.
func (c *Console) ConsolidatedRunTime(elapsed time.Duration) {
	fmt.Fprintf(c.w, "The consolidated running time is %s, time in seconds is: %.2f\n",
		helpers.FormatRunTime(elapsed), elapsed.Seconds())
}

// Table prints one statistics table: an optional title, the column header,
// the op-bucket rows, a separating blank line, the category summary rows,
// and the grand total with its rate over elapsedSecs.
func (c *Console) Table(title string, rows, categories []stats.StatRow, elapsedSecs float64) {
	if title != "" {
		fmt.Fprintf(c.w, "\n%s\n", title)
	}
	fmt.Fprintf(c.w, statColumns,
		"op", "bytes_bucket", "bucket_#", "mean_lat_us", "med._lat_us", "90%_lat_us",
		"95%_lat_us", "99%_lat_us", "max_lat_us", "avg_obj_KB", "ops_/_sec", "xput_MBps", "count")
	for i := range rows {
		c.statLine(&rows[i])
	}
	fmt.Fprintln(c.w)
	for i := range categories {
		c.statLine(&categories[i])
	}

	total := stats.TotalCount(rows)
	rate := 0.0
	if elapsedSecs > 0 {
		rate = float64(total) / elapsedSecs
	}
	fmt.Fprintf(c.w, "\nTotal operations: %s  (%.2f/sec)\n", helpers.FormatNumber(total), rate)
}

func (c *Console) statLine(r *stats.StatRow) {
	fmt.Fprintf(c.w, statColumns,
		r.Key, r.Bucket, strconv.Itoa(r.Rank),
		helpers.FormatFloatComma(r.MeanLatUS),
		helpers.FormatFloatComma(r.MedianLatUS),
		helpers.FormatFloatComma(r.P90LatUS),
		helpers.FormatFloatComma(r.P95LatUS),
		helpers.FormatFloatComma(r.P99LatUS),
		helpers.FormatFloatComma(r.MaxLatUS),
		helpers.FormatFloatComma(r.AvgObjKiB),
		helpers.FormatFloatComma(r.OpsPerSec),
		helpers.FormatFloatComma(r.ThroughputMiBps),
		helpers.FormatNumber(r.Count))
}

// Breakdown prints a per-client or per-endpoint table. keyHeader names the
// grouping column ("client" or "endpoint").
func (c *Console) Breakdown(title, keyHeader string, rows []stats.StatRow) {
	fmt.Fprintf(c.w, "\n%s\n", title)
	fmt.Fprintf(c.w, breakdownColumns,
		keyHeader, "count", "mean_lat_us", "med._lat_us", "90%_lat_us",
		"95%_lat_us", "99%_lat_us", "max_lat_us", "ops_/_sec", "xput_MBps", "threads")
	for i := range rows {
		r := &rows[i]
		fmt.Fprintf(c.w, breakdownColumns,
			r.Key,
			helpers.FormatNumber(r.Count),
			helpers.FormatFloatComma(r.MeanLatUS),
			helpers.FormatFloatComma(r.MedianLatUS),
			helpers.FormatFloatComma(r.P90LatUS),
			helpers.FormatFloatComma(r.P95LatUS),
			helpers.FormatFloatComma(r.P99LatUS),
			helpers.FormatFloatComma(r.MaxLatUS),
			helpers.FormatFloatComma(r.OpsPerSec),
			helpers.FormatFloatComma(r.ThroughputMiBps),
			helpers.FormatNumber(int64(r.DistinctThreads)))
	}
}
