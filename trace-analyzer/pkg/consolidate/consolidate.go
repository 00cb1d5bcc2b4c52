// Package consolidate merges per-file results into one cross-file report
// over the intersected time window.
//
// Latency percentiles are not additively combinable, so they are recomputed
// from the pooled raw events of all files, restricted to the resolved
// window. Throughput works the other way: each file's rate is already
// normalized by that file's own elapsed time, so consolidated throughput is
// the sum of the per-file values, while the consolidated operation rate
// divides the summed per-file counts by the consolidated elapsed time.
package consolidate

import (
	"github.com/pkg/errors"

	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/stats"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/window"
)

// ErrNoValidData marks a consolidation whose pooled event set came out
// empty after restricting to the resolved window.
var ErrNoValidData = errors.New("no valid data to consolidate")

// FileContribution is what one processed file brings to consolidation: its
// post-skip events and its per-(op,bucket) rows, whose rates are already
// normalized by the file's own elapsed time.
type FileContribution struct {
	Path   string
	Events []oplog.Event
	Rows   []stats.StatRow
}

// Options selects the extra consolidated breakdown tables.
type Options struct {
	PerClient   bool
	PerEndpoint bool
}

// Result is the consolidated report. Clients and Endpoints are nil unless
// requested.
type Result struct {
	Window     window.Window
	Rows       []stats.StatRow
	Categories []stats.StatRow
	Clients    []stats.StatRow
	Endpoints  []stats.StatRow
}

// Consolidate pools every file's events restricted to the closed resolved
// window and recombines the per-file results.
//
// Fails with window.ErrNoOverlap when the resolved window has no span (the
// caller keeps its per-file output and reports the condition), and with
// ErrNoValidData when the restriction leaves nothing to pool.
func Consolidate(files []FileContribution, win window.Window, opts Options) (*Result, error) {
	if !win.Valid() {
		return nil, errors.WithStack(window.ErrNoOverlap)
	}

	var pooled []oplog.Event
	for i := range files {
		for j := range files[i].Events {
			if win.Contains(files[i].Events[j].Start) {
				pooled = append(pooled, files[i].Events[j])
			}
		}
	}
	if len(pooled) == 0 {
		return nil, errors.WithStack(ErrNoValidData)
	}

	elapsed := win.Seconds()
	rows := stats.PerOpBucket(pooled, elapsed)

	// Latency, size, and count columns come from the pooled events above;
	// rate columns recombine the per-file values instead.
	type key struct {
		op     string
		bucket string
	}
	type contribution struct {
		throughput float64
		count      int64
	}
	combined := make(map[key]contribution)
	for i := range files {
		for _, row := range files[i].Rows {
			k := key{op: row.Key, bucket: row.Bucket}
			c := combined[k]
			c.throughput += row.ThroughputMiBps
			c.count += row.Count
			combined[k] = c
		}
	}
	for i := range rows {
		c := combined[key{op: rows[i].Key, bucket: rows[i].Bucket}]
		rows[i].ThroughputMiBps = c.throughput
		rows[i].OpsPerSec = float64(c.count) / elapsed
	}

	res := &Result{
		Window:     win,
		Rows:       rows,
		Categories: stats.CategoryRows(pooled, stats.FixedElapsed(elapsed)),
	}
	if opts.PerClient {
		res.Clients = stats.PerClient(pooled, elapsed)
	}
	if opts.PerEndpoint {
		res.Endpoints = stats.PerEndpoint(pooled, elapsed)
	}
	return res, nil
}
