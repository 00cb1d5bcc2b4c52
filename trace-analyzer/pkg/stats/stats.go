// Package stats computes grouped latency and throughput statistics over
// operation events.
//
// Each aggregation pass is independent: events group by (operation, size
// bucket), by operation category, by client id, or by endpoint, and every
// group yields one StatRow. Percentiles are always computed from the raw
// latency samples of the group, never from already-summarized values.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/bucket"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/window"
)

// ErrInsufficientData marks a file with no analyzable events left after
// skip filtering.
var ErrInsufficientData = errors.New("no events after skip filtering")

// NoKey stands in for an empty client id or endpoint.
const NoKey = "(none)"

// =============================================================================
// StatRow
// =============================================================================

// StatRow is the aggregated output for one grouping key. Key holds the
// operation code, category name, client id, or endpoint depending on the
// pass; Bucket and Rank only carry meaning for the op-bucket and category
// passes. Rows are read-only once produced.
type StatRow struct {
	Key             string
	Bucket          string
	Rank            int
	Count           int64
	MeanLatUS       float64
	MedianLatUS     float64
	P90LatUS        float64
	P95LatUS        float64
	P99LatUS        float64
	MaxLatUS        float64
	AvgObjKiB       float64
	OpsPerSec       float64
	ThroughputMiBps float64
	DistinctThreads int
}

// TotalCount sums the event counts across rows.
func TotalCount(rows []StatRow) int64 {
	var total int64
	for i := range rows {
		total += rows[i].Count
	}
	return total
}

// =============================================================================
// Skip Filtering
// =============================================================================

// ApplySkip drops events whose start instant is at or before threshold,
// including events with no start instant at all, which cannot be placed
// after it. Runs once per file before any aggregation pass. A file with
// nothing left past the threshold fails with ErrInsufficientData naming
// the file.
func ApplySkip(events []oplog.Event, threshold time.Time, path string) ([]oplog.Event, error) {
	kept := make([]oplog.Event, 0, len(events))
	for i := range events {
		if !events[i].HasStart() || !events[i].Start.After(threshold) {
			continue
		}
		kept = append(kept, events[i])
	}
	if len(kept) == 0 {
		return nil, errors.Wrapf(ErrInsufficientData, "%s", path)
	}
	return kept, nil
}

// =============================================================================
// Sample Accumulation
// =============================================================================

// accum collects one group's raw samples until the row is built.
type accum struct {
	lat     []float64
	bytes   int64
	count   int64
	threads map[int64]struct{}
}

func newAccum() *accum {
	return &accum{threads: make(map[int64]struct{})}
}

func (a *accum) add(ev *oplog.Event) {
	a.lat = append(a.lat, ev.LatencyUS())
	a.bytes += ev.Bytes
	a.count++
	a.threads[ev.Thread] = struct{}{}
}

// row finalizes the group. elapsedSecs divides counts and bytes into
// rates; a non-positive divisor yields zero rates rather than nonsense.
func (a *accum) row(key, bucketLabel string, rank int, elapsedSecs float64) StatRow {
	sort.Float64s(a.lat)
	r := StatRow{
		Key:             key,
		Bucket:          bucketLabel,
		Rank:            rank,
		Count:           a.count,
		MeanLatUS:       mean(a.lat),
		MedianLatUS:     percentile(a.lat, 0.50),
		P90LatUS:        percentile(a.lat, 0.90),
		P95LatUS:        percentile(a.lat, 0.95),
		P99LatUS:        percentile(a.lat, 0.99),
		MaxLatUS:        a.lat[len(a.lat)-1],
		AvgObjKiB:       float64(a.bytes) / float64(a.count) / 1024.0,
		DistinctThreads: len(a.threads),
	}
	if elapsedSecs > 0 {
		r.OpsPerSec = float64(a.count) / elapsedSecs
		r.ThroughputMiBps = float64(a.bytes) / (1024.0 * 1024.0) / elapsedSecs
	}
	return r
}

func mean(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// percentile returns the q-quantile (0..1) of an ascending sample using
// linear interpolation between the two nearest ranks, the same quantile
// semantics the grouped output has always used.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// =============================================================================
// Aggregation Passes
// =============================================================================

// PerOpBucket produces one row per (operation, size bucket) pair present
// in events, sorted by bucket rank then operation code. Groups only exist
// where at least one event landed, so no zero-count rows appear.
func PerOpBucket(events []oplog.Event, elapsedSecs float64) []StatRow {
	type key struct {
		op   string
		rank int
	}
	groups := make(map[key]*accum)
	labels := make(map[key]string)

	for i := range events {
		ev := &events[i]
		b := bucket.Assign(ev.Bytes)
		k := key{op: ev.Op, rank: b.Rank}
		g, ok := groups[k]
		if !ok {
			g = newAccum()
			groups[k] = g
			labels[k] = b.Label
		}
		g.add(ev)
	}

	rows := make([]StatRow, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, g.row(k.op, labels[k], k.rank, elapsedSecs))
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// ElapsedFunc returns the rate divisor in seconds for one category's
// events.
type ElapsedFunc func(catEvents []oplog.Event) float64

// FixedElapsed rates every category over the same span.
func FixedElapsed(secs float64) ElapsedFunc {
	return func([]oplog.Event) float64 { return secs }
}

// EffectiveElapsed rates each category over its own observed span within
// the file, falling back to the file span when the category's span is
// degenerate. Categories can run in disjoint sub-windows of one benchmark,
// and rating them over the whole file would understate their throughput.
func EffectiveElapsed(fileElapsed time.Duration) ElapsedFunc {
	return func(catEvents []oplog.Event) float64 {
		return window.EffectiveSpan(catEvents, fileElapsed).Seconds()
	}
}

// CategoryRows produces the META/GET/PUT summary rows over events, in
// category rank order. Percentiles come from each category's raw samples,
// not from averaging bucket rows. Categories with no events are omitted.
func CategoryRows(events []oplog.Event, elapsedFor ElapsedFunc) []StatRow {
	byCat := make(map[string][]oplog.Event, len(bucket.Categories))
	for i := range events {
		cat, ok := bucket.Categorize(events[i].Op)
		if !ok {
			continue
		}
		byCat[cat.Name] = append(byCat[cat.Name], events[i])
	}

	rows := make([]StatRow, 0, len(bucket.Categories))
	for _, cat := range bucket.Categories {
		catEvents := byCat[cat.Name]
		if len(catEvents) == 0 {
			continue
		}
		g := newAccum()
		for i := range catEvents {
			g.add(&catEvents[i])
		}
		rows = append(rows, g.row(cat.Name, bucket.CategoryBucketLabel, cat.Rank, elapsedFor(catEvents)))
	}
	return rows
}

// PerClient produces one row per client id, sorted by id. Events without a
// client id group under NoKey.
func PerClient(events []oplog.Event, elapsedSecs float64) []StatRow {
	return perKey(events, elapsedSecs, func(ev *oplog.Event) string { return ev.ClientID })
}

// PerEndpoint produces one row per endpoint, sorted by endpoint. Events
// without an endpoint group under NoKey.
func PerEndpoint(events []oplog.Event, elapsedSecs float64) []StatRow {
	return perKey(events, elapsedSecs, func(ev *oplog.Event) string { return ev.Endpoint })
}

func perKey(events []oplog.Event, elapsedSecs float64, keyOf func(*oplog.Event) string) []StatRow {
	groups := make(map[string]*accum)
	for i := range events {
		ev := &events[i]
		k := keyOf(ev)
		if k == "" {
			k = NoKey
		}
		g, ok := groups[k]
		if !ok {
			g = newAccum()
			groups[k] = g
		}
		g.add(ev)
	}

	rows := make([]StatRow, 0, len(groups))
	for k, g := range groups {
		rows = append(rows, g.row(k, "", 0, elapsedSecs))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}
