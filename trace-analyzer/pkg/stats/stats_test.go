package stats

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
)

var base = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func mkEvent(op string, bytes, durNS int64, startOffset time.Duration) oplog.Event {
	start := base.Add(startOffset)
	return oplog.Event{
		Thread:     1,
		Op:         op,
		ClientID:   "c1",
		Bytes:      bytes,
		Endpoint:   "http://node1:9000",
		Start:      start,
		End:        start.Add(time.Duration(durNS)),
		DurationNS: durNS,
	}
}

func almost(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

func TestPercentileLinearInterpolation(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	tests := []struct {
		q    float64
		want float64
	}{
		{0.50, 30},
		{0.90, 46},
		{0.95, 48},
		{0.99, 49.6},
		{1.00, 50},
		{0.00, 10},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.q); !almost(got, tt.want) {
			t.Errorf("percentile(q=%v) = %v, want %v", tt.q, got, tt.want)
		}
	}

	// Even-length median averages the middle pair.
	if got := percentile([]float64{10, 20, 30, 40}, 0.50); !almost(got, 25) {
		t.Errorf("even median = %v, want 25", got)
	}
	if got := percentile([]float64{42}, 0.99); got != 42 {
		t.Errorf("single-sample percentile = %v, want 42", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("empty percentile = %v, want 0", got)
	}
}

func TestPerOpBucketGroupingAndSort(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 5_000_000, 0),
		mkEvent("GET", 4096, 10_000_000, time.Second),
		mkEvent("GET", 4096, 15_000_000, 2*time.Second),
		mkEvent("GET", 64*1024, 20_000_000, 3*time.Second),
		mkEvent("PUT", 0, 1_000_000, 4*time.Second),
	}

	rows := PerOpBucket(events, 10.0)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	// Sorted by bucket rank, then op.
	if rows[0].Key != "PUT" || rows[0].Bucket != "zero" || rows[0].Rank != 0 {
		t.Errorf("row 0 = %+v, want PUT/zero/0", rows[0])
	}
	if rows[1].Key != "GET" || rows[1].Bucket != "1B-8KiB" || rows[1].Rank != 1 {
		t.Errorf("row 1 = %+v, want GET/1B-8KiB/1", rows[1])
	}
	if rows[2].Key != "GET" || rows[2].Bucket != "64KiB-512KiB" || rows[2].Rank != 3 {
		t.Errorf("row 2 = %+v, want GET/64KiB-512KiB/3", rows[2])
	}

	get := rows[1]
	if get.Count != 3 {
		t.Errorf("GET count = %d, want 3", get.Count)
	}
	if !almost(get.MeanLatUS, 10000) || !almost(get.MedianLatUS, 10000) {
		t.Errorf("GET mean/median = %v/%v, want 10000/10000", get.MeanLatUS, get.MedianLatUS)
	}
	if !almost(get.P90LatUS, 14000) || !almost(get.P95LatUS, 14500) || !almost(get.P99LatUS, 14900) {
		t.Errorf("GET p90/p95/p99 = %v/%v/%v, want 14000/14500/14900",
			get.P90LatUS, get.P95LatUS, get.P99LatUS)
	}
	if get.MaxLatUS != 15000 {
		t.Errorf("GET max = %v, want 15000", get.MaxLatUS)
	}
	if !almost(get.AvgObjKiB, 4.0) {
		t.Errorf("GET AvgObjKiB = %v, want 4", get.AvgObjKiB)
	}
	if !almost(get.OpsPerSec, 0.3) {
		t.Errorf("GET OpsPerSec = %v, want 0.3", get.OpsPerSec)
	}
	wantXput := float64(3*4096) / (1024.0 * 1024.0) / 10.0
	if !almost(get.ThroughputMiBps, wantXput) {
		t.Errorf("GET ThroughputMiBps = %v, want %v", get.ThroughputMiBps, wantXput)
	}
}

func TestPercentileMonotonicPerRow(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 3_000_000, 0),
		mkEvent("GET", 4096, 17_000_000, time.Second),
		mkEvent("GET", 4096, 9_000_000, 2*time.Second),
		mkEvent("GET", 4096, 41_000_000, 3*time.Second),
		mkEvent("GET", 4096, 5_000_000, 4*time.Second),
		mkEvent("PUT", 1048576, 80_000_000, 5*time.Second),
		mkEvent("PUT", 1048576, 20_000_000, 6*time.Second),
	}

	for _, row := range PerOpBucket(events, 60.0) {
		if row.MedianLatUS > row.P90LatUS || row.P90LatUS > row.P95LatUS ||
			row.P95LatUS > row.P99LatUS || row.P99LatUS > row.MaxLatUS {
			t.Errorf("percentiles not monotonic for %s/%s: %+v", row.Key, row.Bucket, row)
		}
	}
}

func TestThroughputInvariant(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 5_000_000, 0),
		mkEvent("GET", 4096, 6_000_000, time.Second),
		mkEvent("PUT", 1048576, 50_000_000, 2*time.Second),
		mkEvent("PUT", 65536, 20_000_000, 3*time.Second),
	}
	elapsed := 42.5

	wantBytes := map[string]float64{
		"GET/1B-8KiB":     2 * 4096,
		"PUT/512KiB-4MiB": 1048576,
		"PUT/8KiB-64KiB":  65536,
	}
	for _, row := range PerOpBucket(events, elapsed) {
		got := row.ThroughputMiBps * elapsed * 1024 * 1024
		want := wantBytes[row.Key+"/"+row.Bucket]
		if !almost(got, want) {
			t.Errorf("%s/%s: throughput*elapsed*MiB = %v, want %v bytes",
				row.Key, row.Bucket, got, want)
		}
	}
}

func TestAggregationIdempotent(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 5_000_000, 0),
		mkEvent("PUT", 1048576, 50_000_000, time.Second),
		mkEvent("LIST", 0, 2_000_000, 2*time.Second),
	}

	first := PerOpBucket(events, 60.0)
	second := PerOpBucket(events, 60.0)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated aggregation differs:\n%+v\n%+v", first, second)
	}
}

func TestApplySkip(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 5_000_000, 0),
		mkEvent("GET", 4096, 5_000_000, 10*time.Second),
		mkEvent("GET", 4096, 5_000_000, 20*time.Second),
		mkEvent("GET", 4096, 5_000_000, 30*time.Second),
		{Op: "GET", Bytes: 4096, DurationNS: 5_000_000}, // null start
	}

	threshold := base.Add(10 * time.Second)
	kept, err := ApplySkip(events, threshold, "trace.csv")
	if err != nil {
		t.Fatalf("ApplySkip: %v", err)
	}
	// Events at or before the threshold drop, as does the null-start event.
	if len(kept) != 2 {
		t.Fatalf("kept %d events, want 2", len(kept))
	}
	for _, ev := range kept {
		if !ev.Start.After(threshold) {
			t.Errorf("kept event starting %v, threshold %v", ev.Start, threshold)
		}
	}

	_, err = ApplySkip(events, base.Add(time.Hour), "trace.csv")
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("all-skipped error = %v, want ErrInsufficientData", err)
	}
}

func TestCategoryRows(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 10_000_000, 0),
		mkEvent("GET", 65536, 10_000_000, 20*time.Second),
		mkEvent("LIST", 0, 2_000_000, 40*time.Second),
		mkEvent("LIST", 0, 2_000_000, 41*time.Second),
	}
	// GET events span 0..20s+10ms, LIST events span 40s..41s+2ms.

	rows := CategoryRows(events, EffectiveElapsed(60*time.Second))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (PUT omitted)", len(rows))
	}

	meta := rows[0]
	if meta.Key != "META" || meta.Bucket != "ALL" || meta.Rank != 97 {
		t.Errorf("row 0 = %+v, want META/ALL/97", meta)
	}
	get := rows[1]
	if get.Key != "GET" || get.Rank != 98 {
		t.Errorf("row 1 = %+v, want GET rank 98", get)
	}

	// Each category rates over its own effective span.
	metaSpan := (time.Second + 2*time.Millisecond).Seconds()
	if !almost(meta.OpsPerSec, 2.0/metaSpan) {
		t.Errorf("META OpsPerSec = %v, want %v", meta.OpsPerSec, 2.0/metaSpan)
	}
	getSpan := (20*time.Second + 10*time.Millisecond).Seconds()
	if !almost(get.OpsPerSec, 2.0/getSpan) {
		t.Errorf("GET OpsPerSec = %v, want %v", get.OpsPerSec, 2.0/getSpan)
	}

	// A fixed divisor rates every category the same way.
	fixed := CategoryRows(events, FixedElapsed(60.0))
	for _, row := range fixed {
		if !almost(row.OpsPerSec, float64(row.Count)/60.0) {
			t.Errorf("%s fixed OpsPerSec = %v, want %v", row.Key, row.OpsPerSec, float64(row.Count)/60.0)
		}
	}
}

// Category percentiles pool the raw samples across buckets instead of
// averaging per-bucket summaries.
func TestCategoryPercentilesFromRawSamples(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 10_000_000, 0),
		mkEvent("GET", 4096, 10_000_000, time.Second),
		mkEvent("GET", 4096, 10_000_000, 2*time.Second),
		mkEvent("GET", 64*1024*1024, 50_000_000, 3*time.Second),
	}

	rows := CategoryRows(events, FixedElapsed(60.0))
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	// Pooled sample [10ms 10ms 10ms 50ms]: median 10ms. Averaging the two
	// bucket medians would give 30ms instead.
	if !almost(rows[0].MedianLatUS, 10000) {
		t.Errorf("GET category median = %v, want 10000", rows[0].MedianLatUS)
	}
}

func TestPerClientAndPerEndpoint(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 5_000_000, 0),
		mkEvent("GET", 4096, 6_000_000, time.Second),
		mkEvent("PUT", 8192, 7_000_000, 2*time.Second),
	}
	events[0].ClientID = "warp-a"
	events[1].ClientID = "warp-b"
	events[1].Thread = 2
	events[2].ClientID = ""
	events[2].Endpoint = ""

	clients := PerClient(events, 10.0)
	if len(clients) != 3 {
		t.Fatalf("got %d client rows, want 3", len(clients))
	}
	if clients[0].Key != NoKey || clients[1].Key != "warp-a" || clients[2].Key != "warp-b" {
		t.Errorf("client keys = %q/%q/%q", clients[0].Key, clients[1].Key, clients[2].Key)
	}

	endpoints := PerEndpoint(events, 10.0)
	if len(endpoints) != 2 {
		t.Fatalf("got %d endpoint rows, want 2", len(endpoints))
	}
	if endpoints[0].Key != NoKey || endpoints[1].Key != "http://node1:9000" {
		t.Errorf("endpoint keys = %q/%q", endpoints[0].Key, endpoints[1].Key)
	}
	if endpoints[1].Count != 2 || endpoints[1].DistinctThreads != 2 {
		t.Errorf("endpoint row = %+v, want count 2 distinct threads 2", endpoints[1])
	}
}

func TestTotalCount(t *testing.T) {
	rows := []StatRow{{Count: 3}, {Count: 7}, {Count: 1}}
	if got := TotalCount(rows); got != 11 {
		t.Errorf("TotalCount = %d, want 11", got)
	}
	if got := TotalCount(nil); got != 0 {
		t.Errorf("TotalCount(nil) = %d, want 0", got)
	}
}
