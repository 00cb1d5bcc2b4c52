package consolidate

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/stats"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/window"
)

var base = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time {
	return base.Add(offset)
}

func mkEvent(op string, bytes, durNS int64, startOffset time.Duration) oplog.Event {
	start := base.Add(startOffset)
	return oplog.Event{
		Op:         op,
		ClientID:   "warp-client",
		NObjects:   1,
		Bytes:      bytes,
		Endpoint:   "http://127.0.0.1:9000",
		Start:      start,
		End:        start.Add(time.Duration(durNS)),
		DurationNS: durNS,
	}
}

func almost(got, want float64) bool {
	if want == 0 {
		return got == 0
	}
	return math.Abs(got-want) <= 1e-9*math.Abs(want)
}

func TestConsolidateRecombination(t *testing.T) {
	// File A spans 0s-60s, file B spans 30s-90s. The resolved window is
	// their 30s intersection.
	eventsA := []oplog.Event{
		mkEvent("GET", 4096, 99_000_000, 0),              // before the window
		mkEvent("GET", 4096, 10_000_000, 40*time.Second), // inside
		mkEvent("GET", 4096, 20_000_000, 60*time.Second), // on the closed upper bound
	}
	eventsB := []oplog.Event{
		mkEvent("GET", 4096, 30_000_000, 30*time.Second),                 // on the closed lower bound
		mkEvent("GET", 4096, 40_000_000, 60*time.Second+time.Nanosecond), // just past the upper bound
	}

	rowsA := stats.PerOpBucket(eventsA, 60)
	rowsB := stats.PerOpBucket(eventsB, 60)

	win := window.Resolve(nil, window.Window{Start: at(0), End: at(60 * time.Second)}, 0)
	win = window.Resolve(&win, window.Window{Start: at(30 * time.Second), End: at(90 * time.Second)}, 0)
	if win.Seconds() != 30 {
		t.Fatalf("resolved window = %v, want 30s span", win)
	}

	res, err := Consolidate([]FileContribution{
		{Path: "a.tsv", Events: eventsA, Rows: rowsA},
		{Path: "b.tsv", Events: eventsB, Rows: rowsB},
	}, win, Options{})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Rows) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(res.Rows), res.Rows)
	}
	row := res.Rows[0]
	if row.Key != "GET" || row.Bucket != "1B-8KiB" {
		t.Fatalf("row key = %s/%s, want GET/1B-8KiB", row.Key, row.Bucket)
	}

	// Count and latency columns come from the three pooled events inside
	// the closed window.
	if row.Count != 3 {
		t.Errorf("Count = %d, want 3", row.Count)
	}
	if row.MaxLatUS != 30000 {
		t.Errorf("MaxLatUS = %v, want 30000 (the 99ms event is outside the window)", row.MaxLatUS)
	}
	if row.MedianLatUS != 20000 {
		t.Errorf("MedianLatUS = %v, want 20000", row.MedianLatUS)
	}
	if !almost(row.AvgObjKiB, 4) {
		t.Errorf("AvgObjKiB = %v, want 4", row.AvgObjKiB)
	}

	// Rate columns recombine the per-file values: throughput is the sum of
	// the per-file rates, ops/sec divides the summed per-file counts (all
	// five events) by the consolidated elapsed time.
	wantThroughput := rowsA[0].ThroughputMiBps + rowsB[0].ThroughputMiBps
	if !almost(row.ThroughputMiBps, wantThroughput) {
		t.Errorf("ThroughputMiBps = %v, want %v", row.ThroughputMiBps, wantThroughput)
	}
	if !almost(row.OpsPerSec, 5.0/30.0) {
		t.Errorf("OpsPerSec = %v, want %v", row.OpsPerSec, 5.0/30.0)
	}
}

func TestConsolidateCategoriesUseConsolidatedElapsed(t *testing.T) {
	eventsA := []oplog.Event{
		mkEvent("GET", 4096, 10_000_000, 10*time.Second),
		mkEvent("LIST", 0, 2_000_000, 12*time.Second),
	}
	rowsA := stats.PerOpBucket(eventsA, 20)

	win := window.Window{Start: at(0), End: at(20 * time.Second)}
	res, err := Consolidate([]FileContribution{{Path: "a.tsv", Events: eventsA, Rows: rowsA}}, win, Options{})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	if len(res.Categories) != 2 {
		t.Fatalf("got %d category rows, want 2: %+v", len(res.Categories), res.Categories)
	}
	meta, get := res.Categories[0], res.Categories[1]
	if meta.Key != "META" || get.Key != "GET" {
		t.Fatalf("category order = %s, %s, want META, GET", meta.Key, get.Key)
	}
	// The consolidated run time is the divisor, not the per-category
	// effective span.
	if !almost(meta.OpsPerSec, 1.0/20.0) {
		t.Errorf("META OpsPerSec = %v, want %v", meta.OpsPerSec, 1.0/20.0)
	}
	if !almost(get.OpsPerSec, 1.0/20.0) {
		t.Errorf("GET OpsPerSec = %v, want %v", get.OpsPerSec, 1.0/20.0)
	}
}

func TestConsolidateBreakdownTables(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 10_000_000, 5*time.Second),
		mkEvent("PUT", 8192, 20_000_000, 6*time.Second),
	}
	rows := stats.PerOpBucket(events, 10)
	win := window.Window{Start: at(0), End: at(10 * time.Second)}
	files := []FileContribution{{Path: "a.tsv", Events: events, Rows: rows}}

	res, err := Consolidate(files, win, Options{PerClient: true})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if len(res.Clients) != 1 || res.Clients[0].Key != "warp-client" {
		t.Errorf("Clients = %+v, want one warp-client row", res.Clients)
	}
	if res.Endpoints != nil {
		t.Errorf("Endpoints = %+v, want nil when not requested", res.Endpoints)
	}

	res, err = Consolidate(files, win, Options{PerEndpoint: true})
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if res.Clients != nil {
		t.Errorf("Clients = %+v, want nil when not requested", res.Clients)
	}
	if len(res.Endpoints) != 1 || res.Endpoints[0].Key != "http://127.0.0.1:9000" {
		t.Errorf("Endpoints = %+v, want one endpoint row", res.Endpoints)
	}
}

func TestConsolidateInvalidWindow(t *testing.T) {
	win := window.Window{Start: at(65 * time.Second), End: at(60 * time.Second)}
	_, err := Consolidate(nil, win, Options{})
	if !errors.Is(err, window.ErrNoOverlap) {
		t.Fatalf("err = %v, want ErrNoOverlap", err)
	}
}

func TestConsolidateEmptyPool(t *testing.T) {
	events := []oplog.Event{
		mkEvent("GET", 4096, 10_000_000, 90*time.Second),
	}
	rows := stats.PerOpBucket(events, 60)
	win := window.Window{Start: at(0), End: at(60 * time.Second)}

	_, err := Consolidate([]FileContribution{{Path: "a.tsv", Events: events, Rows: rows}}, win, Options{})
	if !errors.Is(err, ErrNoValidData) {
		t.Fatalf("err = %v, want ErrNoValidData", err)
	}
}
