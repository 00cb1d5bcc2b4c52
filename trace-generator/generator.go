// =============================================================================
// generator.go - Synthetic Oplog Generation
// =============================================================================
//
// The generator writes oplog files whose time windows are arranged to
// exercise the analyzer's consolidation paths: fully sequential traces
// (no overlap), partially overlapping traces, and near-fully concurrent
// traces. Operation mix, payload sizes, and latency distributions are
// modeled on what warp-style benchmarks actually record.
//
// =============================================================================

package main

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
)

// epoch anchors every generated window; absolute placement is irrelevant to
// the analyzer, only relative spans matter.
var epoch = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

// Operation mix, weighted toward GET the way read-heavy benchmarks run.
var opMix = []string{"GET", "GET", "GET", "PUT", "LIST"}

// Payload sizes spread across the analyzer's buckets. LIST operations
// always carry zero bytes regardless of this table.
var payloadSizes = []int64{4096, 65536, 1048576, 16777216}

var endpoints = []string{"http://node1:9000", "http://node2:9000"}

const (
	threadCount = 8
	clientCount = 2
)

// Generator produces oplog files for one run. All randomness flows through
// rng, so a fixed seed reproduces every file byte for byte.
type Generator struct {
	cfg *Config
	rng *rand.Rand
}

func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run writes every file of every selected scenario and prints one summary
// line per file.
func (g *Generator) Run() error {
	for _, sc := range g.cfg.Scenarios {
		for _, fs := range sc.Files {
			path := filepath.Join(g.cfg.OutDir, g.fileName(sc.Name, fs.Suffix))
			n, err := g.generateFile(path, fs.StartSecs, fs.EndSecs)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d ops  →  %s  (window %.1fs – %.1fs)\n",
				n, path, fs.StartSecs, fs.EndSecs)
		}
	}
	return nil
}

func (g *Generator) fileName(scenario, suffix string) string {
	name := fmt.Sprintf("%s-%s.tsv", scenario, suffix)
	if g.cfg.Compress {
		name += ".zst"
	}
	return name
}

// generateFile writes one oplog with ops spread uniformly across the window
// [startSecs, endSecs] relative to the epoch.
func (g *Generator) generateFile(path string, startSecs, endSecs float64) (int64, error) {
	w, err := oplog.NewWriter(path)
	if err != nil {
		return 0, err
	}

	span := endSecs - startSecs
	n := g.cfg.Ops
	for idx := int64(0); idx < n; idx++ {
		ev := g.event(idx, startSecs, span, n)
		if err := w.WriteEvent(&ev); err != nil {
			w.Close()
			return 0, err
		}
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return n, nil
}

// event builds one operation record. Start instants walk forward through
// the window with a little jitter so record order matches time order, the
// way a benchmark's own oplog comes out.
func (g *Generator) event(idx int64, startSecs, span float64, total int64) oplog.Event {
	op := opMix[g.rng.Intn(len(opMix))]
	bytes := int64(0)
	if op != "LIST" {
		bytes = payloadSizes[g.rng.Intn(len(payloadSizes))]
	}

	slot := span / float64(total)
	opStart := startSecs + float64(idx)*slot + g.rng.Float64()*slot
	lat := g.latency(bytes)

	start := epoch.Add(time.Duration(opStart * float64(time.Second)))
	return oplog.Event{
		Idx:        idx,
		Thread:     int64(g.rng.Intn(threadCount)) + 1,
		Op:         op,
		ClientID:   fmt.Sprintf("client%d", g.rng.Intn(clientCount)+1),
		NObjects:   1,
		Bytes:      bytes,
		Endpoint:   endpoints[g.rng.Intn(len(endpoints))],
		File:       fmt.Sprintf("obj-%06d", idx),
		Start:      start,
		FirstByte:  start.Add(time.Duration(lat * 0.1 * float64(time.Second))),
		End:        start.Add(time.Duration(lat * float64(time.Second))),
		DurationNS: int64(lat * 1e9),
	}
}

// latency draws a log-normal latency in seconds: around 5ms for small
// payloads, around 50ms for megabyte-class ones, floored at 100µs.
func (g *Generator) latency(bytes int64) float64 {
	base := 0.005
	if bytes >= 1_000_000 {
		base = 0.050
	}
	lat := math.Exp(math.Log(base) + g.rng.NormFloat64()*0.5)
	if lat < 0.0001 {
		lat = 0.0001
	}
	return lat
}
