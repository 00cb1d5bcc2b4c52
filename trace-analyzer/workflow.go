// =============================================================================
// workflow.go - Per-File Pipeline and Consolidation Orchestration
// =============================================================================
//
// The workflow runs the batch pipeline:
//
//   for each file (command-line order):
//     load → skip filter → bucket/aggregate → print tables
//     fold the file's span into the consolidated window
//   if more than one file:
//     intersect windows → pool restricted events → recombine → print
//
// Each file's reported run time is anchored to the consolidated window
// start resolved so far, not to the file's own start. The first file
// therefore reports (end - start - skip); later files report their end
// against the narrowed window. Files are processed strictly one at a time;
// the pooled event collection only grows until consolidation reads it.
//
// =============================================================================

package main

import (
	"errors"
	"io"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/karthikiyer56/oplog-analysis/helpers"
	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/consolidate"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/report"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/stats"
	"github.com/karthikiyer56/oplog-analysis/trace-analyzer/pkg/window"
)

// Workflow drives the whole analysis run.
type Workflow struct {
	cfg     *Config
	logger  *Logger
	console *report.Console
	wb      *report.Workbook
	runID   string
}

// NewWorkflow prepares a run. out receives the statistics tables (stdout
// outside of tests). The workbook is only created when --excel is active.
func NewWorkflow(cfg *Config, logger *Logger, out io.Writer) (*Workflow, error) {
	w := &Workflow{
		cfg:     cfg,
		logger:  logger,
		console: report.NewConsole(out),
		runID:   uuid.NewString(),
	}
	if cfg.ExcelPath != "" {
		wb, err := report.NewWorkbook(w.runID)
		if err != nil {
			return nil, err
		}
		w.wb = wb
	}
	return w, nil
}

// RunID identifies this run in the startup log and workbook properties.
func (w *Workflow) RunID() string {
	return w.runID
}

// Close releases the workbook if one was created.
func (w *Workflow) Close() {
	if w.wb != nil {
		w.wb.Close()
	}
}

// Run executes the pipeline and, when a workbook is requested, saves it.
// The workbook is still saved when only the consolidation stage failed
// (the per-file sheets are complete and worth keeping), but not after a
// load or parse failure mid-run.
func (w *Workflow) Run() error {
	runErr := w.analyze()
	if w.wb != nil && workbookSaveable(runErr) {
		if err := w.saveWorkbook(); err != nil {
			w.logger.Error("%v", err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	return runErr
}

func workbookSaveable(err error) bool {
	return err == nil ||
		errors.Is(err, window.ErrNoOverlap) ||
		errors.Is(err, consolidate.ErrNoValidData)
}

func (w *Workflow) saveWorkbook() error {
	if err := w.wb.Save(w.cfg.ExcelPath); err != nil {
		return err
	}
	w.logger.Info("Workbook written to %s", w.cfg.ExcelPath)
	return nil
}

// analyze runs the per-file stage for every input, then the consolidation
// stage when there is more than one file.
func (w *Workflow) analyze() error {
	if w.cfg.SkipRaw != "" {
		w.console.UsingSkip(w.cfg.SkipRaw)
	}

	var (
		acc      *window.Window
		contribs []consolidate.FileContribution
	)
	for _, path := range w.cfg.Files {
		started := time.Now()
		w.console.Processing(path)

		contrib, next, err := w.analyzeFile(path, acc)
		if err != nil {
			return err
		}
		acc = next
		contribs = append(contribs, *contrib)

		w.console.ProcessedIn(time.Since(started))
	}

	if len(w.cfg.Files) < 2 {
		return nil
	}
	return w.consolidate(contribs, acc)
}

// analyzeFile loads one file, applies the skip filter, prints its tables,
// and folds its span into the accumulated window. It returns the file's
// contribution to consolidation and the narrowed window.
func (w *Workflow) analyzeFile(path string, acc *window.Window) (*consolidate.FileContribution, *window.Window, error) {
	tr, err := oplog.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if w.cfg.Verbose {
		w.logLoaded(tr)
	}

	events := tr.Events
	if w.cfg.Skip > 0 {
		threshold := tr.Start.Add(w.cfg.Skip)
		w.console.SkipNotice(threshold)
		if events, err = stats.ApplySkip(events, threshold, path); err != nil {
			return nil, nil, err
		}
	}

	next := window.Resolve(acc, window.Window{Start: tr.Start, End: tr.End}, w.cfg.Skip)
	elapsed := tr.End.Sub(next.Start)
	w.console.FileRunTime(elapsed)

	elapsedSecs := elapsed.Seconds()
	rows := stats.PerOpBucket(events, elapsedSecs)
	categories := stats.CategoryRows(events, stats.EffectiveElapsed(elapsed))
	w.console.Table("", rows, categories, elapsedSecs)

	var clients, endpoints []stats.StatRow
	if w.cfg.PerClient {
		clients = stats.PerClient(events, elapsedSecs)
		w.console.Breakdown("Per-client results:", "client", clients)
	}
	if w.cfg.PerEndpoint {
		endpoints = stats.PerEndpoint(events, elapsedSecs)
		w.console.Breakdown("Per-endpoint results:", "endpoint", endpoints)
	}

	if w.wb != nil {
		if err := w.wb.AddStatsSheet(path, rows, categories); err != nil {
			return nil, nil, err
		}
		// Single-file runs have no consolidated breakdowns, so the
		// per-file ones go to the workbook instead.
		if len(w.cfg.Files) == 1 {
			if clients != nil {
				if err := w.wb.AddBreakdownSheet("Per-Client", "client", clients); err != nil {
					return nil, nil, err
				}
			}
			if endpoints != nil {
				if err := w.wb.AddBreakdownSheet("Per-Endpoint", "endpoint", endpoints); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	contrib := &consolidate.FileContribution{Path: path, Events: events, Rows: rows}
	return contrib, &next, nil
}

// consolidate runs the cross-file stage: window validity, pooling, the
// recombined table, and the optional breakdowns.
func (w *Workflow) consolidate(contribs []consolidate.FileContribution, acc *window.Window) error {
	w.console.ConsolidationStart()

	if acc == nil || !acc.Valid() {
		w.console.NoOverlap()
		return window.ErrNoOverlap
	}
	w.console.ConsolidatedRunTime(acc.Elapsed())

	res, err := consolidate.Consolidate(contribs, *acc, consolidate.Options{
		PerClient:   w.cfg.PerClient,
		PerEndpoint: w.cfg.PerEndpoint,
	})
	if err != nil {
		if errors.Is(err, consolidate.ErrNoValidData) {
			w.console.NoValidData()
		}
		return err
	}

	w.console.Table("Consolidated Results:", res.Rows, res.Categories, res.Window.Seconds())
	if res.Clients != nil {
		w.console.Breakdown("Per-client results:", "client", res.Clients)
	}
	if res.Endpoints != nil {
		w.console.Breakdown("Per-endpoint results:", "endpoint", res.Endpoints)
	}

	if w.wb != nil {
		if err := w.wb.AddStatsSheet("Consolidated", res.Rows, res.Categories); err != nil {
			return err
		}
		if res.Clients != nil {
			if err := w.wb.AddBreakdownSheet("Per-Client", "client", res.Clients); err != nil {
				return err
			}
		}
		if res.Endpoints != nil {
			if err := w.wb.AddBreakdownSheet("Per-Endpoint", "endpoint", res.Endpoints); err != nil {
				return err
			}
		}
	}
	return nil
}

// logLoaded emits the verbose per-file loading diagnostics.
func (w *Workflow) logLoaded(tr *oplog.Trace) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	w.logger.Info("Loaded %s: %s events, %s dropped rows, span %s, heap %s",
		tr.Path,
		helpers.FormatNumber(int64(len(tr.Events))),
		helpers.FormatNumber(tr.DroppedRows),
		helpers.FormatDuration(tr.Span()),
		helpers.FormatBytes(int64(ms.HeapAlloc)))
}
