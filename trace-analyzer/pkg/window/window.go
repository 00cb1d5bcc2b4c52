// Package window resolves the time spans over which trace statistics are
// comparable: each file's own usable span, and the intersection across
// files that makes consolidated comparison valid.
package window

import (
	"time"

	"github.com/pkg/errors"

	"github.com/karthikiyer56/oplog-analysis/helpers/oplog"
)

// ErrNoOverlap marks a resolved window with no usable span. Consolidation
// is skipped when this is reported; per-file results stand.
var ErrNoOverlap = errors.New("no overlapping time range between files")

// =============================================================================
// Window
// =============================================================================

// Window is a usable time span, valid only while Start precedes End.
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window spans positive time.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Elapsed returns the span duration.
func (w Window) Elapsed() time.Duration {
	return w.End.Sub(w.Start)
}

// Seconds returns the span in seconds.
func (w Window) Seconds() float64 {
	return w.Elapsed().Seconds()
}

// Contains reports whether an instant falls inside the closed span.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Resolve folds one file's span into the running consolidated window and
// returns the new accumulator value; acc is never mutated. The first file
// (nil acc) anchors the window at its start plus skip and its own end.
// Every later file narrows by intersection: the later of the starts, the
// earlier of the ends. Files folded in a different order can therefore
// resolve a different window; callers fold in command-line order.
//
// A resolved window where Start >= End means the files never overlap; the
// caller reports ErrNoOverlap instead of consolidating.
func Resolve(acc *Window, file Window, skip time.Duration) Window {
	if acc == nil {
		return Window{Start: file.Start.Add(skip), End: file.End}
	}
	out := *acc
	if file.Start.After(out.Start) {
		out.Start = file.Start
	}
	if file.End.Before(out.End) {
		out.End = file.End
	}
	return out
}

// =============================================================================
// Effective Span
// =============================================================================

// minEffectiveSpan guards against degenerate category spans; anything
// shorter gives meaningless rates.
const minEffectiveSpan = time.Millisecond

// EffectiveSpan returns the observed span of one category's events within a
// file: latest end instant minus earliest start instant. Operation
// categories can run in disjoint sub-windows of a single benchmark, so
// rating a category over the whole file span would understate it.
//
// Falls back to fileElapsed when the events carry no usable instants or the
// observed span is shorter than a millisecond.
func EffectiveSpan(events []oplog.Event, fileElapsed time.Duration) time.Duration {
	var earliest, latest time.Time
	for i := range events {
		ev := &events[i]
		if ev.HasStart() && (earliest.IsZero() || ev.Start.Before(earliest)) {
			earliest = ev.Start
		}
		if ev.HasEnd() && (latest.IsZero() || ev.End.After(latest)) {
			latest = ev.End
		}
	}
	if earliest.IsZero() || latest.IsZero() {
		return fileElapsed
	}
	span := latest.Sub(earliest)
	if span < minEffectiveSpan {
		return fileElapsed
	}
	return span
}
