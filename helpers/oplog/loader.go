package oplog

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// =============================================================================
// Trace
// =============================================================================

// Trace is one fully-loaded oplog file.
type Trace struct {
	Path        string
	Events      []Event
	Start       time.Time // First non-null start instant, in record order
	End         time.Time // Last non-null end instant, in record order
	DroppedRows int64     // Ragged or unparseable rows skipped while reading
}

// Span returns the trace run time, End minus Start.
func (t *Trace) Span() time.Duration {
	return t.End.Sub(t.Start)
}

// columnSet caches the field positions of the required columns for one file.
type columnSet struct {
	idx, thread, op, clientID, nObjects, bytes int
	endpoint, file, errCol, start, firstByte   int
	end, duration                              int
}

func newColumnSet(r *Reader) columnSet {
	return columnSet{
		idx:       r.ColumnIndex(ColIdx),
		thread:    r.ColumnIndex(ColThread),
		op:        r.ColumnIndex(ColOp),
		clientID:  r.ColumnIndex(ColClientID),
		nObjects:  r.ColumnIndex(ColNObjects),
		bytes:     r.ColumnIndex(ColBytes),
		endpoint:  r.ColumnIndex(ColEndpoint),
		file:      r.ColumnIndex(ColFile),
		errCol:    r.ColumnIndex(ColError),
		start:     r.ColumnIndex(ColStart),
		firstByte: r.ColumnIndex(ColFirstByte),
		end:       r.ColumnIndex(ColEnd),
		duration:  r.ColumnIndex(ColDuration),
	}
}

// =============================================================================
// Loading
// =============================================================================

// LoadFile reads one oplog fully into memory as typed events.
//
// The trace's Start is the first non-null start instant scanning forward in
// record order, and End is the last non-null end instant scanning in
// reverse. Both scans stop at the first hit rather than taking a min/max,
// so upstream record order keeps its meaning.
//
// Rows whose integer fields do not parse are dropped and counted together
// with the reader's ragged rows; that is the only tolerated row loss.
// A non-empty timestamp that does not parse fails the whole load with
// ErrTimestampParse, negative bytes or duration fail with ErrInvalidEvent,
// and a file with zero records or no usable start/end instants fails with
// ErrMalformedTrace.
func LoadFile(path string) (*Trace, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cols := newColumnSet(r)
	tr := &Trace{Path: path}
	var droppedInts int64

	for {
		fields, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ev, ok, err := parseEvent(fields, cols, path, r.Row())
		if err != nil {
			return nil, err
		}
		if !ok {
			droppedInts++
			continue
		}
		tr.Events = append(tr.Events, ev)
	}
	tr.DroppedRows = r.DroppedRows() + droppedInts

	if len(tr.Events) == 0 {
		return nil, errors.Wrapf(ErrMalformedTrace, "%s: no records", path)
	}

	for i := range tr.Events {
		if tr.Events[i].HasStart() {
			tr.Start = tr.Events[i].Start
			break
		}
	}
	for i := len(tr.Events) - 1; i >= 0; i-- {
		if tr.Events[i].HasEnd() {
			tr.End = tr.Events[i].End
			break
		}
	}
	if tr.Start.IsZero() || tr.End.IsZero() {
		return nil, errors.Wrapf(ErrMalformedTrace, "%s: no usable start/end instants", path)
	}
	return tr, nil
}

// parseEvent converts one raw row. ok=false drops the row (tolerated loss);
// a non-nil error aborts the load.
func parseEvent(fields []string, cols columnSet, path string, row int64) (Event, bool, error) {
	var intErr error
	geti := func(i int) int64 {
		s := strings.TrimSpace(fields[i])
		if s == "" {
			return 0
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil && intErr == nil {
			intErr = err
		}
		return v
	}

	ev := Event{
		Idx:      geti(cols.idx),
		Thread:   geti(cols.thread),
		NObjects: geti(cols.nObjects),
		Bytes:    geti(cols.bytes),
	}
	ev.DurationNS = geti(cols.duration)
	if intErr != nil {
		return Event{}, false, nil
	}
	if ev.Bytes < 0 {
		return Event{}, false, errors.Wrapf(ErrInvalidEvent,
			"%s row %d: negative bytes %d", path, row, ev.Bytes)
	}
	if ev.DurationNS < 0 {
		return Event{}, false, errors.Wrapf(ErrInvalidEvent,
			"%s row %d: negative duration_ns %d", path, row, ev.DurationNS)
	}

	ev.Op = strings.TrimSpace(fields[cols.op])
	ev.ClientID = strings.TrimSpace(fields[cols.clientID])
	ev.Endpoint = strings.TrimSpace(fields[cols.endpoint])
	ev.File = fields[cols.file]
	ev.Error = fields[cols.errCol]

	var err error
	if ev.Start, err = ParseTimestamp(strings.TrimSpace(fields[cols.start])); err != nil {
		return Event{}, false, errors.Wrapf(err, "%s row %d", path, row)
	}
	if ev.FirstByte, err = ParseTimestamp(strings.TrimSpace(fields[cols.firstByte])); err != nil {
		return Event{}, false, errors.Wrapf(err, "%s row %d", path, row)
	}
	if ev.End, err = ParseTimestamp(strings.TrimSpace(fields[cols.end])); err != nil {
		return Event{}, false, errors.Wrapf(err, "%s row %d", path, row)
	}
	return ev, true, nil
}
