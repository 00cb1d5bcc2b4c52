// Package oplog provides typed access to operation-trace files (oplogs)
// produced by storage-benchmark tools.
//
// An oplog is a header-prefixed record stream with one row per storage
// operation:
//
//	idx, thread, op, client_id, n_objects, bytes, endpoint, file, error,
//	start, first_byte, end, duration_ns
//
// Rows are tab- or comma-separated (detected from the header row, since
// warp names its oplogs .csv but writes tab-separated rows) and a file may
// be zstd-compressed (.zst/.zstd extension). Timestamps are ISO-8601 with
// fractional seconds and either an explicit offset or a literal trailing
// "Z", which is treated as +00:00.
package oplog

import (
	"time"

	"github.com/pkg/errors"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrMalformedTrace marks a file that cannot serve as an oplog at all:
	// missing header, missing required columns, zero records, or no usable
	// start/end instants.
	ErrMalformedTrace = errors.New("malformed trace")

	// ErrTimestampParse marks a non-empty timestamp cell that does not parse.
	ErrTimestampParse = errors.New("unparseable timestamp")

	// ErrInvalidEvent marks a record that parsed but violates the event
	// contract (negative payload bytes or negative duration).
	ErrInvalidEvent = errors.New("invalid event")
)

// =============================================================================
// Columns
// =============================================================================

const (
	ColIdx       = "idx"
	ColThread    = "thread"
	ColOp        = "op"
	ColClientID  = "client_id"
	ColNObjects  = "n_objects"
	ColBytes     = "bytes"
	ColEndpoint  = "endpoint"
	ColFile      = "file"
	ColError     = "error"
	ColStart     = "start"
	ColFirstByte = "first_byte"
	ColEnd       = "end"
	ColDuration  = "duration_ns"
)

// RequiredColumns lists every column an oplog must carry, in canonical write
// order. Readers accept any column order and ignore extra columns.
var RequiredColumns = []string{
	ColIdx,
	ColThread,
	ColOp,
	ColClientID,
	ColNObjects,
	ColBytes,
	ColEndpoint,
	ColFile,
	ColError,
	ColStart,
	ColFirstByte,
	ColEnd,
	ColDuration,
}

// =============================================================================
// Event
// =============================================================================

// Event is one operation record from a trace, immutable once loaded.
//
// Timestamps with no value in the source row are the zero time. DurationNS
// is the measured latency and is authoritative for statistics even where
// End minus Start disagrees with it.
type Event struct {
	Idx        int64     // Record sequence number within the trace
	Thread     int64     // Benchmark thread that issued the operation
	Op         string    // Operation code: GET, PUT, LIST, HEAD, DELETE, STAT, ...
	ClientID   string    // Identifier of the issuing client
	NObjects   int64     // Objects touched by the operation
	Bytes      int64     // Payload size in bytes, >= 0
	Endpoint   string    // Target endpoint, may be empty
	File       string    // Object key, may be empty
	Error      string    // Error text, empty on success
	Start      time.Time // Operation start instant (UTC), zero when null
	FirstByte  time.Time // First-byte instant (UTC), zero when null
	End        time.Time // Operation end instant (UTC), zero when null
	DurationNS int64     // Measured latency in nanoseconds, >= 0
}

// HasStart reports whether the record carried a start instant.
func (e *Event) HasStart() bool {
	return !e.Start.IsZero()
}

// HasEnd reports whether the record carried an end instant.
func (e *Event) HasEnd() bool {
	return !e.End.IsZero()
}

// LatencyUS returns the measured latency in microseconds.
func (e *Event) LatencyUS() float64 {
	return float64(e.DurationNS) / 1000.0
}

// =============================================================================
// Timestamps
// =============================================================================

// TimeLayout accepts ISO-8601 instants with up to nanosecond fractions and
// either a numeric offset or a literal Z (parsed as +00:00).
const TimeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// writeTimeLayout always emits nine fractional digits and renders UTC with
// a literal Z, matching the format warp itself writes.
const writeTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ParseTimestamp converts one timestamp cell to a UTC instant. An empty
// cell is a null instant: zero time, nil error.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrTimestampParse, "%q", s)
	}
	return t.UTC(), nil
}

// FormatTimestamp renders an instant the way warp writes it. The zero time
// renders as an empty cell.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(writeTimeLayout)
}
