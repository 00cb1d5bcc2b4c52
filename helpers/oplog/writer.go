package oplog

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// =============================================================================
// Writer
// =============================================================================

// Writer emits oplog rows in the canonical 13-column tab-separated layout.
// Paths ending in .zst/.zstd produce a zstd-compressed stream. The header
// row is written at construction.
type Writer struct {
	path string
	file *os.File
	zw   *zstd.Encoder
	buf  *bufio.Writer
	rows int64
}

// NewWriter creates the file at path and writes the header row.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	w := &Writer{path: path, file: f}

	var sink io.Writer = f
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zst" || ext == ".zstd" {
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "zstd writer for %s", path)
		}
		w.zw = zw
		sink = zw
	}
	w.buf = bufio.NewWriter(sink)

	if _, err := w.buf.WriteString(strings.Join(RequiredColumns, "\t") + "\n"); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "write header to %s", path)
	}
	return w, nil
}

// WriteEvent appends one row. Null instants write as empty cells.
func (w *Writer) WriteEvent(ev *Event) error {
	fields := []string{
		strconv.FormatInt(ev.Idx, 10),
		strconv.FormatInt(ev.Thread, 10),
		ev.Op,
		ev.ClientID,
		strconv.FormatInt(ev.NObjects, 10),
		strconv.FormatInt(ev.Bytes, 10),
		ev.Endpoint,
		ev.File,
		ev.Error,
		FormatTimestamp(ev.Start),
		FormatTimestamp(ev.FirstByte),
		FormatTimestamp(ev.End),
		strconv.FormatInt(ev.DurationNS, 10),
	}
	if _, err := w.buf.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
		return errors.Wrapf(err, "write row to %s", w.path)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Close flushes buffered rows, finishes the compressed stream when present,
// and closes the file.
func (w *Writer) Close() error {
	var first error
	if w.buf != nil {
		if err := w.buf.Flush(); err != nil {
			first = err
		}
		w.buf = nil
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil && first == nil {
			first = err
		}
		w.zw = nil
	}
	if w.file != nil {
		if err := w.file.Close(); err != nil && first == nil {
			first = err
		}
		w.file = nil
	}
	if first != nil {
		return errors.Wrapf(first, "close %s", w.path)
	}
	return nil
}
