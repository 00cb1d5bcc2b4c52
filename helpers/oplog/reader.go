package oplog

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// maxLineBytes bounds a single physical row when streaming compressed
// input. Oplog rows are short; anything past this is not a trace.
const maxLineBytes = 1 << 20

// =============================================================================
// Separator Detection
// =============================================================================

// DetectSeparator picks the field separator from a header line: more tabs
// than commas means tab, otherwise comma when any commas are present, tab
// as the fallback. The file extension is never trusted.
func DetectSeparator(header string) byte {
	tabs := strings.Count(header, "\t")
	commas := strings.Count(header, ",")
	switch {
	case tabs > commas:
		return '\t'
	case commas > 0:
		return ','
	default:
		return '\t'
	}
}

// =============================================================================
// Reader
// =============================================================================

// Reader yields raw field rows from one oplog file.
//
// Plain files are memory-mapped read-only and scanned in place; compressed
// files (.zst/.zstd) stream through a zstd decoder. The header row is
// consumed at construction, and NewReader fails with ErrMalformedTrace when
// the header is missing or lacks any required column.
//
// USAGE:
//
//	r, err := oplog.NewReader(path)
//	if err != nil { ... }
//	defer r.Close()
//
//	for {
//	    fields, ok, err := r.Next()
//	    if err != nil { ... }
//	    if !ok { break }
//	    op := fields[r.ColumnIndex(oplog.ColOp)]
//	}
//
// THREAD SAFETY:
//
//	Reader is NOT thread-safe. Use one instance per goroutine.
type Reader struct {
	path string
	sep  byte

	file  *os.File
	data  []byte // mmap'd contents for plain files
	pos   int
	dec   *zstd.Decoder
	lines *bufio.Scanner // line source for compressed files

	columns  []string
	colIndex map[string]int
	minWidth int   // highest required column index + 1
	row      int64 // physical row number of the last yielded line, header = 1
	dropped  int64
}

// NewReader opens an oplog file and consumes its header row.
func NewReader(path string) (*Reader, error) {
	r := &Reader{path: path}
	if err := r.open(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.readHeader(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) open() error {
	f, err := os.Open(r.path)
	if err != nil {
		return errors.Wrapf(err, "open %s", r.path)
	}
	r.file = f

	ext := strings.ToLower(filepath.Ext(r.path))
	if ext == ".zst" || ext == ".zstd" {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "zstd reader for %s", r.path)
		}
		r.dec = dec
		sc := bufio.NewScanner(dec)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		r.lines = sc
		return nil
	}

	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", r.path)
	}
	if info.Size() == 0 {
		return errors.Wrapf(ErrMalformedTrace, "%s: empty file", r.path)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrapf(err, "mmap %s", r.path)
	}
	// Access hint only; reading works the same without it.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	r.data = data
	return nil
}

func (r *Reader) readHeader() error {
	header, ok, err := r.nextLine()
	if err != nil {
		return err
	}
	if !ok || header == "" {
		return errors.Wrapf(ErrMalformedTrace, "%s: missing header row", r.path)
	}

	r.sep = DetectSeparator(header)
	r.columns = strings.Split(header, string(r.sep))
	r.colIndex = make(map[string]int, len(r.columns))
	for i, c := range r.columns {
		name := strings.TrimSpace(c)
		r.columns[i] = name
		if _, dup := r.colIndex[name]; !dup {
			r.colIndex[name] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		idx, present := r.colIndex[c]
		if !present {
			missing = append(missing, c)
			continue
		}
		if idx+1 > r.minWidth {
			r.minWidth = idx + 1
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrMalformedTrace, "%s: missing column(s) %s",
			r.path, strings.Join(missing, ", "))
	}
	return nil
}

// nextLine returns the next physical line without its terminator.
func (r *Reader) nextLine() (string, bool, error) {
	if r.lines != nil {
		if !r.lines.Scan() {
			if err := r.lines.Err(); err != nil {
				return "", false, errors.Wrapf(err, "read %s", r.path)
			}
			return "", false, nil
		}
		r.row++
		return r.lines.Text(), true, nil
	}

	if r.pos >= len(r.data) {
		return "", false, nil
	}
	line := r.data[r.pos:]
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
		r.pos += i + 1
	} else {
		r.pos = len(r.data)
	}
	line = bytes.TrimSuffix(line, []byte{'\r'})
	r.row++
	return string(line), true, nil
}

// Next returns the fields of the next data row.
//
// Rows that split into fewer fields than the required column span are
// dropped and counted rather than failing the read; blank lines are
// skipped. Returns (nil, false, nil) at end of input.
func (r *Reader) Next() ([]string, bool, error) {
	for {
		line, ok, err := r.nextLine()
		if err != nil || !ok {
			return nil, false, err
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, string(r.sep))
		if len(fields) < r.minWidth {
			r.dropped++
			continue
		}
		return fields, true, nil
	}
}

// Separator returns the detected field separator.
func (r *Reader) Separator() byte {
	return r.sep
}

// Columns returns the header names in file order.
func (r *Reader) Columns() []string {
	return r.columns
}

// ColumnIndex returns the position of a column in this file's header,
// or -1 when absent.
func (r *Reader) ColumnIndex(name string) int {
	if i, ok := r.colIndex[name]; ok {
		return i
	}
	return -1
}

// Row returns the physical row number of the most recently yielded line,
// counting the header as row 1.
func (r *Reader) Row() int64 {
	return r.row
}

// DroppedRows returns how many data rows were skipped for being too narrow.
func (r *Reader) DroppedRows() int64 {
	return r.dropped
}

// Close releases the mapping or decoder and closes the file.
func (r *Reader) Close() error {
	var first error
	if r.dec != nil {
		r.dec.Close()
		r.dec = nil
		r.lines = nil
	}
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil && first == nil {
			first = err
		}
		r.data = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil && first == nil {
			first = err
		}
		r.file = nil
	}
	return first
}
