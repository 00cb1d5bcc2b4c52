// =============================================================================
// logger.go - Console/File Dual Logging
// =============================================================================
//
// Diagnostics go to stderr so stdout carries only the statistics tables and
// stays safe to pipe. --log-file tees the same stream into a file for later
// inspection.
//
// OUTPUT FORMAT:
//
//   Log messages follow this format:
//     [2026-01-15 14:30:45.123] message text here
//
//   Separators look like:
//     =========================================================================
//
// CONCURRENCY:
//
//   The logger is safe for concurrent use from multiple goroutines.
//   All write operations are protected by a mutex.
//
// =============================================================================

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	// separatorLine is the visual separator used in logs
	separatorLine = "========================================================================="

	// logBufferSize is the buffer size for the log file writer
	logBufferSize = 64 * 1024 // 64 KB

	// timeFormat is the timestamp format for log messages
	timeFormat = "2006-01-02 15:04:05.000"
)

// Logger writes timestamped diagnostics to stderr and, when a log file is
// configured, tees the same lines into it.
//
// USAGE:
//
//	logger, err := NewLogger("/path/to/run.log")
//	if err != nil {
//	    // handle error
//	}
//	defer logger.Close()
//
//	logger.Info("Processing %d files", n)
//	logger.Error("Something went wrong: %v", err)
//	logger.Separator()
type Logger struct {
	// mu protects all fields
	mu sync.Mutex

	// console receives every line; os.Stderr outside of tests
	console io.Writer

	// file and writer are nil when no log file is configured
	file   *os.File
	writer *bufio.Writer
}

// NewLogger creates a Logger. logPath may be empty for stderr-only logging;
// when set, the file is recreated fresh each run.
func NewLogger(logPath string) (*Logger, error) {
	l := &Logger{console: os.Stderr}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		l.file = f
		l.writer = bufio.NewWriterSize(f, logBufferSize)
	}
	return l, nil
}

// emit writes one line to every sink. Callers hold the mutex.
func (l *Logger) emit(line string) {
	fmt.Fprintln(l.console, line)
	if l.writer != nil {
		fmt.Fprintln(l.writer, line)
	}
}

// Info logs an informational message with a timestamp prefix.
// Supports printf-style formatting.
func (l *Logger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.emit(fmt.Sprintf("[%s] %s", time.Now().Format(timeFormat), fmt.Sprintf(format, args...)))
}

// Error logs an error message with a timestamp and ERROR: prefix.
// Supports printf-style formatting.
func (l *Logger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.emit(fmt.Sprintf("[%s] ERROR: %s", time.Now().Format(timeFormat), fmt.Sprintf(format, args...)))
}

// Separator logs a visual separator line.
func (l *Logger) Separator() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.emit(separatorLine)
}

// Sync forces a flush of the log file buffer to disk.
func (l *Logger) Sync() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer != nil {
		l.writer.Flush()
	}
	if l.file != nil {
		l.file.Sync()
	}
}

// Close flushes and closes the log file. It is safe to call Close() more
// than once.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer != nil {
		l.writer.Flush()
		l.writer = nil
	}
	if l.file != nil {
		l.file.Sync()
		l.file.Close()
		l.file = nil
	}
}
