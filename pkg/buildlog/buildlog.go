// Package buildlog writes a plain-text diagnostics trail of index lifecycle
// events (file create/open, bulk-load progress, teardown failures) tagged
// with a build-session id, and can tail an existing log without reading it
// in full.
package buildlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/icza/backscanner"
)

// Log writes one line per event to an underlying io.Writer.
type Log struct {
	w         io.Writer
	sessionID uuid.UUID
}

// New wraps w with a fresh build-session id.
func New(w io.Writer) *Log {
	return &Log{w: w, sessionID: uuid.New()}
}

// Open creates or appends to a log file at path.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Log{w: f, sessionID: uuid.New()}, nil
}

// Eventf writes a timestamped, session-tagged line to the log.
func (l *Log) Eventf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.w, "%s [%s] %s\n", time.Now().UTC().Format(time.RFC3339), l.sessionID, msg)
}

// Close closes the log's backing writer, if it is an io.Closer.
func (l *Log) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Tail returns the last n lines of the log file at path, most recent last,
// without reading the file from the front - useful for checking on a build
// that appears stuck.
func Tail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	scanner := backscanner.New(f, int(info.Size()))
	lines := make([]string, 0, n)
	first := true
	for len(lines) < n {
		line, _, err := scanner.Line()
		if err != nil {
			break
		}
		// Every event ends with a newline, so the first segment read
		// backwards is the empty text after the final newline, not a line.
		if first {
			first = false
			if line == "" {
				continue
			}
		}
		lines = append(lines, line)
	}
	// backscanner yields most-recent-first; reverse to chronological order.
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return lines, nil
}
