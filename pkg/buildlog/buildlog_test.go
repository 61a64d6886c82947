package buildlog_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"relidx/pkg/buildlog"
)

func TestEventfWritesTimestampedSessionTaggedLine(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := buildlog.New(&buf)

	log.Eventf("bulk build %s: %d records inserted", "rel.0", 42)

	line := buf.String()
	if !strings.Contains(line, "bulk build rel.0: 42 records inserted") {
		t.Fatalf("log line missing expected message: %q", line)
	}
	if !strings.Contains(line, "[") || !strings.Contains(line, "]") {
		t.Fatalf("log line missing session tag: %q", line)
	}
}

func TestTwoLogsGetDistinctSessionIDs(t *testing.T) {
	t.Parallel()
	var buf1, buf2 bytes.Buffer
	log1 := buildlog.New(&buf1)
	log2 := buildlog.New(&buf2)

	log1.Eventf("event")
	log2.Eventf("event")

	if buf1.String() == buf2.String() {
		t.Fatal("two independently-opened logs produced identical lines, expected distinct session ids")
	}
}

func TestTailReturnsLastNLinesInChronologicalOrder(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "build.log")
	log, err := buildlog.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		log.Eventf("event %d", i)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines, err := buildlog.Tail(path, 3)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, want := range []string{"event 7", "event 8", "event 9"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d: got %q, want it to contain %q", i, lines[i], want)
		}
	}
}

func TestTailOnShortLogReturnsWhatExists(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "build.log")
	log, err := buildlog.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	log.Eventf("only event")
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines, err := buildlog.Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
}
