// Package utils provides the temp-file, relation-building and scan-draining
// helpers shared by the B+Tree and pager test suites.
package utils

import (
	"encoding/binary"
	"math/rand"
	"path/filepath"
	"testing"

	"relidx/pkg/btree"
	"relidx/pkg/recordid"
	"relidx/pkg/relation"
)

// Salt scales generated test values so tests don't hardcode magic numbers.
var Salt int64 = rand.Int63n(1000) + 1

// RecordSize is the fixed record width test relations use: an 8-byte
// little-endian key at KeyOffset plus 8 bytes of filler.
const RecordSize int64 = 16

// KeyOffset is the byte offset test relations store their key at.
const KeyOffset int32 = 0

// TempPath returns a path to a not-yet-existing file named name under a
// fresh temp directory that is removed automatically when the test ends.
func TempPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

// BuildRelation creates a heap file at path and inserts one fixed-width
// record per key in keys, in the order given, with the key encoded at
// KeyOffset. The caller owns the returned heap and must Close it. The
// returned map records the locator the heap actually assigned each key,
// since that - not any formula over the key - is what a correct scan must
// reproduce.
func BuildRelation(t *testing.T, path string, keys []int64) (*relation.Heap, map[int64]recordid.RecordID) {
	t.Helper()
	rel, err := relation.Create(path, RecordSize)
	if err != nil {
		t.Fatalf("failed to create relation at %s: %v", path, err)
	}
	locs := make(map[int64]recordid.RecordID, len(keys))
	for _, k := range keys {
		rec := make([]byte, RecordSize)
		binary.LittleEndian.PutUint64(rec[KeyOffset:], uint64(k))
		loc, err := rel.InsertRecord(rec)
		if err != nil {
			t.Fatalf("failed to insert record for key %d: %v", k, err)
		}
		locs[k] = loc
	}
	return rel, locs
}

// OpenIndexOverKeys bulk-builds a B+Tree index from a fresh relation
// containing one record per key in keys, in the order given, and returns
// the resulting index, the locator each key was actually assigned, and the
// relation path the index was derived from (needed by ReopenIndex). The
// caller must Close the index.
func OpenIndexOverKeys(t *testing.T, keys []int64) (*btree.BTreeIndex, map[int64]recordid.RecordID, string) {
	t.Helper()
	dir := t.TempDir()
	relPath := filepath.Join(dir, "rel")
	rel, locs := BuildRelation(t, relPath, keys)

	index, _, err := btree.OpenIndex(relPath, KeyOffset, btree.KeyTypeInt, rel, filepath.Join(dir, "build.log"))
	rel.Close()
	if err != nil {
		t.Fatalf("failed to open index over %d keys: %v", len(keys), err)
	}
	return index, locs, relPath
}

// OpenEmptyIndex creates a fresh, empty B+Tree index with no relation
// behind it, ready for direct Insert calls. The caller must Close it.
func OpenEmptyIndex(t *testing.T) *btree.BTreeIndex {
	t.Helper()
	dir := t.TempDir()
	relPath := filepath.Join(dir, "rel")
	index, _, err := btree.OpenIndex(relPath, KeyOffset, btree.KeyTypeInt, nil, filepath.Join(dir, "build.log"))
	if err != nil {
		t.Fatalf("failed to open empty index: %v", err)
	}
	return index
}

// ReopenIndex closes index and reopens the same on-disk file fresh,
// forcing the reopened index to read everything back from disk rather
// than from the pager's in-memory buffer.
func ReopenIndex(t *testing.T, relPath string, index *btree.BTreeIndex) *btree.BTreeIndex {
	t.Helper()
	if err := index.Close(); err != nil {
		t.Fatalf("failed to close index before reopen: %v", err)
	}
	dir := filepath.Dir(relPath)
	reopened, _, err := btree.OpenIndex(relPath, KeyOffset, btree.KeyTypeInt, nil, filepath.Join(dir, "build.log"))
	if err != nil {
		t.Fatalf("failed to reopen index at %s: %v", relPath, err)
	}
	return reopened
}

// DrainScan exhausts the scan currently active on index, in the order
// Next() yields entries, then ends the scan. Fails the test on any error
// other than the expected ErrScanCompleted at the end.
func DrainScan(t *testing.T, index *btree.BTreeIndex) []recordid.RecordID {
	t.Helper()
	var out []recordid.RecordID
	for {
		loc, err := index.Next()
		if err == btree.ErrScanCompleted {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error from Next during drain: %v", err)
		}
		out = append(out, loc)
	}
	if err := index.EndScan(); err != nil {
		t.Fatalf("EndScan after drain failed: %v", err)
	}
	return out
}

// Shuffled returns a deterministically-seeded random permutation of
// 0..n-1, so "random order" tests are reproducible across runs.
func Shuffled(n int64, seed int64) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = int64(i)
	}
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	return keys
}

// Descending returns the sequence n-1, n-2, ..., 0.
func Descending(n int64) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = n - 1 - int64(i)
	}
	return keys
}

// Ascending returns the sequence 0, 1, ..., n-1.
func Ascending(n int64) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = int64(i)
	}
	return keys
}
