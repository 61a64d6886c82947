package btree

import (
	"math"

	"relidx/pkg/cursor"
	"relidx/pkg/recordid"
)

// ScanCursor adapts StartScan/Next/EndScan to the cursor.Cursor interface
// so a full-tree or bounded walk can be handed to code written against
// that interface instead of the scan API directly.
type ScanCursor struct {
	index   *BTreeIndex
	current recordid.RecordID
	err     error
	started bool
}

// CursorAtStart returns a ScanCursor walking every entry in the tree in
// ascending key order.
func (t *BTreeIndex) CursorAtStart() (cursor.Cursor, error) {
	if err := t.StartScan(math.MinInt64, ">=", math.MaxInt64, "<="); err != nil {
		return nil, err
	}
	return &ScanCursor{index: t}, nil
}

// CursorAt returns a ScanCursor walking every entry with key >= key, in
// ascending order.
func (t *BTreeIndex) CursorAt(key int64) (cursor.Cursor, error) {
	if err := t.StartScan(key, ">=", math.MaxInt64, "<="); err != nil {
		return nil, err
	}
	return &ScanCursor{index: t}, nil
}

// Next advances the cursor, returning true once it has run out of entries.
func (c *ScanCursor) Next() bool {
	loc, err := c.index.Next()
	if err != nil {
		c.err = err
		return true
	}
	c.current = loc
	c.started = true
	return false
}

// GetRecordID returns the locator at the cursor's current position.
func (c *ScanCursor) GetRecordID() (recordid.RecordID, error) {
	if !c.started {
		return recordid.RecordID{}, ErrScanNotInitialized
	}
	return c.current, nil
}

// Close ends the underlying scan, releasing its pinned leaves.
func (c *ScanCursor) Close() {
	c.index.EndScan()
}
