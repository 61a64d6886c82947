package btree

import (
	"relidx/pkg/pager"
	"relidx/pkg/recordid"
)

// StartScan begins a range scan over [low, high] after normalizing the
// admissible operator alphabet ({>, >=} for low, {<, <=} for high) into a
// closed integer interval. If a scan is already active, it is ended first
// (its pins released) before the new parameters are validated.
func (t *BTreeIndex) StartScan(low int64, lowOp string, high int64, highOp string) error {
	if t.scanActive {
		t.EndScan()
	}

	lo, err := normalizeLow(low, lowOp)
	if err != nil {
		return err
	}
	hi, err := normalizeHigh(high, highOp)
	if err != nil {
		return err
	}
	if lo > hi {
		return ErrBadScanrange
	}

	leafPN, pos, leafCount, err := t.descend(lo)
	if err != nil {
		return err
	}

	// Walk forward over exhausted leaves (the descent landed on a leaf
	// whose keys are all < lo) until a qualifying entry is found.
	for pos >= leafCount {
		page, err := t.pager.GetPage(leafPN)
		if err != nil {
			return err
		}
		next := asLeafNode(page).rightSibling()
		t.pager.PutPage(page)
		if next == NoPage {
			return ErrNoSuchKey
		}
		nextPage, err := t.pager.GetPage(next)
		if err != nil {
			return err
		}
		leafPN = next
		leafCount = asLeafNode(nextPage).numKeys()
		pos = 0
		t.pager.PutPage(nextPage)
	}

	page, err := t.pager.GetPage(leafPN)
	if err != nil {
		return err
	}
	if asLeafNode(page).key(pos) > hi {
		t.pager.PutPage(page)
		return ErrNoSuchKey
	}

	// Only the current leaf stays pinned; Next releases it as soon as it has
	// pinned the next one, so a scan's pin count never grows with the number
	// of leaves it crosses (spec.md §9's unpin-as-you-advance variant).
	t.scanPage = page
	t.scanCursor = scanCursor{pos: pos, count: leafCount, hi: hi}
	t.scanActive = true
	return nil
}

// normalizeLow converts (low, op) into the closed-interval lower bound.
func normalizeLow(low int64, op string) (int64, error) {
	switch op {
	case ">":
		return low + 1, nil
	case ">=":
		return low, nil
	default:
		return 0, ErrBadOpcodes
	}
}

// normalizeHigh converts (high, op) into the closed-interval upper bound.
func normalizeHigh(high int64, op string) (int64, error) {
	switch op {
	case "<":
		return high - 1, nil
	case "<=":
		return high, nil
	default:
		return 0, ErrBadOpcodes
	}
}

// currentLeafPage returns the leaf page the scan cursor currently sits on.
func (t *BTreeIndex) currentLeafPage() *pager.Page {
	return t.scanPage
}

// Next returns the locator at the scan cursor and advances it.
func (t *BTreeIndex) Next() (recordid.RecordID, error) {
	if !t.scanActive {
		return recordid.RecordID{}, ErrScanNotInitialized
	}
	if t.scanCursor.done {
		return recordid.RecordID{}, ErrScanCompleted
	}

	leaf := asLeafNode(t.currentLeafPage())

	if t.scanCursor.pos >= t.scanCursor.count || leaf.key(t.scanCursor.pos) > t.scanCursor.hi {
		t.scanCursor.done = true
		return recordid.RecordID{}, ErrScanCompleted
	}

	loc := leaf.locator(t.scanCursor.pos)
	t.scanCursor.pos++

	if t.scanCursor.pos < t.scanCursor.count {
		return loc, nil
	}

	// End of this leaf: advance to the right sibling, if any. The next leaf
	// is pinned first and the current one released right after, so between
	// calls the scan holds exactly one leaf regardless of how many it crosses.
	next := leaf.rightSibling()
	if next == NoPage {
		t.scanCursor.done = true
		return loc, nil
	}

	nextPage, err := t.pager.GetPage(next)
	if err != nil {
		return loc, err
	}
	t.pager.PutPage(t.scanPage)
	t.scanPage = nextPage
	t.scanCursor = scanCursor{pos: 0, count: asLeafNode(nextPage).numKeys(), hi: t.scanCursor.hi}
	return loc, nil
}

// EndScan releases the leaf pinned by the scan cursor and clears it. It is
// idempotent: calling it again (or after Next has already exhausted the
// scan) is a no-op beyond the ErrScanNotInitialized it returns when no scan
// is active.
func (t *BTreeIndex) EndScan() error {
	if !t.scanActive {
		return ErrScanNotInitialized
	}
	if t.scanPage != nil {
		t.pager.PutPage(t.scanPage)
		t.scanPage = nil
	}
	t.scanActive = false
	t.scanCursor = scanCursor{}
	return nil
}
