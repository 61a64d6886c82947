package btree

// descend walks from the root to the leaf that would hold key, returning
// the leaf's page id, the position within the leaf where key belongs (the
// first index whose key is >= the search key, or the leaf's key-count if
// none), and the leaf's current key-count.
//
// Comparison is >= throughout: an internal node follows child(i) for the
// first separator key(i) >= key, so a key equal to a separator proceeds to
// that separator's left-hand child, and the returned position may then be
// the leaf's key-count (StartScan steps on to the right sibling in that
// case). This is the counterpart to locateParent's strict >, and the
// asymmetry between the two is load-bearing - see locateParent.
func (t *BTreeIndex) descend(key int64) (leafPN int64, pos int64, leafCount int64, err error) {
	pn := t.rootPageID()
	for {
		page, err := t.pager.GetPage(pn)
		if err != nil {
			return 0, 0, 0, err
		}
		if pn == RootPN && t.rootIsLeaf() {
			leaf := asLeafNode(page)
			if verr := verifyChecksum(page); verr != nil {
				t.pager.PutPage(page)
				return 0, 0, 0, verr
			}
			count := leaf.numKeys()
			p := firstGE(count, func(i int64) int64 { return leaf.key(i) }, key)
			t.pager.PutPage(page)
			return pn, p, count, nil
		}
		node := asInternalNode(page)
		if verr := verifyChecksum(page); verr != nil {
			t.pager.PutPage(page)
			return 0, 0, 0, verr
		}
		count := node.numKeys()
		i := firstGE(count, func(i int64) int64 { return node.key(i) }, key)
		childPN := node.child(i)
		atLeafParent := node.level() == 1
		t.pager.PutPage(page)
		if atLeafParent {
			leafPage, err := t.pager.GetPage(childPN)
			if err != nil {
				return 0, 0, 0, err
			}
			leaf := asLeafNode(leafPage)
			if verr := verifyChecksum(leafPage); verr != nil {
				t.pager.PutPage(leafPage)
				return 0, 0, 0, verr
			}
			leafCount := leaf.numKeys()
			p := firstGE(leafCount, func(i int64) int64 { return leaf.key(i) }, key)
			t.pager.PutPage(leafPage)
			return childPN, p, leafCount, nil
		}
		pn = childPN
	}
}

// locateParent finds the internal node whose chosen child, under a strict
// > descent on separator, equals childPN. Returns the sentinel page id if
// childPN is the root.
//
// The strict > comparison (vs descend's >=) is what makes a freshly split
// left child land at the slot whose key equals the separator that was just
// promoted for it, rather than one slot further right.
func (t *BTreeIndex) locateParent(childPN int64, separator int64) (parentPN int64, idx int64, parentCount int64, err error) {
	if childPN == t.rootPageID() {
		return NoPage, 0, 0, nil
	}
	pn := t.rootPageID()
	for {
		page, err := t.pager.GetPage(pn)
		if err != nil {
			return 0, 0, 0, err
		}
		node := asInternalNode(page)
		if verr := verifyChecksum(page); verr != nil {
			t.pager.PutPage(page)
			return 0, 0, 0, verr
		}
		count := node.numKeys()
		i := firstGT(count, func(i int64) int64 { return node.key(i) }, separator)
		chosen := node.child(i)
		t.pager.PutPage(page)
		if chosen == childPN {
			return pn, i, count, nil
		}
		pn = chosen
	}
}

// rootIsLeaf reports whether the current root is still the initial leaf
// allocated at index creation (page id RootPN, before the first split).
func (t *BTreeIndex) rootIsLeaf() bool {
	return t.rootPageID() == RootPN
}

// firstGE returns the first index in [0, count) whose key (via at) is
// >= target, or count if none qualify.
func firstGE(count int64, at func(int64) int64, target int64) int64 {
	lo, hi := int64(0), count
	for lo < hi {
		mid := (lo + hi) / 2
		if at(mid) >= target {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// firstGT returns the first index in [0, count) whose key (via at) is
// > target, or count if none qualify.
func firstGT(count int64, at func(int64) int64, target int64) int64 {
	lo, hi := int64(0), count
	for lo < hi {
		mid := (lo + hi) / 2
		if at(mid) > target {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
