package btree

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Verify walks the whole tree and checks the invariants of spec §8:
// separator ordering, strictly ascending keys, and that capacities and
// minimum occupancies are respected. Whether a child is a leaf is taken
// from its parent's level and is not itself checked. It returns the first
// violation found, or nil if the tree is well formed.
//
// visited tracks every page number touched, via a bitset sized to the
// pager's current page count, so a cyclic or dangling child pointer is
// caught rather than walked forever.
func (t *BTreeIndex) Verify() error {
	numPages := uint(t.pager.GetNumPages())
	visited := bitset.New(numPages)
	rootPN := t.rootPageID()
	visited.Set(uint(rootPN))

	page, err := t.pager.GetPage(rootPN)
	if err != nil {
		return err
	}
	defer t.pager.PutPage(page)
	if verr := verifyChecksum(page); verr != nil {
		return verr
	}

	if t.rootIsLeaf() {
		return t.verifyLeaf(asLeafNode(page), nil, nil, true)
	}
	return t.verifyInternal(asInternalNode(page), nil, nil, true, visited)
}

// verifyLeaf checks that keys are strictly ascending and fall within
// [lo, hi), and that occupancy respects capacity.
func (t *BTreeIndex) verifyLeaf(leaf *leafNode, lo, hi *int64, isRoot bool) error {
	count := leaf.numKeys()
	if count > L {
		return fmt.Errorf("btree: verify: leaf key-count %d exceeds capacity %d", count, L)
	}
	if !isRoot && count < ML {
		return fmt.Errorf("btree: verify: leaf key-count %d below minimum %d", count, ML)
	}
	var prev *int64
	for i := int64(0); i < count; i++ {
		k := leaf.key(i)
		if prev != nil && k <= *prev {
			return fmt.Errorf("btree: verify: leaf keys not strictly ascending at index %d", i)
		}
		if lo != nil && k < *lo {
			return fmt.Errorf("btree: verify: leaf key %d below lower bound %d", k, *lo)
		}
		if hi != nil && k >= *hi {
			return fmt.Errorf("btree: verify: leaf key %d at or above upper bound %d", k, *hi)
		}
		kk := k
		prev = &kk
	}
	return nil
}

// verifyInternal checks separator ordering and recurses into every child,
// dispatching directly to verifyLeaf when level == 1 so a level-1 child's
// leaf-vs-internal identity never has to be rediscovered from its page
// bytes alone.
func (t *BTreeIndex) verifyInternal(node *internalNode, lo, hi *int64, isRoot bool, visited *bitset.BitSet) error {
	count := node.numKeys()
	if count > N {
		return fmt.Errorf("btree: verify: internal key-count %d exceeds capacity %d", count, N)
	}
	if !isRoot && count < MN {
		return fmt.Errorf("btree: verify: internal key-count %d below minimum %d", count, MN)
	}

	var prevKey *int64
	for i := int64(0); i < count; i++ {
		k := node.key(i)
		if prevKey != nil && k <= *prevKey {
			return fmt.Errorf("btree: verify: internal keys not strictly ascending at index %d", i)
		}
		kk := k
		prevKey = &kk
	}

	for i := int64(0); i <= count; i++ {
		childLo, childHi := lo, hi
		if i > 0 {
			k := node.key(i - 1)
			childLo = &k
		}
		if i < count {
			k := node.key(i)
			childHi = &k
		}
		childPN := node.child(i)

		if node.level() == 1 {
			cpage, err := t.pager.GetPage(childPN)
			if err != nil {
				return err
			}
			if uint(childPN) < visited.Len() {
				if visited.Test(uint(childPN)) {
					t.pager.PutPage(cpage)
					return fmt.Errorf("btree: verify: page %d visited twice (cycle?)", childPN)
				}
				visited.Set(uint(childPN))
			}
			if verr := verifyChecksum(cpage); verr != nil {
				t.pager.PutPage(cpage)
				return verr
			}
			leaf := asLeafNode(cpage)
			err = t.verifyLeaf(leaf, childLo, childHi, false)
			t.pager.PutPage(cpage)
			if err != nil {
				return err
			}
			continue
		}

		if err := t.verifyInternalChild(childPN, childLo, childHi, visited); err != nil {
			return err
		}
	}
	return nil
}

// verifyInternalChild recurses into a deeper (level == 0) internal child.
func (t *BTreeIndex) verifyInternalChild(pn int64, lo, hi *int64, visited *bitset.BitSet) error {
	if uint(pn) >= visited.Len() {
		return fmt.Errorf("btree: verify: page %d out of range", pn)
	}
	if visited.Test(uint(pn)) {
		return fmt.Errorf("btree: verify: page %d visited twice (cycle?)", pn)
	}
	visited.Set(uint(pn))

	page, err := t.pager.GetPage(pn)
	if err != nil {
		return err
	}
	defer t.pager.PutPage(page)
	if verr := verifyChecksum(page); verr != nil {
		return verr
	}
	return t.verifyInternal(asInternalNode(page), lo, hi, false, visited)
}
