package btree

import "relidx/pkg/recordid"

// Insert adds (key, loc) to the tree, splitting leaves and internal nodes
// bottom-up as needed and growing the tree by replacing the root when the
// split reaches the top.
func (t *BTreeIndex) Insert(key int64, loc recordid.RecordID) error {
	leafPN, pos, leafCount, err := t.descend(key)
	if err != nil {
		return err
	}

	split, err := t.modifyLeaf(leafPN, pos, leafCount, key, loc)
	if err != nil {
		return err
	}
	if !split.did {
		return nil
	}

	wasLeafRoot := leafPN == t.rootPageID()
	leftPN, rightPN, pushUp := split.leftPN, split.rightPN, split.key

	for {
		parentPN, idx, parentCount, err := t.locateParent(leftPN, pushUp)
		if err != nil {
			return err
		}
		if parentPN == NoPage {
			return t.promoteRoot(leftPN, rightPN, pushUp, wasLeafRoot)
		}

		split, err = t.modifyInternal(parentPN, idx, parentCount, pushUp, leftPN, rightPN)
		if err != nil {
			return err
		}
		if !split.did {
			return nil
		}
		leftPN, rightPN, pushUp = split.leftPN, split.rightPN, split.key
		wasLeafRoot = false
	}
}

// splitResult carries the outcome of a modifyLeaf/modifyInternal call back
// to the caller: whether a split happened, and if so the two resulting
// page ids and the key being pushed up to the parent.
type splitResult struct {
	did     bool
	leftPN  int64
	rightPN int64
	key     int64
}

// modifyLeaf inserts (key, loc) into the leaf at leafPN at position pos.
// If the leaf has room it shifts entries right of pos and returns
// splitResult{did: false}. Otherwise it splits: a new right leaf is
// allocated, an L+1-element temporary (keys and locators, new entry in
// place) is built in memory, the left keeps ML+1 entries and the right
// keeps L-ML, the leaf chain is relinked, and the smallest key of the
// right leaf is copied up as the push-up key.
func (t *BTreeIndex) modifyLeaf(leafPN int64, pos int64, leafCount int64, key int64, loc recordid.RecordID) (splitResult, error) {
	page, err := t.pager.GetPage(leafPN)
	if err != nil {
		return splitResult{}, err
	}
	leaf := asLeafNode(page)

	if leafCount < L {
		for i := leafCount - 1; i >= pos; i-- {
			leaf.setEntry(i+1, leaf.key(i), leaf.locator(i))
		}
		leaf.setEntry(pos, key, loc)
		leaf.setNumKeys(leafCount + 1)
		leaf.finish()
		t.pager.PutPage(page)
		return splitResult{}, nil
	}

	tmpKeys := make([]int64, leafCount+1)
	tmpLocs := make([]recordid.RecordID, leafCount+1)
	for i, j := int64(0), int64(0); i < leafCount; i, j = i+1, j+1 {
		if i == pos {
			tmpKeys[j] = key
			tmpLocs[j] = loc
			j++
		}
		tmpKeys[j] = leaf.key(i)
		tmpLocs[j] = leaf.locator(i)
	}
	if pos == leafCount {
		tmpKeys[leafCount] = key
		tmpLocs[leafCount] = loc
	}

	rightPage, err := t.pager.GetNewPage()
	if err != nil {
		t.pager.PutPage(page)
		return splitResult{}, err
	}
	rightPN := rightPage.GetPageNum()
	rightLeaf := initLeafNode(rightPage, leaf.rightSibling())

	leftCount := ML + 1
	rightCount := (leafCount + 1) - leftCount

	for i := int64(0); i < leftCount; i++ {
		leaf.setEntry(i, tmpKeys[i], tmpLocs[i])
	}
	leaf.setNumKeys(leftCount)
	leaf.setRightSibling(rightPN)
	leaf.finish()

	for i := int64(0); i < rightCount; i++ {
		rightLeaf.setEntry(i, tmpKeys[leftCount+i], tmpLocs[leftCount+i])
	}
	rightLeaf.setNumKeys(rightCount)
	rightLeaf.finish()

	pushUp := tmpKeys[leftCount]

	t.pager.PutPage(page)
	t.pager.PutPage(rightPage)

	return splitResult{did: true, leftPN: leafPN, rightPN: rightPN, key: pushUp}, nil
}

// modifyInternal inserts the separator pushUp and the new right child
// rightPN into the internal node at parentPN, just after the existing
// child leftPN at index idx. If the node has room it shifts keys and
// children and returns splitResult{did: false}. Otherwise it splits
// analogously to modifyLeaf, but the middle key is moved up rather than
// copied, and no leaf-chain linking occurs.
func (t *BTreeIndex) modifyInternal(parentPN int64, idx int64, parentCount int64, pushUp int64, leftPN int64, rightPN int64) (splitResult, error) {
	page, err := t.pager.GetPage(parentPN)
	if err != nil {
		return splitResult{}, err
	}
	node := asInternalNode(page)

	if parentCount < N {
		for i := parentCount - 1; i >= idx; i-- {
			node.setKey(i+1, node.key(i))
		}
		for i := parentCount; i >= idx+1; i-- {
			node.setChild(i+1, node.child(i))
		}
		node.setKey(idx, pushUp)
		node.setChild(idx+1, rightPN)
		node.setNumKeys(parentCount + 1)
		node.finish()
		t.pager.PutPage(page)
		return splitResult{}, nil
	}

	tmpKeys := make([]int64, parentCount+1)
	tmpChildren := make([]int64, parentCount+2)
	for i, j := int64(0), int64(0); i < parentCount; i, j = i+1, j+1 {
		if i == idx {
			tmpKeys[j] = pushUp
			j++
		}
		tmpKeys[j] = node.key(i)
	}
	if idx == parentCount {
		tmpKeys[parentCount] = pushUp
	}
	for i, j := int64(0), int64(0); i <= parentCount; i, j = i+1, j+1 {
		tmpChildren[j] = node.child(i)
		if i == idx {
			j++
			tmpChildren[j] = rightPN
		}
	}

	rightPage, err := t.pager.GetNewPage()
	if err != nil {
		t.pager.PutPage(page)
		return splitResult{}, err
	}
	newRightPN := rightPage.GetPageNum()
	rightNode := initInternalNode(rightPage, node.level())

	leftCount := MN
	rightCount := N - MN

	for i := int64(0); i < leftCount; i++ {
		node.setKey(i, tmpKeys[i])
	}
	for i := int64(0); i <= leftCount; i++ {
		node.setChild(i, tmpChildren[i])
	}
	node.setNumKeys(leftCount)
	node.finish()

	for i := int64(0); i < rightCount; i++ {
		rightNode.setKey(i, tmpKeys[leftCount+1+i])
	}
	for i := int64(0); i <= rightCount; i++ {
		rightNode.setChild(i, tmpChildren[leftCount+1+i])
	}
	rightNode.setNumKeys(rightCount)
	rightNode.finish()

	movedUp := tmpKeys[leftCount]

	t.pager.PutPage(page)
	t.pager.PutPage(rightPage)

	return splitResult{did: true, leftPN: parentPN, rightPN: newRightPN, key: movedUp}, nil
}

// promoteRoot is reached when a split propagates past the root: it
// allocates a fresh internal page holding one separator and the two
// halves of the old root, and repoints the metadata page at it.
func (t *BTreeIndex) promoteRoot(leftPN, rightPN, separator int64, wasLeafRoot bool) error {
	newRootPage, err := t.pager.GetNewPage()
	if err != nil {
		return err
	}
	level := int64(0)
	if wasLeafRoot {
		level = 1
	}
	newRoot := initInternalNode(newRootPage, level)
	newRoot.setKey(0, separator)
	newRoot.setChild(0, leftPN)
	newRoot.setChild(1, rightPN)
	newRoot.setNumKeys(1)
	newRoot.finish()
	newRootPN := newRootPage.GetPageNum()
	t.pager.PutPage(newRootPage)

	if err := t.setRootPageID(newRootPN); err != nil {
		return err
	}
	return nil
}
