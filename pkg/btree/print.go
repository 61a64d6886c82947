package btree

import (
	"fmt"
	"io"
)

// Print writes a human-readable dump of the whole tree to w, starting at
// the current root.
func (t *BTreeIndex) Print(w io.Writer) error {
	return t.printPN(w, t.rootPageID(), "")
}

// PrintPN writes a human-readable dump of the internal page pn and
// everything beneath it to w. pn is read as an internal node unless it is
// the root leaf; any other leaf is printed only through its parent.
func (t *BTreeIndex) PrintPN(w io.Writer, pn int64) error {
	return t.printPN(w, pn, "")
}

func (t *BTreeIndex) printPN(w io.Writer, pn int64, prefix string) error {
	page, err := t.pager.GetPage(pn)
	if err != nil {
		return err
	}
	defer t.pager.PutPage(page)

	if pn == RootPN && t.rootIsLeaf() {
		printLeaf(w, asLeafNode(page), pn, prefix)
		return nil
	}

	node := asInternalNode(page)
	if node.level() == 1 {
		printInternal(w, node, pn, prefix)
		for i := int64(0); i <= node.numKeys(); i++ {
			childPage, err := t.pager.GetPage(node.child(i))
			if err != nil {
				return err
			}
			printLeaf(w, asLeafNode(childPage), node.child(i), prefix+"  ")
			t.pager.PutPage(childPage)
		}
		return nil
	}

	printInternal(w, node, pn, prefix)
	for i := int64(0); i <= node.numKeys(); i++ {
		if err := t.printPN(w, node.child(i), prefix+"  "); err != nil {
			return err
		}
	}
	return nil
}

func printLeaf(w io.Writer, leaf *leafNode, pn int64, prefix string) {
	fmt.Fprintf(w, "%s[%d] leaf size:%d\n", prefix, pn, leaf.numKeys())
	for i := int64(0); i < leaf.numKeys(); i++ {
		loc := leaf.locator(i)
		fmt.Fprintf(w, "%s  |--> (%d, %s)\n", prefix, leaf.key(i), loc.String())
	}
	if sib := leaf.rightSibling(); sib != NoPage {
		fmt.Fprintf(w, "%s  |--+ right sibling @ [%d]\n", prefix, sib)
	}
}

func printInternal(w io.Writer, node *internalNode, pn int64, prefix string) {
	fmt.Fprintf(w, "%s[%d] internal level:%d size:%d\n", prefix, pn, node.level(), node.numKeys())
	for i := int64(0); i < node.numKeys(); i++ {
		fmt.Fprintf(w, "%s  |--> key %d\n", prefix, node.key(i))
	}
}
