package btree

import (
	"encoding/binary"

	"relidx/pkg/config"
	"relidx/pkg/pager"
	"relidx/pkg/recordid"

	"github.com/cespare/xxhash"
)

// KeyType tags which attribute type a metadata page's key_byte_offset was
// built over. Only KeyTypeInt is accepted by OpenIndex; the other two exist
// so the on-disk layout matches the wire format bit-for-bit.
type KeyType int32

const (
	KeyTypeInt KeyType = iota
	KeyTypeDouble
	KeyTypeString
)

// writeChecksum stamps the xxhash of everything past the checksum field
// itself into the first ChecksumSize bytes of the page.
func writeChecksum(page *pager.Page) {
	if !config.ChecksumPages {
		return
	}
	sum := xxhash.Sum64(page.GetData()[ChecksumSize:])
	buf := make([]byte, ChecksumSize)
	binary.BigEndian.PutUint64(buf, sum)
	page.Update(buf, 0, ChecksumSize)
}

// verifyChecksum reports ErrPageChecksum if the page's stored checksum does
// not match its current contents.
func verifyChecksum(page *pager.Page) error {
	if !config.ChecksumPages {
		return nil
	}
	want := binary.BigEndian.Uint64(page.GetData()[:ChecksumSize])
	got := xxhash.Sum64(page.GetData()[ChecksumSize:])
	if want != got {
		return ErrPageChecksum
	}
	return nil
}

// metadataPage is a typed view over the index's metadata page (page id 1).
type metadataPage struct {
	page *pager.Page
}

func asMetadataPage(page *pager.Page) *metadataPage {
	return &metadataPage{page: page}
}

func initMetadataPage(page *pager.Page, relationName string, keyByteOffset int32, keyType KeyType, rootPN int64) *metadataPage {
	m := &metadataPage{page: page}
	m.setRelationName(relationName)
	m.setKeyByteOffset(keyByteOffset)
	m.setKeyType(keyType)
	m.setRootPageID(rootPN)
	writeChecksum(page)
	return m
}

func (m *metadataPage) relationName() string {
	raw := m.page.GetData()[metaRelNameOffset : metaRelNameOffset+RelationNameCap]
	end := 0
	for end < len(raw) && raw[end] != 0 {
		end++
	}
	return string(raw[:end])
}

func (m *metadataPage) setRelationName(name string) {
	buf := make([]byte, RelationNameCap)
	copy(buf, name)
	m.page.Update(buf, metaRelNameOffset, RelationNameCap)
}

func (m *metadataPage) keyByteOffset() int32 {
	raw := m.page.GetData()[metaKeyOffsetOffset : metaKeyOffsetOffset+metaKeyOffsetSize]
	return int32(binary.BigEndian.Uint32(raw))
}

func (m *metadataPage) setKeyByteOffset(offset int32) {
	buf := make([]byte, metaKeyOffsetSize)
	binary.BigEndian.PutUint32(buf, uint32(offset))
	m.page.Update(buf, metaKeyOffsetOffset, metaKeyOffsetSize)
}

func (m *metadataPage) keyType() KeyType {
	return KeyType(m.page.GetData()[metaKeyTypeOffset])
}

func (m *metadataPage) setKeyType(kt KeyType) {
	buf := []byte{byte(kt)}
	m.page.Update(buf, metaKeyTypeOffset, metaKeyTypeSize)
}

func (m *metadataPage) rootPageID() int64 {
	raw := m.page.GetData()[metaRootPageIDOffset : metaRootPageIDOffset+metaRootPageIDSize]
	pn, _ := binary.Varint(raw)
	return pn
}

func (m *metadataPage) setRootPageID(pn int64) {
	buf := make([]byte, metaRootPageIDSize)
	binary.PutVarint(buf, pn)
	m.page.Update(buf, metaRootPageIDOffset, metaRootPageIDSize)
	writeChecksum(m.page)
}

// leafNode is a typed view over a leaf page: sorted keys and locators plus
// a forward sibling pointer, no node-type discriminant (position in the
// tree tells a reader whether a page is a leaf).
type leafNode struct {
	page *pager.Page
}

func asLeafNode(page *pager.Page) *leafNode {
	return &leafNode{page: page}
}

func initLeafNode(page *pager.Page, rightSibling int64) *leafNode {
	blank := make([]byte, pager.Pagesize)
	page.Update(blank, 0, pager.Pagesize)
	n := &leafNode{page: page}
	n.setNumKeys(0)
	n.setRightSibling(rightSibling)
	writeChecksum(page)
	return n
}

func (n *leafNode) numKeys() int64 {
	raw := n.page.GetData()[leafNumKeysOffset : leafNumKeysOffset+leafNumKeysSize]
	v, _ := binary.Varint(raw)
	return v
}

func (n *leafNode) setNumKeys(count int64) {
	buf := make([]byte, leafNumKeysSize)
	binary.PutVarint(buf, count)
	n.page.Update(buf, leafNumKeysOffset, leafNumKeysSize)
}

func (n *leafNode) rightSibling() int64 {
	raw := n.page.GetData()[leafSiblingOffset : leafSiblingOffset+leafSiblingSize]
	v, _ := binary.Varint(raw)
	return v
}

func (n *leafNode) setRightSibling(pn int64) {
	buf := make([]byte, leafSiblingSize)
	binary.PutVarint(buf, pn)
	n.page.Update(buf, leafSiblingOffset, leafSiblingSize)
}

func (n *leafNode) entryOffset(i int64) int64 {
	return leafEntriesOffset + i*leafEntrySize
}

func (n *leafNode) key(i int64) int64 {
	off := n.entryOffset(i)
	raw := n.page.GetData()[off : off+KeySize]
	v, _ := binary.Varint(raw)
	return v
}

func (n *leafNode) locator(i int64) recordid.RecordID {
	off := n.entryOffset(i) + KeySize
	return recordid.Unmarshal(n.page.GetData()[off : off+recordid.Size])
}

// setEntry writes the key and locator at slot i and refreshes the checksum.
func (n *leafNode) setEntry(i int64, key int64, loc recordid.RecordID) {
	off := n.entryOffset(i)
	keyBuf := make([]byte, KeySize)
	binary.PutVarint(keyBuf, key)
	n.page.Update(keyBuf, off, KeySize)
	n.page.Update(loc.Marshal(), off+KeySize, recordid.Size)
	writeChecksum(n.page)
}

// finish refreshes the checksum after a batch of setNumKeys/setEntry calls.
func (n *leafNode) finish() {
	writeChecksum(n.page)
}

// internalNode is a typed view over an internal page: a level tag, sorted
// separator keys, and one more child pointer than it has keys.
type internalNode struct {
	page *pager.Page
}

func asInternalNode(page *pager.Page) *internalNode {
	return &internalNode{page: page}
}

func initInternalNode(page *pager.Page, level int64) *internalNode {
	blank := make([]byte, pager.Pagesize)
	page.Update(blank, 0, pager.Pagesize)
	n := &internalNode{page: page}
	n.setLevel(level)
	n.setNumKeys(0)
	writeChecksum(page)
	return n
}

func (n *internalNode) level() int64 {
	raw := n.page.GetData()[internalLevelOffset : internalLevelOffset+internalLevelSize]
	v, _ := binary.Varint(raw)
	return v
}

func (n *internalNode) setLevel(level int64) {
	buf := make([]byte, internalLevelSize)
	binary.PutVarint(buf, level)
	n.page.Update(buf, internalLevelOffset, internalLevelSize)
}

func (n *internalNode) numKeys() int64 {
	raw := n.page.GetData()[internalNumKeysOffset : internalNumKeysOffset+internalNumKeysSize]
	v, _ := binary.Varint(raw)
	return v
}

func (n *internalNode) setNumKeys(count int64) {
	buf := make([]byte, internalNumKeysSize)
	binary.PutVarint(buf, count)
	n.page.Update(buf, internalNumKeysOffset, internalNumKeysSize)
}

func (n *internalNode) key(i int64) int64 {
	off := internalKeysOffset + i*KeySize
	raw := n.page.GetData()[off : off+KeySize]
	v, _ := binary.Varint(raw)
	return v
}

func (n *internalNode) setKey(i int64, key int64) {
	off := internalKeysOffset + i*KeySize
	buf := make([]byte, KeySize)
	binary.PutVarint(buf, key)
	n.page.Update(buf, off, KeySize)
}

func (n *internalNode) child(i int64) int64 {
	off := internalChildrenOffset + i*PNSize
	raw := n.page.GetData()[off : off+PNSize]
	v, _ := binary.Varint(raw)
	return v
}

func (n *internalNode) setChild(i int64, pn int64) {
	off := internalChildrenOffset + i*PNSize
	buf := make([]byte, PNSize)
	binary.PutVarint(buf, pn)
	n.page.Update(buf, off, PNSize)
}

func (n *internalNode) finish() {
	writeChecksum(n.page)
}
