package btree

import (
	"encoding/binary"

	"relidx/pkg/pager"
	"relidx/pkg/recordid"
)

// MetadataPN and RootPN are the two page ids every index file reserves,
// regardless of whether the root has since migrated off RootPN. Page
// numbers in this package are the pager's own zero-based ids: the
// metadata page is always the first page allocated, the initial leaf
// root the second.
const (
	MetadataPN int64 = 0
	RootPN     int64 = 1
)

// NoPage is the sentinel page id meaning "no such page" - the right
// sibling of the last leaf, or the parent of the root.
const NoPage int64 = pager.NoPage

// ChecksumSize is the width of the xxhash checksum stored at the front of
// every page this package writes.
const ChecksumSize int64 = 8

// KeySize is the on-disk width of a key, varint-encoded into a
// fixed-size slot the same way the teacher's entry package encodes keys.
const KeySize int64 = binary.MaxVarintLen64

// PNSize is the on-disk width of a page id, varint-encoded.
const PNSize int64 = binary.MaxVarintLen64

// RelationNameCap bounds the relation name stored on the metadata page.
const RelationNameCap int64 = 120

// Metadata page layout.
const (
	metaRelNameOffset    int64 = ChecksumSize
	metaKeyOffsetOffset  int64 = metaRelNameOffset + RelationNameCap
	metaKeyOffsetSize    int64 = 4
	metaKeyTypeOffset    int64 = metaKeyOffsetOffset + metaKeyOffsetSize
	metaKeyTypeSize      int64 = 1
	metaRootPageIDOffset int64 = metaKeyTypeOffset + metaKeyTypeSize
	metaRootPageIDSize   int64 = PNSize
)

// Leaf node header layout: checksum, key-count, right sibling.
const (
	leafNumKeysOffset  int64 = ChecksumSize
	leafNumKeysSize    int64 = binary.MaxVarintLen64
	leafSiblingOffset  int64 = leafNumKeysOffset + leafNumKeysSize
	leafSiblingSize    int64 = PNSize
	leafHeaderSize     int64 = leafSiblingOffset + leafSiblingSize
	leafEntrySize      int64 = KeySize + recordid.Size
	leafEntriesOffset  int64 = leafHeaderSize
)

// L is the number of (key, locator) pairs a leaf page can hold.
var L = (pager.Pagesize - leafHeaderSize) / leafEntrySize

// ML is floor(L/2), the minimum key-count on the smaller side of a leaf split.
var ML = L / 2

// Internal node header layout: checksum, level, key-count.
const (
	internalLevelOffset   int64 = ChecksumSize
	internalLevelSize     int64 = binary.MaxVarintLen64
	internalNumKeysOffset int64 = internalLevelOffset + internalLevelSize
	internalNumKeysSize   int64 = binary.MaxVarintLen64
	internalHeaderSize    int64 = internalNumKeysOffset + internalNumKeysSize
)

// N is the number of separator keys an internal page can hold; it always
// has N+1 children slots alongside them.
var N = func() int64 {
	ptrSpace := pager.Pagesize - internalHeaderSize
	// n*KeySize + (n+1)*PNSize <= ptrSpace
	return (ptrSpace/PNSize - 1) / 2
}()

// MN is floor(N/2), the minimum key-count on the smaller side of an
// internal split.
var MN = N / 2

const (
	internalKeysOffset int64 = internalHeaderSize
)

var internalChildrenOffset = internalKeysOffset + KeySize*N
