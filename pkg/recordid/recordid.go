// Package recordid defines the locator type that ties an index entry back
// to a tuple in a base relation's heap file.
package recordid

import (
	"encoding/binary"
	"fmt"
)

// Size is the number of bytes a marshaled RecordID occupies.
const Size = binary.MaxVarintLen64 * 2

// RecordID identifies a tuple inside a base relation's heap file by the
// page that holds it and the tuple's slot within that page.
type RecordID struct {
	PageNum int64
	SlotNum int64
}

// New constructs a RecordID from a page number and slot number.
func New(pageNum, slotNum int64) RecordID {
	return RecordID{PageNum: pageNum, SlotNum: slotNum}
}

// Marshal serializes the RecordID into a fixed-size byte slice.
func (r RecordID) Marshal() []byte {
	buf := make([]byte, Size)
	binary.PutVarint(buf, r.PageNum)
	binary.PutVarint(buf[binary.MaxVarintLen64:], r.SlotNum)
	return buf
}

// Unmarshal deserializes a RecordID from a byte slice of at least Size bytes.
func Unmarshal(data []byte) RecordID {
	pageNum, _ := binary.Varint(data[:binary.MaxVarintLen64])
	slotNum, _ := binary.Varint(data[binary.MaxVarintLen64:Size])
	return RecordID{PageNum: pageNum, SlotNum: slotNum}
}

// String formats the RecordID as (page,slot), the form the btree package's
// Print dump uses for leaf locators.
func (r RecordID) String() string {
	return fmt.Sprintf("(%d,%d)", r.PageNum, r.SlotNum)
}
