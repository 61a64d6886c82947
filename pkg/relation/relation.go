// Package relation implements the minimal base-relation heap file that the
// B+Tree index's bulk-build path consumes: fixed-width records packed into
// pager-backed pages, addressable by (page id, slot) and readable back as
// an ordered scan.
package relation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"relidx/pkg/pager"
	"relidx/pkg/recordid"

	"github.com/spaolacci/murmur3"
)

// ErrEndOfFile is returned by Cursor.Next once every record in the
// relation has been yielded.
var ErrEndOfFile = errors.New("relation: end of file")

// ErrFileNotFound is returned by Remove when the backing file does not exist.
var ErrFileNotFound = errors.New("relation: file not found")

// countSize is the width of a page's live-slot counter.
const countSize int64 = binary.MaxVarintLen64

// Heap is a fixed-width-record heap file: records are appended to the last
// page with room, never moved once written, and read back in (page, slot)
// order by Scan.
type Heap struct {
	pager      *pager.Pager
	recordSize int64
	slotsPerPn int64
}

// Create makes a new, empty heap file at path for records of recordSize
// bytes.
func Create(path string, recordSize int64) (*Heap, error) {
	p, err := pager.New(path)
	if err != nil {
		return nil, err
	}
	slots := (pager.Pagesize - countSize) / recordSize
	if slots < 1 {
		return nil, fmt.Errorf("relation: record size %d too large for a page", recordSize)
	}
	return &Heap{pager: p, recordSize: recordSize, slotsPerPn: slots}, nil
}

// Open reopens an existing heap file at path, assuming the given record
// width (the heap file stores no schema of its own - the caller, usually
// the index being built, is the source of truth for recordSize).
func Open(path string, recordSize int64) (*Heap, error) {
	return Create(path, recordSize)
}

// Close flushes and closes the heap file's backing pager.
func (h *Heap) Close() error {
	return h.pager.Close()
}

// Remove deletes the heap file at path, reporting ErrFileNotFound instead
// of the raw os error when the file does not exist - callers cleaning up
// a prior run's relation before a rebuild can recover from that case.
func Remove(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return err
	}
	return nil
}

func (h *Heap) slotOffset(slot int64) int64 {
	return countSize + slot*h.recordSize
}

func (h *Heap) pageCount(page *pager.Page) int64 {
	raw := page.GetData()[:countSize]
	n, _ := binary.Varint(raw)
	return n
}

func (h *Heap) setPageCount(page *pager.Page, count int64) {
	buf := make([]byte, countSize)
	binary.PutVarint(buf, count)
	page.Update(buf, 0, countSize)
}

// InsertRecord appends data (which must be exactly recordSize bytes) to the
// last page with room, allocating a new page if necessary, and returns the
// RecordID the record was written at.
func (h *Heap) InsertRecord(data []byte) (recordid.RecordID, error) {
	if int64(len(data)) != h.recordSize {
		return recordid.RecordID{}, fmt.Errorf("relation: record is %d bytes, want %d", len(data), h.recordSize)
	}

	numPages := h.pager.GetNumPages()
	if numPages > 0 {
		lastPN := numPages - 1
		page, err := h.pager.GetPage(lastPN)
		if err != nil {
			return recordid.RecordID{}, err
		}
		count := h.pageCount(page)
		if count < h.slotsPerPn {
			page.Update(data, h.slotOffset(count), h.recordSize)
			h.setPageCount(page, count+1)
			h.pager.PutPage(page)
			return recordid.New(lastPN, count), nil
		}
		h.pager.PutPage(page)
	}

	page, err := h.pager.GetNewPage()
	if err != nil {
		return recordid.RecordID{}, err
	}
	pn := page.GetPageNum()
	h.setPageCount(page, 1)
	page.Update(data, h.slotOffset(0), h.recordSize)
	h.pager.PutPage(page)
	return recordid.New(pn, 0), nil
}

// Fingerprint hashes every live record in page order with murmur3,
// producing a content fingerprint cheap enough to log alongside a build so
// a later run can tell whether the source relation changed underneath it.
func (h *Heap) Fingerprint() (uint64, error) {
	hasher := murmur3.New64()
	cur := h.Scan()
	for {
		data, _, err := cur.Next()
		if err == ErrEndOfFile {
			break
		}
		if err != nil {
			return 0, err
		}
		hasher.Write(data)
	}
	return hasher.Sum64(), nil
}

// Cursor walks a Heap's records in (page, slot) order.
type Cursor struct {
	heap    *Heap
	pn      int64
	slot    int64
	numPn   int64
	curPage *pager.Page
	count   int64
}

// Scan returns a Cursor positioned before the first record.
func (h *Heap) Scan() *Cursor {
	return &Cursor{heap: h, pn: 0, slot: 0, numPn: h.pager.GetNumPages()}
}

// Next returns the next record's bytes and its RecordID, or ErrEndOfFile
// once the relation is exhausted.
func (c *Cursor) Next() ([]byte, recordid.RecordID, error) {
	for {
		if c.pn >= c.numPn {
			c.closeCurrent()
			return nil, recordid.RecordID{}, ErrEndOfFile
		}
		if c.curPage == nil {
			page, err := c.heap.pager.GetPage(c.pn)
			if err != nil {
				return nil, recordid.RecordID{}, err
			}
			c.curPage = page
			c.count = c.heap.pageCount(page)
		}
		if c.slot >= c.count {
			c.closeCurrent()
			c.pn++
			c.slot = 0
			continue
		}
		off := c.heap.slotOffset(c.slot)
		data := make([]byte, c.heap.recordSize)
		copy(data, c.curPage.GetData()[off:off+c.heap.recordSize])
		loc := recordid.New(c.pn, c.slot)
		c.slot++
		return data, loc, nil
	}
}

func (c *Cursor) closeCurrent() {
	if c.curPage != nil {
		c.heap.pager.PutPage(c.curPage)
		c.curPage = nil
	}
}

// Close releases any page the cursor is still holding. Safe to call after
// the cursor has already been exhausted.
func (c *Cursor) Close() {
	c.closeCurrent()
}
