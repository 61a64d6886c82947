package pager

import (
	"sync"
	"sync/atomic"
)

// NoPage is the page number used when a page reference is absent (e.g. a
// leaf's right sibling at the end of the chain, or the parent of the root).
const NoPage int64 = -1

// Page caches one page's worth of bytes from an index or relation file and
// tracks the bookkeeping the Pager needs: how many callers currently hold
// a reference to it, whether it needs to be written back, and the lock
// guarding concurrent access to its bytes.
type Page struct {
	pager    *Pager       // Pager that owns this page
	pagenum  int64        // Unique identifier within the owning file
	pinCount atomic.Int64 // Number of active references to this page
	dirty    bool         // Whether the page has unwritten changes
	rwlock   sync.RWMutex // Lock on the page's bytes
	data     []byte       // The page's raw bytes
}

// GetPager returns the pager this page belongs to.
func (page *Page) GetPager() *Pager {
	return page.pager
}

// GetPageNum returns the page's pagenum (unique identifier).
func (page *Page) GetPageNum() int64 {
	return page.pagenum
}

// IsDirty reports whether the page's data has changed and needs to be written to disk.
func (page *Page) IsDirty() bool {
	return page.dirty
}

// SetDirty changes the dirty status of a page.
func (page *Page) SetDirty(dirty bool) {
	page.dirty = dirty
}

// GetData returns the byte data held by the page.
func (page *Page) GetData() []byte {
	return page.data
}

// Get increments the pin count, indicating that another process is using this page.
func (page *Page) Get() {
	page.pinCount.Add(1)
}

// Put decrements the pincount, indicating that a process is done using this page.
func (page *Page) Put() int64 {
	return page.pinCount.Add(-1)
}

// Update updates this page with `size` bytes of the the given data slice at the specified offset.
func (page *Page) Update(data []byte, offset int64, size int64) {
	page.dirty = true
	copy(page.data[offset:offset+size], data)
}

// WLock grabs a writer's lock on the page.
func (page *Page) WLock() {
	page.rwlock.Lock()
}

// WUnlock releases a writer's lock.
func (page *Page) WUnlock() {
	page.rwlock.Unlock()
}

// RLock grabs a reader's lock on the page.
func (page *Page) RLock() {
	page.rwlock.RLock()
}

// RUnlock releases a reader's lock.
func (page *Page) RUnlock() {
	page.rwlock.RUnlock()
}
