// Package page defines the fixed-size in-memory frame that the buffer
// pool manages: raw bytes plus the metadata needed to track residency,
// pinning, and dirtiness, and the reader-writer latch that protects the
// frame's payload independently of the buffer pool's structural latch.
package page

import "sync"

// PageID identifies a page on disk. It is opaque outside this module;
// callers should not assume anything about its ordering beyond the
// guarantee that AllocatePage never returns the same id twice within a
// disk provider's lifetime.
type PageID int32

// InvalidPageID is never allocated and never resident. A frame whose
// PageID equals InvalidPageID is empty.
const InvalidPageID PageID = -1

// FrameID indexes a frame slot within a buffer pool, in [0, pool_size).
type FrameID int

// Page is one fixed-size buffer pool frame: the payload bytes plus the
// metadata that identifies what, if anything, currently occupies it.
//
// Frame metadata (id, pin count, dirty bit) is mutated only while the
// owning buffer pool's structural latch is held; that invariant is
// enforced by the caller, not by Page itself. The payload latch below
// is independent and orthogonal to that structural latch — see the
// buffer package's doc comment for the lock ordering rule.
type Page struct {
	id       PageID
	data     []byte
	pinCount int
	isDirty  bool

	latch sync.RWMutex
}

// New allocates a Page with a zeroed payload of the given size.
func New(size int) *Page {
	return &Page{
		id:   InvalidPageID,
		data: make([]byte, size),
	}
}

// Reset returns the frame to its empty state and zeroes its payload.
// Callers must hold the frame's write latch, or know no other holder
// can observe the frame (e.g. it is being recycled by the buffer pool
// under the structural latch, before any latch has been handed out).
func (p *Page) Reset() {
	p.id = InvalidPageID
	p.pinCount = 0
	p.isDirty = false
	for i := range p.data {
		p.data[i] = 0
	}
}

// Data returns the frame's raw bytes. Reading them safely requires
// holding the frame's read (or write) latch.
func (p *Page) Data() []byte { return p.data }

// ID returns the page id currently resident in this frame, or
// InvalidPageID if the frame is empty.
func (p *Page) ID() PageID { return p.id }

// SetID installs a page id in this frame.
func (p *Page) SetID(id PageID) { p.id = id }

// PinCount returns the number of outstanding pins on this frame.
func (p *Page) PinCount() int { return p.pinCount }

// SetPinCount overwrites the pin count directly; used when a frame is
// installed fresh by NewPage/FetchPage.
func (p *Page) SetPinCount(n int) { p.pinCount = n }

// Pin increments the pin count by one.
func (p *Page) Pin() { p.pinCount++ }

// Unpin decrements the pin count by one. It is a no-op, not an error,
// when the count is already zero — callers are expected to have
// checked PinCount() first; see buffer.Pool.UnpinPage for the caller
// contract that actually surfaces the pin-underflow error.
func (p *Page) Unpin() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// IsDirty reports whether the frame's bytes differ from their on-disk
// image.
func (p *Page) IsDirty() bool { return p.isDirty }

// SetDirty overwrites the dirty bit directly.
func (p *Page) SetDirty(dirty bool) { p.isDirty = dirty }

// MarkDirty ORs true into the dirty bit. Per spec, unpinning with
// is_dirty=false must never clear a bit a concurrent pinner already
// set — only MarkDirty(true) and the post-flush reset touch the bit
// outside of frame installation.
func (p *Page) MarkDirty(dirty bool) {
	if dirty {
		p.isDirty = true
	}
}

// RLock acquires the frame's payload latch for reading.
func (p *Page) RLock() { p.latch.RLock() }

// RUnlock releases the frame's payload read latch.
func (p *Page) RUnlock() { p.latch.RUnlock() }

// Lock acquires the frame's payload latch for writing.
func (p *Page) Lock() { p.latch.Lock() }

// Unlock releases the frame's payload write latch.
func (p *Page) Unlock() { p.latch.Unlock() }

// TryLock attempts to acquire the payload write latch without blocking.
func (p *Page) TryLock() bool { return p.latch.TryLock() }
