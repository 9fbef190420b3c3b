package buffer

import (
	"unsafe"

	"github.com/lumidb/pagecache/storage/page"
)

// BasicGuard owns exactly one pin on a page and releases it exactly
// once via an explicit Release call: Go has no destructors, so the
// caller must defer g.Release() (or call Drop() to release while
// discarding the dirty mark) the way it would defer a mutex Unlock.
//
// A BasicGuard does not itself hold the frame's payload latch — call
// Read or Write to obtain a latched ReadGuard/WriteGuard.
type BasicGuard struct {
	pool     *Pool
	pg       *page.Page
	isDirty  bool
	released bool
}

func newBasicGuard(pool *Pool, pg *page.Page) *BasicGuard {
	return &BasicGuard{pool: pool, pg: pg}
}

// PageID returns the id of the page this guard holds a pin on.
func (g *BasicGuard) PageID() page.PageID { return g.pg.ID() }

// Data returns the frame's raw bytes. The caller must hold a read or
// write guard obtained via Read/Write before touching them
// concurrently with other pinners; BasicGuard alone only guarantees
// the frame will not be evicted or recycled.
func (g *BasicGuard) Data() []byte { return g.pg.Data() }

// MarkDirty flags the page as dirty so Release will propagate it to
// the buffer pool's OR-semantics dirty bit. Drop discards the mark.
func (g *BasicGuard) MarkDirty() { g.isDirty = true }

// Release unpins the page, passing along whatever dirtiness was
// recorded via MarkDirty. Safe to call more than once; only the first
// call has an effect.
func (g *BasicGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.pool.UnpinPage(g.pg.ID(), g.isDirty, AccessUnknown)
}

// Drop releases the guard, explicitly discarding any pending dirty
// mark, so this unpin does not set the frame's dirty bit. The frame's
// bytes are not restored: a dirty bit set by another pinner, a
// FlushPage, or Close still writes whatever the frame holds.
func (g *BasicGuard) Drop() {
	g.isDirty = false
	g.Release()
}

// Read upgrades this guard into a ReadGuard, acquiring the frame's
// payload read latch. The BasicGuard must not be used again after
// this call; the returned ReadGuard now owns the pin.
func (g *BasicGuard) Read() *ReadGuard {
	g.pg.RLock()
	rg := &ReadGuard{basic: *g}
	g.released = true // ownership transferred
	return rg
}

// Write upgrades this guard into a WriteGuard, acquiring the frame's
// payload write latch. The BasicGuard must not be used again after
// this call; the returned WriteGuard now owns the pin.
func (g *BasicGuard) Write() *WriteGuard {
	g.pg.Lock()
	wg := &WriteGuard{basic: *g}
	g.released = true // ownership transferred
	return wg
}

// ReadGuard pairs a pin with the frame's payload read latch, held
// jointly until Release.
type ReadGuard struct {
	basic BasicGuard
}

func (g *ReadGuard) PageID() page.PageID { return g.basic.pg.ID() }
func (g *ReadGuard) Data() []byte        { return g.basic.pg.Data() }

// Release unlatches then unpins, in that order: the payload latch is
// released before the embedded BasicGuard's pin.
func (g *ReadGuard) Release() {
	if g.basic.released {
		return
	}
	g.basic.pg.RUnlock()
	g.basic.Release()
}

// WriteGuard pairs a pin with the frame's payload write latch, held
// jointly until Release. Any write through a WriteGuard implicitly
// dirties the page on Release.
type WriteGuard struct {
	basic BasicGuard
}

func (g *WriteGuard) PageID() page.PageID { return g.basic.pg.ID() }
func (g *WriteGuard) Data() []byte        { return g.basic.pg.Data() }

// Release unlatches then unpins as dirty: holding a write guard at
// all implies mutation.
func (g *WriteGuard) Release() {
	if g.basic.released {
		return
	}
	g.basic.pg.Unlock()
	g.basic.isDirty = true
	g.basic.Release()
}

// FetchPageBasic fetches id and wraps it in a BasicGuard, the Go
// analogue of BufferPoolManager::FetchPageBasic.
func (p *Pool) FetchPageBasic(id page.PageID, at AccessType) (*BasicGuard, error) {
	pg, err := p.FetchPage(id, at)
	if err != nil {
		return nil, err
	}
	return newBasicGuard(p, pg), nil
}

// FetchPageRead fetches id and returns it already latched for
// reading, the Go analogue of BufferPoolManager::FetchPageRead.
func (p *Pool) FetchPageRead(id page.PageID, at AccessType) (*ReadGuard, error) {
	g, err := p.FetchPageBasic(id, at)
	if err != nil {
		return nil, err
	}
	return g.Read(), nil
}

// FetchPageWrite fetches id and returns it already latched for
// writing, the Go analogue of BufferPoolManager::FetchPageWrite.
func (p *Pool) FetchPageWrite(id page.PageID, at AccessType) (*WriteGuard, error) {
	g, err := p.FetchPageBasic(id, at)
	if err != nil {
		return nil, err
	}
	return g.Write(), nil
}

// NewPageGuarded allocates a fresh page and wraps it in a BasicGuard,
// the Go analogue of BufferPoolManager::NewPageGuarded.
func (p *Pool) NewPageGuarded() (*BasicGuard, page.PageID, error) {
	pg, id, err := p.NewPage()
	if err != nil {
		return nil, page.InvalidPageID, err
	}
	return newBasicGuard(p, pg), id, nil
}

// As reinterprets a guard's raw bytes as *T without copying. T must
// be a fixed-layout struct no larger than the page size; the caller
// is responsible for the same layout stability a raw disk format
// always requires.
func As[T any](data []byte) *T {
	return (*T)(unsafe.Pointer(&data[0]))
}
