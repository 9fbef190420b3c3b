package diskio

import (
	"sync"

	"github.com/lumidb/pagecache/errs"
	"github.com/lumidb/pagecache/storage/page"
)

// MemDisk is an in-memory DiskProvider used by tests that need direct
// control over the initial on-disk contents without the overhead of a
// real file.
type MemDisk struct {
	mu       sync.Mutex
	pageSize int
	pages    map[page.PageID][]byte
	numPages page.PageID
	closed   bool
}

func NewMemDisk(pageSize int) *MemDisk {
	return &MemDisk{
		pageSize: pageSize,
		pages:    make(map[page.PageID][]byte),
	}
}

// Seed installs raw bytes for id directly, bypassing AllocatePage, so
// tests can set up disk contents pages are expected to already have.
func (d *MemDisk) Seed(id page.PageID, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := make([]byte, d.pageSize)
	copy(buf, data)
	d.pages[id] = buf
	if id >= d.numPages {
		d.numPages = id + 1
	}
}

func (d *MemDisk) PageSize() int { return d.pageSize }

func (d *MemDisk) ReadPage(id page.PageID, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.ErrDiskClosed
	}
	if len(dst) != d.pageSize {
		return errs.ErrInvalidPageSize
	}
	if src, ok := d.pages[id]; ok {
		copy(dst, src)
		return nil
	}
	for i := range dst {
		dst[i] = 0
	}
	return nil
}

func (d *MemDisk) WritePage(id page.PageID, src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.ErrDiskClosed
	}
	if len(src) != d.pageSize {
		return errs.ErrInvalidPageSize
	}
	buf := make([]byte, d.pageSize)
	copy(buf, src)
	d.pages[id] = buf
	return nil
}

func (d *MemDisk) AllocatePage() (page.PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return page.InvalidPageID, errs.ErrDiskClosed
	}
	id := d.numPages
	d.numPages++
	return id, nil
}

func (d *MemDisk) DeallocatePage(id page.PageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pages, id)
	return nil
}

func (d *MemDisk) Sync() error { return nil }

func (d *MemDisk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
