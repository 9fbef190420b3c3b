package diskio

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lumidb/pagecache/errs"
	"github.com/lumidb/pagecache/storage/page"
)

// FileDisk is the default DiskProvider: one flat file, pages laid out
// at fixed page_id*page_size offsets. It carries no file header or
// free-space bookkeeping — those belong to a layer above this one —
// so allocation here is purely an internal monotonic counter.
type FileDisk struct {
	mu       sync.Mutex
	file     *os.File
	pageSize int
	numPages page.PageID
	closed   bool
}

// OpenFileDisk opens (creating if necessary) a flat file to back a
// buffer pool with the given fixed page size.
func OpenFileDisk(path string, pageSize int) (*FileDisk, error) {
	if pageSize <= 0 {
		return nil, errs.ErrInvalidPageSize
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("pagecache: opening disk file %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pagecache: stat disk file %s: %w", path, err)
	}
	return &FileDisk{
		file:     f,
		pageSize: pageSize,
		numPages: page.PageID(fi.Size() / int64(pageSize)),
	}, nil
}

func (d *FileDisk) PageSize() int { return d.pageSize }

func (d *FileDisk) ReadPage(id page.PageID, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.ErrDiskClosed
	}
	if len(dst) != d.pageSize {
		return errs.ErrInvalidPageSize
	}
	offset := int64(id) * int64(d.pageSize)
	n, err := d.file.ReadAt(dst, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("pagecache: reading page %d: %w", id, err)
	}
	// A page that was allocated but never written reads back as zeros;
	// a short read at EOF is padded with the zero value dst already
	// carries from the caller-supplied buffer.
	_ = n
	return nil
}

func (d *FileDisk) WritePage(id page.PageID, src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.ErrDiskClosed
	}
	if len(src) != d.pageSize {
		return errs.ErrInvalidPageSize
	}
	offset := int64(id) * int64(d.pageSize)
	if _, err := d.file.WriteAt(src, offset); err != nil {
		return fmt.Errorf("pagecache: writing page %d: %w", id, err)
	}
	return nil
}

func (d *FileDisk) AllocatePage() (page.PageID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return page.InvalidPageID, errs.ErrDiskClosed
	}
	id := d.numPages
	d.numPages++
	return id, nil
}

// DeallocatePage is a no-op: FileDisk keeps no on-disk free list.
func (d *FileDisk) DeallocatePage(page.PageID) error { return nil }

func (d *FileDisk) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errs.ErrDiskClosed
	}
	return d.file.Sync()
}

func (d *FileDisk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}
