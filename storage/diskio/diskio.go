// Package diskio implements the disk provider collaborator: page-
// granular reads and writes on stable storage, consumed by the buffer
// pool on a cache miss or dirty eviction.
package diskio

import (
	"github.com/lumidb/pagecache/storage/page"
)

// DiskProvider is the interface the buffer pool depends on. It keeps
// strictly to page-granular I/O; a file header and free-space
// bookkeeping belong to a catalog layer above this one, not here.
type DiskProvider interface {
	// ReadPage fills dst (which must be exactly PageSize() bytes) with
	// the on-disk image of id. Blocking, idempotent for fully written
	// pages.
	ReadPage(id page.PageID, dst []byte) error

	// WritePage persists src for id. Blocking; a subsequent ReadPage of
	// id sees src once it returns. Sync forces it to stable storage.
	WritePage(id page.PageID, src []byte) error

	// AllocatePage returns a fresh page id, never reused within the
	// provider's lifetime.
	AllocatePage() (page.PageID, error)

	// DeallocatePage returns a page id's on-disk space, if the
	// provider tracks free space. The default FileDisk implementation
	// treats this as a no-op.
	DeallocatePage(id page.PageID) error

	// PageSize returns the fixed page size this provider was
	// constructed with.
	PageSize() int

	// Sync forces any buffered writes to stable storage.
	Sync() error

	// Close releases the provider's underlying resources.
	Close() error
}
