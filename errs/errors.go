// Package errs holds the sentinel errors shared by the page cache
// components: buffer pool and disk provider.
package errs

import "errors"

var (
	// ErrOutOfFrames is returned by NewPage/FetchPage when the pool has
	// no free frame and the replacer has no evictable frame.
	ErrOutOfFrames = errors.New("pagecache: no free or evictable frame in buffer pool")

	// ErrPageNotFound is logged by UnpinPage when it returns false
	// because the page is not currently resident.
	ErrPageNotFound = errors.New("pagecache: page not resident in buffer pool")

	// ErrPinUnderflow is logged by UnpinPage when it returns false
	// because the page's pin count is already zero.
	ErrPinUnderflow = errors.New("pagecache: unpin called on a page with pin count zero")

	// ErrPageStillPinned is logged by DeletePage when it returns false
	// because the page has outstanding pins.
	ErrPageStillPinned = errors.New("pagecache: cannot delete a pinned page")

	// ErrInvalidPageSize is returned by disk providers when a caller
	// supplies a buffer that does not match the configured page size.
	ErrInvalidPageSize = errors.New("pagecache: buffer size does not match page size")

	// ErrDiskClosed is returned by a disk provider once Close has been called.
	ErrDiskClosed = errors.New("pagecache: disk provider is closed")
)
