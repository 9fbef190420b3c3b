package diskio

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/lumidb/pagecache/storage/page"
)

// ThrottledDisk wraps a DiskProvider with a token-bucket rate limit on
// reads and writes, so tests and the benchmark command can simulate a
// slow disk and exercise the buffer pool's structural-latch-released
// rendezvous under real contention rather than an instantaneous one.
type ThrottledDisk struct {
	DiskProvider
	reads  *rate.Limiter
	writes *rate.Limiter
}

// NewThrottledDisk wraps disk with independent read/write limiters,
// each permitting readsPerSec/writesPerSec page operations per second
// with a burst of one.
func NewThrottledDisk(disk DiskProvider, readsPerSec, writesPerSec float64) *ThrottledDisk {
	return &ThrottledDisk{
		DiskProvider: disk,
		reads:        rate.NewLimiter(rate.Limit(readsPerSec), 1),
		writes:       rate.NewLimiter(rate.Limit(writesPerSec), 1),
	}
}

func (t *ThrottledDisk) ReadPage(id page.PageID, dst []byte) error {
	if err := t.reads.Wait(context.Background()); err != nil {
		return err
	}
	return t.DiskProvider.ReadPage(id, dst)
}

func (t *ThrottledDisk) WritePage(id page.PageID, src []byte) error {
	if err := t.writes.Wait(context.Background()); err != nil {
		return err
	}
	return t.DiskProvider.WritePage(id, src)
}
