// Package buffer implements the buffer pool manager and LRU-K
// replacer: the page table, free list, pin lifecycle, and eviction
// machinery that sits between the disk provider and the higher-level
// page guards.
//
// Lock ordering: the pool's structural latch is acquired first, then
// the replacer's own internal latch (held only inside the structural
// latch), then, only after a frame is already pinned, its per-frame
// payload latch. A per-frame latch must never be held while waiting
// on the structural latch.
package buffer

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumidb/pagecache/errs"
	"github.com/lumidb/pagecache/storage/diskio"
	"github.com/lumidb/pagecache/storage/page"
)

// LogManager is a narrow calling-convention hook for recovery
// integration: Sync must return once every log record produced so far
// is durable. The pool calls it before writing back a dirty victim;
// this module keeps that call site without implementing a WAL engine
// of its own.
type LogManager interface {
	Sync() error
}

// Options bundles the buffer pool's optional ambient collaborators.
// A nil Options, or nil fields within one, fall back to no-ops.
type Options struct {
	Logger     *zap.Logger
	LogManager LogManager
	Metrics    MetricsRecorder
}

// MetricsRecorder receives buffer pool events. See the telemetry
// package for the OpenTelemetry-backed implementation; tests can
// supply a stub or leave it nil.
type MetricsRecorder interface {
	RecordHit()
	RecordMiss()
	RecordEviction()
	RecordFramesInUse(n int)
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Hits         uint64
	Misses       uint64
	Evictions    uint64
	FramesInUse  int
	PoolSize     int
}

// Pool is the buffer pool manager: it owns every frame, the page
// table, the free list, and the replacer, and mediates all access to
// them behind a single structural latch.
type Pool struct {
	mu   sync.Mutex
	cond *sync.Cond

	InstanceID uuid.UUID
	log        *zap.Logger
	logManager LogManager
	metrics    MetricsRecorder

	disk     diskio.DiskProvider
	pageSize int
	poolSize int

	frames    []*page.Page
	pageTable map[page.PageID]page.FrameID
	freeList  []page.FrameID
	loading   map[page.PageID]bool // pages mid-fetch: structural latch released for disk I/O

	replacer *LRUKReplacer

	nextPageID page.PageID
	hits       uint64
	misses     uint64
	evictions  uint64
}

// NewPool constructs a buffer pool of poolSize frames backed by disk,
// using an LRU-K replacer with history depth replacerK. opts may be
// nil.
func NewPool(poolSize, replacerK int, disk diskio.DiskProvider, opts *Options) *Pool {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("component", "buffer_pool"))

	p := &Pool{
		InstanceID: uuid.New(),
		log:        log,
		logManager: opts.LogManager,
		metrics:    opts.Metrics,
		disk:       disk,
		pageSize:   disk.PageSize(),
		poolSize:   poolSize,
		frames:     make([]*page.Page, poolSize),
		pageTable:  make(map[page.PageID]page.FrameID, poolSize),
		freeList:   make([]page.FrameID, poolSize),
		loading:    make(map[page.PageID]bool),
		replacer:   NewLRUKReplacer(poolSize, replacerK, log),
	}
	for i := 0; i < poolSize; i++ {
		p.frames[i] = page.New(p.pageSize)
		p.freeList[i] = page.FrameID(i)
	}
	p.cond = sync.NewCond(&p.mu)
	log.Info("buffer pool initialized",
		zap.String("instance_id", p.InstanceID.String()),
		zap.Int("pool_size", poolSize),
		zap.Int("replacer_k", replacerK),
		zap.Int("page_size", p.pageSize),
	)
	return p
}

// acquireFrame implements the shared frame-acquisition algorithm: pop
// the free list if non-empty, else evict a victim, flushing it first
// if dirty. Must be called with p.mu held.
func (p *Pool) acquireFrame() (page.FrameID, error) {
	if n := len(p.freeList); n > 0 {
		fid := p.freeList[0]
		p.freeList = p.freeList[1:]
		return fid, nil
	}

	fid, ok := p.replacer.Evict()
	if !ok {
		return 0, errs.ErrOutOfFrames
	}
	p.evictions++
	if p.metrics != nil {
		p.metrics.RecordEviction()
	}

	victim := p.frames[fid]
	oldID := victim.ID()
	if victim.IsDirty() {
		if p.logManager != nil {
			if err := p.logManager.Sync(); err != nil {
				return 0, fmt.Errorf("pagecache: syncing log before evicting frame %d: %w", fid, err)
			}
		}
		victim.RLock()
		err := p.disk.WritePage(oldID, victim.Data())
		victim.RUnlock()
		if err != nil {
			return 0, fmt.Errorf("pagecache: flushing dirty victim page %d: %w", oldID, err)
		}
		victim.SetDirty(false)
	}
	if oldID != page.InvalidPageID {
		delete(p.pageTable, oldID)
	}
	victim.Reset()
	p.log.Debug("evicted frame", zap.Int("frame_id", int(fid)), zap.Int32("old_page_id", int32(oldID)))
	return fid, nil
}

// NewPage allocates a fresh page id, installs it in a frame pinned
// once, and returns the zeroed frame. Returns errs.ErrOutOfFrames if
// no frame is free or evictable.
func (p *Pool) NewPage() (*page.Page, page.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, err := p.acquireFrame()
	if err != nil {
		return nil, page.InvalidPageID, err
	}

	id := p.nextPageID
	p.nextPageID++

	frame := p.frames[fid]
	frame.SetID(id)
	frame.SetPinCount(1)
	p.pageTable[id] = fid
	p.replacer.RecordAccess(fid, AccessUnknown)
	p.replacer.SetEvictable(fid, false)
	p.recordFramesInUse()

	p.log.Debug("new page", zap.Int32("page_id", int32(id)), zap.Int("frame_id", int(fid)))
	return frame, id, nil
}

// FetchPage returns the frame holding id, pinned once more, reading
// from disk on a miss. Returns errs.ErrOutOfFrames if no frame can be
// obtained, or a wrapped disk error if the read fails.
//
// The structural latch is released across the disk read (a rendezvous
// variant): the frame is reserved and marked loading under the latch
// first, so a concurrent fetch of the same id waits on a condition
// variable instead of issuing a second read.
func (p *Pool) FetchPage(id page.PageID, at AccessType) (*page.Page, error) {
	p.mu.Lock()

	for {
		fid, ok := p.pageTable[id]
		if !ok {
			break
		}
		if p.loading[id] {
			p.cond.Wait()
			continue
		}
		frame := p.frames[fid]
		frame.Pin()
		p.replacer.RecordAccess(fid, at)
		p.replacer.SetEvictable(fid, false)
		p.hits++
		if p.metrics != nil {
			p.metrics.RecordHit()
		}
		p.mu.Unlock()
		return frame, nil
	}

	fid, err := p.acquireFrame()
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}

	frame := p.frames[fid]
	frame.SetID(id)
	frame.SetPinCount(1)
	p.pageTable[id] = fid
	p.loading[id] = true
	p.replacer.RecordAccess(fid, at)
	p.replacer.SetEvictable(fid, false)
	p.misses++
	if p.metrics != nil {
		p.metrics.RecordMiss()
	}
	p.recordFramesInUse()
	p.mu.Unlock()

	frame.Lock()
	err = p.disk.ReadPage(id, frame.Data())
	frame.Unlock()

	p.mu.Lock()
	delete(p.loading, id)
	p.cond.Broadcast()
	if err != nil {
		p.unwindFailedLoad(fid, id)
		p.mu.Unlock()
		return nil, fmt.Errorf("pagecache: reading page %d from disk: %w", id, err)
	}
	p.mu.Unlock()

	p.log.Debug("fetched page from disk", zap.Int32("page_id", int32(id)), zap.Int("frame_id", int(fid)))
	return frame, nil
}

// unwindFailedLoad rolls back a frame reservation whose disk read
// failed, returning the frame to the free list. Must be called with
// p.mu held.
func (p *Pool) unwindFailedLoad(fid page.FrameID, id page.PageID) {
	frame := p.frames[fid]
	frame.SetPinCount(0)
	delete(p.pageTable, id)
	p.replacer.SetEvictable(fid, true)
	p.replacer.Remove(fid)
	frame.Reset()
	p.freeList = append(p.freeList, fid)
}

// UnpinPage decrements id's pin count and ORs isDirty into its dirty
// bit (never clearing an already-set bit). Returns false if id is not
// resident or its pin count was already zero.
func (p *Pool) UnpinPage(id page.PageID, isDirty bool, at AccessType) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[id]
	if !ok {
		p.log.Debug("unpin on non-resident page", zap.Int32("page_id", int32(id)), zap.Error(errs.ErrPageNotFound))
		return false
	}
	frame := p.frames[fid]
	if frame.PinCount() == 0 {
		p.log.Debug("unpin underflow", zap.Int32("page_id", int32(id)), zap.Error(errs.ErrPinUnderflow))
		return false
	}
	frame.Unpin()
	frame.MarkDirty(isDirty)
	if frame.PinCount() == 0 {
		p.replacer.SetEvictable(fid, true)
	}
	return true
}

// FlushPage writes id's current bytes to disk unconditionally and
// clears its dirty bit on success. Returns false if id is not
// resident. The structural latch is held for the whole call, the same
// way acquireFrame holds it across a dirty victim's write-back on
// eviction: releasing it around the disk write would let a concurrent
// UnpinPage mark the frame dirty again between the write and the bit
// being cleared, silently dropping that write.
func (p *Pool) FlushPage(id page.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[id]
	if !ok {
		return false
	}
	frame := p.frames[fid]

	if p.logManager != nil {
		if err := p.logManager.Sync(); err != nil {
			p.log.Error("failed syncing log before flush", zap.Int32("page_id", int32(id)), zap.Error(err))
			return false
		}
	}

	frame.RLock()
	err := p.disk.WritePage(id, frame.Data())
	frame.RUnlock()
	if err != nil {
		p.log.Error("failed flushing page", zap.Int32("page_id", int32(id)), zap.Error(err))
		return false
	}
	frame.SetDirty(false)
	return true
}

// FlushAllPages flushes every resident page, then syncs the disk
// provider.
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	ids := make([]page.PageID, 0, len(p.pageTable))
	for id := range p.pageTable {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if !p.FlushPage(id) {
			if firstErr == nil {
				firstErr = fmt.Errorf("pagecache: failed flushing page %d", id)
			}
		}
	}
	if err := p.disk.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// DeletePage removes id from the pool. Succeeds trivially (idempotent
// deletion) if id is not resident. Fails if id is resident and pinned.
func (p *Pool) DeletePage(id page.PageID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	fid, ok := p.pageTable[id]
	if !ok {
		return true
	}
	frame := p.frames[fid]
	if frame.PinCount() > 0 {
		p.log.Debug("delete on pinned page", zap.Int32("page_id", int32(id)), zap.Error(errs.ErrPageStillPinned))
		return false
	}

	if frame.IsDirty() {
		if p.logManager != nil {
			if err := p.logManager.Sync(); err != nil {
				p.log.Error("failed syncing log before delete", zap.Int32("page_id", int32(id)), zap.Error(err))
				return false
			}
		}
		frame.RLock()
		err := p.disk.WritePage(id, frame.Data())
		frame.RUnlock()
		if err != nil {
			p.log.Error("failed flushing page before delete", zap.Int32("page_id", int32(id)), zap.Error(err))
			return false
		}
		frame.SetDirty(false)
	}

	delete(p.pageTable, id)
	p.replacer.Remove(fid)
	frame.Reset()
	p.freeList = append(p.freeList, fid)
	p.recordFramesInUse()

	if err := p.disk.DeallocatePage(id); err != nil {
		p.log.Warn("deallocate hook failed", zap.Int32("page_id", int32(id)), zap.Error(err))
	}
	return true
}

// Stats returns a point-in-time snapshot of pool activity.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Hits:        p.hits,
		Misses:      p.misses,
		Evictions:   p.evictions,
		FramesInUse: p.poolSize - len(p.freeList),
		PoolSize:    p.poolSize,
	}
}

// PageSize returns the fixed page size this pool's frames use.
func (p *Pool) PageSize() int { return p.pageSize }

// PoolSize returns the number of frames this pool manages.
func (p *Pool) PoolSize() int { return p.poolSize }

// Close flushes every resident page and closes the underlying disk
// provider.
func (p *Pool) Close() error {
	if err := p.FlushAllPages(); err != nil {
		p.log.Warn("flush during close reported an error", zap.Error(err))
	}
	return p.disk.Close()
}

func (p *Pool) recordFramesInUse() {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordFramesInUse(p.poolSize - len(p.freeList))
}
