package buffer

import (
	"container/list"
	"sync"

	"go.uber.org/zap"

	"github.com/lumidb/pagecache/storage/page"
)

// accessBiasStep spaces consecutive logical timestamps far enough
// apart that AccessType biasing (±1) can never reorder two distinct
// real accesses relative to each other. See recordTimestamp.
const accessBiasStep = 4

// node is a replacer's per-frame bookkeeping record: the frame id,
// its bounded access history (most-recent first), and whether it is
// currently a candidate for eviction.
type node struct {
	fid       page.FrameID
	history   []int64       // most-recent access first, capped at k entries
	evictable bool
	lessKElem *list.Element // membership in lessK, if history len < k
	kElem     *list.Element // membership in kList, if history len == k
}

func (n *node) hasFullHistory(k int) bool { return len(n.history) >= k }

// LRUKReplacer tracks per-frame access history and picks eviction
// victims using the LRU-K rule: among evictable frames, prefer the
// frame with fewer than k accesses (classic LRU among those), and
// otherwise the frame whose k-th most recent access is oldest. Ties
// break on the smaller frame id.
//
// Representation: two doubly-linked lists (via container/list) —
// lessK in classic-LRU order for frames with fewer than k accesses,
// and kList sorted by each frame's k-th-most-recent access instant
// (history[k-1]), front holding the largest such instant and back the
// smallest. A new access to an already-full frame does not simply
// refresh "now": it replaces the k-th-most-recent instant with what
// was the frame's second-oldest tracked access, a value that can sort
// anywhere relative to other full-history frames, so the frame is
// re-inserted at its correct position rather than moved to the front.
// Every frame the replacer has ever seen keeps its position in one of
// these lists regardless of whether it is currently evictable, so
// Evict just walks back from the tail of lessK, then kList, until it
// finds an evictable frame — cheap in the common case where pinned
// frames are a small minority, without the tie-break ever depending
// on the order frames happen to be re-admitted.
type LRUKReplacer struct {
	mu   sync.Mutex
	log  *zap.Logger
	k    int
	size int // replacer_size: number of frames this replacer can ever see

	nodes map[page.FrameID]*node
	lessK *list.List // list.Element.Value is page.FrameID; front = most recent
	kList *list.List // same shape, keyed by k-th-most-recent access

	currSize int // count of evictable nodes
	clock    int64
}

// NewLRUKReplacer constructs a replacer for a pool with the given
// number of frames and history depth k (k >= 1; k == 1 degenerates to
// plain LRU).
func NewLRUKReplacer(numFrames, k int, log *zap.Logger) *LRUKReplacer {
	if log == nil {
		log = zap.NewNop()
	}
	if k < 1 {
		k = 1
	}
	return &LRUKReplacer{
		log:   log,
		k:     k,
		size:  numFrames,
		nodes: make(map[page.FrameID]*node, numFrames),
		lessK: list.New(),
		kList: list.New(),
	}
}

func (r *LRUKReplacer) getOrCreate(fid page.FrameID) *node {
	n, ok := r.nodes[fid]
	if !ok {
		n = &node{fid: fid}
		r.nodes[fid] = n
	}
	return n
}

// recordTimestamp advances the replacer's logical clock and applies
// the AccessType hint as a heuristic: Get nudges a frame to look
// slightly more recent (discourage eviction), Scan nudges it to look
// slightly older (encourage eviction). The nudge is always smaller
// than accessBiasStep, so it can never reorder two distinct
// RecordAccess calls.
func (r *LRUKReplacer) recordTimestamp(at AccessType) int64 {
	r.clock += accessBiasStep
	switch at {
	case AccessGet:
		return r.clock + 1
	case AccessScan:
		return r.clock - 1
	default:
		return r.clock
	}
}

// RecordAccess appends a new access to frame's history, creating its
// node on first sight. The frame moves between the lessK and kList
// lists (or is repositioned within one) so that Evict stays cheap.
// List membership tracks every frame the replacer has ever seen, not
// just evictable ones, so that a frame pinned and later re-unpinned
// keeps the sorted position its access history actually implies —
// re-deriving it from scratch on every SetEvictable would require an
// O(n) insertion-point search anyway, and would make Evict's LRU-K
// tie-break depend on re-admission order instead of access order.
func (r *LRUKReplacer) RecordAccess(fid page.FrameID, at AccessType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.recordTimestamp(at)
	n := r.getOrCreate(fid)

	wasFull := n.hasFullHistory(r.k)
	if wasFull {
		n.history = n.history[:r.k-1] // drop oldest (tail)
	}
	n.history = append([]int64{ts}, n.history...)

	nowFull := n.hasFullHistory(r.k)
	switch {
	case !wasFull && !nowFull:
		if n.lessKElem == nil {
			n.lessKElem = r.lessK.PushFront(fid)
		} else {
			r.lessK.MoveToFront(n.lessKElem)
		}
	case !wasFull && nowFull:
		if n.lessKElem != nil {
			r.lessK.Remove(n.lessKElem)
			n.lessKElem = nil
		}
		r.reinsertKList(fid, n)
	case wasFull && nowFull:
		// A new access to an already-full frame changes its
		// k-th-most-recent instant to what was its second-oldest
		// tracked access, not to "now" — that value can land anywhere
		// in kList's sorted order relative to other full-history
		// frames, so the frame must be re-sorted, not just moved to
		// the front.
		r.reinsertKList(fid, n)
	}
}

// reinsertKList removes n from kList if it is already a member, then
// re-inserts it at the position implied by its current k-th-most-
// recent access instant (history[k-1]), keeping kList sorted
// descending: front holds the largest (most recent) such instant,
// back the smallest — the next eviction candidate.
func (r *LRUKReplacer) reinsertKList(fid page.FrameID, n *node) {
	if n.kElem != nil {
		r.kList.Remove(n.kElem)
		n.kElem = nil
	}
	kthTS := n.history[r.k-1]
	for e := r.kList.Front(); e != nil; e = e.Next() {
		if r.nodes[e.Value.(page.FrameID)].history[r.k-1] < kthTS {
			n.kElem = r.kList.InsertBefore(fid, e)
			return
		}
	}
	n.kElem = r.kList.PushBack(fid)
}

// SetEvictable idempotently toggles whether fid is a candidate for
// eviction, adjusting curr_size on real transitions only. It never
// touches list membership: a frame's position in lessK/kList always
// reflects its access history, whether or not it is currently
// evictable, so re-admitting a pinned frame can never jump it to the
// front out of access order.
func (r *LRUKReplacer) SetEvictable(fid page.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.getOrCreate(fid)
	if n.evictable == evictable {
		return
	}
	n.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// evictableBack walks l from its back (oldest) towards the front,
// returning the first element whose frame is currently evictable, or
// nil if none is.
func evictableBack(l *list.List, nodes map[page.FrameID]*node) *list.Element {
	for e := l.Back(); e != nil; e = e.Prev() {
		if nodes[e.Value.(page.FrameID)].evictable {
			return e
		}
	}
	return nil
}

// Evict picks the victim per the LRU-K rule and clears its history,
// returning false if no frame is currently evictable. Ties would
// break on the smaller frame id, but since recordTimestamp's clock
// strictly increases on every call, two distinct frames can never
// actually tie — the list order alone always reflects the rule.
func (r *LRUKReplacer) Evict() (page.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	e := evictableBack(r.lessK, r.nodes)
	if e != nil {
		fid := e.Value.(page.FrameID)
		r.lessK.Remove(e)
		r.finishEvict(fid)
		return fid, true
	}

	e = evictableBack(r.kList, r.nodes)
	if e != nil {
		fid := e.Value.(page.FrameID)
		r.kList.Remove(e)
		r.finishEvict(fid)
		return fid, true
	}

	return 0, false
}

// finishEvict resets an evicted frame's bookkeeping and logs it.
func (r *LRUKReplacer) finishEvict(fid page.FrameID) {
	n := r.nodes[fid]
	n.history = nil
	n.evictable = false
	n.lessKElem = nil
	n.kElem = nil
	r.currSize--
	r.log.Debug("replacer evicted frame", zap.Int("frame_id", int(fid)))
}

// Remove drops fid's history entirely. It must only be called on an
// evictable frame, or a frame never seen (a no-op); calling it on a
// pinned (non-evictable but known) frame is a programmer error and
// panics.
func (r *LRUKReplacer) Remove(fid page.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[fid]
	if !ok {
		return
	}
	if !n.evictable {
		if n.lessKElem == nil && n.kElem == nil && len(n.history) == 0 {
			return // truly untouched, no-op
		}
		panic("pagecache: LRUKReplacer.Remove called on a non-evictable frame")
	}
	if n.lessKElem != nil {
		r.lessK.Remove(n.lessKElem)
	}
	if n.kElem != nil {
		r.kList.Remove(n.kElem)
	}
	n.history = nil
	n.evictable = false
	n.lessKElem = nil
	n.kElem = nil
	r.currSize--
}

// Size returns the current count of evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
