package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumidb/pagecache/storage/page"
)

// TestLRUKReplacer_LessThanKHistoryIsPlainLRU verifies that among
// frames with fewer than k accesses, eviction picks the frame that
// was least recently touched, classic-LRU style.
func TestLRUKReplacer_LessThanKHistoryIsPlainLRU(t *testing.T) {
	r := NewLRUKReplacer(8, 3, nil)

	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(2, AccessUnknown)
	r.RecordAccess(3, AccessUnknown)
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)
	r.SetEvictable(3, true)

	fid, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), fid)
}

// TestLRUKReplacer_FullHistoryBeatsPartialHistory verifies that a
// frame with fewer than k accesses is always preferred for eviction
// over one with a full k-length history, regardless of recency.
func TestLRUKReplacer_FullHistoryBeatsPartialHistory(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)

	// Frame 1 gets a full 2-access history very early (looks "old" by
	// k-distance) but frame 2 only ever gets a single, very recent access.
	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(2, AccessUnknown)
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)

	fid, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(2), fid, "frame with <k accesses must be evicted before any frame with a full history")
}

// TestLRUKReplacer_KDistanceOrdersFullHistoryFrames verifies that
// among frames with full k-length histories, the frame whose k-th
// most recent access is furthest in the past is evicted first.
func TestLRUKReplacer_KDistanceOrdersFullHistoryFrames(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)

	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(1, AccessUnknown) // frame 1's k-th access is earlier
	r.RecordAccess(2, AccessUnknown)
	r.RecordAccess(2, AccessUnknown) // frame 2's k-th access is later
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)

	fid, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), fid)
}

// TestLRUKReplacer_KDistanceOrdersFullHistoryFramesNonInterleaved is
// the non-interleaved counterpart of
// TestLRUKReplacer_KDistanceOrdersFullHistoryFrames: accesses to frame
// 2 happen consecutively, then frame 1 gets its second (most recent)
// access last. This still leaves frame 1's k-th-most-recent access
// (its first, older access) behind frame 2's, so frame 1 must still
// be the victim — a plain "most-recently-touched" ordering would
// instead pick frame 2, since frame 1 was touched last.
func TestLRUKReplacer_KDistanceOrdersFullHistoryFramesNonInterleaved(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)

	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(2, AccessUnknown)
	r.RecordAccess(2, AccessUnknown)
	r.RecordAccess(1, AccessUnknown) // frame 1 touched most recently, but its k-th access is still the oldest
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)

	fid, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), fid, "victim must follow k-th-access order, not most-recent-touch order")
}

// TestLRUKReplacer_SetEvictableFalseExcludesFromEviction verifies a
// pinned (non-evictable) frame is never chosen as a victim even if it
// would otherwise be the oldest.
func TestLRUKReplacer_SetEvictableFalseExcludesFromEviction(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)

	r.RecordAccess(2, AccessUnknown) // frame 2 is the oldest
	r.RecordAccess(1, AccessUnknown)
	r.SetEvictable(1, true)
	r.SetEvictable(2, false)

	fid, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), fid)

	_, ok = r.Evict()
	require.False(t, ok, "no evictable frames remain")
}

// TestLRUKReplacer_RemoveOnNonEvictableFramePanics verifies calling
// Remove on a frame the caller has pinned is a programmer error.
func TestLRUKReplacer_RemoveOnNonEvictableFramePanics(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)
	r.RecordAccess(1, AccessUnknown)
	r.SetEvictable(1, false)

	require.Panics(t, func() { r.Remove(1) })
}

// TestLRUKReplacer_RemoveUntouchedFrameIsNoop verifies Remove on a
// frame id the replacer has never seen does nothing and does not panic.
func TestLRUKReplacer_RemoveUntouchedFrameIsNoop(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)
	require.NotPanics(t, func() { r.Remove(99) })
}

// TestLRUKReplacer_ReAdmissionPreservesAccessOrder verifies that
// making a frame non-evictable and later evictable again does not
// reorder it to look most-recently-used: the victim choice must still
// follow the frames' actual k-th-most-recent access instants, not the
// order in which they were re-admitted to the evictable set.
func TestLRUKReplacer_ReAdmissionPreservesAccessOrder(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)

	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(1, AccessUnknown) // frame 1's k-th access is earlier
	r.RecordAccess(2, AccessUnknown)
	r.RecordAccess(2, AccessUnknown) // frame 2's k-th access is later

	// Re-admitted in the opposite order from their access history.
	r.SetEvictable(2, true)
	r.SetEvictable(1, true)

	fid, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), fid, "victim must follow k-th-access order, not re-admission order")
}

// TestLRUKReplacer_SizeTracksEvictableCount verifies Size reflects
// only the frames currently marked evictable.
func TestLRUKReplacer_SizeTracksEvictableCount(t *testing.T) {
	r := NewLRUKReplacer(8, 2, nil)
	r.RecordAccess(1, AccessUnknown)
	r.RecordAccess(2, AccessUnknown)
	require.Equal(t, 0, r.Size())

	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())

	r.SetEvictable(2, true)
	require.Equal(t, 2, r.Size())

	r.SetEvictable(1, false)
	require.Equal(t, 1, r.Size())
}
