package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestPage_NewIsEmpty verifies a freshly allocated page carries
// InvalidPageID, a zero pin count, a clean dirty bit, and a
// zero-filled payload of the requested size.
func TestPage_NewIsEmpty(t *testing.T) {
	p := New(16)
	require.Equal(t, InvalidPageID, p.ID())
	require.Equal(t, 0, p.PinCount())
	require.False(t, p.IsDirty())
	require.Len(t, p.Data(), 16)
	for _, b := range p.Data() {
		require.Zero(t, b)
	}
}

// TestPage_MarkDirtyNeverClearsAnAlreadySetBit verifies the
// OR-semantics contract the buffer pool relies on for concurrent
// unpins: MarkDirty(false) must never undo a prior MarkDirty(true).
func TestPage_MarkDirtyNeverClearsAnAlreadySetBit(t *testing.T) {
	p := New(16)
	require.False(t, p.IsDirty())

	p.MarkDirty(true)
	require.True(t, p.IsDirty())

	p.MarkDirty(false)
	require.True(t, p.IsDirty(), "MarkDirty(false) must not clear an already-set dirty bit")
}

// TestPage_UnpinNeverGoesNegative verifies Unpin on an already-zero
// pin count is a no-op rather than underflowing.
func TestPage_UnpinNeverGoesNegative(t *testing.T) {
	p := New(16)
	p.Unpin()
	require.Equal(t, 0, p.PinCount())

	p.Pin()
	p.Unpin()
	p.Unpin()
	require.Equal(t, 0, p.PinCount())
}

// TestPage_ResetClearsMetadataAndPayload verifies Reset returns a
// frame to a state indistinguishable from a freshly allocated one.
func TestPage_ResetClearsMetadataAndPayload(t *testing.T) {
	p := New(8)
	p.SetID(PageID(42))
	p.SetPinCount(3)
	p.SetDirty(true)
	copy(p.Data(), []byte{1, 2, 3, 4, 5, 6, 7, 8})

	p.Reset()

	require.Equal(t, InvalidPageID, p.ID())
	require.Equal(t, 0, p.PinCount())
	require.False(t, p.IsDirty())
	for _, b := range p.Data() {
		require.Zero(t, b)
	}
}
