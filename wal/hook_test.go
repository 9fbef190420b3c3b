package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupManager creates a Manager backed by a temp file, following the
// setupLogManager helper pattern this module's teacher used for its
// own WAL tests.
func setupManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "durability.log")
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	m, err := NewManager(path, logger)
	require.NoError(t, err)
	return m, path
}

// TestManager_RecordAppendsWithoutSync verifies Record writes bytes to
// the log file immediately, independent of Sync.
func TestManager_RecordAppendsWithoutSync(t *testing.T) {
	m, path := setupManager(t)
	defer m.Close()

	require.NoError(t, m.Record([]byte("entry-one")))
	require.NoError(t, m.Record([]byte("entry-two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "entry-oneentry-two", string(data))
}

// TestManager_SyncSucceedsOnAnEmptyLog verifies Sync is safe to call
// even before any Record, matching the buffer pool's unconditional
// pre-write-back call.
func TestManager_SyncSucceedsOnAnEmptyLog(t *testing.T) {
	m, _ := setupManager(t)
	defer m.Close()
	require.NoError(t, m.Sync())
}

// TestManager_CloseSyncsThenClosesTheFile verifies Close leaves the
// file durable and refuses further writes.
func TestManager_CloseSyncsThenClosesTheFile(t *testing.T) {
	m, _ := setupManager(t)
	require.NoError(t, m.Record([]byte("last")))
	require.NoError(t, m.Close())
	require.Error(t, m.Record([]byte("after-close")))
}
