// Package wal defines a narrow write-ahead-log calling convention for
// recovery integration: the buffer pool syncs the log before it
// writes back a dirty page, so that a page's
// on-disk image never gets ahead of the durable log records describing
// how it got that way. This module does not implement a full WAL engine — it
// only keeps a durability call site available to a caller who
// supplies one.
package wal

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

// Manager is a minimal append-only durability log: every Record call
// appends an entry to a single file and Sync fsyncs it. It exists to
// give the buffer pool's LogManager hook something real to call in
// the demo command and in tests that want to observe sync ordering,
// not to be a recovery-capable WAL. Its Sync method alone is enough
// to satisfy buffer.LogManager; a caller wiring in a full WAL engine
// can adapt that engine the same way, without depending on this
// package at all.
type Manager struct {
	mu   sync.Mutex
	file *os.File
	log  *zap.Logger
}

// NewManager opens (creating if necessary) a durability log at path.
func NewManager(path string, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Manager{file: f, log: log.With(zap.String("component", "wal"))}, nil
}

// Record appends a raw entry. It does not itself sync; callers that
// need durability before proceeding should call Sync afterward.
func (m *Manager) Record(entry []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.file.Write(entry)
	return err
}

// Sync fsyncs the log file, satisfying the buffer.LogManager
// interface the buffer pool calls before writing back a dirty victim.
func (m *Manager) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.file.Sync(); err != nil {
		m.log.Error("wal sync failed", zap.Error(err))
		return err
	}
	return nil
}

// Close syncs and closes the underlying file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.file.Sync(); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
