// Package storage provides the durable key/value slots the focus service
// persists its statistics, progress and reminder state in. Values are opaque
// JSON strings; writes are last-write-wins.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Keys used by the service.
const (
	StatsKey            = "dailyfocus_stats_v1"
	ProgressKey         = "focus-trainer/progress/v1"
	LastOutcomeKey      = "dailyfocus_last_outcome_v1"
	ReminderSettingsKey = "dailyfocus_reminder_v1"
	ReminderIDKey       = "dailyfocus_tonight_reminder_id_v1"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// KV is a durable string key/value store.
type KV interface {
	// Load returns the stored value and whether the key exists.
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process KV, used for tests and STORE_BACKEND=memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Check(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
