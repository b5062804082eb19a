package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/joshsymonds/duekeeper/internal/model"
)

// MemoryStorage is an in-memory service.Storage for engine tests. It
// round-trips every document through JSON so custom marshaling behaves
// exactly as it does against SQLite.
type MemoryStorage struct {
	mu   sync.Mutex
	docs map[string][]byte

	// FailNext makes the next storage call return an error, for
	// exercising error paths.
	FailNext error
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{docs: make(map[string][]byte)}
}

func (m *MemoryStorage) get(name string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	raw, ok := m.docs[name]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (m *MemoryStorage) set(name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", name, err)
	}
	m.docs[name] = raw
	return nil
}

func (m *MemoryStorage) takeFailure() error {
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	return nil
}

// GetObligations returns the active obligation set.
func (m *MemoryStorage) GetObligations(_ context.Context) ([]model.Obligation, error) {
	var obligations []model.Obligation
	if err := m.get("obligations", &obligations); err != nil {
		return nil, err
	}
	return obligations, nil
}

// SaveObligations replaces the active obligation set.
func (m *MemoryStorage) SaveObligations(_ context.Context, obligations []model.Obligation) error {
	return m.set("obligations", obligations)
}

// GetArchive returns all archived records.
func (m *MemoryStorage) GetArchive(_ context.Context) ([]model.ArchiveRecord, error) {
	var records []model.ArchiveRecord
	if err := m.get("archive", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SaveArchive replaces the archive collection.
func (m *MemoryStorage) SaveArchive(_ context.Context, records []model.ArchiveRecord) error {
	return m.set("archive", records)
}

// GetSealState returns the stored seal state.
func (m *MemoryStorage) GetSealState(_ context.Context) (model.SealState, error) {
	var state model.SealState
	if err := m.get("seal_state", &state); err != nil {
		return model.SealState{}, err
	}
	return state, nil
}

// SaveSealState persists the seal state.
func (m *MemoryStorage) SaveSealState(_ context.Context, state model.SealState) error {
	return m.set("seal_state", state)
}

// Migrate is a no-op for the in-memory store.
func (m *MemoryStorage) Migrate(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (m *MemoryStorage) Close() error { return nil }

// RecordingNotifier captures notifications for assertions.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []string
}

// Notify records the message.
func (n *RecordingNotifier) Notify(message string, _ time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, message)
}

// Last returns the most recent message, or "" when none were sent.
func (n *RecordingNotifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Messages) == 0 {
		return ""
	}
	return n.Messages[len(n.Messages)-1]
}
