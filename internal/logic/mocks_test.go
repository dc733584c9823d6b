package logic

import (
	"context"
	"sync"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// MockPickStore is an in-memory PickStore.
type MockPickStore struct {
	mu         sync.Mutex
	entries    []models.PickLogEntry
	InsertFunc func(ctx context.Context, entry models.PickLogEntry) (bool, error)
}

func (m *MockPickStore) Insert(ctx context.Context, entry models.PickLogEntry) (bool, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.Key() == entry.Key() {
			return false, nil
		}
	}
	m.entries = append(m.entries, entry)
	return true, nil
}

func (m *MockPickStore) List(ctx context.Context) ([]models.PickLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.PickLogEntry(nil), m.entries...), nil
}

type MockSnapshotSource struct {
	Snapshot    *models.Snapshot
	CurrentFunc func(ctx context.Context) (*models.Snapshot, error)
}

func (m *MockSnapshotSource) Current(ctx context.Context) (*models.Snapshot, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx)
	}
	return m.Snapshot, nil
}
