package logic

import (
	"context"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// PickStore is an append-only pick log with atomic insert-if-absent.
// Insert reports false when the key was already present.
type PickStore interface {
	Insert(ctx context.Context, entry models.PickLogEntry) (bool, error)
	List(ctx context.Context) ([]models.PickLogEntry, error)
}

// SnapshotSource hands out the current immutable game snapshot.
type SnapshotSource interface {
	Current(ctx context.Context) (*models.Snapshot, error)
}
