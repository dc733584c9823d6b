package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// SnapshotLoader serves the games file as immutable snapshots. The file is
// read once at startup and again whenever its modification time or size
// changes. A failed reload keeps the previous snapshot.
type SnapshotLoader struct {
	path   string
	table  *GamesTable
	logger *zap.SugaredLogger
	group  singleflight.Group

	mu      sync.RWMutex
	current *models.Snapshot
	modTime time.Time
	size    int64
}

func NewSnapshotLoader(path string, table *GamesTable, logger *zap.Logger) *SnapshotLoader {
	return &SnapshotLoader{
		path:   path,
		table:  table,
		logger: logger.Sugar(),
	}
}

// Load reads the file now. It returns ErrGamesFileMissing when there is no file.
func (l *SnapshotLoader) Load(ctx context.Context) (*models.Snapshot, error) {
	info, err := os.Stat(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrGamesFileMissing, l.path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat games file: %w", err)
	}
	return l.reload(info)
}

// Current returns the latest snapshot, reloading first if the file changed.
// Until a games file has loaded once it returns ErrGamesFileMissing.
func (l *SnapshotLoader) Current(ctx context.Context) (*models.Snapshot, error) {
	l.mu.RLock()
	current, modTime, size := l.current, l.modTime, l.size
	l.mu.RUnlock()

	info, err := os.Stat(l.path)
	if err != nil {
		if current != nil {
			return current, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrGamesFileMissing, l.path)
		}
		return nil, fmt.Errorf("stat games file: %w", err)
	}

	if current != nil && info.ModTime().Equal(modTime) && info.Size() == size {
		return current, nil
	}

	snap, err := l.reload(info)
	if err != nil {
		if current != nil {
			l.logger.Errorw("Games reload failed, serving previous snapshot",
				"path", l.path,
				"loadedAt", current.LoadedAt,
				"error", err,
			)
			return current, nil
		}
		return nil, err
	}
	return snap, nil
}

// reload collapses concurrent reads of the same file version into one.
func (l *SnapshotLoader) reload(info os.FileInfo) (*models.Snapshot, error) {
	key := fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size())
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		records, skipped, err := l.table.ReadFile(l.path)
		if err != nil {
			return nil, err
		}

		snap := &models.Snapshot{
			Records:  records,
			Source:   l.path,
			LoadedAt: time.Now().UTC(),
			Skipped:  skipped,
		}
		if len(records) > 0 {
			snap.Date = records[0].GameDate
		}

		l.mu.Lock()
		l.current = snap
		l.modTime = info.ModTime()
		l.size = info.Size()
		l.mu.Unlock()

		l.logger.Infow("Loaded games snapshot",
			"path", l.path,
			"date", snap.Date,
			"games", len(records),
			"skipped", skipped,
		)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Snapshot), nil
}
