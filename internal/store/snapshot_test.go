package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func writeGames(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshotLoader_Lifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")
	loader := NewSnapshotLoader(path, NewGamesTable(zap.NewNop()), zap.NewNop())
	ctx := context.Background()

	if _, err := loader.Load(ctx); !errors.Is(err, ErrGamesFileMissing) {
		t.Fatalf("Load() error = %v, want ErrGamesFileMissing", err)
	}

	if snap, err := loader.Current(ctx); !errors.Is(err, ErrGamesFileMissing) || snap != nil {
		t.Fatalf("Current() before ingestion = %+v, %v, want ErrGamesFileMissing", snap, err)
	}

	writeGames(t, path, "game_date,away_team,home_team\n2025-11-04,Boston Bruins,Toronto Maple Leafs\n")
	first, err := loader.Current(ctx)
	if err != nil || first.Len() != 1 || first.Date != "2025-11-04" {
		t.Fatalf("Current() = %+v, %v", first, err)
	}

	again, _ := loader.Current(ctx)
	if again != first {
		t.Error("unchanged file should return the same snapshot")
	}

	writeGames(t, path, "game_date,away_team,home_team\n"+
		"2025-11-05,Boston Bruins,Toronto Maple Leafs\n"+
		"2025-11-05,New York Rangers,Carolina Hurricanes\n")
	second, _ := loader.Current(ctx)
	if second.Len() != 2 || second.Date != "2025-11-05" {
		t.Errorf("changed file not reloaded: %+v", second)
	}
	if first.Len() != 1 {
		t.Error("earlier snapshot was mutated")
	}

	writeGames(t, path, "garbage_header_without_teams\n")
	kept, err := loader.Current(ctx)
	if err != nil || kept != second {
		t.Errorf("broken reload should keep previous snapshot, got %+v, %v", kept, err)
	}

	os.Remove(path)
	if kept, _ := loader.Current(ctx); kept != second {
		t.Error("removed file should keep previous snapshot")
	}
}

func TestSnapshotLoader_ConcurrentCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")
	writeGames(t, path, "game_date,away_team,home_team\n2025-11-04,Boston Bruins,Toronto Maple Leafs\n")
	loader := NewSnapshotLoader(path, NewGamesTable(zap.NewNop()), zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := loader.Current(context.Background())
			if err != nil || snap.Len() != 1 {
				t.Errorf("Current() = %+v, %v", snap, err)
			}
		}()
	}
	wg.Wait()
}
