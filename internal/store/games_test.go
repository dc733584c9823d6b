package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/models"
)

const legacyGamesCSV = `game_date,away_team,home_team,home_win_pct,away_win_pct,goal_diff_matchup,home_Goals_For,away_Goals_For,home_puckline,away_puckline,over_under,start_time_et
2025-11-04,Boston Bruins,Toronto Maple Leafs,0.6,0.4,1,3,2,-1.5,1.5,5.5,19:00
2025-11-04,,Carolina Hurricanes,0.5,0.5,0,3.1,3.0,-1.5,1.5,6,19:00
2025-11-04,Ottawa Senators,Ottawa Senators,0.5,0.5,0,3.1,3.0,-1.5,1.5,6,19:30
2025-11-04,New York Rangers,New Jersey Devils,n/a,0.45,,3.1,3.0,-1.5,1.5,6.5,19:00
`

func TestGamesTable_ReadLegacyHeader(t *testing.T) {
	table := NewGamesTable(zap.NewNop())

	records, skipped, err := table.Read(strings.NewReader(legacyGamesCSV))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	tor := records[0]
	if tor.HomeTeam != "Toronto Maple Leafs" || tor.StartTimeLocal != "19:00" {
		t.Errorf("record = %+v", tor)
	}
	if tor.HomeGoalsFor == nil || *tor.HomeGoalsFor != 3 {
		t.Errorf("home_Goals_For alias not read: %v", tor.HomeGoalsFor)
	}
	if tor.HomeSpread == nil || *tor.HomeSpread != -1.5 {
		t.Errorf("home_puckline alias not read: %v", tor.HomeSpread)
	}
	if tor.TotalLine == nil || *tor.TotalLine != 5.5 {
		t.Errorf("over_under alias not read: %v", tor.TotalLine)
	}

	nyr := records[1]
	if nyr.HomeWinPct != nil {
		t.Errorf("unparsable win pct should be absent, got %v", *nyr.HomeWinPct)
	}
	if nyr.GoalDiffMatchup != nil {
		t.Errorf("empty goal diff should be absent")
	}
}

func TestGamesTable_MissingColumn(t *testing.T) {
	table := NewGamesTable(zap.NewNop())
	if _, _, err := table.Read(strings.NewReader("game_date,home_team\n2025-11-04,X\n")); err == nil {
		t.Error("expected error for missing away_team column")
	}
}

func TestGamesTable_ReadFileMissing(t *testing.T) {
	table := NewGamesTable(zap.NewNop())
	_, _, err := table.ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrGamesFileMissing) {
		t.Errorf("ReadFile() error = %v, want ErrGamesFileMissing", err)
	}
}

func TestGamesTable_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "games.csv")
	table := NewGamesTable(zap.NewNop())

	in := []models.GameRecord{{
		GameDate:       "2025-11-04",
		AwayTeam:       "Boston Bruins",
		HomeTeam:       "Toronto Maple Leafs",
		StartTimeLocal: "19:00",
		HomeWinPct:     models.Float(0.58),
		AwayWinPct:     models.Float(0.42),
		HomeSpread:     models.Float(-1.5),
		AwaySpread:     models.Float(1.5),
		TotalLine:      models.Float(6.5),
	}}
	if err := table.WriteFile(path, in); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, skipped, err := table.ReadFile(path)
	if err != nil || skipped != 0 || len(out) != 1 {
		t.Fatalf("ReadFile() = %d records, %d skipped, %v", len(out), skipped, err)
	}
	if *out[0].HomeWinPct != 0.58 || *out[0].TotalLine != 6.5 || out[0].HomeGoalsFor != nil {
		t.Errorf("round trip = %+v", out[0])
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestGamesTable_WriteFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.csv")
	if err := os.WriteFile(path, []byte(legacyGamesCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	table := NewGamesTable(zap.NewNop())
	bad := []models.GameRecord{{GameDate: "2025-11-04", AwayTeam: "A", HomeTeam: "A"}}
	if err := table.WriteFile(path, bad); err == nil {
		t.Fatal("expected error")
	}

	data, _ := os.ReadFile(path)
	if string(data) != legacyGamesCSV {
		t.Error("existing games file was modified")
	}
}
