package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ktwom22/nhl-bot/internal/models"
)

// PickLogColumns is the header of a new pick log. The first six columns are
// the historical format; files with only those keep working.
var PickLogColumns = []string{
	"date", "away_team", "home_team", "ml_pick", "spread_pick", "ou_pick",
	"spread_line", "total_line", "recorded_at",
}

// CSVPickLog is an append-only pick log file. The duplicate check and the
// append run under one mutex, so concurrent inserts of the same key in this
// process leave exactly one row.
type CSVPickLog struct {
	path string
	mu   sync.Mutex
}

func NewCSVPickLog(path string) *CSVPickLog {
	return &CSVPickLog{path: path}
}

// Insert appends entry unless its key is already present.
func (l *CSVPickLog) Insert(ctx context.Context, entry models.PickLogEntry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	header, entries, err := l.read()
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Key() == entry.Key() {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create pick log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return false, fmt.Errorf("open pick log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if header == nil {
		header = PickLogColumns
		if err := w.Write(header); err != nil {
			return false, fmt.Errorf("write pick log header: %w", err)
		}
	}
	if err := w.Write(pickRow(header, entry)); err != nil {
		return false, fmt.Errorf("append pick: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("append pick: %w", err)
	}
	return true, f.Sync()
}

// List returns every entry in file order.
func (l *CSVPickLog) List(ctx context.Context) ([]models.PickLogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, entries, err := l.read()
	return entries, err
}

// read returns the file's header (nil for a missing or empty file) and entries.
func (l *CSVPickLog) read() ([]string, []models.PickLogEntry, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open pick log: %w", err)
	}
	defer f.Close()

	return ReadPickLog(f)
}

// ReadPickLog parses a pick log. Rows without a full key are dropped.
func ReadPickLog(r io.Reader) ([]string, []models.PickLogEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read pick log header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var entries []models.PickLogEntry
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read pick log: %w", err)
		}

		field := func(name string) string {
			i, ok := colIndex[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		e := models.PickLogEntry{
			Date:       field("date"),
			AwayTeam:   field("away_team"),
			HomeTeam:   field("home_team"),
			MLPick:     field("ml_pick"),
			SpreadPick: field("spread_pick"),
			OUPick:     models.TotalPick(field("ou_pick")),
			SpreadLine: parseOptionalFloat(field("spread_line")),
			TotalLine:  parseOptionalFloat(field("total_line")),
		}
		if ts := field("recorded_at"); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				e.RecordedAt = t
			}
		}
		if e.Date == "" || e.AwayTeam == "" || e.HomeTeam == "" {
			continue
		}
		entries = append(entries, e)
	}
	return header, entries, nil
}

// pickRow lays the entry out in the order of the file's existing header.
func pickRow(header []string, e models.PickLogEntry) []string {
	values := map[string]string{
		"date":        e.Date,
		"away_team":   e.AwayTeam,
		"home_team":   e.HomeTeam,
		"ml_pick":     e.MLPick,
		"spread_pick": e.SpreadPick,
		"ou_pick":     string(e.OUPick),
		"spread_line": formatFloat(e.SpreadLine),
		"total_line":  formatFloat(e.TotalLine),
	}
	if !e.RecordedAt.IsZero() {
		values["recorded_at"] = e.RecordedAt.UTC().Format(time.RFC3339)
	}

	row := make([]string, len(header))
	for i, col := range header {
		row[i] = values[strings.ToLower(strings.TrimSpace(col))]
	}
	return row
}
