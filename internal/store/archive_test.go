package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/ktwom22/nhl-bot/internal/models"
)

type MockBatch struct {
	driver.Batch
	Appended  [][]any
	Sent      bool
	Aborted   bool
	AppendErr error
}

func (m *MockBatch) Append(v ...any) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Appended = append(m.Appended, v)
	return nil
}

func (m *MockBatch) Send() error {
	m.Sent = true
	return nil
}

func (m *MockBatch) Abort() error {
	m.Aborted = true
	return nil
}

type MockClickHouseConn struct {
	driver.Conn
	Batch    *MockBatch
	Prepared int
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	m.Prepared++
	return m.Batch, nil
}

func TestEvaluationArchive(t *testing.T) {
	at := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	evals := []models.Evaluation{
		{
			Entry:     testEntry(),
			Score:     &models.FinalScore{AwayGoals: 1, HomeGoals: 4, Completed: true},
			Moneyline: models.OutcomeWin,
			Spread:    models.OutcomeWin,
			Total:     models.OutcomeWin,
		},
		{
			Entry:     models.PickLogEntry{Date: "not-a-date"},
			Moneyline: models.OutcomePending,
		},
	}

	conn := &MockClickHouseConn{Batch: &MockBatch{}}
	if err := NewEvaluationArchive(conn).Archive(context.Background(), "run-1", at, evals); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !conn.Batch.Sent {
		t.Error("batch not sent")
	}
	if len(conn.Batch.Appended) != 1 {
		t.Fatalf("rows = %d, want 1 (bad date skipped)", len(conn.Batch.Appended))
	}
	row := conn.Batch.Appended[0]
	if len(row) != 15 || row[0] != "run-1" || row[12] != "win" {
		t.Errorf("row = %v", row)
	}
	if hg, ok := row[11].(*int32); !ok || hg == nil || *hg != 4 {
		t.Errorf("home_goals = %v", row[11])
	}
}

func TestEvaluationArchive_Empty(t *testing.T) {
	conn := &MockClickHouseConn{Batch: &MockBatch{}}
	if err := NewEvaluationArchive(conn).Archive(context.Background(), "run-1", time.Now(), nil); err != nil {
		t.Fatal(err)
	}
	if conn.Prepared != 0 {
		t.Error("empty archive should not prepare a batch")
	}
}

func TestEvaluationArchive_AppendError(t *testing.T) {
	conn := &MockClickHouseConn{Batch: &MockBatch{AppendErr: errors.New("type mismatch")}}
	evals := []models.Evaluation{{Entry: testEntry(), Moneyline: models.OutcomePending}}

	if err := NewEvaluationArchive(conn).Archive(context.Background(), "run-1", time.Now(), evals); err == nil {
		t.Fatal("expected error")
	}
	if !conn.Batch.Aborted || conn.Batch.Sent {
		t.Errorf("aborted=%v sent=%v", conn.Batch.Aborted, conn.Batch.Sent)
	}
}
