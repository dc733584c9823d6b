package handlers

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ktwom22/nhl-bot/internal/logic"
	"github.com/ktwom22/nhl-bot/internal/models"
	"github.com/ktwom22/nhl-bot/internal/worker"
)

type MockPickService struct {
	AnswerFunc func(ctx context.Context, query string) (*logic.PickAnswer, error)
	GamesFunc  func(ctx context.Context) (*models.Snapshot, error)
}

func (m *MockPickService) Answer(ctx context.Context, query string) (*logic.PickAnswer, error) {
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, query)
	}
	return &logic.PickAnswer{Reply: "mock reply"}, nil
}

func (m *MockPickService) Games(ctx context.Context) (*models.Snapshot, error) {
	if m.GamesFunc != nil {
		return m.GamesFunc(ctx)
	}
	return &models.Snapshot{}, nil
}

type MockPickLog struct {
	ListFunc func(ctx context.Context) ([]models.PickLogEntry, error)
}

func (m *MockPickLog) List(ctx context.Context) ([]models.PickLogEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

type MockJobQueue struct {
	EnqueueFunc func(kind worker.Kind) (worker.Job, error)
	Depth       int
}

func (m *MockJobQueue) Enqueue(kind worker.Kind) (worker.Job, error) {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(kind)
	}
	return worker.Job{ID: "job-1", Kind: kind}, nil
}

func (m *MockJobQueue) QueueDepth() int { return m.Depth }

type MockPostgres struct {
	ExecFunc func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	PingErr  error
	Executed []string
}

func (m *MockPostgres) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.Executed = append(m.Executed, sql)
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func (m *MockPostgres) Ping(ctx context.Context) error { return m.PingErr }

type MockClickHouse struct {
	ExecErr  error
	PingErr  error
	Executed []string
}

func (m *MockClickHouse) Exec(ctx context.Context, query string, args ...any) error {
	m.Executed = append(m.Executed, query)
	return m.ExecErr
}

func (m *MockClickHouse) Ping(ctx context.Context) error { return m.PingErr }

type MockPinger struct {
	Err error
}

func (m *MockPinger) Ping(ctx context.Context) error { return m.Err }
