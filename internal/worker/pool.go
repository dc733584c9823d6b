// Package worker runs the bot's batch jobs (odds ingestion, results
// reconciliation) one at a time off a small queue, on demand or on a
// cron schedule in the league time zone.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	// ErrJobBusy means a job of the same kind is already queued or running.
	ErrJobBusy = errors.New("job already queued or running")
	// ErrQueueFull is returned when the queue has no room.
	ErrQueueFull = errors.New("job queue full")
	// ErrUnknownJob is returned for a kind with no registered handler.
	ErrUnknownJob = errors.New("unknown job kind")
	// ErrPoolStopped is returned after Stop.
	ErrPoolStopped = errors.New("worker pool stopped")
)

// Prometheus metrics
var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nhlbot_jobs_total",
		Help: "Batch jobs by kind and result",
	}, []string{"kind", "result"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nhlbot_job_queue_depth",
		Help: "Jobs waiting in the queue",
	})

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nhlbot_job_duration_seconds",
		Help:    "Batch job run time",
		Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"kind"})
)

// Kind names a batch job.
type Kind string

const (
	KindIngest    Kind = "ingest"
	KindReconcile Kind = "reconcile"
)

// Handler runs one job. The context carries the per-job timeout.
type Handler func(ctx context.Context) error

// Job is a queued unit of work.
type Job struct {
	ID         string    `json:"job_id"`
	Kind       Kind      `json:"kind"`
	Trigger    string    `json:"trigger"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// PoolConfig configures the job pool
type PoolConfig struct {
	QueueSize  int
	JobTimeout time.Duration
	Location   *time.Location
	Handlers   map[Kind]Handler
	Logger     *zap.Logger
}

// Pool runs jobs serially. A kind is never queued twice.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	cron     *cron.Cron

	mu      sync.Mutex
	pending map[Kind]bool
	stopped bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.SugaredLogger
}

// NewPool creates a new job pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		cron:     cron.New(cron.WithLocation(cfg.Location)),
		pending:  make(map[Kind]bool),
		logger:   cfg.Logger.Sugar(),
	}
}

// Schedule enqueues kind on a standard five-field cron spec. An empty spec
// is a no-op.
func (p *Pool) Schedule(spec string, kind Kind) error {
	if spec == "" {
		return nil
	}
	if _, ok := p.config.Handlers[kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, kind)
	}
	_, err := p.cron.AddFunc(spec, func() {
		if _, err := p.enqueue(kind, "schedule"); err != nil {
			p.logger.Warnw("Scheduled job not enqueued", "kind", kind, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", kind, spec, err)
	}
	p.logger.Infow("Job scheduled", "kind", kind, "spec", spec, "zone", p.config.Location.String())
	return nil
}

// Start launches the consumer and the scheduler
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.worker()
	p.cron.Start()

	p.logger.Infow("Job pool started",
		"queueSize", p.config.QueueSize,
		"jobTimeout", p.config.JobTimeout,
		"scheduled", len(p.cron.Entries()),
	)
}

// Stop cancels the running job, drops queued ones and waits for the
// consumer to exit.
func (p *Pool) Stop() {
	p.logger.Info("Stopping job pool...")

	<-p.cron.Stop().Done()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("Job pool stopped")
}

// Enqueue queues kind without blocking.
func (p *Pool) Enqueue(kind Kind) (Job, error) {
	return p.enqueue(kind, "manual")
}

func (p *Pool) enqueue(kind Kind, trigger string) (Job, error) {
	if _, ok := p.config.Handlers[kind]; !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownJob, kind)
	}

	job := Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Trigger:    trigger,
		EnqueuedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return Job{}, ErrPoolStopped
	}
	if p.pending[kind] {
		jobsTotal.WithLabelValues(string(kind), "busy").Inc()
		return Job{}, ErrJobBusy
	}

	select {
	case p.jobQueue <- job:
		p.pending[kind] = true
		jobsTotal.WithLabelValues(string(kind), "enqueued").Inc()
		queueDepth.Set(float64(len(p.jobQueue)))
		p.logger.Infow("Job enqueued", "job", job.ID, "kind", kind, "trigger", trigger)
		return job, nil
	default:
		jobsTotal.WithLabelValues(string(kind), "queue_full").Inc()
		return Job{}, ErrQueueFull
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// Busy reports whether kind is queued or running.
func (p *Pool) Busy(kind Kind) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending[kind]
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobQueue {
		queueDepth.Set(float64(len(p.jobQueue)))
		if p.ctx.Err() != nil {
			p.logger.Warnw("Dropping job, pool stopping", "job", job.ID, "kind", job.Kind)
			p.done(job.Kind)
			continue
		}
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	defer p.done(job.Kind)

	ctx, cancel := context.WithTimeout(p.ctx, p.config.JobTimeout)
	defer cancel()

	start := time.Now()
	err := p.call(ctx, job)
	jobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		jobsTotal.WithLabelValues(string(job.Kind), "failed").Inc()
		p.logger.Errorw("Job failed", "job", job.ID, "kind", job.Kind, "duration", time.Since(start), "error", err)
		return
	}
	jobsTotal.WithLabelValues(string(job.Kind), "succeeded").Inc()
	p.logger.Infow("Job finished", "job", job.ID, "kind", job.Kind, "duration", time.Since(start))
}

func (p *Pool) call(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return p.config.Handlers[job.Kind](ctx)
}

func (p *Pool) done(kind Kind) {
	p.mu.Lock()
	delete(p.pending, kind)
	p.mu.Unlock()
}
