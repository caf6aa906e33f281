// Package job runs background work on River with Postgres-backed queues.
// The forum uses it for the scheduled ACL reconciliation sweep; EnqueueTx
// also lets callers make a job's visibility atomic with a content
// transaction.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/agora/pkg/logger"
)

const (
	defaultMaxWorkers = 20
	defaultQueue      = river.QueueDefault
)

var (
	ErrPoolRequired   = errors.New("job: pool is required")
	ErrUnknownTask    = errors.New("job: unknown task")
	ErrInvalidPayload = errors.New("job: invalid payload")
	ErrAlreadyStarted = errors.New("job: already started")
	ErrNotStarted     = errors.New("job: not started")
)

// Manager enqueues and processes background jobs.
type Manager struct {
	pool     *pgxpool.Pool
	client   *river.Client[pgx.Tx]
	registry map[string]taskExecutor
	log      *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager creates a job manager. Jobs can be enqueued before Start is
// called; processing begins with Start.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &config{
		registry:   make(map[string]taskExecutor),
		maxWorkers: defaultMaxWorkers,
		log:        logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var periodic []*river.PeriodicJob
	for _, sched := range cfg.schedules {
		cronSchedule, err := parseCronSchedule(sched.schedule)
		if err != nil {
			return nil, fmt.Errorf("job: invalid cron schedule %q: %w", sched.schedule, err)
		}
		periodic = append(periodic, river.NewPeriodicJob(
			cronSchedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return &taskArgs{TaskName: sched.name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
		cfg.registry[sched.name] = scheduledExecutor{sched.handler}
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &taskWorker{registry: cfg.registry, log: cfg.log})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			defaultQueue: {MaxWorkers: cfg.maxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.log,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		pool:     pool,
		client:   client,
		registry: cfg.registry,
		log:      cfg.log,
	}, nil
}

// Start begins processing jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}
	m.started = true
	m.log.Info("job manager started", slog.Int("tasks", len(m.registry)))
	return nil
}

// Stop shuts the manager down, waiting for running jobs to finish.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}
	m.started = false
	m.log.Info("job manager stopped")
	return nil
}

// Enqueue adds a job for a registered task.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any) error {
	args, err := m.buildArgs(name, payload)
	if err != nil {
		return err
	}
	if _, err := m.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("job: enqueue: %w", err)
	}
	return nil
}

// EnqueueTx adds a job inside a transaction; it becomes visible only when
// the transaction commits.
func (m *Manager) EnqueueTx(ctx context.Context, tx pgx.Tx, name string, payload any) error {
	args, err := m.buildArgs(name, payload)
	if err != nil {
		return err
	}
	if _, err := m.client.InsertTx(ctx, tx, args, nil); err != nil {
		return fmt.Errorf("job: enqueue tx: %w", err)
	}
	return nil
}

func (m *Manager) buildArgs(name string, payload any) (*taskArgs, error) {
	if _, ok := m.registry[name]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("job: marshal payload: %w", err)
		}
	}
	return &taskArgs{TaskName: name, Payload: raw}, nil
}

// taskArgs is the single River job args type; the task name routes to the
// registered executor.
type taskArgs struct {
	TaskName string          `json:"task_name"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return "agora:task" }

type taskWorker struct {
	river.WorkerDefaults[taskArgs]
	registry map[string]taskExecutor
	log      *slog.Logger
}

func (w *taskWorker) Work(ctx context.Context, job *river.Job[taskArgs]) error {
	executor, ok := w.registry[job.Args.TaskName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, job.Args.TaskName)
	}

	if err := executor.Execute(ctx, job.Args.Payload); err != nil {
		w.log.ErrorContext(ctx, "task failed",
			slog.String("task", job.Args.TaskName),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return cronScheduleAdapter{schedule}, nil
}
