package job

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

type config struct {
	registry   map[string]taskExecutor
	schedules  []schedule
	log        *slog.Logger
	maxWorkers int
}

type schedule struct {
	name     string
	schedule string
	handler  func(context.Context) error
}

// Option configures the job manager.
type Option func(*config)

// WithTask registers a task handler. The payload type is inferred from the
// Handle signature and unmarshaled from the job's JSON payload.
//
//	type SweepACL struct{ sync *security.Synchronizer }
//
//	func (t *SweepACL) Name() string { return "acl_sweep" }
//	func (t *SweepACL) Handle(ctx context.Context, _ struct{}) error { ... }
//
//	job.WithTask(&SweepACL{sync})
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry[task.Name()] = &typedExecutor[P, T]{task: task}
	}
}

// WithScheduledTask registers a periodic task. Schedule returns a five-field
// cron expression (minute hour day month weekday).
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name:     task.Name(),
			schedule: task.Schedule(),
			handler:  task.Handle,
		})
	}
}

// WithJobLogger sets the logger. Defaults to a no-op logger.
func WithJobLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMaxWorkers bounds concurrent job processing. Defaults to 20.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// taskExecutor is the type-erased execution interface stored in the
// registry.
type taskExecutor interface {
	Execute(ctx context.Context, payload json.RawMessage) error
}

// typedExecutor adapts a typed task handler to taskExecutor.
type typedExecutor[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}] struct {
	task T
}

func (e *typedExecutor[P, T]) Execute(ctx context.Context, raw json.RawMessage) error {
	var payload P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	return e.task.Handle(ctx, payload)
}

type scheduledExecutor struct {
	handler func(context.Context) error
}

func (e scheduledExecutor) Execute(ctx context.Context, _ json.RawMessage) error {
	return e.handler(ctx)
}
