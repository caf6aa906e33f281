package security

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

const sweepBatchSize = 200

// Synchronizer applies recorded ACL changes against the provider and marks
// them applied in the outbox. It is the only writer of the ACL store.
type Synchronizer struct {
	provider Provider
	outbox   OutboxStore
	log      *slog.Logger
}

// NewSynchronizer wires the provider and outbox together. A nil logger
// discards output.
func NewSynchronizer(provider Provider, outbox OutboxStore, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synchronizer{provider: provider, outbox: outbox, log: log}
}

// ApplyNow applies freshly committed entries immediately after the content
// transaction. Failures are logged, never returned: the entries stay pending
// in the outbox and the next sweep replays them, so the lifecycle operation
// itself has already succeeded.
func (s *Synchronizer) ApplyNow(ctx context.Context, entries []OutboxEntry) {
	if len(entries) == 0 {
		return
	}
	if err := s.apply(ctx, entries); err != nil {
		s.log.ErrorContext(ctx, "acl apply deferred to reconciliation sweep",
			slog.Int("entries", len(entries)),
			slog.Any("error", err),
		)
	}
}

// Sweep replays all pending outbox entries. Safe to run concurrently with
// live traffic because every entry is idempotent.
func (s *Synchronizer) Sweep(ctx context.Context) error {
	for {
		pending, err := s.outbox.PendingACL(ctx, sweepBatchSize)
		if err != nil {
			return errors.Join(ErrSweepFailed, err)
		}
		if len(pending) == 0 {
			return nil
		}

		if err := s.apply(ctx, pending); err != nil {
			return errors.Join(ErrSweepFailed, err)
		}
		if len(pending) < sweepBatchSize {
			return nil
		}
	}
}

func (s *Synchronizer) apply(ctx context.Context, entries []OutboxEntry) error {
	applied := make([]uuid.UUID, 0, len(entries))

	// Grants batch together; revokes go one target at a time. Order within
	// the batch is preserved so a revoke recorded after a grant wins.
	var grants []Grant
	var grantIDs []uuid.UUID
	flushGrants := func() error {
		if len(grants) == 0 {
			return nil
		}
		if err := s.provider.Apply(ctx, grants); err != nil {
			return err
		}
		applied = append(applied, grantIDs...)
		grants, grantIDs = nil, nil
		return nil
	}

	for _, e := range entries {
		switch e.Op {
		case OpGrant:
			grants = append(grants, e.Grant)
			grantIDs = append(grantIDs, e.ID)
		case OpRevokeAll:
			if err := flushGrants(); err != nil {
				return s.markAndReturn(ctx, applied, err)
			}
			if err := s.provider.RevokeAll(ctx, e.Grant.Target); err != nil {
				return s.markAndReturn(ctx, applied, err)
			}
			applied = append(applied, e.ID)
		default:
			return s.markAndReturn(ctx, applied, ErrUnknownOutboxOp)
		}
	}
	if err := flushGrants(); err != nil {
		return s.markAndReturn(ctx, applied, err)
	}

	return s.markAndReturn(ctx, applied, nil)
}

// markAndReturn stamps whatever succeeded so a partial failure does not
// replay the successful prefix forever.
func (s *Synchronizer) markAndReturn(ctx context.Context, applied []uuid.UUID, cause error) error {
	if len(applied) > 0 {
		if err := s.outbox.MarkACLApplied(ctx, applied); err != nil {
			return errors.Join(cause, err)
		}
	}
	return cause
}

// ReconcileTask is the scheduled sweep, registered with the job manager:
//
//	job.WithScheduledTask(security.NewReconcileTask(sync, "*/5 * * * *"))
type ReconcileTask struct {
	sync     *Synchronizer
	schedule string
}

// NewReconcileTask builds the periodic reconciliation task. The schedule is a
// five-field cron expression.
func NewReconcileTask(sync *Synchronizer, schedule string) *ReconcileTask {
	return &ReconcileTask{sync: sync, schedule: schedule}
}

func (t *ReconcileTask) Name() string     { return "acl_reconcile" }
func (t *ReconcileTask) Schedule() string { return t.schedule }

func (t *ReconcileTask) Handle(ctx context.Context) error {
	return t.sync.Sweep(ctx)
}
