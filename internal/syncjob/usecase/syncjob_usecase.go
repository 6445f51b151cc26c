// Package usecase implements the mailbox sync job queue: enqueueing jobs for
// connected accounts and running them through a claim-based polling worker.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/metrics"
	"github.com/mailmind/mailmind/internal/syncjob/domain"
)

// Config holds sync queue configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	ClaimLease time.Duration
}

// SyncJobRepository defines sync job repository operations
type SyncJobRepository interface {
	Create(ctx context.Context, job *domain.MailboxSyncJob) error
	GetActiveByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (*domain.MailboxSyncJob, error)
	NextPending(ctx context.Context) (*domain.MailboxSyncJob, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	Reclaim(ctx context.Context, lease time.Duration) (int64, error)
}

// SyncReport summarizes one completed mailbox sync.
type SyncReport struct {
	MessagesFetched int
	Cursor          string
}

// SyncRunner performs the actual mailbox synchronization for one account. The
// queue stays agnostic of IMAP: it only claims jobs and records their outcome.
type SyncRunner interface {
	Run(ctx context.Context, mailboxAccountID uuid.UUID) (SyncReport, error)
}

// EnqueueOutcome classifies the result of an Enqueue call.
type EnqueueOutcome string

const (
	// OutcomeEnqueued means a new PENDING job was created.
	OutcomeEnqueued EnqueueOutcome = "enqueued"
	// OutcomeSkipped means the account already had an active job.
	OutcomeSkipped EnqueueOutcome = "skipped"
)

// EnqueueResult reports what Enqueue did. JobID names the created job for
// OutcomeEnqueued and the pre-existing active job for OutcomeSkipped.
type EnqueueResult struct {
	Outcome EnqueueOutcome
	JobID   uuid.UUID
}

// RunOutcome classifies the result of a RunNext call.
type RunOutcome string

const (
	// RunOutcomeNoWork means no pending job existed, or another instance
	// claimed it first. Not an error.
	RunOutcomeNoWork RunOutcome = "no_work"
	// RunOutcomeCompleted means the job reached DONE.
	RunOutcomeCompleted RunOutcome = "completed"
	// RunOutcomeFailed means the job reached FAILED.
	RunOutcomeFailed RunOutcome = "failed"
)

// RunResult reports what a RunNext call did. Err is set only for
// RunOutcomeFailed and carries the sync failure.
type RunResult struct {
	Outcome RunOutcome
	JobID   uuid.UUID
	Report  SyncReport
	Err     error
}

// UseCase defines the interface for the sync job queue
type UseCase interface {
	Enqueue(ctx context.Context, mailboxAccountID uuid.UUID) (EnqueueResult, error)
	RunNext(ctx context.Context) (RunResult, error)
	Start(ctx context.Context) error
}

// SyncQueue implements the sync job queue over a repository and a runner. Like
// the outbox relay, it is safe to run from multiple process instances: job
// ownership is decided by the repository's conditional-update claim.
type SyncQueue struct {
	config    Config
	repo      SyncJobRepository
	runner    SyncRunner
	txManager database.TxManager
	logger    *slog.Logger
	metrics   metrics.BusinessMetrics
}

// NewSyncQueue creates a new SyncQueue
func NewSyncQueue(
	config Config,
	repo SyncJobRepository,
	runner SyncRunner,
	txManager database.TxManager,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *SyncQueue {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &SyncQueue{
		config:    config,
		repo:      repo,
		runner:    runner,
		txManager: txManager,
		logger:    logger,
		metrics:   businessMetrics,
	}
}

// Enqueue creates an initial sync job for the account unless it already has a
// PENDING or RUNNING one. The existence check and the insert share one
// transaction, which narrows the duplicate window without a DB constraint;
// duplicates that slip through are harmless because message upserts are
// idempotent.
func (q *SyncQueue) Enqueue(ctx context.Context, mailboxAccountID uuid.UUID) (EnqueueResult, error) {
	var result EnqueueResult

	err := q.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := q.repo.GetActiveByAccount(ctx, mailboxAccountID)
		if err == nil {
			result = EnqueueResult{Outcome: OutcomeSkipped, JobID: existing.ID}
			return nil
		}
		if !apperrors.Is(err, domain.ErrJobNotFound) {
			return err
		}

		job := domain.NewMailboxSyncJob(mailboxAccountID)
		if err := q.repo.Create(ctx, job); err != nil {
			return err
		}
		result = EnqueueResult{Outcome: OutcomeEnqueued, JobID: job.ID}
		return nil
	})
	if err != nil {
		return EnqueueResult{}, err
	}

	if result.Outcome == OutcomeSkipped {
		q.logger.Info("sync job already active, skipping enqueue",
			slog.String("mailbox_account_id", mailboxAccountID.String()),
			slog.String("job_id", result.JobID.String()),
		)
	} else {
		q.logger.Info("sync job enqueued",
			slog.String("mailbox_account_id", mailboxAccountID.String()),
			slog.String("job_id", result.JobID.String()),
		)
	}
	q.metrics.RecordOperation(ctx, "syncjob", "enqueue", string(result.Outcome))

	return result, nil
}

// RunNext claims the oldest pending job and runs it. A claim miss is reported
// as RunOutcomeNoWork, not an error. The returned error is reserved for
// storage failures.
func (q *SyncQueue) RunNext(ctx context.Context) (RunResult, error) {
	job, err := q.repo.NextPending(ctx)
	if err != nil {
		if apperrors.Is(err, domain.ErrJobNotFound) {
			return RunResult{Outcome: RunOutcomeNoWork}, nil
		}
		return RunResult{Outcome: RunOutcomeNoWork}, err
	}

	claimed, err := q.repo.Claim(ctx, job.ID)
	if err != nil {
		return RunResult{Outcome: RunOutcomeNoWork}, err
	}
	if !claimed {
		return RunResult{Outcome: RunOutcomeNoWork}, nil
	}

	q.logger.Info("running sync job",
		slog.String("job_id", job.ID.String()),
		slog.String("mailbox_account_id", job.MailboxAccountID.String()),
	)

	start := time.Now()
	report, err := q.runner.Run(ctx, job.MailboxAccountID)
	if err != nil {
		q.metrics.RecordDuration(ctx, "syncjob", "run", time.Since(start), "error")
		if markErr := q.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			return RunResult{Outcome: RunOutcomeNoWork, JobID: job.ID}, markErr
		}
		q.metrics.RecordOperation(ctx, "syncjob", "run", "error")
		return RunResult{Outcome: RunOutcomeFailed, JobID: job.ID, Err: err}, nil
	}
	q.metrics.RecordDuration(ctx, "syncjob", "run", time.Since(start), "success")

	if err := q.repo.MarkDone(ctx, job.ID); err != nil {
		return RunResult{Outcome: RunOutcomeNoWork, JobID: job.ID}, err
	}
	q.metrics.RecordOperation(ctx, "syncjob", "run", "success")

	q.logger.Info("sync job completed",
		slog.String("job_id", job.ID.String()),
		slog.Int("messages_fetched", report.MessagesFetched),
		slog.String("cursor", report.Cursor),
	)

	return RunResult{Outcome: RunOutcomeCompleted, JobID: job.ID, Report: report}, nil
}

// Start runs the queue polling loop until the context is cancelled. Individual
// job failures never stop the loop.
func (q *SyncQueue) Start(ctx context.Context) error {
	q.logger.Info("starting sync queue",
		slog.Duration("interval", q.config.Interval),
		slog.Int("batch_size", q.config.BatchSize),
	)

	ticker := time.NewTicker(q.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("stopping sync queue")
			return ctx.Err()
		case <-ticker.C:
			q.tick(ctx)
		}
	}
}

// tick reclaims expired claims, then runs up to BatchSize jobs.
func (q *SyncQueue) tick(ctx context.Context) {
	if q.config.ClaimLease > 0 {
		reclaimed, err := q.repo.Reclaim(ctx, q.config.ClaimLease)
		if err != nil {
			q.logger.Error("failed to reclaim expired job claims", slog.Any("error", err))
		} else if reclaimed > 0 {
			q.logger.Warn("reclaimed orphaned sync jobs", slog.Int64("count", reclaimed))
		}
	}

	for i := 0; i < q.config.BatchSize; i++ {
		result, err := q.RunNext(ctx)
		if err != nil {
			q.logger.Error("failed to run sync job", slog.Any("error", err))
			return
		}

		switch result.Outcome {
		case RunOutcomeNoWork:
			return
		case RunOutcomeFailed:
			q.logger.Error("sync job failed",
				slog.String("job_id", result.JobID.String()),
				slog.Any("error", result.Err),
			)
		case RunOutcomeCompleted:
		}
	}
}
