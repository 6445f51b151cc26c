// Package repository provides data persistence implementations for sync job entities.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/syncjob/domain"
)

// MySQLSyncJobRepository handles sync job persistence for MySQL
type MySQLSyncJobRepository struct {
	db *sql.DB
}

// NewMySQLSyncJobRepository creates a new MySQLSyncJobRepository
func NewMySQLSyncJobRepository(db *sql.DB) *MySQLSyncJobRepository {
	return &MySQLSyncJobRepository{
		db: db,
	}
}

// Create inserts a new sync job.
func (r *MySQLSyncJobRepository) Create(ctx context.Context, job *domain.MailboxSyncJob) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mailbox_sync_jobs (id, mailbox_account_id, job_type, status, error_message, started_at, finished_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, job.ID.String(), job.MailboxAccountID.String(), job.JobType,
		job.Status, job.ErrorMessage, job.StartedAt, job.FinishedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create sync job")
	}
	return nil
}

// GetActiveByAccount retrieves the account's PENDING or RUNNING job, or
// domain.ErrJobNotFound when the account has no active job.
func (r *MySQLSyncJobRepository) GetActiveByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (*domain.MailboxSyncJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, mailbox_account_id, job_type, status, error_message, started_at, finished_at, created_at, updated_at
			  FROM mailbox_sync_jobs
			  WHERE mailbox_account_id = ? AND status IN (?, ?)
			  ORDER BY created_at ASC
			  LIMIT 1`

	var job domain.MailboxSyncJob
	err := querier.QueryRowContext(ctx, query, mailboxAccountID.String(),
		domain.SyncJobStatusPending, domain.SyncJobStatusRunning).Scan(
		&job.ID, &job.MailboxAccountID, &job.JobType, &job.Status,
		&job.ErrorMessage, &job.StartedAt, &job.FinishedAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get active sync job")
	}

	return &job, nil
}

// NextPending retrieves the oldest PENDING job, or domain.ErrJobNotFound.
func (r *MySQLSyncJobRepository) NextPending(ctx context.Context) (*domain.MailboxSyncJob, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, mailbox_account_id, job_type, status, error_message, started_at, finished_at, created_at, updated_at
			  FROM mailbox_sync_jobs
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT 1`

	var job domain.MailboxSyncJob
	err := querier.QueryRowContext(ctx, query, domain.SyncJobStatusPending).Scan(
		&job.ID, &job.MailboxAccountID, &job.JobType, &job.Status,
		&job.ErrorMessage, &job.StartedAt, &job.FinishedAt, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get next pending sync job")
	}

	return &job, nil
}

// Claim attempts the PENDING -> RUNNING transition for one job and stamps
// started_at. Zero affected rows means another instance claimed the job first.
func (r *MySQLSyncJobRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE mailbox_sync_jobs
			  SET status = ?, started_at = NOW(), updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query,
		domain.SyncJobStatusRunning, id.String(), domain.SyncJobStatusPending)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to claim sync job")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read claim result")
	}

	return affected == 1, nil
}

// MarkDone transitions a RUNNING job to DONE.
func (r *MySQLSyncJobRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE mailbox_sync_jobs
			  SET status = ?, finished_at = NOW(), error_message = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	_, err := querier.ExecContext(ctx, query,
		domain.SyncJobStatusDone, id.String(), domain.SyncJobStatusRunning)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark sync job done")
	}
	return nil
}

// MarkFailed transitions a RUNNING job to FAILED and records the error message.
func (r *MySQLSyncJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE mailbox_sync_jobs
			  SET status = ?, finished_at = NOW(), error_message = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	_, err := querier.ExecContext(ctx, query,
		domain.SyncJobStatusFailed, message, id.String(), domain.SyncJobStatusRunning)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark sync job failed")
	}
	return nil
}

// Reclaim returns RUNNING jobs whose start is older than the lease back to
// PENDING. Returns the number of reclaimed jobs.
func (r *MySQLSyncJobRepository) Reclaim(ctx context.Context, lease time.Duration) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE mailbox_sync_jobs
			  SET status = ?, started_at = NULL, updated_at = NOW()
			  WHERE status = ? AND started_at < ?`

	result, err := querier.ExecContext(ctx, query,
		domain.SyncJobStatusPending, domain.SyncJobStatusRunning, time.Now().Add(-lease))
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reclaim sync jobs")
	}

	return result.RowsAffected()
}
