package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailmind/mailmind/internal/syncjob/domain"
)

func TestPostgreSQLSyncJobRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLSyncJobRepository(db)
	job := domain.NewMailboxSyncJob(uuid.Must(uuid.NewV7()))

	mock.ExpectExec(`INSERT INTO mailbox_sync_jobs`).
		WithArgs(job.ID, job.MailboxAccountID, job.JobType, job.Status, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(context.Background(), job)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSyncJobRepository_GetActiveByAccount(t *testing.T) {
	t.Run("returns the active job", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLSyncJobRepository(db)
		jobID := uuid.Must(uuid.NewV7())
		accountID := uuid.Must(uuid.NewV7())
		now := time.Now()

		rows := sqlmock.NewRows([]string{
			"id", "mailbox_account_id", "job_type", "status", "error_message", "started_at", "finished_at", "created_at", "updated_at",
		}).AddRow(jobID.String(), accountID.String(), "INITIAL", "PENDING", nil, nil, nil, now, now)

		mock.ExpectQuery(`SELECT id, mailbox_account_id, job_type, status`).
			WithArgs(accountID, domain.SyncJobStatusPending, domain.SyncJobStatusRunning).
			WillReturnRows(rows)

		job, err := repo.GetActiveByAccount(context.Background(), accountID)
		require.NoError(t, err)
		assert.Equal(t, jobID, job.ID)
		assert.Equal(t, accountID, job.MailboxAccountID)
		assert.True(t, job.IsActive())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports not found when no active job exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLSyncJobRepository(db)
		accountID := uuid.Must(uuid.NewV7())

		mock.ExpectQuery(`SELECT id, mailbox_account_id, job_type, status`).
			WithArgs(accountID, domain.SyncJobStatusPending, domain.SyncJobStatusRunning).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err = repo.GetActiveByAccount(context.Background(), accountID)
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLSyncJobRepository_NextPending_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLSyncJobRepository(db)

	mock.ExpectQuery(`SELECT id, mailbox_account_id, job_type, status`).
		WithArgs(domain.SyncJobStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.NextPending(context.Background())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSyncJobRepository_Claim(t *testing.T) {
	t.Run("claim succeeds when still pending", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLSyncJobRepository(db)
		jobID := uuid.Must(uuid.NewV7())

		mock.ExpectExec(`UPDATE mailbox_sync_jobs\s+SET status = \$1, started_at = NOW\(\)`).
			WithArgs(domain.SyncJobStatusRunning, jobID, domain.SyncJobStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		claimed, err := repo.Claim(context.Background(), jobID)
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("claim misses when another instance won", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLSyncJobRepository(db)
		jobID := uuid.Must(uuid.NewV7())

		mock.ExpectExec(`UPDATE mailbox_sync_jobs`).
			WithArgs(domain.SyncJobStatusRunning, jobID, domain.SyncJobStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		claimed, err := repo.Claim(context.Background(), jobID)
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLSyncJobRepository_MarkDone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLSyncJobRepository(db)
	jobID := uuid.Must(uuid.NewV7())

	mock.ExpectExec(`UPDATE mailbox_sync_jobs\s+SET status = \$1, finished_at = NOW\(\), error_message = NULL`).
		WithArgs(domain.SyncJobStatusDone, jobID, domain.SyncJobStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkDone(context.Background(), jobID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSyncJobRepository_MarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLSyncJobRepository(db)
	jobID := uuid.Must(uuid.NewV7())

	mock.ExpectExec(`UPDATE mailbox_sync_jobs\s+SET status = \$1, finished_at = NOW\(\), error_message = \$2`).
		WithArgs(domain.SyncJobStatusFailed, "imap dial timeout", jobID, domain.SyncJobStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkFailed(context.Background(), jobID, "imap dial timeout")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSyncJobRepository_Reclaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLSyncJobRepository(db)

	mock.ExpectExec(`UPDATE mailbox_sync_jobs\s+SET status = \$1, started_at = NULL`).
		WithArgs(domain.SyncJobStatusPending, domain.SyncJobStatusRunning, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	reclaimed, err := repo.Reclaim(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reclaimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
