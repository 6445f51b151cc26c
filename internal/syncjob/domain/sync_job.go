// Package domain defines the mailbox sync job entities and types.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/errors"
)

// SyncJobStatus represents the lifecycle status of a mailbox sync job
type SyncJobStatus string

const (
	SyncJobStatusPending SyncJobStatus = "PENDING"
	SyncJobStatusRunning SyncJobStatus = "RUNNING"
	SyncJobStatusDone    SyncJobStatus = "DONE"
	SyncJobStatusFailed  SyncJobStatus = "FAILED"
)

// JobType identifies the kind of sync a job performs. Only initial full syncs
// exist today; incremental syncs would add a type here.
type JobType string

const (
	JobTypeInitial JobType = "INITIAL"
)

// ErrJobNotFound indicates no sync job matched the query.
var ErrJobNotFound = errors.Wrap(errors.ErrNotFound, "sync job not found")

// MailboxSyncJob represents one unit of mailbox synchronization work for a
// single account. Jobs are consumed by the sync queue worker; terminal rows
// (DONE, FAILED) are retained for audit.
type MailboxSyncJob struct {
	ID               uuid.UUID
	MailboxAccountID uuid.UUID
	JobType          JobType
	Status           SyncJobStatus
	ErrorMessage     *string
	StartedAt        *time.Time
	FinishedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewMailboxSyncJob builds a PENDING initial sync job for the given account.
func NewMailboxSyncJob(mailboxAccountID uuid.UUID) *MailboxSyncJob {
	return &MailboxSyncJob{
		ID:               uuid.Must(uuid.NewV7()),
		MailboxAccountID: mailboxAccountID,
		JobType:          JobTypeInitial,
		Status:           SyncJobStatusPending,
	}
}

// IsActive reports whether the job still occupies the account's sync slot.
func (j *MailboxSyncJob) IsActive() bool {
	return j.Status == SyncJobStatusPending || j.Status == SyncJobStatusRunning
}
