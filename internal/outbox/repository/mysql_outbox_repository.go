// Package repository provides data persistence implementations for outbox entities.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/outbox/domain"
)

// MySQLOutboxEventRepository handles outbox event persistence for MySQL
type MySQLOutboxEventRepository struct {
	db *sql.DB
}

// NewMySQLOutboxEventRepository creates a new MySQLOutboxEventRepository
func NewMySQLOutboxEventRepository(db *sql.DB) *MySQLOutboxEventRepository {
	return &MySQLOutboxEventRepository{
		db: db,
	}
}

// Create inserts a new outbox event. Call it inside the same transaction as the
// business-state write the event describes.
func (r *MySQLOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_events (id, event_type, payload, status, error_message, claimed_at, resolved_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, event.ID.String(), event.EventType, event.Payload, event.Status,
		event.ErrorMessage, event.ClaimedAt, event.ResolvedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// NextPending retrieves the oldest PENDING event, or domain.ErrEventNotFound.
func (r *MySQLOutboxEventRepository) NextPending(ctx context.Context) (*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, event_type, payload, status, error_message, claimed_at, resolved_at, created_at, updated_at
			  FROM outbox_events
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT 1`

	var event domain.OutboxEvent
	err := querier.QueryRowContext(ctx, query, domain.OutboxEventStatusPending).Scan(
		&event.ID, &event.EventType, &event.Payload, &event.Status,
		&event.ErrorMessage, &event.ClaimedAt, &event.ResolvedAt, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get next pending event")
	}

	return &event, nil
}

// Claim attempts the PENDING -> PROCESSING transition for one event. Zero
// affected rows means another instance claimed the event first.
func (r *MySQLOutboxEventRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = ?, claimed_at = NOW(), updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEventStatusProcessing, id.String(), domain.OutboxEventStatusPending)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to claim outbox event")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read claim result")
	}

	return affected == 1, nil
}

// MarkDone transitions a PROCESSING event to DONE.
func (r *MySQLOutboxEventRepository) MarkDone(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = ?, resolved_at = NOW(), error_message = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	_, err := querier.ExecContext(ctx, query,
		domain.OutboxEventStatusDone, id.String(), domain.OutboxEventStatusProcessing)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark outbox event done")
	}
	return nil
}

// MarkFailed transitions a PROCESSING event to FAILED and records the error message.
func (r *MySQLOutboxEventRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = ?, resolved_at = NOW(), error_message = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	_, err := querier.ExecContext(ctx, query,
		domain.OutboxEventStatusFailed, message, id.String(), domain.OutboxEventStatusProcessing)
	if err != nil {
		return apperrors.Wrap(err, "failed to mark outbox event failed")
	}
	return nil
}

// Reclaim returns PROCESSING events whose claim is older than the lease back to
// PENDING. Returns the number of reclaimed events.
func (r *MySQLOutboxEventRepository) Reclaim(ctx context.Context, lease time.Duration) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_events
			  SET status = ?, claimed_at = NULL, updated_at = NOW()
			  WHERE status = ? AND claimed_at < ?`

	result, err := querier.ExecContext(ctx, query,
		domain.OutboxEventStatusPending, domain.OutboxEventStatusProcessing, time.Now().Add(-lease))
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to reclaim outbox events")
	}

	return result.RowsAffected()
}
