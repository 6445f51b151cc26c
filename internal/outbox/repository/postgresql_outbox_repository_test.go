package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailmind/mailmind/internal/outbox/domain"
)

func TestPostgreSQLOutboxEventRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOutboxEventRepository(db)

	event, err := domain.NewOutboxEvent(domain.EventTypeMailboxAccountConnected, domain.AccountConnectedPayload{
		MailboxAccountID: uuid.Must(uuid.NewV7()),
	})
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs(event.ID, event.EventType, event.Payload, event.Status, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Create(context.Background(), event)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxEventRepository_NextPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOutboxEventRepository(db)
	eventID := uuid.Must(uuid.NewV7())
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "event_type", "payload", "status", "error_message", "claimed_at", "resolved_at", "created_at", "updated_at",
	}).AddRow(eventID.String(), "MAILBOX_ACCOUNT_CONNECTED", `{"mailboxAccountId":"x"}`, "PENDING", nil, nil, nil, now, now)

	mock.ExpectQuery(`SELECT id, event_type, payload, status, error_message, claimed_at, resolved_at, created_at, updated_at\s+FROM outbox_events`).
		WithArgs(domain.OutboxEventStatusPending).
		WillReturnRows(rows)

	event, err := repo.NextPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, eventID, event.ID)
	assert.Equal(t, domain.EventTypeMailboxAccountConnected, event.EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxEventRepository_NextPending_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOutboxEventRepository(db)

	mock.ExpectQuery(`SELECT id, event_type, payload, status`).
		WithArgs(domain.OutboxEventStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.NextPending(context.Background())
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxEventRepository_Claim(t *testing.T) {
	t.Run("claim succeeds when still pending", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLOutboxEventRepository(db)
		eventID := uuid.Must(uuid.NewV7())

		mock.ExpectExec(`UPDATE outbox_events\s+SET status = \$1, claimed_at = NOW\(\), updated_at = NOW\(\)\s+WHERE id = \$2 AND status = \$3`).
			WithArgs(domain.OutboxEventStatusProcessing, eventID, domain.OutboxEventStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		claimed, err := repo.Claim(context.Background(), eventID)
		require.NoError(t, err)
		assert.True(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("claim misses when another instance won", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		repo := NewPostgreSQLOutboxEventRepository(db)
		eventID := uuid.Must(uuid.NewV7())

		mock.ExpectExec(`UPDATE outbox_events`).
			WithArgs(domain.OutboxEventStatusProcessing, eventID, domain.OutboxEventStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		claimed, err := repo.Claim(context.Background(), eventID)
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLOutboxEventRepository_MarkDone(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOutboxEventRepository(db)
	eventID := uuid.Must(uuid.NewV7())

	mock.ExpectExec(`UPDATE outbox_events\s+SET status = \$1, resolved_at = NOW\(\), error_message = NULL`).
		WithArgs(domain.OutboxEventStatusDone, eventID, domain.OutboxEventStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkDone(context.Background(), eventID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxEventRepository_MarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOutboxEventRepository(db)
	eventID := uuid.Must(uuid.NewV7())

	mock.ExpectExec(`UPDATE outbox_events\s+SET status = \$1, resolved_at = NOW\(\), error_message = \$2`).
		WithArgs(domain.OutboxEventStatusFailed, "imap credential not found", eventID, domain.OutboxEventStatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkFailed(context.Background(), eventID, "imap credential not found")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOutboxEventRepository_Reclaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgreSQLOutboxEventRepository(db)

	mock.ExpectExec(`UPDATE outbox_events\s+SET status = \$1, claimed_at = NULL`).
		WithArgs(domain.OutboxEventStatusPending, domain.OutboxEventStatusProcessing, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	reclaimed, err := repo.Reclaim(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), reclaimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
