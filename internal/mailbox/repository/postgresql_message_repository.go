package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// PostgreSQLMessageRepository handles mailbox message persistence for PostgreSQL
type PostgreSQLMessageRepository struct {
	db *sql.DB
}

// NewPostgreSQLMessageRepository creates a new PostgreSQLMessageRepository
func NewPostgreSQLMessageRepository(db *sql.DB) *PostgreSQLMessageRepository {
	return &PostgreSQLMessageRepository{
		db: db,
	}
}

// Upsert inserts a message or refreshes its fields when the same provider
// message was already synced. The (mailbox_account_id, provider_message_id)
// key makes repeated syncs of the same window idempotent; the latest fetched
// fields win.
func (r *PostgreSQLMessageRepository) Upsert(ctx context.Context, message *domain.MailboxMessage) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mailbox_messages (id, mailbox_account_id, provider_message_id, folder,
				from_address, to_addresses, subject, internal_date, snippet, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			  ON CONFLICT (mailbox_account_id, provider_message_id) DO UPDATE SET
				from_address = EXCLUDED.from_address,
				to_addresses = EXCLUDED.to_addresses,
				subject = EXCLUDED.subject,
				internal_date = EXCLUDED.internal_date,
				snippet = EXCLUDED.snippet,
				updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, message.ID, message.MailboxAccountID,
		message.ProviderMessageID, message.Folder, message.FromAddress, message.ToAddresses,
		message.Subject, message.InternalDate, message.Snippet)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert mailbox message")
	}
	return nil
}

// CountByAccount returns the number of stored messages for an account.
func (r *PostgreSQLMessageRepository) CountByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM mailbox_messages WHERE mailbox_account_id = $1`

	var count int64
	if err := querier.QueryRowContext(ctx, query, mailboxAccountID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count mailbox messages")
	}
	return count, nil
}
