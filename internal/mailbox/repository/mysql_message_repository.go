package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// MySQLMessageRepository handles mailbox message persistence for MySQL
type MySQLMessageRepository struct {
	db *sql.DB
}

// NewMySQLMessageRepository creates a new MySQLMessageRepository
func NewMySQLMessageRepository(db *sql.DB) *MySQLMessageRepository {
	return &MySQLMessageRepository{
		db: db,
	}
}

// Upsert inserts a message or refreshes its fields when the same provider
// message was already synced; the latest fetched fields win.
func (r *MySQLMessageRepository) Upsert(ctx context.Context, message *domain.MailboxMessage) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mailbox_messages (id, mailbox_account_id, provider_message_id, folder,
				from_address, to_addresses, subject, internal_date, snippet, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
			  ON DUPLICATE KEY UPDATE
				from_address = VALUES(from_address),
				to_addresses = VALUES(to_addresses),
				subject = VALUES(subject),
				internal_date = VALUES(internal_date),
				snippet = VALUES(snippet),
				updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, message.ID.String(), message.MailboxAccountID.String(),
		message.ProviderMessageID, message.Folder, message.FromAddress, message.ToAddresses,
		message.Subject, message.InternalDate, message.Snippet)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert mailbox message")
	}
	return nil
}

// CountByAccount returns the number of stored messages for an account.
func (r *MySQLMessageRepository) CountByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT COUNT(*) FROM mailbox_messages WHERE mailbox_account_id = ?`

	var count int64
	if err := querier.QueryRowContext(ctx, query, mailboxAccountID.String()).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count mailbox messages")
	}
	return count, nil
}
