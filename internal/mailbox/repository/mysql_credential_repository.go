package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// MySQLCredentialRepository handles mailbox credential persistence for MySQL
type MySQLCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a new MySQLCredentialRepository
func NewMySQLCredentialRepository(db *sql.DB) *MySQLCredentialRepository {
	return &MySQLCredentialRepository{
		db: db,
	}
}

// Upsert inserts the account's credential or replaces it if one exists.
func (r *MySQLCredentialRepository) Upsert(ctx context.Context, credential *domain.MailboxCredential) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mailbox_credentials (id, mailbox_account_id, access_token, refresh_token, token_expires_at,
				imap_host, imap_port, imap_username, imap_password_enc, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
			  ON DUPLICATE KEY UPDATE
				access_token = VALUES(access_token),
				refresh_token = VALUES(refresh_token),
				token_expires_at = VALUES(token_expires_at),
				imap_host = VALUES(imap_host),
				imap_port = VALUES(imap_port),
				imap_username = VALUES(imap_username),
				imap_password_enc = VALUES(imap_password_enc),
				updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, credential.ID.String(), credential.MailboxAccountID.String(),
		credential.AccessToken, credential.RefreshToken, credential.TokenExpiresAt,
		credential.ImapHost, credential.ImapPort, credential.ImapUsername, credential.ImapPasswordEnc)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert mailbox credential")
	}
	return nil
}

// GetByAccount retrieves the account's credential, or domain.ErrCredentialNotFound.
func (r *MySQLCredentialRepository) GetByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (*domain.MailboxCredential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, mailbox_account_id, access_token, refresh_token, token_expires_at,
				imap_host, imap_port, imap_username, imap_password_enc, created_at, updated_at
			  FROM mailbox_credentials WHERE mailbox_account_id = ?`

	var credential domain.MailboxCredential
	err := querier.QueryRowContext(ctx, query, mailboxAccountID.String()).Scan(
		&credential.ID, &credential.MailboxAccountID, &credential.AccessToken, &credential.RefreshToken,
		&credential.TokenExpiresAt, &credential.ImapHost, &credential.ImapPort, &credential.ImapUsername,
		&credential.ImapPasswordEnc, &credential.CreatedAt, &credential.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get mailbox credential")
	}

	return &credential, nil
}

// DeleteByAccount removes the account's credential. Deleting a missing
// credential is not an error.
func (r *MySQLCredentialRepository) DeleteByAccount(ctx context.Context, mailboxAccountID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM mailbox_credentials WHERE mailbox_account_id = ?`

	_, err := querier.ExecContext(ctx, query, mailboxAccountID.String())
	if err != nil {
		return apperrors.Wrap(err, "failed to delete mailbox credential")
	}
	return nil
}
