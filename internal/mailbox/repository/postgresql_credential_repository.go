package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// PostgreSQLCredentialRepository handles mailbox credential persistence for PostgreSQL
type PostgreSQLCredentialRepository struct {
	db *sql.DB
}

// NewPostgreSQLCredentialRepository creates a new PostgreSQLCredentialRepository
func NewPostgreSQLCredentialRepository(db *sql.DB) *PostgreSQLCredentialRepository {
	return &PostgreSQLCredentialRepository{
		db: db,
	}
}

// Upsert inserts the account's credential or replaces it if one exists.
// Re-activating an account overwrites the previous secrets.
func (r *PostgreSQLCredentialRepository) Upsert(ctx context.Context, credential *domain.MailboxCredential) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mailbox_credentials (id, mailbox_account_id, access_token, refresh_token, token_expires_at,
				imap_host, imap_port, imap_username, imap_password_enc, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			  ON CONFLICT (mailbox_account_id) DO UPDATE SET
				access_token = EXCLUDED.access_token,
				refresh_token = EXCLUDED.refresh_token,
				token_expires_at = EXCLUDED.token_expires_at,
				imap_host = EXCLUDED.imap_host,
				imap_port = EXCLUDED.imap_port,
				imap_username = EXCLUDED.imap_username,
				imap_password_enc = EXCLUDED.imap_password_enc,
				updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, credential.ID, credential.MailboxAccountID,
		credential.AccessToken, credential.RefreshToken, credential.TokenExpiresAt,
		credential.ImapHost, credential.ImapPort, credential.ImapUsername, credential.ImapPasswordEnc)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert mailbox credential")
	}
	return nil
}

// GetByAccount retrieves the account's credential, or domain.ErrCredentialNotFound.
func (r *PostgreSQLCredentialRepository) GetByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (*domain.MailboxCredential, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, mailbox_account_id, access_token, refresh_token, token_expires_at,
				imap_host, imap_port, imap_username, imap_password_enc, created_at, updated_at
			  FROM mailbox_credentials WHERE mailbox_account_id = $1`

	var credential domain.MailboxCredential
	err := querier.QueryRowContext(ctx, query, mailboxAccountID).Scan(
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
// credential is not an error; revoke must be idempotent.
func (r *PostgreSQLCredentialRepository) DeleteByAccount(ctx context.Context, mailboxAccountID uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM mailbox_credentials WHERE mailbox_account_id = $1`

	_, err := querier.ExecContext(ctx, query, mailboxAccountID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete mailbox credential")
	}
	return nil
}
