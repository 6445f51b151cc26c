// Package repository provides data persistence implementations for mailbox entities.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// PostgreSQLAccountRepository handles mailbox account persistence for PostgreSQL
type PostgreSQLAccountRepository struct {
	db *sql.DB
}

// NewPostgreSQLAccountRepository creates a new PostgreSQLAccountRepository
func NewPostgreSQLAccountRepository(db *sql.DB) *PostgreSQLAccountRepository {
	return &PostgreSQLAccountRepository{
		db: db,
	}
}

// Create inserts a new mailbox account
func (r *PostgreSQLAccountRepository) Create(ctx context.Context, account *domain.MailboxAccount) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO mailbox_accounts (id, user_id, provider, email, display_name, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, account.ID, account.UserID, account.Provider,
		account.Email, account.DisplayName, account.Status)
	if err != nil {
		// Unique constraint on (provider, email)
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrAccountExists
		}
		return apperrors.Wrap(err, "failed to create mailbox account")
	}
	return nil
}

// GetByID retrieves a mailbox account by ID
func (r *PostgreSQLAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MailboxAccount, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, provider, email, display_name, status, created_at, updated_at
			  FROM mailbox_accounts WHERE id = $1`

	var account domain.MailboxAccount
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.UserID, &account.Provider, &account.Email,
		&account.DisplayName, &account.Status, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get mailbox account by id")
	}

	return &account, nil
}

// ListByUser retrieves all mailbox accounts for a user, newest first.
func (r *PostgreSQLAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, provider, email, display_name, status, created_at, updated_at
			  FROM mailbox_accounts WHERE user_id = $1
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list mailbox accounts")
	}
	defer rows.Close()

	var accounts []*domain.MailboxAccount
	for rows.Next() {
		var account domain.MailboxAccount
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.Provider, &account.Email,
			&account.DisplayName, &account.Status, &account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan mailbox account")
		}
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate mailbox accounts")
	}

	return accounts, nil
}

// UpdateStatus changes the account's lifecycle status.
func (r *PostgreSQLAccountRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MailboxAccountStatus) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE mailbox_accounts SET status = $1, updated_at = NOW() WHERE id = $2`

	result, err := querier.ExecContext(ctx, query, status, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update mailbox account status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read update result")
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
