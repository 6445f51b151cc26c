// Package domain defines the mailbox account, credential and message entities.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/errors"
)

// MailboxAccountStatus represents the lifecycle status of a mailbox account
type MailboxAccountStatus string

const (
	MailboxAccountStatusPending MailboxAccountStatus = "PENDING"
	MailboxAccountStatusActive  MailboxAccountStatus = "ACTIVE"
	MailboxAccountStatusRevoked MailboxAccountStatus = "REVOKED"
)

// Domain-specific errors for mailbox operations.
var (
	// ErrAccountNotFound indicates the mailbox account does not exist.
	ErrAccountNotFound = errors.Wrap(errors.ErrNotFound, "mailbox account not found")

	// ErrAccountExists indicates an account with the same provider and email
	// already exists.
	ErrAccountExists = errors.Wrap(errors.ErrConflict, "mailbox account already exists")

	// ErrCredentialNotFound indicates the account has no stored credential.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "mailbox credential not found")

	// ErrNoCredentialsProvided indicates an activation carried neither OAuth
	// tokens nor IMAP credentials.
	ErrNoCredentialsProvided = errors.Wrap(errors.ErrInvalidInput, "either oauth tokens or imap credentials must be provided")
)

// MailboxAccount represents one connected mailbox for a user. The
// (provider, email) pair is unique across all users.
type MailboxAccount struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Provider    string
	Email       string
	DisplayName *string
	Status      MailboxAccountStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMailboxAccount builds a PENDING account for the given user.
func NewMailboxAccount(userID uuid.UUID, provider, email string, displayName *string) *MailboxAccount {
	return &MailboxAccount{
		ID:          uuid.Must(uuid.NewV7()),
		UserID:      userID,
		Provider:    provider,
		Email:       email,
		DisplayName: displayName,
		Status:      MailboxAccountStatusPending,
	}
}
