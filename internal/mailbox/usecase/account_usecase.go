// Package usecase implements mailbox account management and the mailbox sync
// executor.
package usecase

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
	"github.com/mailmind/mailmind/internal/metrics"
	outboxdomain "github.com/mailmind/mailmind/internal/outbox/domain"
	appvalidation "github.com/mailmind/mailmind/internal/validation"
)

// AccountRepository defines mailbox account repository operations
type AccountRepository interface {
	Create(ctx context.Context, account *domain.MailboxAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MailboxAccount, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.MailboxAccountStatus) error
}

// CredentialRepository defines mailbox credential repository operations
type CredentialRepository interface {
	Upsert(ctx context.Context, credential *domain.MailboxCredential) error
	GetByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (*domain.MailboxCredential, error)
	DeleteByAccount(ctx context.Context, mailboxAccountID uuid.UUID) error
}

// OutboxEventWriter is the slice of the outbox repository the account usecase
// needs: writing events inside its own transactions.
type OutboxEventWriter interface {
	Create(ctx context.Context, event *outboxdomain.OutboxEvent) error
}

// CredentialKeeper seals and opens stored secrets.
type CredentialKeeper interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, stored string) (string, error)
}

// CreateAccountInput carries the fields for creating a mailbox account.
type CreateAccountInput struct {
	UserID      uuid.UUID
	Provider    string
	Email       string
	DisplayName *string
}

// Validate checks the input fields.
func (i CreateAccountInput) Validate() error {
	return appvalidation.WrapValidationError(validation.ValidateStruct(&i,
		validation.Field(&i.Provider, validation.Required, appvalidation.NotBlank),
		validation.Field(&i.Email, validation.Required, appvalidation.Email),
	))
}

// ActivateAccountInput carries the credentials supplied on activation. Either
// the OAuth fields or the IMAP fields must be present.
type ActivateAccountInput struct {
	AccessToken    *string
	RefreshToken   *string
	TokenExpiresAt *time.Time
	ImapHost       *string
	ImapPort       *int
	ImapUsername   *string
	ImapPassword   *string
}

func (i ActivateAccountInput) hasOAuth() bool {
	return i.AccessToken != nil && *i.AccessToken != ""
}

func (i ActivateAccountInput) hasImap() bool {
	return i.ImapHost != nil && *i.ImapHost != "" &&
		i.ImapUsername != nil && *i.ImapUsername != "" &&
		i.ImapPassword != nil && *i.ImapPassword != ""
}

// Validate checks that at least one credential mechanism is fully supplied.
func (i ActivateAccountInput) Validate() error {
	if !i.hasOAuth() && !i.hasImap() {
		return domain.ErrNoCredentialsProvided
	}
	if i.ImapPort != nil {
		if err := validation.Validate(*i.ImapPort, appvalidation.Port); err != nil {
			return appvalidation.WrapValidationError(err)
		}
	}
	return nil
}

// AccountUseCase implements mailbox account management. Activate and Revoke
// write their outbox event in the same transaction as the account mutation;
// that is the entire consistency guarantee the relay builds on.
type AccountUseCase struct {
	accountRepo    AccountRepository
	credentialRepo CredentialRepository
	outboxWriter   OutboxEventWriter
	keeper         CredentialKeeper
	txManager      database.TxManager
	logger         *slog.Logger
	metrics        metrics.BusinessMetrics
}

// NewAccountUseCase creates a new AccountUseCase
func NewAccountUseCase(
	accountRepo AccountRepository,
	credentialRepo CredentialRepository,
	outboxWriter OutboxEventWriter,
	keeper CredentialKeeper,
	txManager database.TxManager,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *AccountUseCase {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &AccountUseCase{
		accountRepo:    accountRepo,
		credentialRepo: credentialRepo,
		outboxWriter:   outboxWriter,
		keeper:         keeper,
		txManager:      txManager,
		logger:         logger,
		metrics:        businessMetrics,
	}
}

// Create registers a PENDING mailbox account. The (provider, email) pair is
// unique; a duplicate returns domain.ErrAccountExists.
func (u *AccountUseCase) Create(ctx context.Context, input CreateAccountInput) (*domain.MailboxAccount, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	account := domain.NewMailboxAccount(input.UserID, input.Provider, input.Email, input.DisplayName)
	if err := u.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	u.logger.Info("mailbox account created",
		slog.String("mailbox_account_id", account.ID.String()),
		slog.String("provider", account.Provider),
		slog.String("email", account.Email),
	)
	u.metrics.RecordOperation(ctx, "mailbox", "create_account", "success")

	return account, nil
}

// Activate stores the account's credentials, marks it ACTIVE, and records a
// MAILBOX_ACCOUNT_CONNECTED outbox event, all in one transaction.
func (u *AccountUseCase) Activate(ctx context.Context, accountID uuid.UUID, input ActivateAccountInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	account, err := u.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	credential := domain.NewMailboxCredential(accountID)
	credential.AccessToken = input.AccessToken
	credential.RefreshToken = input.RefreshToken
	credential.TokenExpiresAt = input.TokenExpiresAt
	credential.ImapHost = input.ImapHost
	credential.ImapPort = input.ImapPort
	credential.ImapUsername = input.ImapUsername

	if input.hasImap() {
		sealed, err := u.keeper.Encrypt(ctx, *input.ImapPassword)
		if err != nil {
			return err
		}
		credential.ImapPasswordEnc = &sealed
	}

	event, err := outboxdomain.NewOutboxEvent(outboxdomain.EventTypeMailboxAccountConnected,
		outboxdomain.AccountConnectedPayload{
			MailboxAccountID: account.ID,
			UserID:           account.UserID,
			Provider:         account.Provider,
			Email:            account.Email,
		})
	if err != nil {
		return err
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.credentialRepo.Upsert(ctx, credential); err != nil {
			return err
		}
		if err := u.accountRepo.UpdateStatus(ctx, account.ID, domain.MailboxAccountStatusActive); err != nil {
			return err
		}
		return u.outboxWriter.Create(ctx, event)
	})
	if err != nil {
		u.metrics.RecordOperation(ctx, "mailbox", "activate_account", "error")
		return err
	}

	u.logger.Info("mailbox account activated",
		slog.String("mailbox_account_id", account.ID.String()),
		slog.String("event_id", event.ID.String()),
	)
	u.metrics.RecordOperation(ctx, "mailbox", "activate_account", "success")

	return nil
}

// Revoke deletes the account's credentials, marks it REVOKED, and records a
// MAILBOX_ACCOUNT_REVOKED outbox event, all in one transaction.
func (u *AccountUseCase) Revoke(ctx context.Context, accountID uuid.UUID) error {
	account, err := u.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	event, err := outboxdomain.NewOutboxEvent(outboxdomain.EventTypeMailboxAccountRevoked,
		outboxdomain.AccountRevokedPayload{
			MailboxAccountID: account.ID,
			UserID:           account.UserID,
			Provider:         account.Provider,
			Email:            account.Email,
		})
	if err != nil {
		return err
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.credentialRepo.DeleteByAccount(ctx, account.ID); err != nil {
			return err
		}
		if err := u.accountRepo.UpdateStatus(ctx, account.ID, domain.MailboxAccountStatusRevoked); err != nil {
			return err
		}
		return u.outboxWriter.Create(ctx, event)
	})
	if err != nil {
		u.metrics.RecordOperation(ctx, "mailbox", "revoke_account", "error")
		return err
	}

	u.logger.Info("mailbox account revoked",
		slog.String("mailbox_account_id", account.ID.String()),
		slog.String("event_id", event.ID.String()),
	)
	u.metrics.RecordOperation(ctx, "mailbox", "revoke_account", "success")

	return nil
}

// List returns the user's mailbox accounts, newest first.
func (u *AccountUseCase) List(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error) {
	return u.accountRepo.ListByUser(ctx, userID)
}
