package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/database"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
	"github.com/mailmind/mailmind/internal/metrics"
	syncusecase "github.com/mailmind/mailmind/internal/syncjob/usecase"
)

// MessageRepository defines mailbox message repository operations
type MessageRepository interface {
	Upsert(ctx context.Context, message *domain.MailboxMessage) error
	CountByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (int64, error)
}

// MailGateway fetches recent messages from the mail provider.
type MailGateway interface {
	FetchRecent(ctx context.Context, creds domain.ImapCredentials, limit int) ([]domain.ProviderMessage, error)
}

// SyncExecutor performs one mailbox sync: resolve credentials, fetch the
// recent window, and upsert the batch in a single transaction. It implements
// the sync queue's runner contract.
type SyncExecutor struct {
	credentialRepo CredentialRepository
	messageRepo    MessageRepository
	gateway        MailGateway
	keeper         CredentialKeeper
	txManager      database.TxManager
	fetchLimit     int
	logger         *slog.Logger
	metrics        metrics.BusinessMetrics
}

// NewSyncExecutor creates a new SyncExecutor
func NewSyncExecutor(
	credentialRepo CredentialRepository,
	messageRepo MessageRepository,
	gateway MailGateway,
	keeper CredentialKeeper,
	txManager database.TxManager,
	fetchLimit int,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *SyncExecutor {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &SyncExecutor{
		credentialRepo: credentialRepo,
		messageRepo:    messageRepo,
		gateway:        gateway,
		keeper:         keeper,
		txManager:      txManager,
		fetchLimit:     fetchLimit,
		logger:         logger,
		metrics:        businessMetrics,
	}
}

// Run syncs one account's inbox. Credential problems fail fast before any
// network traffic. The whole fetched batch is upserted in one transaction, so
// a mid-batch failure leaves no partial window behind; re-running the job is
// safe because upserts are keyed by provider message id.
func (e *SyncExecutor) Run(ctx context.Context, mailboxAccountID uuid.UUID) (syncusecase.SyncReport, error) {
	credential, err := e.credentialRepo.GetByAccount(ctx, mailboxAccountID)
	if err != nil {
		return syncusecase.SyncReport{}, err
	}

	creds, err := credential.ResolveImap()
	if err != nil {
		return syncusecase.SyncReport{}, err
	}

	password, err := e.keeper.Decrypt(ctx, creds.Password)
	if err != nil {
		return syncusecase.SyncReport{}, err
	}
	creds.Password = password

	messages, err := e.gateway.FetchRecent(ctx, creds, e.fetchLimit)
	if err != nil {
		e.metrics.RecordOperation(ctx, "mailbox", "sync", "error")
		return syncusecase.SyncReport{}, err
	}

	err = e.txManager.WithTx(ctx, func(ctx context.Context) error {
		for _, m := range messages {
			if err := e.messageRepo.Upsert(ctx, domain.NewMailboxMessage(mailboxAccountID, m)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.metrics.RecordOperation(ctx, "mailbox", "sync", "error")
		return syncusecase.SyncReport{}, err
	}

	cursor := domain.SyncCursor(messages)

	total, err := e.messageRepo.CountByAccount(ctx, mailboxAccountID)
	if err != nil {
		// The sync itself succeeded; the count only feeds the log line.
		e.logger.Warn("failed to count stored messages", slog.Any("error", err))
		total = -1
	}

	e.logger.Info("mailbox sync finished",
		slog.String("mailbox_account_id", mailboxAccountID.String()),
		slog.Int("fetched", len(messages)),
		slog.String("cursor", cursor),
		slog.Int64("total_messages", total),
	)
	e.metrics.RecordOperation(ctx, "mailbox", "sync", "success")

	return syncusecase.SyncReport{
		MessagesFetched: len(messages),
		Cursor:          cursor,
	}, nil
}
