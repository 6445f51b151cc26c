package app

import (
	"context"
	"fmt"
	"log/slog"

	mailboxservice "github.com/mailmind/mailmind/internal/mailbox/service"
	mailboxUsecase "github.com/mailmind/mailmind/internal/mailbox/usecase"
	outboxdomain "github.com/mailmind/mailmind/internal/outbox/domain"
	outboxUsecase "github.com/mailmind/mailmind/internal/outbox/usecase"
	syncjobUsecase "github.com/mailmind/mailmind/internal/syncjob/usecase"
)

// ImapGateway returns the IMAP provider gateway.
func (c *Container) ImapGateway() *mailboxservice.ImapGateway {
	c.imapGatewayInit.Do(func() {
		c.imapGateway = mailboxservice.NewImapGateway(
			c.config.IMAPDialTimeout,
			c.config.IMAPFetchesPerSec,
			c.config.IMAPFetchBurst,
			c.Logger(),
		)
	})
	return c.imapGateway
}

// AccountUseCase returns the mailbox account use case.
func (c *Container) AccountUseCase(ctx context.Context) (*mailboxUsecase.AccountUseCase, error) {
	c.accountUseCaseInit.Do(func() {
		accountRepo, err := c.AccountRepository()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		credentialRepo, err := c.CredentialRepository()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		outboxRepo, err := c.OutboxEventRepository()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		keeper, err := c.CredentialKeeper(ctx)
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		c.accountUseCase = mailboxUsecase.NewAccountUseCase(
			accountRepo,
			credentialRepo,
			outboxRepo,
			keeper,
			txManager,
			c.Logger(),
			businessMetrics,
		)
	})
	if err, exists := c.initErrors["accountUseCase"]; exists {
		return nil, err
	}
	return c.accountUseCase, nil
}

// SyncExecutor returns the mailbox sync executor.
func (c *Container) SyncExecutor(ctx context.Context) (*mailboxUsecase.SyncExecutor, error) {
	c.syncExecutorInit.Do(func() {
		credentialRepo, err := c.CredentialRepository()
		if err != nil {
			c.initErrors["syncExecutor"] = err
			return
		}
		messageRepo, err := c.MessageRepository()
		if err != nil {
			c.initErrors["syncExecutor"] = err
			return
		}
		keeper, err := c.CredentialKeeper(ctx)
		if err != nil {
			c.initErrors["syncExecutor"] = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["syncExecutor"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["syncExecutor"] = err
			return
		}
		c.syncExecutor = mailboxUsecase.NewSyncExecutor(
			credentialRepo,
			messageRepo,
			c.ImapGateway(),
			keeper,
			txManager,
			c.config.SyncFetchLimit,
			c.Logger(),
			businessMetrics,
		)
	})
	if err, exists := c.initErrors["syncExecutor"]; exists {
		return nil, err
	}
	return c.syncExecutor, nil
}

// SyncQueue returns the mailbox sync job queue.
func (c *Container) SyncQueue(ctx context.Context) (*syncjobUsecase.SyncQueue, error) {
	c.syncQueueInit.Do(func() {
		repo, err := c.SyncJobRepository()
		if err != nil {
			c.initErrors["syncQueue"] = err
			return
		}
		runner, err := c.SyncExecutor(ctx)
		if err != nil {
			c.initErrors["syncQueue"] = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["syncQueue"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["syncQueue"] = err
			return
		}
		c.syncQueue = syncjobUsecase.NewSyncQueue(
			syncjobUsecase.Config{
				Interval:   c.config.SyncPollInterval,
				BatchSize:  c.config.SyncBatchSize,
				ClaimLease: c.config.SyncClaimLease,
			},
			repo,
			runner,
			txManager,
			c.Logger(),
			businessMetrics,
		)
	})
	if err, exists := c.initErrors["syncQueue"]; exists {
		return nil, err
	}
	return c.syncQueue, nil
}

// OutboxRelay returns the outbox relay with its event handlers registered.
func (c *Container) OutboxRelay(ctx context.Context) (*outboxUsecase.OutboxRelay, error) {
	c.outboxRelayInit.Do(func() {
		repo, err := c.OutboxEventRepository()
		if err != nil {
			c.initErrors["outboxRelay"] = err
			return
		}
		queue, err := c.SyncQueue(ctx)
		if err != nil {
			c.initErrors["outboxRelay"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["outboxRelay"] = err
			return
		}
		logger := c.Logger()
		relay := outboxUsecase.NewOutboxRelay(
			outboxUsecase.Config{
				Interval:   c.config.OutboxPollInterval,
				BatchSize:  c.config.OutboxBatchSize,
				ClaimLease: c.config.OutboxClaimLease,
			},
			repo,
			logger,
			businessMetrics,
		)
		relay.RegisterHandler(outboxdomain.EventTypeMailboxAccountConnected,
			syncjobUsecase.NewAccountConnectedHandler(queue, logger))
		relay.RegisterHandler(outboxdomain.EventTypeMailboxAccountRevoked,
			outboxUsecase.EventHandlerFunc(func(ctx context.Context, payload outboxdomain.Payload) error {
				revoked, ok := payload.(outboxdomain.AccountRevokedPayload)
				if !ok {
					return fmt.Errorf("unexpected payload %T: %w", payload, outboxdomain.ErrMalformedPayload)
				}
				// Revocation has no sync-side effect; credentials are already
				// deleted in the revoking transaction.
				logger.Info("mailbox account revoked event processed",
					slog.String("mailbox_account_id", revoked.MailboxAccountID.String()),
				)
				return nil
			}))
		c.outboxRelay = relay
	})
	if err, exists := c.initErrors["outboxRelay"]; exists {
		return nil, err
	}
	return c.outboxRelay, nil
}
