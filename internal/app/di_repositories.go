package app

import (
	"fmt"

	mailboxRepository "github.com/mailmind/mailmind/internal/mailbox/repository"
	mailboxUsecase "github.com/mailmind/mailmind/internal/mailbox/usecase"
	outboxRepository "github.com/mailmind/mailmind/internal/outbox/repository"
	outboxUsecase "github.com/mailmind/mailmind/internal/outbox/usecase"
	syncjobRepository "github.com/mailmind/mailmind/internal/syncjob/repository"
	syncjobUsecase "github.com/mailmind/mailmind/internal/syncjob/usecase"
)

// OutboxEventRepository returns the outbox event repository for the configured driver.
func (c *Container) OutboxEventRepository() (outboxUsecase.OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = fmt.Errorf("failed to get database for outbox repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.outboxRepo = outboxRepository.NewMySQLOutboxEventRepository(db)
		case "postgres":
			c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		default:
			c.initErrors["outboxRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["outboxRepo"]; exists {
		return nil, err
	}
	return c.outboxRepo, nil
}

// SyncJobRepository returns the sync job repository for the configured driver.
func (c *Container) SyncJobRepository() (syncjobUsecase.SyncJobRepository, error) {
	c.syncJobRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["syncJobRepo"] = fmt.Errorf("failed to get database for sync job repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.syncJobRepo = syncjobRepository.NewMySQLSyncJobRepository(db)
		case "postgres":
			c.syncJobRepo = syncjobRepository.NewPostgreSQLSyncJobRepository(db)
		default:
			c.initErrors["syncJobRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["syncJobRepo"]; exists {
		return nil, err
	}
	return c.syncJobRepo, nil
}

// AccountRepository returns the mailbox account repository for the configured driver.
func (c *Container) AccountRepository() (mailboxUsecase.AccountRepository, error) {
	c.accountRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["accountRepo"] = fmt.Errorf("failed to get database for account repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.accountRepo = mailboxRepository.NewMySQLAccountRepository(db)
		case "postgres":
			c.accountRepo = mailboxRepository.NewPostgreSQLAccountRepository(db)
		default:
			c.initErrors["accountRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["accountRepo"]; exists {
		return nil, err
	}
	return c.accountRepo, nil
}

// CredentialRepository returns the mailbox credential repository for the configured driver.
func (c *Container) CredentialRepository() (mailboxUsecase.CredentialRepository, error) {
	c.credentialRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["credentialRepo"] = fmt.Errorf("failed to get database for credential repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.credentialRepo = mailboxRepository.NewMySQLCredentialRepository(db)
		case "postgres":
			c.credentialRepo = mailboxRepository.NewPostgreSQLCredentialRepository(db)
		default:
			c.initErrors["credentialRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["credentialRepo"]; exists {
		return nil, err
	}
	return c.credentialRepo, nil
}

// MessageRepository returns the mailbox message repository for the configured driver.
func (c *Container) MessageRepository() (mailboxUsecase.MessageRepository, error) {
	c.messageRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["messageRepo"] = fmt.Errorf("failed to get database for message repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.messageRepo = mailboxRepository.NewMySQLMessageRepository(db)
		case "postgres":
			c.messageRepo = mailboxRepository.NewPostgreSQLMessageRepository(db)
		default:
			c.initErrors["messageRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if err, exists := c.initErrors["messageRepo"]; exists {
		return nil, err
	}
	return c.messageRepo, nil
}
