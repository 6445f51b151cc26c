package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	mailboxUsecase "github.com/mailmind/mailmind/internal/mailbox/usecase"
)

// RunActivateAccount stores credentials for a mailbox account and marks it
// ACTIVE, which queues the initial sync. Either OAuth tokens or IMAP settings
// must be supplied.
//
// Requirements: Database must be migrated and accessible.
func RunActivateAccount(
	ctx context.Context,
	accountUseCase MailboxAccountUseCase,
	logger *slog.Logger,
	writer io.Writer,
	accountID string,
	accessToken string,
	refreshToken string,
	tokenExpiresAt string,
	imapHost string,
	imapPort int,
	imapUsername string,
	imapPassword string,
) error {
	id, err := parseID("account id", accountID)
	if err != nil {
		return err
	}

	input := mailboxUsecase.ActivateAccountInput{
		AccessToken:  optionalString(accessToken),
		RefreshToken: optionalString(refreshToken),
		ImapHost:     optionalString(imapHost),
		ImapPort:     optionalInt(imapPort),
		ImapUsername: optionalString(imapUsername),
		ImapPassword: optionalString(imapPassword),
	}

	if tokenExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, tokenExpiresAt)
		if err != nil {
			return fmt.Errorf("invalid token expiry (use RFC3339, e.g. 2026-01-02T15:04:05Z): %w", err)
		}
		input.TokenExpiresAt = &expires
	}

	if err := accountUseCase.Activate(ctx, id, input); err != nil {
		return fmt.Errorf("failed to activate mailbox account: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Mailbox account activated. Initial sync will start shortly.")

	logger.Info("mailbox account activated",
		slog.String("mailbox_account_id", id.String()),
	)

	return nil
}
