package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// RunRevokeAccount revokes a mailbox account: credentials are deleted and the
// account stops syncing. Stored messages are kept.
//
// Requirements: Database must be migrated and accessible.
func RunRevokeAccount(
	ctx context.Context,
	accountUseCase MailboxAccountUseCase,
	logger *slog.Logger,
	writer io.Writer,
	accountID string,
) error {
	id, err := parseID("account id", accountID)
	if err != nil {
		return err
	}

	if err := accountUseCase.Revoke(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke mailbox account: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "Mailbox account revoked. Credentials have been deleted.")

	logger.Info("mailbox account revoked",
		slog.String("mailbox_account_id", id.String()),
	)

	return nil
}
