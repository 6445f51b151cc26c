package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// RunListAccounts prints a user's mailbox accounts, newest first.
//
// Requirements: Database must be migrated and accessible.
func RunListAccounts(
	ctx context.Context,
	accountUseCase MailboxAccountUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
	format string,
) error {
	uid, err := parseID("user id", userID)
	if err != nil {
		return err
	}

	accounts, err := accountUseCase.List(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to list mailbox accounts: %w", err)
	}

	if format == "json" {
		writeAccountListJSON(accounts, writer)
	} else {
		writeAccountListText(accounts, writer)
	}

	logger.Info("mailbox accounts listed",
		slog.String("user_id", uid.String()),
		slog.Int("count", len(accounts)),
	)

	return nil
}

// writeAccountListText outputs accounts in human-readable text format.
func writeAccountListText(accounts []*domain.MailboxAccount, writer io.Writer) {
	if len(accounts) == 0 {
		_, _ = fmt.Fprintln(writer, "No mailbox accounts found.")
		return
	}

	for _, account := range accounts {
		_, _ = fmt.Fprintf(writer, "%s  %-8s  %-8s  %s\n",
			account.ID.String(), account.Provider, account.Status, account.Email)
	}
}

// writeAccountListJSON outputs accounts in JSON format for machine consumption.
func writeAccountListJSON(accounts []*domain.MailboxAccount, writer io.Writer) {
	type item struct {
		MailboxAccountID string `json:"mailbox_account_id"`
		Provider         string `json:"provider"`
		Email            string `json:"email"`
		Status           string `json:"status"`
	}

	items := make([]item, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, item{
			MailboxAccountID: account.ID.String(),
			Provider:         account.Provider,
			Email:            account.Email,
			Status:           string(account.Status),
		})
	}

	jsonBytes, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(writer, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
