package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/mailbox/domain"
	mailboxUsecase "github.com/mailmind/mailmind/internal/mailbox/usecase"
)

// MailboxAccountUseCase is the slice of account operations the CLI commands use.
type MailboxAccountUseCase interface {
	Create(ctx context.Context, input mailboxUsecase.CreateAccountInput) (*domain.MailboxAccount, error)
	Activate(ctx context.Context, accountID uuid.UUID, input mailboxUsecase.ActivateAccountInput) error
	Revoke(ctx context.Context, accountID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error)
}

// RunCreateAccount registers a new mailbox account in PENDING status. Outputs
// the account id in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateAccount(
	ctx context.Context,
	accountUseCase MailboxAccountUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
	provider string,
	email string,
	displayName string,
	format string,
) error {
	uid, err := parseID("user id", userID)
	if err != nil {
		return err
	}

	account, err := accountUseCase.Create(ctx, mailboxUsecase.CreateAccountInput{
		UserID:      uid,
		Provider:    provider,
		Email:       email,
		DisplayName: optionalString(displayName),
	})
	if err != nil {
		return fmt.Errorf("failed to create mailbox account: %w", err)
	}

	if format == "json" {
		writeAccountJSON(account, writer)
	} else {
		writeAccountText(account, writer)
	}

	logger.Info("mailbox account created",
		slog.String("mailbox_account_id", account.ID.String()),
		slog.String("provider", provider),
		slog.String("email", email),
	)

	return nil
}

// writeAccountText outputs the account in human-readable text format.
func writeAccountText(account *domain.MailboxAccount, writer io.Writer) {
	_, _ = fmt.Fprintln(writer, "\nMailbox account created successfully!")
	_, _ = fmt.Fprintf(writer, "Account ID: %s\n", account.ID.String())
	_, _ = fmt.Fprintf(writer, "Provider: %s\n", account.Provider)
	_, _ = fmt.Fprintf(writer, "Email: %s\n", account.Email)
	_, _ = fmt.Fprintf(writer, "Status: %s\n", account.Status)
	_, _ = fmt.Fprintln(writer, "\nActivate the account with credentials to start syncing.")
}

// writeAccountJSON outputs the account in JSON format for machine consumption.
func writeAccountJSON(account *domain.MailboxAccount, writer io.Writer) {
	result := map[string]string{
		"mailbox_account_id": account.ID.String(),
		"provider":           account.Provider,
		"email":              account.Email,
		"status":             string(account.Status),
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(writer, "failed to marshal JSON: %v\n", err)
		return
	}

	_, _ = fmt.Fprintln(writer, string(jsonBytes))
}
