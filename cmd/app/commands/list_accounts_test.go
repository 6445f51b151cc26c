package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

func TestRunListAccounts(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	userID := uuid.Must(uuid.NewV7())

	t.Run("text", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}
		accounts := []*domain.MailboxAccount{
			domain.NewMailboxAccount(userID, "imap", "a@example.com", nil),
			domain.NewMailboxAccount(userID, "gmail", "b@example.com", nil),
		}
		mockUseCase.On("List", ctx, userID).Return(accounts, nil)

		var out bytes.Buffer
		err := RunListAccounts(ctx, mockUseCase, logger, &out, userID.String(), "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "a@example.com")
		require.Contains(t, out.String(), "b@example.com")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("empty", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}
		mockUseCase.On("List", ctx, userID).Return([]*domain.MailboxAccount{}, nil)

		var out bytes.Buffer
		err := RunListAccounts(ctx, mockUseCase, logger, &out, userID.String(), "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "No mailbox accounts found")
	})

	t.Run("json", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}
		accounts := []*domain.MailboxAccount{
			domain.NewMailboxAccount(userID, "imap", "a@example.com", nil),
		}
		mockUseCase.On("List", ctx, userID).Return(accounts, nil)

		var out bytes.Buffer
		err := RunListAccounts(ctx, mockUseCase, logger, &out, userID.String(), "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), accounts[0].ID.String())
		require.Contains(t, out.String(), "[")
	})
}
