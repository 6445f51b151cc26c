package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunRevokeAccount(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	accountID := uuid.Must(uuid.NewV7())

	t.Run("success", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}
		mockUseCase.On("Revoke", ctx, accountID).Return(nil)

		var out bytes.Buffer
		err := RunRevokeAccount(ctx, mockUseCase, logger, &out, accountID.String())

		require.NoError(t, err)
		require.Contains(t, out.String(), "revoked")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("usecase-error", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}
		mockUseCase.On("Revoke", ctx, accountID).Return(context.DeadlineExceeded)

		var out bytes.Buffer
		err := RunRevokeAccount(ctx, mockUseCase, logger, &out, accountID.String())

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to revoke mailbox account")
	})

	t.Run("invalid-account-id", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}

		var out bytes.Buffer
		err := RunRevokeAccount(ctx, mockUseCase, logger, &out, "nope")

		require.Error(t, err)
		mockUseCase.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})
}
