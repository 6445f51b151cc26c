package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mailmind/mailmind/internal/mailbox/domain"
	mailboxUsecase "github.com/mailmind/mailmind/internal/mailbox/usecase"
)

// MockMailboxAccountUseCase is a mock implementation of MailboxAccountUseCase
type MockMailboxAccountUseCase struct {
	mock.Mock
}

func (m *MockMailboxAccountUseCase) Create(ctx context.Context, input mailboxUsecase.CreateAccountInput) (*domain.MailboxAccount, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MailboxAccount), args.Error(1)
}

func (m *MockMailboxAccountUseCase) Activate(ctx context.Context, accountID uuid.UUID, input mailboxUsecase.ActivateAccountInput) error {
	args := m.Called(ctx, accountID, input)
	return args.Error(0)
}

func (m *MockMailboxAccountUseCase) Revoke(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockMailboxAccountUseCase) List(ctx context.Context, userID uuid.UUID) ([]*domain.MailboxAccount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MailboxAccount), args.Error(1)
}

func TestRunCreateAccount(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	userID := uuid.Must(uuid.NewV7())

	t.Run("text", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}
		account := domain.NewMailboxAccount(userID, "imap", "user@example.com", nil)

		mockUseCase.On("Create", ctx, mailboxUsecase.CreateAccountInput{
			UserID:   userID,
			Provider: "imap",
			Email:    "user@example.com",
		}).Return(account, nil)

		var out bytes.Buffer
		err := RunCreateAccount(ctx, mockUseCase, logger, &out,
			userID.String(), "imap", "user@example.com", "", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), account.ID.String())
		require.Contains(t, out.String(), "PENDING")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}
		account := domain.NewMailboxAccount(userID, "imap", "user@example.com", nil)

		mockUseCase.On("Create", ctx, mock.Anything).Return(account, nil)

		var out bytes.Buffer
		err := RunCreateAccount(ctx, mockUseCase, logger, &out,
			userID.String(), "imap", "user@example.com", "Work", "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), account.ID.String())
		require.Contains(t, out.String(), "{")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("invalid-user-id", func(t *testing.T) {
		mockUseCase := &MockMailboxAccountUseCase{}

		var out bytes.Buffer
		err := RunCreateAccount(ctx, mockUseCase, logger, &out,
			"not-a-uuid", "imap", "user@example.com", "", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid user id")
		mockUseCase.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
