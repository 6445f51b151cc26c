package usecase

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Upsert(ctx context.Context, message *domain.MailboxMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) CountByAccount(ctx context.Context, mailboxAccountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, mailboxAccountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockMailGateway is a mock implementation of MailGateway
type MockMailGateway struct {
	mock.Mock
}

func (m *MockMailGateway) FetchRecent(ctx context.Context, creds domain.ImapCredentials, limit int) ([]domain.ProviderMessage, error) {
	args := m.Called(ctx, creds, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProviderMessage), args.Error(1)
}

func imapCredential(accountID uuid.UUID) *domain.MailboxCredential {
	port := 993
	credential := domain.NewMailboxCredential(accountID)
	credential.ImapHost = strPtr("imap.example.com")
	credential.ImapPort = &port
	credential.ImapUsername = strPtr("user@example.com")
	credential.ImapPasswordEnc = strPtr("ENC:secret")
	return credential
}

func newTestSyncExecutor(
	credentialRepo *MockCredentialRepository,
	messageRepo *MockMessageRepository,
	gateway *MockMailGateway,
) *SyncExecutor {
	return NewSyncExecutor(credentialRepo, messageRepo, gateway, fakeKeeper{},
		fakeTxManager{}, 50, slog.New(slog.DiscardHandler), nil)
}

func TestSyncExecutor_Run(t *testing.T) {
	credentialRepo := new(MockCredentialRepository)
	messageRepo := new(MockMessageRepository)
	gateway := new(MockMailGateway)
	executor := newTestSyncExecutor(credentialRepo, messageRepo, gateway)

	accountID := uuid.Must(uuid.NewV7())
	fetched := []domain.ProviderMessage{
		{UID: 5, Subject: "first", InternalDate: time.Now()},
		{UID: 1342, Subject: "second", InternalDate: time.Now()},
	}

	credentialRepo.On("GetByAccount", mock.Anything, accountID).Return(imapCredential(accountID), nil)
	gateway.On("FetchRecent", mock.Anything, mock.MatchedBy(func(c domain.ImapCredentials) bool {
		// The gateway must receive the decrypted password.
		return c.Password == "secret" && c.Host == "imap.example.com"
	}), 50).Return(fetched, nil)
	messageRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(m *domain.MailboxMessage) bool {
		return m.MailboxAccountID == accountID
	})).Return(nil).Times(2)
	messageRepo.On("CountByAccount", mock.Anything, accountID).Return(int64(2), nil)

	report, err := executor.Run(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MessagesFetched)
	assert.Equal(t, "INBOX:1342", report.Cursor)
	credentialRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestSyncExecutor_Run_FailsFastWithoutCredential(t *testing.T) {
	credentialRepo := new(MockCredentialRepository)
	gateway := new(MockMailGateway)
	executor := newTestSyncExecutor(credentialRepo, new(MockMessageRepository), gateway)

	accountID := uuid.Must(uuid.NewV7())
	credentialRepo.On("GetByAccount", mock.Anything, accountID).Return(nil, domain.ErrCredentialNotFound)

	_, err := executor.Run(context.Background(), accountID)
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
	gateway.AssertNotCalled(t, "FetchRecent", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncExecutor_Run_FailsFastOnIncompleteImapSettings(t *testing.T) {
	credentialRepo := new(MockCredentialRepository)
	gateway := new(MockMailGateway)
	executor := newTestSyncExecutor(credentialRepo, new(MockMessageRepository), gateway)

	accountID := uuid.Must(uuid.NewV7())
	incomplete := domain.NewMailboxCredential(accountID)
	incomplete.ImapHost = strPtr("imap.example.com")
	credentialRepo.On("GetByAccount", mock.Anything, accountID).Return(incomplete, nil)

	_, err := executor.Run(context.Background(), accountID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	gateway.AssertNotCalled(t, "FetchRecent", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncExecutor_Run_GatewayErrorSkipsPersistence(t *testing.T) {
	credentialRepo := new(MockCredentialRepository)
	messageRepo := new(MockMessageRepository)
	gateway := new(MockMailGateway)
	executor := newTestSyncExecutor(credentialRepo, messageRepo, gateway)

	accountID := uuid.Must(uuid.NewV7())
	credentialRepo.On("GetByAccount", mock.Anything, accountID).Return(imapCredential(accountID), nil)
	gateway.On("FetchRecent", mock.Anything, mock.Anything, 50).Return(nil, assert.AnError)

	_, err := executor.Run(context.Background(), accountID)
	assert.ErrorIs(t, err, assert.AnError)
	messageRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSyncExecutor_Run_EmptyMailbox(t *testing.T) {
	credentialRepo := new(MockCredentialRepository)
	messageRepo := new(MockMessageRepository)
	gateway := new(MockMailGateway)
	executor := newTestSyncExecutor(credentialRepo, messageRepo, gateway)

	accountID := uuid.Must(uuid.NewV7())
	credentialRepo.On("GetByAccount", mock.Anything, accountID).Return(imapCredential(accountID), nil)
	gateway.On("FetchRecent", mock.Anything, mock.Anything, 50).Return([]domain.ProviderMessage{}, nil)
	messageRepo.On("CountByAccount", mock.Anything, accountID).Return(int64(0), nil)

	report, err := executor.Run(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.MessagesFetched)
	assert.Empty(t, report.Cursor)
	messageRepo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}
