package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailmind/mailmind/internal/errors"
)

func TestNewOutboxEvent(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())
	event, err := NewOutboxEvent(EventTypeMailboxAccountConnected, AccountConnectedPayload{
		MailboxAccountID: accountID,
		Provider:         "imap",
		Email:            "user@example.com",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, EventTypeMailboxAccountConnected, event.EventType)
	assert.Equal(t, OutboxEventStatusPending, event.Status)
	assert.Contains(t, event.Payload, accountID.String())
}

func TestDecodePayload_Connected(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())
	event, err := NewOutboxEvent(EventTypeMailboxAccountConnected, AccountConnectedPayload{
		MailboxAccountID: accountID,
		Email:            "user@example.com",
	})
	require.NoError(t, err)

	payload, err := event.DecodePayload()
	require.NoError(t, err)

	connected, ok := payload.(AccountConnectedPayload)
	require.True(t, ok)
	assert.Equal(t, accountID, connected.MailboxAccountID)
	assert.Equal(t, "user@example.com", connected.Email)
}

func TestDecodePayload_Revoked(t *testing.T) {
	accountID := uuid.Must(uuid.NewV7())
	event, err := NewOutboxEvent(EventTypeMailboxAccountRevoked, AccountRevokedPayload{
		MailboxAccountID: accountID,
	})
	require.NoError(t, err)

	payload, err := event.DecodePayload()
	require.NoError(t, err)

	_, ok := payload.(AccountRevokedPayload)
	assert.True(t, ok)
}

func TestDecodePayload_MissingAccountID(t *testing.T) {
	event := &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: EventTypeMailboxAccountConnected,
		Payload:   `{"email": "user@example.com"}`,
		Status:    OutboxEventStatusPending,
	}

	_, err := event.DecodePayload()
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDecodePayload_InvalidJSON(t *testing.T) {
	event := &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: EventTypeMailboxAccountConnected,
		Payload:   `{not json`,
		Status:    OutboxEventStatusPending,
	}

	_, err := event.DecodePayload()
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDecodePayload_UnknownType(t *testing.T) {
	event := &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: EventType("MAILBOX_ACCOUNT_RENAMED"),
		Payload:   `{"mailboxAccountId": "whatever"}`,
		Status:    OutboxEventStatusPending,
	}

	payload, err := event.DecodePayload()
	require.NoError(t, err)

	unknown, ok := payload.(UnknownPayload)
	require.True(t, ok)
	assert.Equal(t, EventType("MAILBOX_ACCOUNT_RENAMED"), unknown.Type)
}
