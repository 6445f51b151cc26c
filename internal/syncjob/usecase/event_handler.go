package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	outboxdomain "github.com/mailmind/mailmind/internal/outbox/domain"
)

// Enqueuer is the slice of the sync queue the event handler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, mailboxAccountID uuid.UUID) (EnqueueResult, error)
}

// AccountConnectedHandler reacts to MAILBOX_ACCOUNT_CONNECTED events by
// enqueueing an initial sync job for the account.
type AccountConnectedHandler struct {
	queue  Enqueuer
	logger *slog.Logger
}

// NewAccountConnectedHandler creates a new AccountConnectedHandler
func NewAccountConnectedHandler(queue Enqueuer, logger *slog.Logger) *AccountConnectedHandler {
	return &AccountConnectedHandler{
		queue:  queue,
		logger: logger,
	}
}

// Handle enqueues an initial sync job for the connected account.
func (h *AccountConnectedHandler) Handle(ctx context.Context, payload outboxdomain.Payload) error {
	connected, ok := payload.(outboxdomain.AccountConnectedPayload)
	if !ok {
		return outboxdomain.ErrMalformedPayload
	}

	result, err := h.queue.Enqueue(ctx, connected.MailboxAccountID)
	if err != nil {
		return err
	}

	h.logger.Info("handled account connected event",
		slog.String("mailbox_account_id", connected.MailboxAccountID.String()),
		slog.String("outcome", string(result.Outcome)),
	)
	return nil
}
