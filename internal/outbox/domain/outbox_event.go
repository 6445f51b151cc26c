// Package domain defines the core outbox domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/errors"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending    OutboxEventStatus = "PENDING"
	OutboxEventStatusProcessing OutboxEventStatus = "PROCESSING"
	OutboxEventStatusDone       OutboxEventStatus = "DONE"
	OutboxEventStatusFailed     OutboxEventStatus = "FAILED"
)

// EventType identifies the kind of domain event carried by an outbox row.
type EventType string

const (
	EventTypeMailboxAccountConnected EventType = "MAILBOX_ACCOUNT_CONNECTED"
	EventTypeMailboxAccountRevoked   EventType = "MAILBOX_ACCOUNT_REVOKED"
)

// Domain-specific errors for outbox operations.
var (
	// ErrEventNotFound indicates no event matched the query.
	ErrEventNotFound = errors.Wrap(errors.ErrNotFound, "outbox event not found")

	// ErrMalformedPayload indicates the event payload cannot be decoded or is
	// missing required fields.
	ErrMalformedPayload = errors.Wrap(errors.ErrInvalidInput, "malformed event payload")
)

// OutboxEvent represents an event in the transactional outbox pattern. Rows are
// written in the same transaction as the business-state change they describe and
// are only ever mutated by the relay. Terminal rows (DONE, FAILED) are retained
// for audit and never deleted.
type OutboxEvent struct {
	ID           uuid.UUID
	EventType    EventType
	Payload      string
	Status       OutboxEventStatus
	ErrorMessage *string
	ClaimedAt    *time.Time
	ResolvedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Payload is the decoded, typed form of an outbox event payload. Exactly one
// variant exists per known event type; unrecognized types decode to Unknown.
type Payload interface {
	isPayload()
}

// AccountConnectedPayload carries the fields of a MAILBOX_ACCOUNT_CONNECTED event.
type AccountConnectedPayload struct {
	MailboxAccountID uuid.UUID `json:"mailboxAccountId"`
	UserID           uuid.UUID `json:"userId"`
	Provider         string    `json:"provider"`
	Email            string    `json:"email"`
}

func (AccountConnectedPayload) isPayload() {}

// AccountRevokedPayload carries the fields of a MAILBOX_ACCOUNT_REVOKED event.
type AccountRevokedPayload struct {
	MailboxAccountID uuid.UUID `json:"mailboxAccountId"`
	UserID           uuid.UUID `json:"userId"`
	Provider         string    `json:"provider"`
	Email            string    `json:"email"`
}

func (AccountRevokedPayload) isPayload() {}

// UnknownPayload is the variant produced for event types this build does not
// recognize. The relay treats it as terminal without retrying.
type UnknownPayload struct {
	Type EventType
	Raw  json.RawMessage
}

func (UnknownPayload) isPayload() {}

// NewOutboxEvent builds a PENDING event of the given type with a JSON payload.
func NewOutboxEvent(eventType EventType, payload any) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode event payload")
	}

	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(raw),
		Status:    OutboxEventStatusPending,
	}, nil
}

// DecodePayload decodes the stored payload into its typed variant. Decoding
// happens once, at dispatch. A known type with an undecodable body or a missing
// mailbox account id yields ErrMalformedPayload; an unrecognized type yields
// UnknownPayload with no error.
func (e *OutboxEvent) DecodePayload() (Payload, error) {
	switch e.EventType {
	case EventTypeMailboxAccountConnected:
		var p AccountConnectedPayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			return nil, errors.Wrap(ErrMalformedPayload, err.Error())
		}
		if p.MailboxAccountID == uuid.Nil {
			return nil, errors.Wrap(ErrMalformedPayload, "missing mailboxAccountId")
		}
		return p, nil
	case EventTypeMailboxAccountRevoked:
		var p AccountRevokedPayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			return nil, errors.Wrap(ErrMalformedPayload, err.Error())
		}
		if p.MailboxAccountID == uuid.Nil {
			return nil, errors.Wrap(ErrMalformedPayload, "missing mailboxAccountId")
		}
		return p, nil
	default:
		return UnknownPayload{Type: e.EventType, Raw: json.RawMessage(e.Payload)}, nil
	}
}
