package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultFolder is the only folder synced today.
const DefaultFolder = "INBOX"

// MailboxMessage is the stored form of one synced message. Rows are keyed by
// (mailbox_account_id, provider_message_id), which makes repeated syncs of the
// same window idempotent.
type MailboxMessage struct {
	ID                uuid.UUID
	MailboxAccountID  uuid.UUID
	ProviderMessageID string
	Folder            string
	FromAddress       *string
	ToAddresses       string
	Subject           *string
	InternalDate      time.Time
	Snippet           *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProviderMessage is one message as fetched from the mail provider, before
// persistence.
type ProviderMessage struct {
	UID          uint32
	FromAddress  string
	ToAddresses  []string
	Subject      string
	InternalDate time.Time
	Snippet      string
}

// ProviderMessageID returns the stable provider-scoped id, "INBOX:<uid>".
func (p ProviderMessage) ProviderMessageID() string {
	return fmt.Sprintf("%s:%d", DefaultFolder, p.UID)
}

// NewMailboxMessage converts a fetched message into its stored form.
func NewMailboxMessage(mailboxAccountID uuid.UUID, p ProviderMessage) *MailboxMessage {
	msg := &MailboxMessage{
		ID:                uuid.Must(uuid.NewV7()),
		MailboxAccountID:  mailboxAccountID,
		ProviderMessageID: p.ProviderMessageID(),
		Folder:            DefaultFolder,
		ToAddresses:       strings.Join(p.ToAddresses, ", "),
		InternalDate:      p.InternalDate,
	}
	if p.FromAddress != "" {
		msg.FromAddress = &p.FromAddress
	}
	if p.Subject != "" {
		msg.Subject = &p.Subject
	}
	if p.Snippet != "" {
		msg.Snippet = &p.Snippet
	}
	return msg
}

// SyncCursor computes the resume cursor for a batch of fetched messages: the
// highest UID formatted as "INBOX:<uid>", or empty when the batch is empty or
// no UID parses.
func SyncCursor(messages []ProviderMessage) string {
	var maxUID uint64
	found := false
	for _, m := range messages {
		suffix := strings.TrimPrefix(m.ProviderMessageID(), DefaultFolder+":")
		uid, err := strconv.ParseUint(suffix, 10, 32)
		if err != nil {
			continue
		}
		if !found || uid > maxUID {
			maxUID = uid
			found = true
		}
	}
	if !found {
		return ""
	}
	return fmt.Sprintf("%s:%d", DefaultFolder, maxUID)
}
