package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/mailmind/mailmind/internal/errors"
)

// MailboxCredential stores the secrets needed to reach one mailbox. Either the
// OAuth token columns or the IMAP columns are populated, depending on how the
// account was activated. The IMAP password is stored encrypted
// (ImapPasswordEnc); decryption happens in the credential keeper, never here.
type MailboxCredential struct {
	ID               uuid.UUID
	MailboxAccountID uuid.UUID
	AccessToken      *string
	RefreshToken     *string
	TokenExpiresAt   *time.Time
	ImapHost         *string
	ImapPort         *int
	ImapUsername     *string
	ImapPasswordEnc  *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewMailboxCredential builds a credential row for the given account.
func NewMailboxCredential(mailboxAccountID uuid.UUID) *MailboxCredential {
	return &MailboxCredential{
		ID:               uuid.Must(uuid.NewV7()),
		MailboxAccountID: mailboxAccountID,
	}
}

// HasOAuth reports whether the credential carries OAuth tokens.
func (c *MailboxCredential) HasOAuth() bool {
	return c.AccessToken != nil && *c.AccessToken != ""
}

// HasImap reports whether the credential carries IMAP connection settings.
func (c *MailboxCredential) HasImap() bool {
	return c.ImapHost != nil && *c.ImapHost != "" &&
		c.ImapUsername != nil && *c.ImapUsername != "" &&
		c.ImapPasswordEnc != nil && *c.ImapPasswordEnc != ""
}

// ImapCredentials is the resolved, plaintext connection material handed to the
// IMAP gateway. It only ever lives in memory.
type ImapCredentials struct {
	Host     string
	Port     int
	Username string
	Password string
}

// ResolveImap extracts the IMAP connection settings, failing fast on each
// missing field. The password is returned still encrypted; the caller decrypts
// it through the credential keeper.
func (c *MailboxCredential) ResolveImap() (ImapCredentials, error) {
	if c.ImapHost == nil || *c.ImapHost == "" {
		return ImapCredentials{}, errors.Wrap(errors.ErrInvalidInput, "imap host not configured")
	}
	if c.ImapUsername == nil || *c.ImapUsername == "" {
		return ImapCredentials{}, errors.Wrap(errors.ErrInvalidInput, "imap username not configured")
	}
	if c.ImapPasswordEnc == nil || *c.ImapPasswordEnc == "" {
		return ImapCredentials{}, errors.Wrap(errors.ErrInvalidInput, "imap password not configured")
	}

	port := 993
	if c.ImapPort != nil && *c.ImapPort != 0 {
		port = *c.ImapPort
	}

	return ImapCredentials{
		Host:     *c.ImapHost,
		Port:     port,
		Username: *c.ImapUsername,
		Password: *c.ImapPasswordEnc,
	}, nil
}
