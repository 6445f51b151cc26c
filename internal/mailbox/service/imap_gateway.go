// Package service provides the mail provider gateway and credential keeper.
package service

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"golang.org/x/time/rate"

	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

const snippetMaxLen = 160

// Client is an interface to abstract the go-imap client methods used
type Client interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// DialFunc opens an authenticated-capable connection to an IMAP server.
type DialFunc func(address string, tlsConfig *tls.Config) (Client, error)

// ImapGateway fetches recent messages over IMAP. Each FetchRecent call runs a
// full session: dial, login, select, fetch, logout. Fetches are rate limited
// across the process to stay under provider connection limits.
type ImapGateway struct {
	dial    DialFunc
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewImapGateway creates a new ImapGateway. The dial timeout applies to the
// TCP+TLS handshake; fetchesPerSec/burst bound how often sessions are opened.
func NewImapGateway(dialTimeout time.Duration, fetchesPerSec float64, burst int, logger *slog.Logger) *ImapGateway {
	dial := func(address string, tlsConfig *tls.Config) (Client, error) {
		c, err := imapclient.DialWithDialerTLS(&net.Dialer{Timeout: dialTimeout}, address, tlsConfig)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return &ImapGateway{
		dial:    dial,
		limiter: rate.NewLimiter(rate.Limit(fetchesPerSec), burst),
		logger:  logger,
	}
}

// NewImapGatewayWithDial creates an ImapGateway with a custom dialer. Used by
// tests to inject a fake client.
func NewImapGatewayWithDial(dial DialFunc, fetchesPerSec float64, burst int, logger *slog.Logger) *ImapGateway {
	return &ImapGateway{
		dial:    dial,
		limiter: rate.NewLimiter(rate.Limit(fetchesPerSec), burst),
		logger:  logger,
	}
}

// FetchRecent retrieves up to limit of the newest INBOX messages. The window is
// the sequence range max(1, total-limit+1)..total, so small mailboxes are
// fetched whole.
func (g *ImapGateway) FetchRecent(ctx context.Context, creds domain.ImapCredentials, limit int) ([]domain.ProviderMessage, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(err, "imap rate limit wait interrupted")
	}

	address := fmt.Sprintf("%s:%d", creds.Host, creds.Port)
	client, err := g.dial(address, &tls.Config{ServerName: creds.Host})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to dial imap server")
	}
	defer func() {
		if err := client.Logout(); err != nil {
			g.logger.Warn("imap logout failed", slog.Any("error", err))
		}
	}()

	if err := client.Login(creds.Username, creds.Password); err != nil {
		return nil, apperrors.Wrap(err, "imap login failed")
	}

	status, err := client.Select(domain.DefaultFolder, true)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to select inbox")
	}

	total := status.Messages
	if total == 0 {
		return nil, nil
	}

	from := uint32(1)
	if total > uint32(limit) {
		from = total - uint32(limit) + 1
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(from, total)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope, imap.FetchUid, imap.FetchInternalDate}

	ch := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() {
		done <- client.Fetch(seqset, items, ch)
	}()

	var messages []domain.ProviderMessage
	for msg := range ch {
		messages = append(messages, g.convert(msg, section))
	}
	if err := <-done; err != nil {
		return nil, apperrors.Wrap(err, "imap fetch failed")
	}

	g.logger.Info("fetched imap messages",
		slog.String("host", creds.Host),
		slog.Int("count", len(messages)),
	)

	return messages, nil
}

// convert maps a raw IMAP message onto the provider-neutral form. The envelope
// supplies addressing and subject; the body supplies the snippet. A body that
// cannot be parsed degrades to envelope-only data, never an error.
func (g *ImapGateway) convert(msg *imap.Message, section *imap.BodySectionName) domain.ProviderMessage {
	out := domain.ProviderMessage{
		UID:          msg.Uid,
		InternalDate: msg.InternalDate,
	}

	if msg.Envelope != nil {
		out.Subject = msg.Envelope.Subject
		if len(msg.Envelope.From) > 0 {
			out.FromAddress = msg.Envelope.From[0].Address()
		}
		for _, to := range msg.Envelope.To {
			out.ToAddresses = append(out.ToAddresses, to.Address())
		}
		if out.InternalDate.IsZero() {
			out.InternalDate = msg.Envelope.Date
		}
	}

	body := msg.GetBody(section)
	if body == nil {
		return out
	}

	text, err := extractText(body)
	if err != nil {
		g.logger.Warn("failed to parse message body, keeping envelope data",
			slog.Any("error", err),
			slog.Any("uid", msg.Uid),
		)
		return out
	}
	out.Snippet = makeSnippet(text)

	return out
}

// extractText returns the first text part of a message, or the whole body for
// non-multipart messages.
func extractText(r io.Reader) (string, error) {
	entity, err := message.Read(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return "", err
	}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return "", nil
			}
			if err != nil {
				return "", err
			}
			contentType, _, _ := part.Header.ContentType()
			if strings.HasPrefix(contentType, "text/") {
				data, err := io.ReadAll(part.Body)
				if err != nil {
					return "", err
				}
				return string(data), nil
			}
		}
	}

	data, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// makeSnippet strips markup, collapses whitespace, and cuts at 160 characters.
func makeSnippet(text string) string {
	text = tagPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > snippetMaxLen {
		return string(runes[:snippetMaxLen])
	}
	return text
}
