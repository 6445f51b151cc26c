package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailmind/mailmind/internal/mailbox/domain"
)

// fakeImapClient is a scripted implementation of Client.
type fakeImapClient struct {
	loginErr     error
	status       *imap.MailboxStatus
	messages     []*imap.Message
	fetchErr     error
	gotSeqSet    string
	loggedOut    bool
	selectedName string
	readOnly     bool
}

func (f *fakeImapClient) Login(username, password string) error {
	return f.loginErr
}

func (f *fakeImapClient) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	f.selectedName = name
	f.readOnly = readOnly
	return f.status, nil
}

func (f *fakeImapClient) Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	defer close(ch)
	f.gotSeqSet = seqset.String()
	for _, msg := range f.messages {
		ch <- msg
	}
	return f.fetchErr
}

func (f *fakeImapClient) Logout() error {
	f.loggedOut = true
	return nil
}

func newTestGateway(fake *fakeImapClient) *ImapGateway {
	dial := func(address string, tlsConfig *tls.Config) (Client, error) {
		return fake, nil
	}
	return NewImapGatewayWithDial(dial, 100, 100, slog.New(slog.DiscardHandler))
}

func bodySection() *imap.BodySectionName {
	return &imap.BodySectionName{}
}

func imapMessage(uid uint32, subject, from, body string) *imap.Message {
	msg := &imap.Message{
		Uid:          uid,
		InternalDate: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Envelope: &imap.Envelope{
			Subject: subject,
			From:    []*imap.Address{{MailboxName: strings.Split(from, "@")[0], HostName: strings.Split(from, "@")[1]}},
			To:      []*imap.Address{{MailboxName: "user", HostName: "example.com"}},
		},
	}
	if body != "" {
		msg.Body = map[*imap.BodySectionName]imap.Literal{
			bodySection(): bytes.NewBufferString(body),
		}
	}
	return msg
}

func TestImapGateway_FetchRecent(t *testing.T) {
	fake := &fakeImapClient{
		status: &imap.MailboxStatus{Messages: 2},
		messages: []*imap.Message{
			imapMessage(7, "Hello", "sender@example.com", "Subject: Hello\r\n\r\nPlain text body here.\r\n"),
			imapMessage(8, "World", "other@example.com", "Subject: World\r\nContent-Type: text/html\r\n\r\n<p>HTML <b>body</b></p>\r\n"),
		},
	}
	gateway := newTestGateway(fake)

	messages, err := gateway.FetchRecent(context.Background(), domain.ImapCredentials{
		Host:     "imap.example.com",
		Port:     993,
		Username: "user@example.com",
		Password: "secret",
	}, 50)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "INBOX", fake.selectedName)
	assert.True(t, fake.readOnly)
	assert.True(t, fake.loggedOut)
	assert.Equal(t, "1:2", fake.gotSeqSet)

	assert.Equal(t, uint32(7), messages[0].UID)
	assert.Equal(t, "Hello", messages[0].Subject)
	assert.Equal(t, "sender@example.com", messages[0].FromAddress)
	assert.Equal(t, []string{"user@example.com"}, messages[0].ToAddresses)
	assert.Equal(t, "Plain text body here.", messages[0].Snippet)

	assert.Equal(t, "HTML body", messages[1].Snippet)
}

func TestImapGateway_FetchRecent_WindowCoversLastN(t *testing.T) {
	fake := &fakeImapClient{
		status: &imap.MailboxStatus{Messages: 100},
	}
	gateway := newTestGateway(fake)

	_, err := gateway.FetchRecent(context.Background(), domain.ImapCredentials{
		Host: "imap.example.com", Port: 993, Username: "u", Password: "p",
	}, 50)
	require.NoError(t, err)
	assert.Equal(t, "51:100", fake.gotSeqSet)
}

func TestImapGateway_FetchRecent_EmptyMailbox(t *testing.T) {
	fake := &fakeImapClient{
		status: &imap.MailboxStatus{Messages: 0},
	}
	gateway := newTestGateway(fake)

	messages, err := gateway.FetchRecent(context.Background(), domain.ImapCredentials{
		Host: "imap.example.com", Port: 993, Username: "u", Password: "p",
	}, 50)
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Empty(t, fake.gotSeqSet)
	assert.True(t, fake.loggedOut)
}

func TestImapGateway_FetchRecent_LoginFailureStillLogsOut(t *testing.T) {
	fake := &fakeImapClient{
		loginErr: errors.New("authentication failed"),
	}
	gateway := newTestGateway(fake)

	_, err := gateway.FetchRecent(context.Background(), domain.ImapCredentials{
		Host: "imap.example.com", Port: 993, Username: "u", Password: "bad",
	}, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imap login failed")
	assert.True(t, fake.loggedOut)
}

func TestImapGateway_FetchRecent_MissingBodyFallsBackToEnvelope(t *testing.T) {
	fake := &fakeImapClient{
		status: &imap.MailboxStatus{Messages: 1},
		messages: []*imap.Message{
			imapMessage(12, "No body", "sender@example.com", ""),
		},
	}
	gateway := newTestGateway(fake)

	messages, err := gateway.FetchRecent(context.Background(), domain.ImapCredentials{
		Host: "imap.example.com", Port: 993, Username: "u", Password: "p",
	}, 50)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "No body", messages[0].Subject)
	assert.Empty(t, messages[0].Snippet)
}

func TestImapGateway_FetchRecent_DialError(t *testing.T) {
	dial := func(address string, tlsConfig *tls.Config) (Client, error) {
		return nil, errors.New("connection refused")
	}
	gateway := NewImapGatewayWithDial(dial, 100, 100, slog.New(slog.DiscardHandler))

	_, err := gateway.FetchRecent(context.Background(), domain.ImapCredentials{
		Host: "imap.example.com", Port: 993, Username: "u", Password: "p",
	}, 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to dial imap server")
}

func TestMakeSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tags and collapses whitespace",
			in:   "<div>Hello   <b>world</b>\n\nagain</div>",
			want: "Hello world again",
		},
		{
			name: "cuts at 160 characters",
			in:   strings.Repeat("a", 200),
			want: strings.Repeat("a", 160),
		},
		{
			name: "trims surrounding whitespace",
			in:   "  padded  ",
			want: "padded",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, makeSnippet(tt.in))
		})
	}
}
