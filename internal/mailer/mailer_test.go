package mailer

import (
	"context"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inviteme/backend/internal/config"
	"inviteme/backend/internal/domain"
)

// recordingTransport captures messages instead of delivering them
type recordingTransport struct {
	sent []*Message
}

func (t *recordingTransport) Send(_ context.Context, msg *Message) error {
	t.sent = append(t.sent, msg)
	return nil
}

func testSite() config.SiteConfig {
	return config.SiteConfig{
		Name:         "example.com",
		BaseURL:      "https://example.com",
		SupportEmail: "helpdesk@example.com",
	}
}

func newTestDispatcher(t *testing.T, notify config.NotifyConfig) (*Dispatcher, *recordingTransport) {
	t.Helper()
	transport := &recordingTransport{}
	d, err := NewDispatcher(transport, testSite(), notify, "noreply@example.com", zap.NewNop())
	require.NoError(t, err)
	return d, transport
}

func TestDispatcher_SendConfirmationRequest(t *testing.T) {
	d, transport := newTestDispatcher(t, config.NotifyConfig{})

	sub := domain.Submission{
		Email:      "jane.bloggs@example.com",
		SubmitDate: time.Now().UTC(),
	}
	confirmURL := "https://example.com/confirm/abc.def"
	require.NoError(t, d.SendConfirmationRequest(context.Background(), sub, confirmURL))

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	assert.Equal(t, []string{"jane.bloggs@example.com"}, msg.To)
	assert.Equal(t, "noreply@example.com", msg.From)
	assert.Contains(t, msg.Subject, "example.com")

	// the confirmation link must appear in both bodies
	assert.Contains(t, msg.TextBody, confirmURL)
	assert.Contains(t, msg.HTMLBody, confirmURL)
	assert.Contains(t, msg.TextBody, "helpdesk@example.com")
}

func TestDispatcher_SendRequestReceived_ToAdmins(t *testing.T) {
	notify := config.NotifyConfig{
		Admins: []mail.Address{
			{Name: "Alice Admin", Address: "alice@example.com"},
			{Name: "Bob Ops", Address: "bob@example.com"},
		},
	}
	d, transport := newTestDispatcher(t, notify)

	record := &domain.ContactRecord{
		Email:      "jane.bloggs@example.com",
		Site:       "example.com",
		SubmitDate: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		IPAddress:  "198.51.100.7",
	}
	require.NoError(t, d.SendRequestReceived(context.Background(), record))

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	require.Len(t, msg.To, 2)
	assert.Contains(t, msg.To[0], "Alice Admin")
	assert.Contains(t, msg.To[0], "alice@example.com")
	assert.Contains(t, msg.TextBody, "jane.bloggs@example.com")
	assert.Contains(t, msg.TextBody, "198.51.100.7")
}

func TestDispatcher_SendRequestReceived_NotifyOverride(t *testing.T) {
	notify := config.NotifyConfig{
		To: []string{"inbox@example.com"},
		Admins: []mail.Address{
			{Name: "Alice Admin", Address: "alice@example.com"},
		},
	}
	d, transport := newTestDispatcher(t, notify)

	record := &domain.ContactRecord{
		Email:      "jane.bloggs@example.com",
		SubmitDate: time.Now().UTC(),
	}
	require.NoError(t, d.SendRequestReceived(context.Background(), record))

	// the explicit notify list replaces the admin list entirely
	require.Len(t, transport.sent, 1)
	assert.Equal(t, []string{"inbox@example.com"}, transport.sent[0].To)
}

func TestDispatcher_SendRequestReceived_NoRecipients(t *testing.T) {
	d, transport := newTestDispatcher(t, config.NotifyConfig{})

	record := &domain.ContactRecord{Email: "jane.bloggs@example.com", SubmitDate: time.Now().UTC()}
	require.NoError(t, d.SendRequestReceived(context.Background(), record))
	assert.Empty(t, transport.sent)
}

func TestMessage_RenderPlainText(t *testing.T) {
	msg := &Message{
		From:     "noreply@example.com",
		To:       []string{"jane.bloggs@example.com"},
		Subject:  "Hello",
		TextBody: "line one\nline two",
	}
	raw, err := msg.Render()
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "From: noreply@example.com\r\n")
	assert.Contains(t, s, "Content-Type: text/plain")
	assert.Contains(t, s, "line one\r\nline two")
	assert.NotContains(t, s, "multipart/alternative")
}

func TestMessage_RenderMultipart(t *testing.T) {
	msg := &Message{
		From:     "noreply@example.com",
		To:       []string{"jane.bloggs@example.com"},
		Subject:  "Hello",
		TextBody: "plain",
		HTMLBody: "<p>rich</p>",
	}
	raw, err := msg.Render()
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "multipart/alternative")
	assert.Contains(t, s, "text/plain")
	assert.Contains(t, s, "text/html")
	assert.Contains(t, s, "<p>rich</p>")
	// text part comes before the html part
	assert.Less(t, strings.Index(s, "plain"), strings.Index(s, "<p>rich</p>"))
}

func TestMessage_RenderMissingFields(t *testing.T) {
	_, err := (&Message{To: []string{"a@example.com"}}).Render()
	assert.Error(t, err)

	_, err = (&Message{From: "a@example.com"}).Render()
	assert.Error(t, err)
}
