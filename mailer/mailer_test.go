package mailer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVerificationEmailEscapes(t *testing.T) {
	subject, body := VerificationEmail("<b>Ada</b>", "http://shop/verify?token=abc&x=1")
	assert.Equal(t, "Verify your email address", subject)
	assert.Contains(t, body, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.Contains(t, body, `href="http://shop/verify?token=abc&amp;x=1"`)
}

func TestSMTPMessageHeaders(t *testing.T) {
	m := NewSMTPMailer("smtp.example.com", "587", "noreply@example.com", "pw", "")
	msg := string(m.message("ada@example.com", "Hello", "<p>hi</p>"))

	assert.True(t, strings.HasPrefix(msg, "From: noreply@example.com\r\n"))
	assert.Contains(t, msg, "To: ada@example.com\r\n")
	assert.Contains(t, msg, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>"))
}

func TestLogMailerRecords(t *testing.T) {
	m := NewLogMailer(zap.NewNop())
	require.NoError(t, m.Send(context.Background(), "a@b.co", "s", "b"))
	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@b.co", sent[0].To)
}
