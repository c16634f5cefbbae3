package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"sync"

	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends HTML mail. Port 465 uses implicit TLS, other ports STARTTLS via smtp.SendMail.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPMailer(host, port, user, pass, from string) *SMTPMailer {
	if from == "" {
		from = user
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: user,
		password: pass,
		from:     from,
	}
}

func (m *SMTPMailer) message(to, subject, body string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\n", m.from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)
}

func (m *SMTPMailer) auth() smtp.Auth {
	if m.username == "" {
		return nil
	}
	return smtp.PlainAuth("", m.username, m.password, m.host)
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.host, m.port)
	msg := m.message(to, subject, body)
	if m.port != "465" {
		return smtp.SendMail(addr, m.auth(), m.from, []string{to}, msg)
	}

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: m.host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth := m.auth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

// LogMailer only logs outgoing mail; used when SMTP is not configured.
type LogMailer struct {
	log *zap.Logger

	mu   sync.Mutex
	sent []Message
}

type Message struct {
	To      string
	Subject string
	Body    string
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, Message{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	m.log.Info("email not sent, smtp disabled", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

func VerificationEmail(name, link string) (subject, body string) {
	subject = "Verify your email address"
	body = fmt.Sprintf(
		`<p>Hi %s,</p><p>Please confirm your email address by opening the link below. It expires in 24 hours.</p><p><a href="%s">Verify email</a></p>`,
		html.EscapeString(name),
		html.EscapeString(link),
	)
	return subject, body
}
