// Package mailer delivers transactional email through SMTP or an HTTP API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"freelancer-hub/config"
	"freelancer-hub/internal/infra/fetch"

	"github.com/rs/zerolog"
)

type Message struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("mailer: message has no recipient")

// New picks the HTTP API when configured, then SMTP, and falls back to
// logging messages.
func New(cfg *config.Config, log zerolog.Logger) Mailer {
	switch {
	case cfg.Mail.APIURL != "":
		return &APIMailer{
			URL:    cfg.Mail.APIURL,
			Key:    cfg.Mail.APIKey,
			From:   cfg.Mail.From,
			client: fetch.New(cfg.Mail.Timeout),
		}
	case cfg.SMTP.Host != "":
		return &SMTPMailer{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.Mail.From,
		}
	}
	return &LogMailer{Log: log}
}

type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{msg.To}, m.build(msg))
	}()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SMTPMailer) build(msg Message) []byte {
	var b strings.Builder
	b.WriteString("Subject: " + headerSafe(msg.Subject) + "\r\n")
	b.WriteString("From: " + m.From + "\r\n")
	b.WriteString("To: " + headerSafe(msg.To) + "\r\n")
	if msg.ReplyTo != "" {
		b.WriteString("Reply-To: " + headerSafe(msg.ReplyTo) + "\r\n")
	}
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

// APIMailer posts messages to a JSON email API.
type APIMailer struct {
	URL    string
	Key    string
	From   string
	client *fetch.Client
}

type apiPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

func NewAPIMailer(url, key, from string, timeout time.Duration) *APIMailer {
	return &APIMailer{URL: url, Key: key, From: from, client: fetch.New(timeout)}
}

func (m *APIMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	_, err := m.client.PostJSON(ctx, m.URL, map[string]string{"Authorization": "Bearer " + m.Key}, apiPayload{
		From:    m.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("email api: %w", err)
	}
	return nil
}

// LogMailer only logs. Used when no provider is configured.
type LogMailer struct {
	Log zerolog.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.Log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email not sent: no provider configured")
	return nil
}
