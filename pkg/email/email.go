// Package email sends transactional e-mail through Resend.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Message is a single outgoing e-mail
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	// Tags label the message for filtering in the provider dashboard
	Tags map[string]string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// ResendSender delivers messages with the Resend API
type ResendSender struct {
	client *resend.Client
	from   string
}

// Option configures a ResendSender
type Option func(*ResendSender)

// WithBaseURL points the client at another API host
func WithBaseURL(u *url.URL) Option {
	return func(s *ResendSender) {
		s.client.BaseURL = u
	}
}

// NewResendSender creates a sender. fromName may be empty.
func NewResendSender(apiKey, from, fromName string, opts ...Option) *ResendSender {
	address := from
	if fromName != "" {
		address = fmt.Sprintf("%s <%s>", fromName, from)
	}

	s := &ResendSender{
		client: resend.NewClient(apiKey),
		from:   address,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers msg, preferring the HTML body when both are set
func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	start := time.Now()
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	for name, value := range msg.Tags {
		params.Tags = append(params.Tags, resend.Tag{Name: name, Value: value})
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	duration := time.Since(start).Seconds()
	if err != nil {
		logger.LogAPICall(ctx, "resend", "send_email", "error", duration, zap.Error(err))
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	logger.LogAPICall(ctx, "resend", "send_email", "success", duration,
		zap.String("email_id", sent.Id),
		zap.Int("recipients", len(msg.To)))
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no
// API key is configured.
type LogSender struct{}

// Send logs msg
func (LogSender) Send(_ context.Context, msg *Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	logger.Info("Email not sent (no provider configured)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("text_length", len(msg.Text)))
	return nil
}

func (m *Message) validate() error {
	if len(m.To) == 0 {
		return errors.New("email has no recipients")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("email has no subject")
	}
	if m.HTML == "" && m.Text == "" {
		return errors.New("email must have either an HTML or a text body")
	}
	return nil
}
