package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a ResendSender.
// PRE: apiKey is a Resend API key; from is a verified sender such as "DersPlan <noreply@example.com>"
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send delivers req. Requests with a Category are tagged with it so
// deliveries can be filtered in the Resend dashboard.
// PRE: req has at least one recipient and a subject
// POST: returns the Resend message id
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		ReplyTo: req.ReplyTo,
	}
	if req.From != "" {
		params.From = req.From
	}
	if req.Category != "" {
		params.Tags = []resend.Tag{{Name: "category", Value: req.Category}}
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("email_event", "event", "resend_failed", "category", req.Category, "error", err)
		return SendResult{}, fmt.Errorf("resend: %w", err)
	}
	slog.Info("email_event", "event", "resend_sent", "category", req.Category, "message_id", sent.Id)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}
