// Package email delivers account mail through an external provider.
package email

import (
	"context"
	"time"
)

// SendRequest is one outgoing message.
type SendRequest struct {
	To       []string
	From     string // empty uses the sender's default address
	Subject  string
	HTML     string
	ReplyTo  string
	Category string // e.g. "activation"; used for provider-side tagging
}

// SendResult is the provider's receipt.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers account mail.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
