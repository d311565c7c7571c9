// Package notify sends e-mail to portal users.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Recipient is an e-mail destination
type Recipient struct {
	Name  string
	Email string
}

// Message is a single e-mail sent to every recipient in To
type Message struct {
	To      []Recipient
	Subject string
	Plain   string
	HTML    string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Console logs messages instead of sending them. It is used when no mail
// provider is configured.
type Console struct{}

// Send writes the message to the log
func (Console) Send(_ context.Context, msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, r := range msg.To {
		to = append(to, r.Email)
	}
	zap.S().Infow("email (console)", "to", to, "subject", msg.Subject, "body", msg.Plain)
	return nil
}

// New returns a SendGrid mailer when apiKey is set and Console otherwise
func New(apiKey, fromName, fromAddress string) Mailer {
	if apiKey == "" {
		zap.S().Warn("SENDGRID_API_KEY is not set, e-mails will only be logged")
		return Console{}
	}
	return NewSendGrid(apiKey, fromName, fromAddress)
}
