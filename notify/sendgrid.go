package notify

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	templates "github.com/linesmerrill/relief-portal-api/templates/html"
)

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid delivers mail through the SendGrid v3 API
type SendGrid struct {
	client sendClient
	from   *mail.Email
}

// NewSendGrid creates a SendGrid mailer sending as fromName <fromAddress>
func NewSendGrid(apiKey, fromName, fromAddress string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

// build puts every recipient in its own personalization so admins do not see
// each other's addresses. Plain-only messages get the generic HTML layout.
func (s *SendGrid) build(msg Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = msg.Subject
	for _, r := range msg.To {
		p := mail.NewPersonalization()
		p.AddTos(mail.NewEmail(r.Name, r.Email))
		m.AddPersonalizations(p)
	}
	m.AddContent(mail.NewContent("text/plain", msg.Plain))
	body := msg.HTML
	if body == "" {
		body = templates.RenderGenericEmail(msg.Subject, msg.Plain)
	}
	m.AddContent(mail.NewContent("text/html", body))
	return m
}

// Send delivers msg. Messages without recipients are dropped.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	res, err := s.client.SendWithContext(ctx, s.build(msg))
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "subject", msg.Subject)
		return errors.Wrap(err, "send email")
	}
	if res.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", res.StatusCode, "body", res.Body)
		return fmt.Errorf("sendgrid error: status %d", res.StatusCode)
	}
	zap.S().Infow("email sent successfully", "recipients", len(msg.To), "subject", msg.Subject)
	return nil
}
