package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers through the SendGrid v3 API.
type SendGridMailer struct {
	client     *sendgrid.Client
	from       *sgmail.Email
	subjPrefix string
}

// NewSendGridMailer builds a SendGrid-backed mailer.
func NewSendGridMailer(apiKey, fromName, fromAddress string) *SendGridMailer {
	return &SendGridMailer{
		client:     sendgrid.NewSendClient(apiKey),
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + fromName + "] ",
	}
}

// Send delivers msg; 4xx/5xx responses are returned as errors so the queue retries.
func (s *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	res, err := s.client.SendWithContext(ctx, s.prepare(msg))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (s *SendGridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	if msg.Text != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}
