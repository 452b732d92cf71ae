package mail

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Message is a single outbound email.
type Message struct {
	To      mail.Address
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Validate checks the message carries a recipient and some content.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To.Address) == "" {
		return fmt.Errorf("mail: recipient required")
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("mail: empty content")
	}
	return nil
}

// OTPMessage builds the registration verification email.
func OTPMessage(to, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())
	return Message{
		To:      mail.Address{Address: to},
		Subject: "Your verification code",
		Text: fmt.Sprintf("Your verification code is %s.\nIt expires in %d minutes. If you did not request it, ignore this email.",
			code, minutes),
		HTML: fmt.Sprintf(`<p>Your verification code is</p><h2 style="letter-spacing:4px">%s</h2><p>It expires in %d minutes.</p>`,
			code, minutes),
	}
}

// WelcomeMessage builds the post-registration greeting.
func WelcomeMessage(to, firstName string) Message {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return Message{
		To:      mail.Address{Name: firstName, Address: to},
		Subject: "Welcome to EDUVITA",
		Text:    fmt.Sprintf("Hi %s,\n\nYour account is ready. You can now sign in to the dashboard.", name),
		HTML:    fmt.Sprintf("<p>Hi %s,</p><p>Your account is ready. You can now sign in to the dashboard.</p>", name),
	}
}
