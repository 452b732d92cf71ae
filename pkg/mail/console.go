package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ConsoleMailer logs messages instead of sending them. Used in development.
type ConsoleMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewConsoleMailer returns a mailer that writes to the logger.
func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send records and logs msg.
func (c *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	c.logger.Info("mail sent to console",
		zap.String("to", msg.To.String()),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}

// Sent returns a copy of every delivered message.
func (c *ConsoleMailer) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}
