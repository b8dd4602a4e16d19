package mailer

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleMailer logs messages instead of sending them. Default transport
// in development and tests.
type ConsoleMailer struct {
	logger *zap.Logger
}

// NewConsole constructs a console mailer.
func NewConsole(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send logs the message.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("email",
		zap.String("to", msg.ToAddress),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTML)),
	)
	return nil
}
