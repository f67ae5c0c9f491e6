package mail

import (
	"context"

	"github.com/Payphone-Digital/fleet-registry/pkg/logger"
)

// LogSender writes messages to the log instead of delivering them. It is
// used when MAIL_ENABLED is off.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	logger.InfoWithContext(ctx, "Mail delivery disabled, logging message").
		Any("to", msg.To).
		String("subject", msg.Subject).
		String("body", msg.TextBody).
		Log()
	return nil
}
