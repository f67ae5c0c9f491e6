// Package mail renders account emails and hands them to a Sender.
package mail

import (
	"context"
	"errors"
	"strings"
)

var ErrNoRecipient = errors.New("mail: message has no recipient")

type Message struct {
	To       []string
	Subject  string
	TextBody string
}

func (m Message) validate() error {
	for _, to := range m.To {
		if strings.TrimSpace(to) != "" {
			return nil
		}
	}
	return ErrNoRecipient
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer queues templated account emails for delivery.
type Mailer interface {
	SendTemplate(ctx context.Context, to, subject, template string, data map[string]any)
}
