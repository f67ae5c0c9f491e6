package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Payphone-Digital/fleet-registry/config"
)

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPSender{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, port),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}, nil
}

// Send ignores ctx once the message is handed to net/smtp, which has no
// context support.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sendMail(s.addr, s.auth, s.from, msg.To, buildMIME(s.from, msg))
}

func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.TextBody, "\n", "\r\n"))
	return []byte(b.String())
}
