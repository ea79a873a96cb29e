package mailer

import (
	"context"
	"fmt"

	"github.com/segyhp/invoice-followups/internal/config"

	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPGateway sends through an SMTP relay
type SMTPGateway struct {
	fromEmail string
	fromName  string
	dialer    dialer
}

func NewSMTPGateway(cfg config.MailConfig) *SMTPGateway {
	return &SMTPGateway{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (g *SMTPGateway) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", g.fromEmail, g.fromName)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	m.AddAlternative("text/html", msg.HTMLBody)

	if err := g.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}

	return nil
}
