package mailer

import (
	"context"
	"fmt"

	"github.com/segyhp/invoice-followups/internal/config"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendFunc delivers a prepared SendGrid message and reports the HTTP status and body
type sendFunc func(ctx context.Context, email *mail.SGMailV3) (int, string, error)

// SendGridGateway sends through the SendGrid v3 API
type SendGridGateway struct {
	fromEmail string
	fromName  string
	send      sendFunc
}

func NewSendGridGateway(cfg config.MailConfig) *SendGridGateway {
	client := sendgrid.NewSendClient(cfg.SendGridAPIKey)

	return &SendGridGateway{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		send: func(ctx context.Context, email *mail.SGMailV3) (int, string, error) {
			response, err := client.SendWithContext(ctx, email)
			if err != nil {
				return 0, "", err
			}
			return response.StatusCode, response.Body, nil
		},
	}
}

func (g *SendGridGateway) Send(ctx context.Context, msg *Message) error {
	from := mail.NewEmail(g.fromName, g.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	status, body, err := g.send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if status >= 400 {
		return fmt.Errorf("sendgrid returned error status %d: %s", status, body)
	}

	return nil
}
