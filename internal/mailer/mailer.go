// Package mailer delivers rendered reminder emails through the configured provider.
package mailer

import (
	"context"
	"fmt"

	"github.com/segyhp/invoice-followups/internal/config"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
)

// Message is one outbound email
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTMLBody string
	TextBody string
}

// Gateway sends a message. A nil error means the provider accepted it.
type Gateway interface {
	Send(ctx context.Context, msg *Message) error
}

// NewGateway builds the gateway for cfg.Provider, guarded by recipient address validation
func NewGateway(cfg config.MailConfig, logger logrus.FieldLogger) (Gateway, error) {
	var gateway Gateway

	switch cfg.Provider {
	case config.MailProviderSMTP:
		gateway = NewSMTPGateway(cfg)
	case config.MailProviderSendGrid:
		gateway = NewSendGridGateway(cfg)
	case config.MailProviderLog:
		gateway = NewLogGateway(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}

	return WithAddressCheck(gateway), nil
}

type addressCheckGateway struct {
	next Gateway
}

// WithAddressCheck rejects malformed recipient addresses before they reach the provider
func WithAddressCheck(next Gateway) Gateway {
	return &addressCheckGateway{next: next}
}

func (g *addressCheckGateway) Send(ctx context.Context, msg *Message) error {
	if err := checkmail.ValidateFormat(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	return g.next.Send(ctx, msg)
}

// LogGateway writes messages to the log instead of sending them
type LogGateway struct {
	from   string
	logger logrus.FieldLogger
}

func NewLogGateway(cfg config.MailConfig, logger logrus.FieldLogger) *LogGateway {
	return &LogGateway{from: cfg.FromEmail, logger: logger}
}

func (g *LogGateway) Send(_ context.Context, msg *Message) error {
	g.logger.WithFields(logrus.Fields{
		"from":    g.from,
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info("email not sent (log provider)")
	return nil
}
