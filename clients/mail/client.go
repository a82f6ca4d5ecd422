package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"rolebot/clients"
	"rolebot/config"
	"rolebot/core"
	"rolebot/core/log"
	"rolebot/models"
)

// ErrNotConfigured is returned when no SMTP host was provided
var ErrNotConfigured = errors.New("smtp is not configured")

type sendFunc func(ctx context.Context, client *gomail.Client, msg *gomail.Msg) error

type MailClient struct {
	cfg  config.MailConfig
	send sendFunc
}

func NewMailClient(cfg config.MailConfig) clients.MailClient {
	return &MailClient{
		cfg:  cfg,
		send: dialAndSend,
	}
}

func dialAndSend(ctx context.Context, client *gomail.Client, msg *gomail.Msg) error {
	return client.DialAndSendWithContext(ctx, msg)
}

// SendMail delivers a plain-text email and returns its Message-ID
func (c *MailClient) SendMail(ctx context.Context, msg models.MailMessage) (string, error) {
	if !c.cfg.IsConfigured() {
		return "", fmt.Errorf("%w: %w", ErrNotConfigured, core.ErrConfiguration)
	}

	m, err := buildMessage(msg)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrValidation, err)
	}

	client, err := c.newSMTPClient(msg)
	if err != nil {
		return "", fmt.Errorf("failed to create smtp client: %w: %w", core.ErrRelay, err)
	}

	log.Info("📧 Sending email to %s via %s:%d", msg.To, c.cfg.Host, c.cfg.Port)
	if err := c.send(ctx, client, m); err != nil {
		return "", fmt.Errorf("failed to send email: %w: %w", core.ErrRelay, err)
	}

	return messageID(m), nil
}

func (c *MailClient) newSMTPClient(msg models.MailMessage) (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(c.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}

	username, password := c.cfg.Username, c.cfg.Password
	if msg.Password != "" {
		username, password = msg.From, msg.Password
	}
	if username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(username),
			gomail.WithPassword(password),
		)
	}

	return gomail.NewClient(c.cfg.Host, opts...)
}

func buildMessage(msg models.MailMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	m.SetMessageID()
	m.SetDate()
	return m, nil
}

func messageID(m *gomail.Msg) string {
	ids := m.GetGenHeader(gomail.HeaderMessageID)
	if len(ids) == 0 {
		return ""
	}
	return strings.Trim(ids[0], "<>")
}
