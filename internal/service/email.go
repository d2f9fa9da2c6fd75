package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/logger"
)

// NewEmailService builds the dispatcher selected by cfg.Provider.
func NewEmailService(cfg config.EmailConfig) (EmailService, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPEmailService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.From, cfg.FromName), nil
	case "sendgrid":
		return NewSendGridEmailService(cfg.SendGrid.APIKey, cfg.From, cfg.FromName), nil
	case "log", "":
		return NewLogEmailService(), nil
	}
	return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
}

type smtpEmailService struct {
	dialer   *gomail.Dialer
	host     string
	from     string
	fromName string
}

func NewSMTPEmailService(host string, port int, username, password, from, fromName string) EmailService {
	return &smtpEmailService{
		dialer:   gomail.NewDialer(host, port, username, password),
		host:     host,
		from:     from,
		fromName: fromName,
	}
}

func (s *smtpEmailService) SendEmail(ctx context.Context, msg EmailMessage) (string, error) {
	if len(msg.Recipients) == 0 {
		return "", fmt.Errorf("email has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.host)

	m := gomail.NewMessage()
	m.SetHeader("Message-ID", id)
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.Recipients...)
	m.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	logger.ExternalServiceCall("smtp", "send", "recipients", len(msg.Recipients))
	err := s.dialer.DialAndSend(m)
	logger.ExternalServiceResult("smtp", "send", err, "message_id", id)
	if err != nil {
		return "", fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return id, nil
}

type sendGridEmailService struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridEmailService(apiKey, from, fromName string) EmailService {
	return &sendGridEmailService{
		client:   sendgrid.NewSendClient(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (s *sendGridEmailService) SendEmail(ctx context.Context, msg EmailMessage) (string, error) {
	if len(msg.Recipients) == 0 {
		return "", fmt.Errorf("email has no recipients")
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, s.from))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	for _, r := range msg.Recipients {
		p.AddTos(mail.NewEmail("", r))
	}
	m.AddPersonalizations(p)

	// SendGrid requires text/plain before text/html.
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	logger.ExternalServiceCall("sendgrid", "send", "recipients", len(msg.Recipients))
	resp, err := s.client.SendWithContext(ctx, m)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err)
	if err != nil {
		return "", fmt.Errorf("failed to send email via sendgrid: %w", err)
	}

	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

// logEmailService writes emails to the log instead of sending them.
type logEmailService struct{}

func NewLogEmailService() EmailService {
	return logEmailService{}
}

func (logEmailService) SendEmail(ctx context.Context, msg EmailMessage) (string, error) {
	id := uuid.NewString()
	logger.Info("Email (not sent, log provider)",
		"delivery_id", id,
		"to", strings.Join(msg.Recipients, ","),
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return id, nil
}
