package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"ctspark-backend/internal/logger"
)

type sendgridAlertService struct {
	client    *sendgrid.Client
	from      *mail.Email
	operators []string
}

// NewAlertService sends operator alerts through SendGrid. Without an API key
// or recipients alerts are only logged, which is what local development uses.
func NewAlertService(apiKey, fromEmail, fromName string, operators []string) AlertService {
	if apiKey == "" || len(operators) == 0 {
		return &logAlertService{}
	}
	return &sendgridAlertService{
		client:    sendgrid.NewSendClient(apiKey),
		from:      mail.NewEmail(fromName, fromEmail),
		operators: operators,
	}
}

func (s *sendgridAlertService) SendOperatorAlert(ctx context.Context, subject, message string) error {
	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.Subject = "[CT SPARK] " + subject

	p := mail.NewPersonalization()
	for _, addr := range s.operators {
		p.AddTos(mail.NewEmail("", addr))
	}
	m.AddPersonalizations(p)
	m.AddContent(mail.NewContent("text/plain", message))

	logger.ExternalServiceCall("sendgrid", "Send", "subject", subject, "recipients", len(s.operators))
	resp, err := s.client.SendWithContext(ctx, m)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "subject", subject)
	if err != nil {
		return fmt.Errorf("failed to send operator alert: %w", err)
	}
	return nil
}

type logAlertService struct{}

func (s *logAlertService) SendOperatorAlert(ctx context.Context, subject, message string) error {
	logger.Warn("Operator alert", "subject", subject, "message", message)
	return nil
}
