package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/bodyworks/scheduler-api/internal/model"
)

type Service interface {
	SendReminder(ctx context.Context, to string, apt *model.Appointment) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendReminder(ctx context.Context, to string, apt *model.Appointment) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Upcoming appointment at %s", apt.StartTime.Format("Mon Jan 2 15:04")))
	m.SetBody("text/plain", fmt.Sprintf(
		"Reminder: %s session for client %s\nStarts: %s\nEnds: %s\n",
		apt.ServiceType,
		apt.ClientID,
		apt.StartTime.Format("Mon Jan 2 15:04"),
		apt.EndTime.Format("15:04"),
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}
	return nil
}
