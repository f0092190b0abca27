package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendMeetingConfirmation(ctx context.Context, to, doctorName, date, timeOfDay, meetingCode, meetingLink string) error
}

type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type service struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &service{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *service) SendMeetingConfirmation(ctx context.Context, to, doctorName, date, timeOfDay, meetingCode, meetingLink string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your appointment is confirmed")
	m.SetBody("text/html", fmt.Sprintf(`
		<h2>Appointment Confirmed</h2>
		<p>Your appointment with %s has been booked.</p>
		<p><strong>Date:</strong> %s<br>
		<strong>Time:</strong> %s</p>
		<p><strong>Meeting code:</strong> <code>%s</code><br>
		<a href="%s">Join the meeting</a></p>
		<p>Please join 5 minutes before your scheduled time.</p>
	`, doctorName, date, timeOfDay, meetingCode, meetingLink))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}
