package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kamaljeyaram/Matrix/internal/email"
	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/telegram"
	"github.com/Kamaljeyaram/Matrix/pkg/logger"
)

// TelegramSender is the slice of the Telegram client the dispatcher needs.
type TelegramSender interface {
	SendMeetingNotification(ctx context.Context, chatID string, notif telegram.MeetingNotification) (*telegram.Message, error)
}

// Service delivers booking notifications to their recipients. Telegram is
// the primary channel; email is best-effort and never fails the delivery.
type Service struct {
	telegram TelegramSender
	email    email.Service
	log      *logger.Logger
}

func NewService(tg TelegramSender, mail email.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewLogger(nil)
	}
	return &Service{telegram: tg, email: mail, log: log}
}

// Deliver sends a booked meeting notification to its Telegram chat and,
// when the payload carries an email address, mirrors it over email.
func (s *Service) Deliver(ctx context.Context, payload *model.MeetingNotificationPayload) error {
	_, err := s.telegram.SendMeetingNotification(ctx, payload.ChatID, telegram.MeetingNotification{
		MeetingCode: payload.MeetingCode,
		MeetingLink: payload.MeetingLink,
		Date:        payload.Date,
		Time:        payload.Time,
		DoctorName:  payload.DoctorName,
		PatientName: payload.PatientName,
		ForDoctor:   payload.ForDoctor,
	})
	if err != nil {
		return fmt.Errorf("failed to deliver telegram notification: %w", err)
	}

	s.log.Info("telegram notification delivered", map[string]interface{}{
		"appointment_id": payload.AppointmentID.String(),
		"chat_id":        payload.ChatID,
	})

	if payload.Email != "" && s.email != nil {
		if err := s.email.SendMeetingConfirmation(ctx, payload.Email, payload.DoctorName,
			payload.Date, payload.Time, payload.MeetingCode, payload.MeetingLink); err != nil {
			s.log.Error(err, "email confirmation failed", map[string]interface{}{
				"appointment_id": payload.AppointmentID.String(),
			})
		}
	}
	return nil
}

// Permanent reports whether a delivery failure cannot succeed on retry, such
// as an unknown chat, a recipient who blocked the bot, or a bad bot token.
func Permanent(err error) bool {
	return errors.Is(err, telegram.ErrChatNotFound) ||
		errors.Is(err, telegram.ErrBlockedByUser) ||
		errors.Is(err, telegram.ErrInvalidToken)
}
