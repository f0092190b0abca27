package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/internal/service/meeting"
)

// TxRunner executes a function within a database transaction. Satisfied by
// postgres.BaseRepository.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// Request carries everything needed to book a telemedicine appointment.
// ChatID is the Telegram chat the booking notification goes to.
type Request struct {
	PatientID   uuid.UUID `json:"patient_id" validate:"required"`
	ClinicianID uuid.UUID `json:"clinician_id" validate:"required"`
	Date        string    `json:"date" validate:"required"`
	Time        string    `json:"time" validate:"required"`
	ChatID      string    `json:"chat_id" validate:"required"`
	Email       string    `json:"email" validate:"omitempty,email"`
	ForDoctor   bool      `json:"for_doctor"`
}

// Result is what a successful booking returns. Delivery of the notification
// is asynchronous; the meeting record stays tentative until it succeeds.
type Result struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	MeetingCode   string    `json:"meeting_code"`
	MeetingLink   string    `json:"meeting_link"`
}

type Service struct {
	tx           TxRunner
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	clinicians   repository.ClinicianRepository
	outbox       repository.OutboxRepository
	meetings     *meeting.Service
	validate     *validator.Validate
}

func NewService(
	tx TxRunner,
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	clinicians repository.ClinicianRepository,
	outbox repository.OutboxRepository,
	meetings *meeting.Service,
) *Service {
	return &Service{
		tx:           tx,
		appointments: appointments,
		patients:     patients,
		clinicians:   clinicians,
		outbox:       outbox,
		meetings:     meetings,
		validate:     validator.New(),
	}
}

// Book creates the appointment, issues a tentative meeting code and enqueues
// the notification, all in one transaction. Nothing leaves the process here;
// the outbox worker delivers the notification and either confirms or expires
// the meeting record, so a failed delivery never strands a consumable code.
func (s *Service) Book(ctx context.Context, req *Request) (*Result, error) {
	// Input validation runs before any storage or network effect.
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid booking request: %w", err)
	}

	patient, err := s.patients.Get(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load patient: %w", err)
	}
	clinician, err := s.clinicians.Get(ctx, req.ClinicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to load clinician: %w", err)
	}

	var result *Result
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		aptID := uuid.New()

		rec, link, err := s.meetings.IssueTx(ctx, tx, aptID)
		if err != nil {
			return err
		}

		apt := &model.Appointment{
			ID:          aptID,
			PatientID:   req.PatientID,
			ClinicianID: req.ClinicianID,
			Date:        req.Date,
			Time:        req.Time,
			Status:      model.AppointmentStatusScheduled,
			MeetingCode: &rec.Code,
		}
		if err := s.appointments.CreateTx(ctx, tx, apt); err != nil {
			return err
		}

		payload, err := json.Marshal(model.MeetingNotificationPayload{
			AppointmentID: aptID,
			MeetingCode:   rec.Code,
			MeetingLink:   link,
			ChatID:        req.ChatID,
			Email:         req.Email,
			Date:          req.Date,
			Time:          req.Time,
			DoctorName:    clinician.Name,
			PatientName:   patient.Name,
			ForDoctor:     req.ForDoctor,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal notification payload: %w", err)
		}

		if err := s.outbox.CreateTx(ctx, tx, &model.OutboxEvent{
			EventType: model.EventTypeMeetingNotification,
			Payload:   payload,
		}); err != nil {
			return err
		}

		result = &Result{
			AppointmentID: aptID,
			MeetingCode:   rec.Code,
			MeetingLink:   link,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}
	return result, nil
}

// GetAppointment returns a booked appointment.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.appointments.Get(ctx, id)
}

// ListAppointments returns appointments matching the filters.
func (s *Service) ListAppointments(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.appointments.List(ctx, filters)
}

// CancelAppointment marks an appointment cancelled.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return fmt.Errorf("appointment is already cancelled")
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return fmt.Errorf("cannot cancel a completed appointment")
	}
	if err := s.appointments.UpdateStatus(ctx, id, model.AppointmentStatusCancelled); err != nil {
		return err
	}
	if apt.MeetingCode != nil {
		// a cancelled appointment's code should stop working
		if err := s.meetings.Expire(ctx, *apt.MeetingCode); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	return nil
}
