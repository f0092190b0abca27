package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return r.CreateTx(ctx, tx, apt)
	})
}

func (r *appointmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	query := `
		INSERT INTO appointments (
			id, patient_id, clinician_id, date, time, status, meeting_code,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		apt.ID,
		apt.PatientID,
		apt.ClinicianID,
		apt.Date,
		apt.Time,
		apt.Status,
		apt.MeetingCode,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, patient_id, clinician_id, date, time, status, meeting_code,
			created_at, updated_at
		FROM appointments
		WHERE id = $1
	`

	var apt model.Appointment
	err := r.GetDB().GetContext(ctx, &apt, query, id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, patient_id, clinician_id, date, time, status, meeting_code,
			created_at, updated_at
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	idx := 1

	if filters != nil {
		if filters.PatientID != nil {
			query += fmt.Sprintf(" AND patient_id = $%d", idx)
			args = append(args, *filters.PatientID)
			idx++
		}
		if filters.ClinicianID != nil {
			query += fmt.Sprintf(" AND clinician_id = $%d", idx)
			args = append(args, *filters.ClinicianID)
			idx++
		}
		if filters.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", idx)
			args = append(args, *filters.Status)
			idx++
		}
	}
	query += " ORDER BY date, time"

	var appointments []*model.Appointment
	if err := r.GetDB().SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.GetDB().ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
