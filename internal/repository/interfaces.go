package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Kamaljeyaram/Matrix/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrCodeTaken is returned when inserting a meeting record whose code
// already exists.
var ErrCodeTaken = errors.New("meeting code already exists")

// ErrCodeConsumed is returned when redeeming a code that is absent,
// already used, or expired. The cases are deliberately not distinguished.
var ErrCodeConsumed = errors.New("meeting code invalid or already used")

type MeetingRepository interface {
	Create(ctx context.Context, rec *model.MeetingRecord) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, rec *model.MeetingRecord) error
	Get(ctx context.Context, code string) (*model.MeetingRecord, error)
	// Redeem atomically marks an unused, unexpired code as used and returns
	// the record. At most one concurrent caller succeeds per code.
	Redeem(ctx context.Context, code string) (*model.MeetingRecord, error)
	UpdateStatus(ctx context.Context, code string, status model.MeetingStatus) error
	// ExpireStaleBefore expires tentative records created before the cutoff
	// that were never confirmed, returning how many were swept.
	ExpireStaleBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, apt *model.Appointment) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context) ([]*model.Patient, error)
}

type ClinicianRepository interface {
	Create(ctx context.Context, clinician *model.Clinician) error
	Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error)
	List(ctx context.Context) ([]*model.Clinician, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	CreateTx(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
	MoveToDeadLetter(ctx context.Context, evt *model.OutboxEvent) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
