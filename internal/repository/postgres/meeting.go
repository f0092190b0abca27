package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
)

type meetingRepository struct {
	BaseRepository
}

func NewMeetingRepository(base BaseRepository) repository.MeetingRepository {
	return &meetingRepository{base}
}

func (r *meetingRepository) Create(ctx context.Context, rec *model.MeetingRecord) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return r.CreateTx(ctx, tx, rec)
	})
}

func (r *meetingRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, rec *model.MeetingRecord) error {
	rec.Code = model.NormalizeCode(rec.Code)
	rec.Status = model.MeetingStatusPending
	rec.CreatedAt = time.Now()

	// ON CONFLICT keeps a collision from aborting the surrounding booking
	// transaction; the caller regenerates and retries on ErrCodeTaken.
	query := `
		INSERT INTO meeting_codes (code, appointment_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, rec.Code, rec.AppointmentID, rec.Status, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create meeting record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrCodeTaken
	}
	return nil
}

func (r *meetingRepository) Get(ctx context.Context, code string) (*model.MeetingRecord, error) {
	query := `
		SELECT code, appointment_id, status, created_at, used_at
		FROM meeting_codes
		WHERE code = $1
	`

	var rec model.MeetingRecord
	err := r.GetDB().GetContext(ctx, &rec, query, model.NormalizeCode(code))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting record: %w", err)
	}
	return &rec, nil
}

// Redeem flips used_at exactly once per code. The WHERE clause is the
// compare-and-swap: a second concurrent attempt matches zero rows.
func (r *meetingRepository) Redeem(ctx context.Context, code string) (*model.MeetingRecord, error) {
	query := `
		UPDATE meeting_codes
		SET used_at = NOW()
		WHERE code = $1
		AND used_at IS NULL
		AND status <> $2
		RETURNING code, appointment_id, status, created_at, used_at
	`

	var rec model.MeetingRecord
	err := r.GetDB().GetContext(ctx, &rec, query, model.NormalizeCode(code), model.MeetingStatusExpired)
	if err == sql.ErrNoRows {
		return nil, repository.ErrCodeConsumed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to redeem meeting code: %w", err)
	}
	return &rec, nil
}

func (r *meetingRepository) UpdateStatus(ctx context.Context, code string, status model.MeetingStatus) error {
	query := `
		UPDATE meeting_codes
		SET status = $1
		WHERE code = $2
	`
	result, err := r.GetDB().ExecContext(ctx, query, status, model.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("failed to update meeting status: %w", err)
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

func (r *meetingRepository) ExpireStaleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE meeting_codes
		SET status = $1
		WHERE status = $2
		AND used_at IS NULL
		AND created_at < $3
	`
	result, err := r.GetDB().ExecContext(ctx, query, model.MeetingStatusExpired, model.MeetingStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale meeting codes: %w", err)
	}
	return result.RowsAffected()
}
