package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
)

type clinicianRepository struct {
	BaseRepository
}

func NewClinicianRepository(base BaseRepository) repository.ClinicianRepository {
	return &clinicianRepository{base}
}

func (r *clinicianRepository) Create(ctx context.Context, clinician *model.Clinician) error {
	clinician.CreatedAt = time.Now()
	clinician.UpdatedAt = time.Now()

	query := `
		INSERT INTO clinicians (
			id, name, specialty, email, telegram_chat_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		clinician.ID,
		clinician.Name,
		clinician.Specialty,
		clinician.Email,
		clinician.TelegramChatID,
		clinician.CreatedAt,
		clinician.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create clinician: %w", err)
	}
	return nil
}

func (r *clinicianRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	query := `
		SELECT id, name, specialty, email, telegram_chat_id, created_at, updated_at
		FROM clinicians
		WHERE id = $1
	`

	var clinician model.Clinician
	err := r.GetDB().GetContext(ctx, &clinician, query, id)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}
	return &clinician, nil
}

func (r *clinicianRepository) List(ctx context.Context) ([]*model.Clinician, error) {
	query := `
		SELECT id, name, specialty, email, telegram_chat_id, created_at, updated_at
		FROM clinicians
		ORDER BY name
	`

	var clinicians []*model.Clinician
	if err := r.GetDB().SelectContext(ctx, &clinicians, query); err != nil {
		return nil, fmt.Errorf("failed to list clinicians: %w", err)
	}
	return clinicians, nil
}
