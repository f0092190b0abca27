package model

import (
	"time"

	"github.com/google/uuid"
)

// Clinician is a doctor who can be booked for telemedicine appointments.
// TelegramChatID is where booking notifications for this doctor are sent.
type Clinician struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Specialty      string    `db:"specialty" json:"specialty"`
	Email          *string   `db:"email" json:"email,omitempty"`
	TelegramChatID *string   `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type CreateClinicianRequest struct {
	Name           string  `json:"name" binding:"required"`
	Specialty      string  `json:"specialty" binding:"required"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email"`
	TelegramChatID *string `json:"telegram_chat_id,omitempty"`
}
