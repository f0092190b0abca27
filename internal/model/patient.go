package model

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Email          *string    `db:"email" json:"email,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	TelegramChatID *string    `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

type CreatePatientRequest struct {
	Name           string  `json:"name" binding:"required"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string `json:"phone,omitempty"`
	TelegramChatID *string `json:"telegram_chat_id,omitempty"`
	DateOfBirth    *string `json:"date_of_birth,omitempty"`
}
