package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

const EventTypeMeetingNotification = "meeting_notification"

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// MeetingNotificationPayload is the outbox payload for a booked meeting
// awaiting delivery to the recipient's Telegram chat.
type MeetingNotificationPayload struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	MeetingCode   string    `json:"meeting_code"`
	MeetingLink   string    `json:"meeting_link"`
	ChatID        string    `json:"chat_id"`
	Email         string    `json:"email,omitempty"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	DoctorName    string    `json:"doctor_name"`
	PatientName   string    `json:"patient_name"`
	ForDoctor     bool      `json:"for_doctor"`
}
