package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NormalizeCode trims surrounding whitespace and uppercases a user-supplied
// meeting code so lookups are case-insensitive everywhere.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type MeetingStatus string

const (
	// MeetingStatusPending marks a tentative record: stored but not yet
	// confirmed by a successful notification delivery.
	MeetingStatusPending   MeetingStatus = "pending"
	MeetingStatusConfirmed MeetingStatus = "confirmed"
	MeetingStatusExpired   MeetingStatus = "expired"
)

// MeetingRecord maps a meeting code to its redemption state.
type MeetingRecord struct {
	Code          string        `db:"code" json:"code"`
	AppointmentID uuid.UUID     `db:"appointment_id" json:"appointment_id"`
	Status        MeetingStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UsedAt        *time.Time    `db:"used_at" json:"used_at,omitempty"`
}

// Used reports whether the code has been redeemed.
func (m *MeetingRecord) Used() bool {
	return m.UsedAt != nil
}

// Redeemable reports whether the code can still be exchanged for a link.
func (m *MeetingRecord) Redeemable() bool {
	return !m.Used() && m.Status != MeetingStatusExpired
}
