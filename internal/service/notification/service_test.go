package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/telegram"
)

type fakeTelegram struct {
	err    error
	chatID string
	notif  telegram.MeetingNotification
	calls  int
}

func (f *fakeTelegram) SendMeetingNotification(_ context.Context, chatID string, notif telegram.MeetingNotification) (*telegram.Message, error) {
	f.calls++
	f.chatID = chatID
	f.notif = notif
	if f.err != nil {
		return nil, f.err
	}
	return &telegram.Message{MessageID: 42}, nil
}

type fakeEmail struct {
	err   error
	to    string
	calls int
}

func (f *fakeEmail) SendMeetingConfirmation(_ context.Context, to, _, _, _, _, _ string) error {
	f.calls++
	f.to = to
	return f.err
}

func samplePayload() *model.MeetingNotificationPayload {
	return &model.MeetingNotificationPayload{
		AppointmentID: uuid.New(),
		MeetingCode:   "AB12CD34",
		MeetingLink:   "https://meet.jit.si/HealthStream-AB12CD34",
		ChatID:        "1679861448",
		Date:          "2026-09-01",
		Time:          "14:30",
		DoctorName:    "Dr. Sarah Johnson",
		PatientName:   "John Doe",
	}
}

func TestDeliverTelegramOnly(t *testing.T) {
	tg := &fakeTelegram{}
	mail := &fakeEmail{}
	svc := NewService(tg, mail, nil)

	require.NoError(t, svc.Deliver(context.Background(), samplePayload()))

	assert.Equal(t, 1, tg.calls)
	assert.Equal(t, "1679861448", tg.chatID)
	assert.Equal(t, "AB12CD34", tg.notif.MeetingCode)
	assert.Zero(t, mail.calls, "no email address, no email")
}

func TestDeliverMirrorsToEmail(t *testing.T) {
	tg := &fakeTelegram{}
	mail := &fakeEmail{}
	svc := NewService(tg, mail, nil)

	payload := samplePayload()
	payload.Email = "john@example.com"

	require.NoError(t, svc.Deliver(context.Background(), payload))
	assert.Equal(t, 1, mail.calls)
	assert.Equal(t, "john@example.com", mail.to)
}

func TestDeliverEmailFailureIsNotFatal(t *testing.T) {
	tg := &fakeTelegram{}
	mail := &fakeEmail{err: errors.New("smtp down")}
	svc := NewService(tg, mail, nil)

	payload := samplePayload()
	payload.Email = "john@example.com"

	assert.NoError(t, svc.Deliver(context.Background(), payload))
}

func TestDeliverTelegramFailurePropagates(t *testing.T) {
	tg := &fakeTelegram{err: telegram.ErrChatNotFound}
	svc := NewService(tg, nil, nil)

	err := svc.Deliver(context.Background(), samplePayload())
	require.Error(t, err)
	assert.True(t, errors.Is(err, telegram.ErrChatNotFound))
}

func TestPermanent(t *testing.T) {
	assert.True(t, Permanent(telegram.ErrChatNotFound))
	assert.True(t, Permanent(telegram.ErrBlockedByUser))
	assert.True(t, Permanent(telegram.ErrInvalidToken))
	assert.False(t, Permanent(errors.New("connection reset")))
	assert.False(t, Permanent(nil))
}
