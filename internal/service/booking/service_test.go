package booking

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/internal/service/meeting"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

type fakeMeetingRepo struct {
	mu      sync.Mutex
	records map[string]*model.MeetingRecord
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{records: make(map[string]*model.MeetingRecord)}
}

func (f *fakeMeetingRepo) Create(ctx context.Context, rec *model.MeetingRecord) error {
	return f.CreateTx(ctx, nil, rec)
}

func (f *fakeMeetingRepo) CreateTx(_ context.Context, _ *sqlx.Tx, rec *model.MeetingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.Code = model.NormalizeCode(rec.Code)
	if _, exists := f.records[rec.Code]; exists {
		return repository.ErrCodeTaken
	}
	rec.Status = model.MeetingStatusPending
	rec.CreatedAt = time.Now()
	clone := *rec
	f.records[rec.Code] = &clone
	return nil
}

func (f *fakeMeetingRepo) Get(_ context.Context, code string) (*model.MeetingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[model.NormalizeCode(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (f *fakeMeetingRepo) Redeem(_ context.Context, code string) (*model.MeetingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[model.NormalizeCode(code)]
	if !ok || !rec.Redeemable() {
		return nil, repository.ErrCodeConsumed
	}
	now := time.Now()
	rec.UsedAt = &now
	clone := *rec
	return &clone, nil
}

func (f *fakeMeetingRepo) UpdateStatus(_ context.Context, code string, status model.MeetingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[model.NormalizeCode(code)]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (f *fakeMeetingRepo) ExpireStaleBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, apt *model.Appointment) error {
	return f.CreateTx(ctx, nil, apt)
}

func (f *fakeAppointmentRepo) CreateTx(_ context.Context, _ *sqlx.Tx, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *apt
	f.appointments[apt.ID] = &clone
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *apt
	return &clone, nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.appointments {
		clone := *apt
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	apt.Status = status
	return nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientRepo) List(_ context.Context) ([]*model.Patient, error) { return nil, nil }

type fakeClinicianRepo struct {
	clinicians map[uuid.UUID]*model.Clinician
}

func (f *fakeClinicianRepo) Create(_ context.Context, c *model.Clinician) error {
	f.clinicians[c.ID] = c
	return nil
}

func (f *fakeClinicianRepo) Get(_ context.Context, id uuid.UUID) (*model.Clinician, error) {
	c, ok := f.clinicians[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeClinicianRepo) List(_ context.Context) ([]*model.Clinician, error) { return nil, nil }

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(ctx context.Context, evt *model.OutboxEvent) error {
	return f.CreateTx(ctx, nil, evt)
}

func (f *fakeOutboxRepo) CreateTx(_ context.Context, _ *sqlx.Tx, evt *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	evt.ID = uuid.New()
	evt.Status = string(model.OutboxStatusPending)
	evt.CreatedAt = time.Now()
	clone := *evt
	f.events = append(f.events, &clone)
	return nil
}

func (f *fakeOutboxRepo) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.OutboxEvent
	for _, evt := range f.events {
		if evt.Status == string(model.OutboxStatusPending) && len(out) < limit {
			clone := *evt
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, evt := range f.events {
		if evt.ID == id {
			evt.Status = string(status)
			evt.ErrorMessage = errorMessage
			evt.RetryAt = retryAt
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MoveToDeadLetter(_ context.Context, evt *model.OutboxEvent) error {
	return f.UpdateStatus(context.Background(), evt.ID, model.OutboxStatusFailed, evt.ErrorMessage, nil)
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fixture struct {
	svc          *Service
	appointments *fakeAppointmentRepo
	meetings     *fakeMeetingRepo
	outbox       *fakeOutboxRepo
	patientID    uuid.UUID
	clinicianID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patientID := uuid.New()
	clinicianID := uuid.New()

	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{
		patientID: {ID: patientID, Name: "John Doe"},
	}}
	clinicians := &fakeClinicianRepo{clinicians: map[uuid.UUID]*model.Clinician{
		clinicianID: {ID: clinicianID, Name: "Dr. Sarah Johnson", Specialty: "Cardiology"},
	}}

	appointments := newFakeAppointmentRepo()
	meetings := newFakeMeetingRepo()
	outbox := &fakeOutboxRepo{}

	meetingSvc := meeting.NewService(meetings, "https://meet.jit.si/HealthStream", nil)
	svc := NewService(fakeTxRunner{}, appointments, patients, clinicians, outbox, meetingSvc)

	return &fixture{
		svc:          svc,
		appointments: appointments,
		meetings:     meetings,
		outbox:       outbox,
		patientID:    patientID,
		clinicianID:  clinicianID,
	}
}

func validRequest(f *fixture) *Request {
	return &Request{
		PatientID:   f.patientID,
		ClinicianID: f.clinicianID,
		Date:        "2026-09-01",
		Time:        "14:30",
		ChatID:      "1679861448",
	}
}

func TestBookHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Book(ctx, validRequest(f))
	require.NoError(t, err)
	assert.Len(t, result.MeetingCode, meeting.CodeLength)
	assert.Equal(t, "https://meet.jit.si/HealthStream-"+result.MeetingCode, result.MeetingLink)

	apt, err := f.appointments.Get(ctx, result.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	require.NotNil(t, apt.MeetingCode)
	assert.Equal(t, result.MeetingCode, *apt.MeetingCode)

	// meeting record is tentative until the notification is delivered
	rec, err := f.meetings.Get(ctx, result.MeetingCode)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingStatusPending, rec.Status)

	events, err := f.outbox.GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventTypeMeetingNotification, events[0].EventType)

	var payload model.MeetingNotificationPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, result.MeetingCode, payload.MeetingCode)
	assert.Equal(t, "1679861448", payload.ChatID)
	assert.Equal(t, "Dr. Sarah Johnson", payload.DoctorName)
	assert.Equal(t, "John Doe", payload.PatientName)
}

func TestBookEmptyChatIDFailsBeforeAnySideEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validRequest(f)
	req.ChatID = ""

	_, err := f.svc.Book(ctx, req)
	require.Error(t, err)

	appointments, _ := f.appointments.List(ctx, nil)
	assert.Empty(t, appointments)
	events, _ := f.outbox.GetPendingEventsWithLock(ctx, 10)
	assert.Empty(t, events)
	assert.Empty(t, f.meetings.records)
}

func TestBookMissingFieldsFailValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"no patient", func(r *Request) { r.PatientID = uuid.Nil }},
		{"no clinician", func(r *Request) { r.ClinicianID = uuid.Nil }},
		{"no date", func(r *Request) { r.Date = "" }},
		{"no time", func(r *Request) { r.Time = "" }},
		{"bad email", func(r *Request) { r.Email = "not-an-email" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(f)
			tt.mutate(req)
			_, err := f.svc.Book(context.Background(), req)
			assert.Error(t, err)
		})
	}
}

func TestBookUnknownPatient(t *testing.T) {
	f := newFixture(t)

	req := validRequest(f)
	req.PatientID = uuid.New()

	_, err := f.svc.Book(context.Background(), req)
	assert.Error(t, err)
}

func TestCancelExpiresMeetingCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Book(ctx, validRequest(f))
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelAppointment(ctx, result.AppointmentID))

	apt, err := f.appointments.Get(ctx, result.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, apt.Status)

	rec, err := f.meetings.Get(ctx, result.MeetingCode)
	require.NoError(t, err)
	assert.Equal(t, model.MeetingStatusExpired, rec.Status)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Book(ctx, validRequest(f))
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelAppointment(ctx, result.AppointmentID))
	assert.Error(t, f.svc.CancelAppointment(ctx, result.AppointmentID))
}
