package booking

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/internal/service/booking"
	"github.com/Kamaljeyaram/Matrix/internal/service/meeting"
)

// stubPatients makes patient lookup fail a chosen way; the booking paths
// under test never get further than that.
type stubPatients struct {
	err error
}

func (s *stubPatients) Create(context.Context, *model.Patient) error { return nil }

func (s *stubPatients) Get(context.Context, uuid.UUID) (*model.Patient, error) {
	return nil, s.err
}

func (s *stubPatients) List(context.Context) ([]*model.Patient, error) { return nil, nil }

func setupRouter(t *testing.T, patients repository.PatientRepository) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	meetingSvc := meeting.NewService(nil, "https://meet.jit.si/HealthStream", nil)
	svc := booking.NewService(nil, nil, patients, nil, nil, meetingSvc)
	h := NewHandler(svc)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bookingBody() gin.H {
	return gin.H{
		"patient_id":   uuid.New().String(),
		"clinician_id": uuid.New().String(),
		"date":         "2026-09-15",
		"time":         "10:00",
		"chat_id":      "1679861448",
	}
}

func TestCreateAppointmentValidationFailureIsBadRequest(t *testing.T) {
	r := setupRouter(t, &stubPatients{err: stderrors.New("must not be reached")})

	body := bookingBody()
	body["chat_id"] = ""
	w := postJSON(r, "/api/v1/appointments", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAppointmentUnknownPatientIsNotFound(t *testing.T) {
	r := setupRouter(t, &stubPatients{err: repository.ErrNotFound})

	w := postJSON(r, "/api/v1/appointments", bookingBody())

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAppointmentStorageFailureIsInternal(t *testing.T) {
	r := setupRouter(t, &stubPatients{err: stderrors.New("connection refused")})

	w := postJSON(r, "/api/v1/appointments", bookingBody())

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
