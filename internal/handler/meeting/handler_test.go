package meeting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/internal/service/meeting"
)

type stubRepo struct {
	records map[string]*model.MeetingRecord
}

func (s *stubRepo) Create(_ context.Context, rec *model.MeetingRecord) error {
	rec.Status = model.MeetingStatusPending
	s.records[rec.Code] = rec
	return nil
}

func (s *stubRepo) CreateTx(ctx context.Context, _ *sqlx.Tx, rec *model.MeetingRecord) error {
	return s.Create(ctx, rec)
}

func (s *stubRepo) Get(_ context.Context, code string) (*model.MeetingRecord, error) {
	rec, ok := s.records[model.NormalizeCode(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (s *stubRepo) Redeem(_ context.Context, code string) (*model.MeetingRecord, error) {
	rec, ok := s.records[model.NormalizeCode(code)]
	if !ok || !rec.Redeemable() {
		return nil, repository.ErrCodeConsumed
	}
	now := time.Now()
	rec.UsedAt = &now
	return rec, nil
}

func (s *stubRepo) UpdateStatus(_ context.Context, code string, status model.MeetingStatus) error {
	rec, ok := s.records[model.NormalizeCode(code)]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (s *stubRepo) ExpireStaleBefore(context.Context, time.Time) (int64, error) { return 0, nil }

func setupRouter(t *testing.T) (*gin.Engine, *stubRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubRepo{records: make(map[string]*model.MeetingRecord)}
	svc := meeting.NewService(repo, "https://meet.jit.si/HealthStream", nil)
	h := NewHandler(svc, nil)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, repo
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedCode(repo *stubRepo, code string) {
	repo.records[code] = &model.MeetingRecord{
		Code:          code,
		AppointmentID: uuid.New(),
		Status:        model.MeetingStatusConfirmed,
		CreatedAt:     time.Now(),
	}
}

func TestValidateKnownCode(t *testing.T) {
	r, repo := setupRouter(t)
	seedCode(repo, "AB12CD34")

	w := postJSON(r, "/api/v1/meetings/validate", gin.H{"code": "ab12cd34"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)
}

func TestValidateUnknownCode(t *testing.T) {
	r, _ := setupRouter(t)

	w := postJSON(r, "/api/v1/meetings/validate", gin.H{"code": "NOPE1234"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}

func TestValidateDoesNotConsume(t *testing.T) {
	r, repo := setupRouter(t)
	seedCode(repo, "AB12CD34")

	for i := 0; i < 3; i++ {
		w := postJSON(r, "/api/v1/meetings/validate", gin.H{"code": "AB12CD34"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":true`)
	}
}

func TestJoinConsumesCode(t *testing.T) {
	r, repo := setupRouter(t)
	seedCode(repo, "AB12CD34")

	w := postJSON(r, "/api/v1/meetings/join", gin.H{"code": "AB12CD34"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://meet.jit.si/HealthStream-AB12CD34")

	// second join is rejected
	w = postJSON(r, "/api/v1/meetings/join", gin.H{"code": "AB12CD34"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJoinUnknownAndConsumedLookAlike(t *testing.T) {
	r, repo := setupRouter(t)
	seedCode(repo, "AB12CD34")

	used := postJSON(r, "/api/v1/meetings/join", gin.H{"code": "AB12CD34"})
	require.Equal(t, http.StatusOK, used.Code)

	consumed := postJSON(r, "/api/v1/meetings/join", gin.H{"code": "AB12CD34"})
	unknown := postJSON(r, "/api/v1/meetings/join", gin.H{"code": "ZZ99ZZ99"})

	assert.Equal(t, consumed.Code, unknown.Code)
	assert.JSONEq(t, consumed.Body.String(), unknown.Body.String())
}

func TestJoinMissingCode(t *testing.T) {
	r, _ := setupRouter(t)

	w := postJSON(r, "/api/v1/meetings/join", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
