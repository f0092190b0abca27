package meeting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Kamaljeyaram/Matrix/internal/model"
	"github.com/Kamaljeyaram/Matrix/internal/repository"
	"github.com/Kamaljeyaram/Matrix/pkg/metrics"
)

// ErrCodeInvalid is the single join failure surfaced to callers. It covers
// codes that never existed, were already redeemed, and expired tentative
// records alike, so a caller cannot probe which case occurred.
var ErrCodeInvalid = errors.New("invalid or expired meeting code")

// issueAttempts bounds regeneration when a generated code collides with an
// existing one.
const issueAttempts = 5

type Service struct {
	repo     repository.MeetingRepository
	linkBase string
	metrics  *metrics.Metrics
}

// NewService wires the code store and link base. Metrics may be nil.
func NewService(repo repository.MeetingRepository, linkBase string, m *metrics.Metrics) *Service {
	return &Service{
		repo:     repo,
		linkBase: linkBase,
		metrics:  m,
	}
}

// Issue generates a fresh code, persists a tentative record for the
// appointment and returns the record plus its derived link. Collisions are
// retried with a new code instead of silently overwriting.
func (s *Service) Issue(ctx context.Context, appointmentID uuid.UUID) (*model.MeetingRecord, string, error) {
	return s.issue(ctx, appointmentID, s.repo.Create)
}

// IssueTx is Issue inside a caller-owned transaction.
func (s *Service) IssueTx(ctx context.Context, tx *sqlx.Tx, appointmentID uuid.UUID) (*model.MeetingRecord, string, error) {
	return s.issue(ctx, appointmentID, func(ctx context.Context, rec *model.MeetingRecord) error {
		return s.repo.CreateTx(ctx, tx, rec)
	})
}

func (s *Service) issue(ctx context.Context, appointmentID uuid.UUID, create func(context.Context, *model.MeetingRecord) error) (*model.MeetingRecord, string, error) {
	for attempt := 0; attempt < issueAttempts; attempt++ {
		code, err := GenerateCode()
		if err != nil {
			return nil, "", err
		}

		rec := &model.MeetingRecord{
			Code:          code,
			AppointmentID: appointmentID,
		}
		err = create(ctx, rec)
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to store meeting code: %w", err)
		}
		if s.metrics != nil {
			s.metrics.MeetingCodesIssued.Inc()
		}
		return rec, Link(s.linkBase, rec.Code), nil
	}
	return nil, "", fmt.Errorf("failed to issue meeting code after %d attempts", issueAttempts)
}

// ValidationResult reports whether a code can still be redeemed.
type ValidationResult struct {
	Valid  bool                 `json:"valid"`
	Record *model.MeetingRecord `json:"record,omitempty"`
}

// Validate checks a code without consuming it.
func (s *Service) Validate(ctx context.Context, code string) (*ValidationResult, error) {
	rec, err := s.repo.Get(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return &ValidationResult{Valid: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to validate meeting code: %w", err)
	}
	if !rec.Redeemable() {
		return &ValidationResult{Valid: false}, nil
	}
	return &ValidationResult{Valid: true, Record: rec}, nil
}

// Join redeems a code exactly once and returns the meeting link. The
// underlying compare-and-swap guarantees at most one of two concurrent
// attempts succeeds.
func (s *Service) Join(ctx context.Context, code string) (string, error) {
	rec, err := s.repo.Redeem(ctx, code)
	if errors.Is(err, repository.ErrCodeConsumed) || errors.Is(err, repository.ErrNotFound) {
		return "", ErrCodeInvalid
	}
	if err != nil {
		return "", fmt.Errorf("failed to join meeting: %w", err)
	}
	return Link(s.linkBase, rec.Code), nil
}

// Confirm promotes a tentative record after its notification was delivered.
func (s *Service) Confirm(ctx context.Context, code string) error {
	return s.repo.UpdateStatus(ctx, code, model.MeetingStatusConfirmed)
}

// Expire retires a tentative record whose notification could not be
// delivered; the code stops being redeemable.
func (s *Service) Expire(ctx context.Context, code string) error {
	return s.repo.UpdateStatus(ctx, code, model.MeetingStatusExpired)
}

// ExpireStale sweeps tentative records older than maxAge that were never
// confirmed.
func (s *Service) ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.ExpireStaleBefore(ctx, time.Now().Add(-maxAge))
}
