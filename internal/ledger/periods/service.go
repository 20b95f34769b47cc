package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records period lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service manages the fiscal calendar.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the period service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput carries fields for a new period.
type CreateInput struct {
	Code      string
	StartDate time.Time
	EndDate   time.Time
}

// Validate checks structural requirements.
func (in CreateInput) Validate() error {
	if in.Code == "" {
		return errors.New("periods: code required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return errors.New("periods: start and end dates required")
	}
	if in.EndDate.Before(in.StartDate) {
		return errors.New("periods: end date before start date")
	}
	return nil
}

// Create inserts a new open period after checking for range overlap.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	conflict, err := s.repo.RangeConflict(ctx, in.StartDate, in.EndDate)
	if err != nil {
		return Period{}, err
	}
	if conflict {
		return Period{}, shared.ErrPeriodOverlap
	}
	period, err := s.repo.Insert(ctx, in.Code, in.StartDate, in.EndDate)
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actorID, "period.create", period.ID, map[string]any{"code": period.Code})
	return period, nil
}

// List returns all periods, newest first.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// Close marks a period closed; postings dated inside its range are rejected
// from then on.
func (s *Service) Close(ctx context.Context, id int64, actorID int64) (Period, error) {
	period, err := s.repo.Close(ctx, id, s.now())
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, actorID, "period.close", period.ID, map[string]any{"code": period.Code})
	return period, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "fiscal_period",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}
