package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records registry events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service owns the chart of accounts.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the registry service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput carries fields for a new account.
type CreateInput struct {
	Number        string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	Description   string
}

// Validate checks structural requirements.
func (in CreateInput) Validate() error {
	if in.Number == "" {
		return errors.New("accounts: number required")
	}
	if in.Name == "" {
		return errors.New("accounts: name required")
	}
	if !in.Type.Valid() {
		return fmt.Errorf("accounts: invalid type %q", in.Type)
	}
	if !in.NormalBalance.Valid() {
		return fmt.Errorf("accounts: invalid normal balance %q", in.NormalBalance)
	}
	return nil
}

// Create inserts a new zero-balance, non-system account.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID int64) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	created, err := s.repo.Create(ctx, Account{
		Number:         in.Number,
		Name:           in.Name,
		Type:           in.Type,
		NormalBalance:  in.NormalBalance,
		CurrentBalance: decimal.Zero,
		IsSystem:       false,
		IsActive:       true,
		Description:    in.Description,
	})
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, actorID, "account.create", created.ID, map[string]any{"number": created.Number})
	return created, nil
}

// SeedDefaults installs the standard chart of accounts. Numbers that already
// exist are skipped, so the operation is idempotent.
func (s *Service) SeedDefaults(ctx context.Context, actorID int64) ([]Account, error) {
	var created []Account
	for _, seed := range defaultChart {
		if _, err := s.repo.GetByNumber(ctx, seed.Number); err == nil {
			continue
		} else if !errors.Is(err, shared.ErrAccountNotFound) {
			return nil, err
		}
		account, err := s.repo.Create(ctx, Account{
			Number:         seed.Number,
			Name:           seed.Name,
			Type:           seed.Type,
			NormalBalance:  seed.Normal,
			CurrentBalance: decimal.Zero,
			IsSystem:       seed.IsSystem,
			IsActive:       true,
		})
		if err != nil {
			// A concurrent seeder may have inserted the same number.
			if errors.Is(err, shared.ErrDuplicateAccountNumber) {
				continue
			}
			return nil, err
		}
		created = append(created, account)
	}
	s.record(ctx, actorID, "account.seed", 0, map[string]any{"created": len(created)})
	return created, nil
}

// UpdateInput carries optional field changes; nil means unchanged.
type UpdateInput struct {
	Number        *string
	Name          *string
	Type          *AccountType
	NormalBalance *NormalBalance
	IsActive      *bool
	Description   *string
}

func (in UpdateInput) touchesStructure() bool {
	return in.Number != nil || in.Type != nil || in.NormalBalance != nil
}

// Update edits account metadata. Structural fields (number, type, normal
// balance) are frozen on system accounts; name and description stay editable.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, actorID int64) (Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if account.IsSystem && in.touchesStructure() {
		return Account{}, shared.ErrSystemAccountImmutable
	}
	if in.Number != nil {
		account.Number = *in.Number
	}
	if in.Name != nil {
		account.Name = *in.Name
	}
	if in.Type != nil {
		if !in.Type.Valid() {
			return Account{}, fmt.Errorf("accounts: invalid type %q", *in.Type)
		}
		account.Type = *in.Type
	}
	if in.NormalBalance != nil {
		if !in.NormalBalance.Valid() {
			return Account{}, fmt.Errorf("accounts: invalid normal balance %q", *in.NormalBalance)
		}
		account.NormalBalance = *in.NormalBalance
	}
	if in.IsActive != nil {
		account.IsActive = *in.IsActive
	}
	if in.Description != nil {
		account.Description = *in.Description
	}
	updated, err := s.repo.Update(ctx, account)
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, actorID, "account.update", updated.ID, map[string]any{"number": updated.Number})
	return updated, nil
}

// Delete removes an account that is not system-owned and has no posted lines.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return shared.ErrSystemAccountImmutable
	}
	active, err := s.repo.HasPostedActivity(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return shared.ErrAccountHasActivity
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, actorID, "account.delete", id, map[string]any{"number": account.Number})
	return nil
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns matching accounts plus the unpaginated total.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Account, int, error) {
	return s.repo.List(ctx, f)
}

// Balance returns the live cached balance, or the balance reconstructed from
// posted history when asOf is set.
func (s *Service) Balance(ctx context.Context, id int64, asOf *time.Time) (decimal.Decimal, error) {
	if asOf == nil {
		account, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return decimal.Zero, err
		}
		return account.CurrentBalance, nil
	}
	return s.repo.BalanceAsOf(ctx, id, *asOf)
}

// Rebuild recomputes cached balances from posted history and returns drifts.
func (s *Service) Rebuild(ctx context.Context, actorID int64) ([]BalanceDrift, error) {
	drifts, err := s.repo.RebuildBalances(ctx)
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, "account.rebuild", 0, map[string]any{"drifted": len(drifts)})
	return drifts, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
		At:       s.now(),
	})
}
