package budget

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/feed"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=budget
type Repository interface {
	CreateBudget(ctx context.Context, b *Budget) error
	ListBudgets(ctx context.Context, userID uuid.UUID) ([]*Budget, error)
	ListBudgetsForPeriod(ctx context.Context, userID uuid.UUID, period Period) ([]*Budget, error)
}

type Service struct {
	repo      Repository
	publisher feed.Publisher
}

func NewService(repo Repository, publisher feed.Publisher) *Service {
	if publisher == nil {
		publisher = feed.NoOpPublisher{}
	}

	return &Service{repo: repo, publisher: publisher}
}

type SetParams struct {
	Amount int64
	Period Period
}

func (p SetParams) Validate() error {
	if p.Amount <= 0 || p.Amount > money.MaxCents {
		return money.ErrInvalidAmount
	}

	if p.Period.IsZero() || p.Period.Month < 1 || p.Period.Month > 12 {
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, p.Period)
	}

	return nil
}

// Set records a new ceiling for the period. Earlier records are kept and
// shadowed by this one.
func (s *Service) Set(ctx context.Context, userID uuid.UUID, params SetParams) (*Budget, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	b := &Budget{
		UserID: userID,
		Amount: params.Amount,
		Period: params.Period,
	}
	if err := s.repo.CreateBudget(ctx, b); err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, feed.BudgetCreated(b.ID))

	return b, nil
}

// List returns every budget record the user has created, including shadowed ones.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Budget, error) {
	return s.repo.ListBudgets(ctx, userID)
}

// Effective returns the authoritative budget for a period, or ErrNotFound.
func (s *Service) Effective(ctx context.Context, userID uuid.UUID, period Period) (*Budget, error) {
	budgets, err := s.repo.ListBudgetsForPeriod(ctx, userID, period)
	if err != nil {
		return nil, err
	}

	var effective *Budget

	for _, b := range budgets {
		if b == nil {
			continue
		}

		if effective == nil || Supersedes(b, effective) {
			effective = b
		}
	}

	if effective == nil {
		return nil, ErrNotFound
	}

	return effective, nil
}

// Supersedes reports whether a wins over b for the same period: the later
// CreatedAt wins, and equal timestamps fall back to the larger ID so the
// outcome never depends on input order.
func Supersedes(a, b *Budget) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}

	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}
