package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateBudget(ctx context.Context, b *budget.Budget) error {
	query := `
		INSERT INTO budgets (user_id, amount, period, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, b.UserID, b.Amount, b.Period.Start()).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating budget: %w", err)
	}

	return nil
}

func (s *Store) ListBudgets(ctx context.Context, userID uuid.UUID) ([]*budget.Budget, error) {
	query := `
		SELECT id, user_id, amount, period, created_at
		FROM budgets
		WHERE user_id = $1
		ORDER BY period ASC, created_at ASC
	`

	return s.query(ctx, query, userID)
}

func (s *Store) ListBudgetsForPeriod(ctx context.Context, userID uuid.UUID, period budget.Period) ([]*budget.Budget, error) {
	query := `
		SELECT id, user_id, amount, period, created_at
		FROM budgets
		WHERE user_id = $1 AND period = $2
		ORDER BY created_at ASC
	`

	return s.query(ctx, query, userID, period.Start())
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*budget.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*budget.Budget

	for rows.Next() {
		var (
			b      budget.Budget
			period time.Time
		)

		if err := rows.Scan(&b.ID, &b.UserID, &b.Amount, &period, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}

		b.Period = budget.PeriodOf(period)
		budgets = append(budgets, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budget rows: %w", err)
	}

	return budgets, nil
}
