package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/feed"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, userID, id uuid.UUID) (*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	DeleteExpense(ctx context.Context, userID, id uuid.UUID) error
	ListExpenses(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Expense, error)

	BeginImport(ctx context.Context, userID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, params []CreateParams) ([]*Expense, error)
	CreateExpenses(ctx context.Context, expenses []*Expense) error
	Commit() error
	Rollback() error
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

type CreateParams struct {
	Amount   int64
	Category Category
	Label    string
	Note     string
	Date     time.Time
}

// Validate checks the fields every stored expense must carry.
func (p CreateParams) Validate() error {
	if p.Amount <= 0 || p.Amount > money.MaxCents {
		return fmt.Errorf("%w: %w", ErrInvalidParams, money.ErrInvalidAmount)
	}

	if strings.TrimSpace(p.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidParams)
	}

	if !p.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidParams, p.Category)
	}

	if p.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidParams)
	}

	return nil
}

type ListFilter struct {
	Category  *Category
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*Expense, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	e := newExpense(userID, params)
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	s.publisher.Publish(userID, feed.ExpenseCreated(e.ID))

	return e, nil
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Expense, error) {
	return s.repo.GetExpense(ctx, userID, id)
}

// List returns the user's expenses, most recently created first.
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, userID, filter)
}

func (s *Service) Update(ctx context.Context, e *Expense) error {
	params := CreateParams{
		Amount:   e.Amount,
		Category: e.Category,
		Label:    e.Label,
		Note:     e.Note,
		Date:     e.Date,
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return err
	}

	s.publisher.Publish(e.UserID, feed.ExpenseUpdated(e.ID))

	return nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	s.publisher.Publish(userID, feed.ExpenseDeleted(id))

	return nil
}

type ImportResult struct {
	Imported  []*Expense
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Expense
}

// ImportBatch stores params unless any of them duplicates an existing expense
// (same date, amount and label). On conflict nothing is written and the
// caller decides which rows to keep via CreateBatch.
func (s *Service) ImportBatch(ctx context.Context, userID uuid.UUID, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	if err := validateAll(params); err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, userID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[DuplicateKey]*Expense, len(duplicates))
	for _, d := range duplicates {
		lookup[KeyOf(d.Date, d.Amount, d.Label)] = d
	}

	var newParams []CreateParams

	var conflicts []Conflict

	for _, p := range params {
		existing, found := lookup[KeyOf(p.Date, p.Amount, p.Label)]
		if found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	expenses := paramsToExpenses(userID, newParams)
	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	s.publisher.Publish(userID, feed.ExpensesImported(len(expenses)))

	return &ImportResult{Imported: expenses}, nil
}

// CreateBatch stores params without duplicate detection.
func (s *Service) CreateBatch(ctx context.Context, userID uuid.UUID, params []CreateParams) ([]*Expense, error) {
	if len(params) == 0 {
		return nil, nil
	}

	if err := validateAll(params); err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(params)

	itx, err := s.repo.BeginImport(ctx, userID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	expenses := paramsToExpenses(userID, params)
	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	s.publisher.Publish(userID, feed.ExpensesImported(len(expenses)))

	return expenses, nil
}

// DuplicateKey identifies expenses that are considered the same spending event.
type DuplicateKey struct {
	Date   string
	Amount int64
	Label  string
}

func KeyOf(date time.Time, amount int64, label string) DuplicateKey {
	return DuplicateKey{
		Date:   date.Format(time.DateOnly),
		Amount: amount,
		Label:  strings.ToLower(strings.TrimSpace(label)),
	}
}

func validateAll(params []CreateParams) error {
	for i, p := range params {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	return nil
}

func dateRange(params []CreateParams) (time.Time, time.Time) {
	minDate := params[0].Date
	maxDate := params[0].Date

	for _, p := range params[1:] {
		if p.Date.Before(minDate) {
			minDate = p.Date
		}

		if p.Date.After(maxDate) {
			maxDate = p.Date
		}
	}

	return minDate, maxDate
}

func newExpense(userID uuid.UUID, p CreateParams) *Expense {
	return &Expense{
		UserID:   userID,
		Amount:   p.Amount,
		Category: p.Category,
		Label:    strings.TrimSpace(p.Label),
		Note:     strings.TrimSpace(p.Note),
		Date:     p.Date,
	}
}

func paramsToExpenses(userID uuid.UUID, params []CreateParams) []*Expense {
	expenses := make([]*Expense, len(params))
	for i, p := range params {
		expenses[i] = newExpense(userID, p)
	}

	return expenses
}
