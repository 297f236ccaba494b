package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindCategory(ctx context.Context, userID uuid.UUID, label string) (expense.Category, bool, error)
	CreateMapping(ctx context.Context, userID uuid.UUID, pattern string, category expense.Category) error
}

// Service remembers which category a user files a label under and suggests
// it again for matching labels.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the category learned for the longest pattern contained in
// label. ok is false when nothing matches.
func (s *Service) Suggest(ctx context.Context, userID uuid.UUID, label string) (expense.Category, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false, nil
	}

	return s.repo.FindCategory(ctx, userID, label)
}

func (s *Service) Learn(ctx context.Context, userID uuid.UUID, pattern string, category expense.Category) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return fmt.Errorf("%w: empty pattern", expense.ErrInvalidParams)
	}

	if !category.Valid() {
		return fmt.Errorf("%w: unknown category %q", expense.ErrInvalidParams, category)
	}

	return s.repo.CreateMapping(ctx, userID, pattern, category)
}

// SuggestAll fills in a category for every params entry a mapping exists
// for, leaving the rest untouched.
func (s *Service) SuggestAll(ctx context.Context, userID uuid.UUID, params []expense.CreateParams) error {
	for i := range params {
		category, ok, err := s.Suggest(ctx, userID, params[i].Label)
		if err != nil {
			return fmt.Errorf("suggesting category for %q: %w", params[i].Label, err)
		}

		if ok {
			params[i].Category = category
		}
	}

	return nil
}
