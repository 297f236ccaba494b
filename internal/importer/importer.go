// Package importer turns CSV files (Spendly exports and bank statements)
// into expense params ready for expense.Service.ImportBatch.
package importer

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
)

// CategorySuggester fills in learned categories for imported rows.
type CategorySuggester interface {
	SuggestAll(ctx context.Context, userID uuid.UUID, params []expense.CreateParams) error
}

type Service struct {
	suggester CategorySuggester
}

func NewService(suggester CategorySuggester) *Service {
	return &Service{suggester: suggester}
}

// Import parses r. Formats without a category column get the categories the
// user taught for matching labels; unmatched rows stay in Other.
func (s *Service) Import(ctx context.Context, userID uuid.UUID, r io.Reader) (*Result, error) {
	result, err := Parse(r)
	if err != nil {
		return nil, err
	}

	if s.suggester == nil || hasCategories(result.Format) {
		return result, nil
	}

	if err := s.suggester.SuggestAll(ctx, userID, result.Params); err != nil {
		return nil, err
	}

	return result, nil
}

func hasCategories(format string) bool {
	for _, p := range profiles {
		if p.Name == format {
			return p.CategoryCol != ""
		}
	}

	return false
}
