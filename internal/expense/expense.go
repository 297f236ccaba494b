package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("expense not found")
	ErrInvalidParams = errors.New("invalid expense")
)

// Category is the fixed set of spending categories shared by every flow
// that creates or edits an expense.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryHousing       Category = "Housing"
	CategoryHealth        Category = "Health"
	CategoryEntertainment Category = "Entertainment"
	CategoryUtilities     Category = "Utilities"
	CategoryOther         Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryHousing,
	CategoryHealth,
	CategoryEntertainment,
	CategoryUtilities,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}

	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}

	return "", fmt.Errorf("%w: unknown category %q", ErrInvalidParams, s)
}

// Expense is a single spending event owned by one user.
type Expense struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Amount    int64 // Amount in cents
	Category  Category
	Label     string
	Note      string
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}
