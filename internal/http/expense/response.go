package expense

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

type Response struct {
	ID        uuid.UUID        `json:"id"`
	Amount    string           `json:"amount"`
	Category  expense.Category `json:"category"`
	Label     string           `json:"label"`
	Note      string           `json:"note,omitempty"`
	Date      string           `json:"date"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

func ToResponse(e *expense.Expense) Response {
	return Response{
		ID:        e.ID,
		Amount:    money.Format(e.Amount),
		Category:  e.Category,
		Label:     e.Label,
		Note:      e.Note,
		Date:      e.Date.Format(time.DateOnly),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func ToResponseList(expenses []*expense.Expense) []Response {
	resp := make([]Response, len(expenses))
	for i, e := range expenses {
		resp[i] = ToResponse(e)
	}

	return resp
}

// ParamsDTO is the wire form of expense.CreateParams, shared with the import handler.
type ParamsDTO struct {
	Amount   string           `json:"amount"`
	Category expense.Category `json:"category"`
	Label    string           `json:"label"`
	Note     string           `json:"note,omitempty"`
	Date     string           `json:"date"`
}

func ToParamsDTO(p expense.CreateParams) ParamsDTO {
	return ParamsDTO{
		Amount:   money.Format(p.Amount),
		Category: p.Category,
		Label:    p.Label,
		Note:     p.Note,
		Date:     p.Date.Format(time.DateOnly),
	}
}

// Params converts the DTO, rejecting malformed amounts, categories and dates.
func (d ParamsDTO) Params() (expense.CreateParams, error) {
	amount, err := money.ParseAmount(d.Amount)
	if err != nil {
		return expense.CreateParams{}, err
	}

	category, err := expense.ParseCategory(string(d.Category))
	if err != nil {
		return expense.CreateParams{}, err
	}

	date, err := parseDate(d.Date)
	if err != nil {
		return expense.CreateParams{}, err
	}

	return expense.CreateParams{
		Amount:   amount,
		Category: category,
		Label:    d.Label,
		Note:     d.Note,
		Date:     date,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", expense.ErrInvalidParams)
	}

	return t, nil
}
