package summary

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	expenseHandler "github.com/MrJamesThe3rd/spendly/internal/http/expense"
	"github.com/MrJamesThe3rd/spendly/internal/http/respond"
	"github.com/MrJamesThe3rd/spendly/internal/money"
	"github.com/MrJamesThe3rd/spendly/internal/tracker"
)

type Handler struct {
	svc *tracker.Service
	now func() time.Time
}

func NewHandler(svc *tracker.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/monthly", h.monthly)
	r.Get("/current", h.current)
	r.Get("/categories", h.categories)
	r.Get("/dashboard", h.dashboard)
}

type summaryResponse struct {
	Period       budget.Period  `json:"period"`
	BudgetAmount string         `json:"budget_amount"`
	TotalSpent   string         `json:"total_spent"`
	Remaining    string         `json:"remaining"`
	Status       tracker.Status `json:"status"`
	Alert        *tracker.Alert `json:"alert,omitempty"`
}

func toResponse(s tracker.PeriodSummary) summaryResponse {
	return summaryResponse{
		Period:       s.Period,
		BudgetAmount: money.Format(s.BudgetAmount),
		TotalSpent:   money.Format(s.TotalSpent),
		Remaining:    money.Format(s.Remaining),
		Status:       s.Status,
		Alert:        tracker.AlertFor(s),
	}
}

type monthlyResponse struct {
	Summaries []summaryResponse `json:"summaries"`
	Skipped   []string          `json:"skipped,omitempty"`
}

func (h *Handler) monthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	report, err := h.svc.Monthly(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	sorted := report.Sorted()

	resp := monthlyResponse{Summaries: make([]summaryResponse, len(sorted))}
	for i, s := range sorted {
		resp.Summaries[i] = toResponse(s)
	}

	for _, err := range report.Skipped {
		resp.Skipped = append(resp.Skipped, err.Error())
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Current(r.Context(), userID, h.now())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(summary))
}

type shareResponse struct {
	Category string  `json:"category"`
	Amount   string  `json:"amount"`
	Percent  float64 `json:"percent"`
}

func toShares(shares []tracker.CategoryShare) []shareResponse {
	resp := make([]shareResponse, len(shares))
	for i, s := range shares {
		resp[i] = shareResponse{Category: s.Category.String(), Amount: money.Format(s.Amount), Percent: s.Percent}
	}

	return resp
}

// categories takes an optional ?period=YYYY-MM; without it the breakdown covers all time.
func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var period budget.Period

	if s := r.URL.Query().Get("period"); s != "" {
		p, err := budget.ParsePeriod(s)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		period = p
	}

	shares, err := h.svc.Categories(r.Context(), userID, period)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toShares(shares))
}

type dashboardResponse struct {
	Total     string                    `json:"total"`
	Breakdown []shareResponse           `json:"breakdown"`
	Recent    []expenseHandler.Response `json:"recent"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	d, err := h.svc.Dashboard(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dashboardResponse{
		Total:     money.Format(d.Total),
		Breakdown: toShares(d.Breakdown),
		Recent:    expenseHandler.ToResponseList(d.Recent),
	})
}
