package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/export"
	expenseHandler "github.com/MrJamesThe3rd/spendly/internal/http/expense"
	"github.com/MrJamesThe3rd/spendly/internal/http/respond"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/expenses", h.expenses)
	r.Get("/report", h.report)
}

// expenses accepts the same filters as GET /expenses.
func (h *Handler) expenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	filter, err := expenseHandler.ListFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	// Buffered so a failed listing can still produce an error status.
	var buf bytes.Buffer
	if _, err := h.svc.ExpensesCSV(r.Context(), userID, filter, &buf); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"spendly_%s.csv\"", time.Now().Format("20060102")))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.svc.Report(r.Context(), userID, period)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := w.Write([]byte(report)); err != nil {
		slog.Error("failed to write report", "error", err)
	}
}
