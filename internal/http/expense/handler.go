package expense

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/http/respond"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

// CategoryLearner remembers the category a user moved an expense to.
type CategoryLearner interface {
	Learn(ctx context.Context, userID uuid.UUID, pattern string, category expense.Category) error
}

type Handler struct {
	svc     *expense.Service
	learner CategoryLearner
}

func NewHandler(svc *expense.Service, learner CategoryLearner) *Handler {
	return &Handler{svc: svc, learner: learner}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}", h.update)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req ParamsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params, err := req.Params()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	e, err := h.svc.Create(r.Context(), userID, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, ToResponse(e))
}

// ListFilter reads category, start_date, end_date and limit from the query.
func ListFilter(r *http.Request) (expense.ListFilter, error) {
	var filter expense.ListFilter

	q := r.URL.Query()

	if s := q.Get("category"); s != "" {
		c, err := expense.ParseCategory(s)
		if err != nil {
			return filter, err
		}

		filter.Category = &c
	}

	if s := q.Get("start_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return filter, err
		}

		filter.StartDate = &t
	}

	if s := q.Get("end_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return filter, err
		}

		filter.EndDate = &t
	}

	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, expense.ErrInvalidParams
		}

		filter.Limit = n
	}

	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	filter, err := ListFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	expenses, err := h.svc.List(r.Context(), userID, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponseList(expenses))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	e, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(e))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateExpenseRequest struct {
	Amount   *string           `json:"amount,omitempty"`
	Category *expense.Category `json:"category,omitempty"`
	Label    *string           `json:"label,omitempty"`
	Note     *string           `json:"note,omitempty"`
	Date     *string           `json:"date,omitempty"`
}

// apply copies the set fields onto e and reports whether the category changed.
func (req updateExpenseRequest) apply(e *expense.Expense) (bool, error) {
	if req.Amount != nil {
		amount, err := money.ParseAmount(*req.Amount)
		if err != nil {
			return false, err
		}

		e.Amount = amount
	}

	if req.Label != nil {
		e.Label = *req.Label
	}

	if req.Note != nil {
		e.Note = *req.Note
	}

	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return false, err
		}

		e.Date = date
	}

	if req.Category == nil {
		return false, nil
	}

	category, err := expense.ParseCategory(string(*req.Category))
	if err != nil {
		return false, err
	}

	changed := category != e.Category
	e.Category = category

	return changed, nil
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	recategorised, err := req.apply(e)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Update(r.Context(), e); err != nil {
		respond.Error(w, r, err)
		return
	}

	if recategorised && h.learner != nil {
		if err := h.learner.Learn(r.Context(), userID, e.Label, e.Category); err != nil {
			slog.Warn("failed to learn category", "error", err, "expense_id", e.ID)
		}
	}

	respond.JSON(w, http.StatusOK, ToResponse(e))
}
