package budget

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/spendly/internal/budget"
	"github.com/MrJamesThe3rd/spendly/internal/http/respond"
	"github.com/MrJamesThe3rd/spendly/internal/money"
)

type Handler struct {
	svc *budget.Service
}

func NewHandler(svc *budget.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.set)
	r.Get("/", h.list)
	r.Get("/{period}", h.effective)
}

type budgetResponse struct {
	ID        uuid.UUID     `json:"id"`
	Amount    string        `json:"amount"`
	Period    budget.Period `json:"period"`
	CreatedAt time.Time     `json:"created_at"`
}

func toResponse(b *budget.Budget) budgetResponse {
	return budgetResponse{
		ID:        b.ID,
		Amount:    money.Format(b.Amount),
		Period:    b.Period,
		CreatedAt: b.CreatedAt,
	}
}

type setBudgetRequest struct {
	Amount string        `json:"amount"`
	Period budget.Period `json:"period"`
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req setBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	amount, err := money.ParseAmount(req.Amount)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	b, err := h.svc.Set(r.Context(), userID, budget.SetParams{Amount: amount, Period: req.Period})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(b))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	budgets, err := h.svc.List(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		resp[i] = toResponse(b)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) effective(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	period, err := budget.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	b, err := h.svc.Effective(r.Context(), userID, period)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(b))
}
