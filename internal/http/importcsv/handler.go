package importcsv

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/spendly/internal/expense"
	expenseHandler "github.com/MrJamesThe3rd/spendly/internal/http/expense"
	"github.com/MrJamesThe3rd/spendly/internal/http/respond"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc  *importer.Service
	expenseSvc *expense.Service
}

func NewHandler(importSvc *importer.Service, expenseSvc *expense.Service) *Handler {
	return &Handler{
		importSvc:  importSvc,
		expenseSvc: expenseSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Format   string                    `json:"format"`
	Charset  string                    `json:"charset"`
	Skipped  int                       `json:"skipped"`
	Imported int                       `json:"imported"`
	Expenses []expenseHandler.Response `json:"expenses"`
}

type conflictDTO struct {
	Incoming expenseHandler.ParamsDTO `json:"incoming"`
	Existing expenseHandler.Response  `json:"existing"`
}

type importConflictResponse struct {
	New       []expenseHandler.ParamsDTO `json:"new"`
	Conflicts []conflictDTO              `json:"conflicts"`
}

type confirmRequest struct {
	Params []expenseHandler.ParamsDTO `json:"params"`
}

// importCSV stores every row of the uploaded file, or answers 409 with the
// rows that duplicate existing expenses so the client can pick what to keep.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	parsed, err := h.importSvc.Import(r.Context(), userID, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.expenseSvc.ImportBatch(r.Context(), userID, parsed.Params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]expenseHandler.ParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, expenseHandler.ToParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: expenseHandler.ToParamsDTO(c.Incoming),
				Existing: expenseHandler.ToResponse(c.Existing),
			})
		}

		respond.JSON(w, http.StatusConflict, resp)

		return
	}

	respond.JSON(w, http.StatusCreated, importSuccessResponse{
		Format:   parsed.Format,
		Charset:  parsed.Charset,
		Skipped:  parsed.Skipped,
		Imported: len(result.Imported),
		Expenses: expenseHandler.ToResponseList(result.Imported),
	})
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := respond.UserID(w, r)
	if !ok {
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	params := make([]expense.CreateParams, 0, len(req.Params))
	for _, dto := range req.Params {
		p, err := dto.Params()
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		params = append(params, p)
	}

	expenses, err := h.expenseSvc.CreateBatch(r.Context(), userID, params)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, importSuccessResponse{
		Imported: len(expenses),
		Expenses: expenseHandler.ToResponseList(expenses),
	})
}
