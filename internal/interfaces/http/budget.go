package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/budget"
)

type BudgetHandler struct {
	budgets *budget.Service
	now     func() time.Time
}

func NewBudgetHandler(budgets *budget.Service) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, now: time.Now}
}

// CreateBudgetRequest opens a budget. Month and year default to the
// current period.
type CreateBudgetRequest struct {
	Category string          `json:"category"`
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Limit    decimal.Decimal `json:"limit"`
}

// HandleList handles GET /api/budgets.
func (h *BudgetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	budgets, err := h.budgets.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []*budget.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

// HandleCreate handles POST /api/budgets.
func (h *BudgetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	period := budget.Period{Month: req.Month, Year: req.Year}
	if req.Month == 0 && req.Year == 0 {
		period = budget.PeriodOf(h.now().UTC())
	}

	b, err := h.budgets.Create(r.Context(), budget.CreateParams{
		UserID:   userID,
		Category: req.Category,
		Period:   period,
		Limit:    req.Limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

// HandleUpdate handles PATCH /api/budgets/{id}.
func (h *BudgetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var patch budget.PatchParams
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	b, err := h.budgets.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

// HandleDelete handles DELETE /api/budgets/{id}. Budgets are deactivated,
// never removed, so accepted records keep their reference.
func (h *BudgetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.budgets.Deactivate(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
