package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/ledger"
)

type BillHandler struct {
	ledger *ledger.Service
}

func NewBillHandler(ledgerService *ledger.Service) *BillHandler {
	return &BillHandler{ledger: ledgerService}
}

type PayBillRequest struct {
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	PIN         string          `json:"pin"`
	BillType    string          `json:"billType"`
	ReferenceID string          `json:"referenceId"`
	Provider    *string         `json:"provider,omitempty"`
}

// HandlePay handles POST /api/bills/{id}/pay.
func (h *BillHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req PayBillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.ledger.PayBill(r.Context(), ledger.PayBillRequest{
		BillID:      r.PathValue("id"),
		AccountID:   req.AccountID,
		UserID:      userID,
		Amount:      req.Amount,
		PIN:         req.PIN,
		BillType:    req.BillType,
		ReferenceID: req.ReferenceID,
		Provider:    req.Provider,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}
