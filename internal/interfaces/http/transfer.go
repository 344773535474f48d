package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/transfer"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type TransferHandler struct {
	ledger *ledger.Service
}

func NewTransferHandler(ledgerService *ledger.Service) *TransferHandler {
	return &TransferHandler{ledger: ledgerService}
}

type CreateTransferRequest struct {
	SourceAccountID string          `json:"sourceAccountId"`
	Amount          decimal.Decimal `json:"amount"`
	PIN             string          `json:"pin"`
	Kind            string          `json:"kind"`
	Target          string          `json:"target"`
}

// HandleCreate handles POST /api/transfers. A replayed Idempotency-Key
// answers 200 with the original result instead of 201.
func (h *TransferHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	kind, err := transfer.ParseKind(req.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.ledger.CreateTransfer(r.Context(), transfer.Request{
		SourceAccountID: req.SourceAccountID,
		UserID:          userID,
		Amount:          req.Amount,
		PIN:             req.PIN,
		Kind:            kind,
		Target:          req.Target,
		IdempotencyKey:  strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}
