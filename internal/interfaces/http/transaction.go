package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/shared/apperror"
)

// TransactionHandler serves manual entries, history and reversals.
type TransactionHandler struct {
	ledger *ledger.Service
}

func NewTransactionHandler(ledgerService *ledger.Service) *TransactionHandler {
	return &TransactionHandler{ledger: ledgerService}
}

type CreateTransactionRequest struct {
	AccountID   string          `json:"accountId"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

type TransactionListResponse struct {
	Transactions []*transaction.Record `json:"transactions"`
	Total        int64                 `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// HandleCreate handles POST /api/transactions.
func (h *TransactionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	txType, err := transaction.ParseType(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.ledger.CreateTransaction(r.Context(), ledger.CreateTransactionRequest{
		AccountID:   req.AccountID,
		UserID:      userID,
		Type:        txType,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// HandleList handles GET /api/transactions?accountId=&limit=&offset=.
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	accountID := q.Get("accountId")
	if accountID == "" {
		writeError(w, r, fmt.Errorf("%w: accountId is required", apperror.ErrValidation))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter := transaction.ListFilter{AccountID: accountID, Limit: limit, Offset: offset}.Normalize()

	records, total, err := h.ledger.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []*transaction.Record{}
	}

	writeJSON(w, http.StatusOK, TransactionListResponse{
		Transactions: records,
		Total:        total,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
}

// HandleReverse handles POST /api/transactions/{id}/reverse.
func (h *TransactionHandler) HandleReverse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rec, err := h.ledger.ReverseTransaction(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. Empty means now.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC 3339", apperror.ErrValidation)
}
