package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/reward"
)

type AccountHandler struct {
	accounts *account.Service
	rewards  *reward.Service
}

func NewAccountHandler(accounts *account.Service, rewards *reward.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts, rewards: rewards}
}

// AccountResponse exposes only the masked account number.
type AccountResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BankName     string          `json:"bankName"`
	MaskedNumber string          `json:"maskedNumber"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    string          `json:"createdAt"`
}

// HandleList handles GET /api/accounts.
func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		resp = append(resp, AccountResponse{
			ID:           acc.ID,
			Name:         acc.Name,
			BankName:     acc.BankName,
			MaskedNumber: acc.MaskedNumber(),
			Currency:     acc.Currency,
			Balance:      acc.Balance,
			CreatedAt:    acc.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleRewards handles GET /api/rewards.
func (h *AccountHandler) HandleRewards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	balances, err := h.rewards.Balances(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if balances == nil {
		balances = []*reward.Balance{}
	}
	writeJSON(w, http.StatusOK, balances)
}
