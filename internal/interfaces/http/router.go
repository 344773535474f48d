package http

import "net/http"

// Handlers groups every API handler for registration.
type Handlers struct {
	Health        *HealthHandler
	Accounts      *AccountHandler
	Transactions  *TransactionHandler
	Transfers     *TransferHandler
	Bills         *BillHandler
	Budgets       *BudgetHandler
	Notifications *NotificationHandler
}

// Register mounts the API on mux. Everything under /api is wrapped with
// auth.
func (h *Handlers) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	protect := func(fn http.HandlerFunc) http.Handler { return auth(fn) }

	mux.HandleFunc("GET /health", h.Health.HandleHealth)

	mux.Handle("GET /api/accounts", protect(h.Accounts.HandleList))
	mux.Handle("GET /api/rewards", protect(h.Accounts.HandleRewards))

	mux.Handle("POST /api/transactions", protect(h.Transactions.HandleCreate))
	mux.Handle("GET /api/transactions", protect(h.Transactions.HandleList))
	mux.Handle("POST /api/transactions/{id}/reverse", protect(h.Transactions.HandleReverse))

	mux.Handle("POST /api/transfers", protect(h.Transfers.HandleCreate))
	mux.Handle("POST /api/bills/{id}/pay", protect(h.Bills.HandlePay))

	mux.Handle("GET /api/budgets", protect(h.Budgets.HandleList))
	mux.Handle("POST /api/budgets", protect(h.Budgets.HandleCreate))
	mux.Handle("PATCH /api/budgets/{id}", protect(h.Budgets.HandleUpdate))
	mux.Handle("DELETE /api/budgets/{id}", protect(h.Budgets.HandleDelete))

	mux.Handle("POST /api/notifications/devices", protect(h.Notifications.HandleRegisterDevice))
	mux.Handle("GET /api/notifications/preferences", protect(h.Notifications.HandleGetPreferences))
	mux.Handle("PATCH /api/notifications/preferences", protect(h.Notifications.HandleUpdatePreferences))
	mux.Handle("GET /api/notifications", protect(h.Notifications.HandleList))
}
