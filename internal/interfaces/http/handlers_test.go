package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/notification"
	"bankdash/internal/domain/reward"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/domain/transfer"
	"bankdash/internal/infrastructure/memory"
	redisstore "bankdash/internal/infrastructure/redis"
	"bankdash/internal/shared/middleware"
)

const pin = "1234"

// syncNotifier delivers inline so tests can observe stored notifications.
type syncNotifier struct {
	svc *notification.Service
}

func (n syncNotifier) Notify(ctx context.Context, userID int64, msg notification.Message) {
	n.svc.SendToUser(ctx, userID, msg)
}

type testServer struct {
	t       *testing.T
	store   *memory.Store
	bills   *memory.BillRepository
	handler http.Handler
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := memory.NewStore()
	bills := memory.NewBillRepository(store)
	rewards := reward.NewService(memory.NewRewardRepository(store))
	notifications := notification.NewService(memory.NewNotificationRepository(store), nil)

	ledgerService := ledger.NewService(ledger.Deps{
		Tx:           store,
		Accounts:     store.Accounts(),
		Transactions: store.Transactions(),
		Idempotency:  redisstore.NewIdempotencyStore(client),
		Notifier:     syncNotifier{svc: notifications},
		Rewards:      rewards,
	}, ledger.DefaultOptions())

	handlers := &Handlers{
		Health:        NewHealthHandler(checks),
		Accounts:      NewAccountHandler(account.NewService(store.Accounts()), rewards),
		Transactions:  NewTransactionHandler(ledgerService),
		Transfers:     NewTransferHandler(ledgerService),
		Bills:         NewBillHandler(ledgerService),
		Budgets:       NewBudgetHandler(budget.NewService(store.Budgets())),
		Notifications: NewNotificationHandler(notifications),
	}

	mux := http.NewServeMux()
	handlers.Register(mux, middleware.Auth(middleware.HeaderAuthenticator{Header: "X-User-ID"}))

	return &testServer{t: t, store: store, bills: bills, handler: mux}
}

func (s *testServer) openAccount(id string, userID int64, number, balance string) {
	s.t.Helper()
	ctx := context.Background()
	_, err := account.NewService(s.store.Accounts()).OpenAccount(ctx, account.CreateParams{
		ID: id, UserID: userID, Name: id, BankName: "Test Bank", AccountNumber: number, PIN: pin,
	})
	require.NoError(s.t, err)
	_, err = s.store.Accounts().AdjustBalance(ctx, id, decimal.RequireFromString(balance))
	require.NoError(s.t, err)
}

func (s *testServer) balance(id string) decimal.Decimal {
	s.t.Helper()
	acc, err := s.store.Accounts().GetByID(context.Background(), id)
	require.NoError(s.t, err)
	return acc.Balance
}

func (s *testServer) do(method, path string, userID int64, body any, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, rr.Body.String())
	assert.Equal(t, code, decode[ErrorResponse](t, rr).Code)
}

func TestAPI_RequiresUser(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(http.MethodGet, "/api/accounts", 0, nil)

	assertError(t, rr, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestAPI_ListAccountsMasksNumber(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "1000")
	s.openAccount("acc-2", 2, "999988887777", "50")

	rr := s.do(http.MethodGet, "/api/accounts", 1, nil)

	require.Equal(t, http.StatusOK, rr.Code)
	accounts := decode[[]AccountResponse](t, rr)
	require.Len(t, accounts, 1)
	assert.Equal(t, "acc-1", accounts[0].ID)
	assert.Equal(t, "XXXXXXXX1234", accounts[0].MaskedNumber)
	assert.True(t, accounts[0].Balance.Equal(decimal.NewFromInt(1000)))
	assert.NotContains(t, rr.Body.String(), "123456781234")
}

func TestAPI_CreateAndListTransactions(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "1000")

	rr := s.do(http.MethodPost, "/api/transactions", 1, CreateTransactionRequest{
		AccountID:   "acc-1",
		Type:        "DEBIT",
		Amount:      decimal.RequireFromString("120.50"),
		Description: "Dinner at restaurant",
		Date:        "2026-10-03",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rec := decode[transaction.Record](t, rr)
	assert.Equal(t, transaction.TypeDebit, rec.Type)
	assert.Equal(t, transaction.CategoryFood, rec.Category)
	assert.Equal(t, 3, rec.OccurredOn.Day())
	assert.True(t, s.balance("acc-1").Equal(decimal.RequireFromString("879.50")))

	rr = s.do(http.MethodGet, "/api/transactions?accountId=acc-1&limit=10", 1, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[TransactionListResponse](t, rr)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 10, list.Limit)
	require.Len(t, list.Transactions, 1)
	assert.Equal(t, rec.ID, list.Transactions[0].ID)
}

func TestAPI_CreateTransactionRejections(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "100")
	s.openAccount("acc-2", 2, "999988887777", "100")

	tests := []struct {
		name   string
		userID int64
		body   any
		status int
		code   string
	}{
		{
			name:   "unknown type",
			userID: 1,
			body:   CreateTransactionRequest{AccountID: "acc-1", Type: "refund", Amount: decimal.NewFromInt(5)},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "bad date",
			userID: 1,
			body:   CreateTransactionRequest{AccountID: "acc-1", Type: "debit", Amount: decimal.NewFromInt(5), Date: "03/10/2026"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "unknown field",
			userID: 1,
			body:   `{"accountId":"acc-1","type":"debit","amount":5,"merchant":"x"}`,
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "empty body",
			userID: 1,
			body:   nil,
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "zero amount",
			userID: 1,
			body:   CreateTransactionRequest{AccountID: "acc-1", Type: "credit", Amount: decimal.Zero},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "insufficient funds",
			userID: 1,
			body:   CreateTransactionRequest{AccountID: "acc-1", Type: "debit", Amount: decimal.NewFromInt(500)},
			status: http.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_FUNDS",
		},
		{
			name:   "another user's account",
			userID: 1,
			body:   CreateTransactionRequest{AccountID: "acc-2", Type: "debit", Amount: decimal.NewFromInt(5)},
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(http.MethodPost, "/api/transactions", tt.userID, tt.body)
			assertError(t, rr, tt.status, tt.code)
		})
	}

	assert.True(t, s.balance("acc-1").Equal(decimal.NewFromInt(100)))
	assert.True(t, s.balance("acc-2").Equal(decimal.NewFromInt(100)))
}

func TestAPI_ListTransactionsRejections(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-2", 2, "999988887777", "100")

	assertError(t, s.do(http.MethodGet, "/api/transactions", 1, nil), http.StatusBadRequest, "VALIDATION_ERROR")
	assertError(t, s.do(http.MethodGet, "/api/transactions?accountId=acc-2", 1, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestAPI_ReverseTransaction(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "100")

	rr := s.do(http.MethodPost, "/api/transactions", 1, CreateTransactionRequest{
		AccountID: "acc-1", Type: "debit", Amount: decimal.NewFromInt(40), Description: "Groceries",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	original := decode[transaction.Record](t, rr)

	rr = s.do(http.MethodPost, "/api/transactions/"+original.ID+"/reverse", 1, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reversal := decode[transaction.Record](t, rr)
	assert.Equal(t, transaction.TypeCredit, reversal.Type)
	require.NotNil(t, reversal.ReversalOf)
	assert.Equal(t, original.ID, *reversal.ReversalOf)
	assert.True(t, s.balance("acc-1").Equal(decimal.NewFromInt(100)))

	assertError(t, s.do(http.MethodPost, "/api/transactions/"+original.ID+"/reverse", 1, nil), http.StatusBadRequest, "VALIDATION_ERROR")
	assertError(t, s.do(http.MethodPost, "/api/transactions/"+original.ID+"/reverse", 2, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestAPI_TransferIdempotentReplay(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "1000")
	s.openAccount("acc-2", 1, "555566667777", "0")

	body := CreateTransferRequest{
		SourceAccountID: "acc-1",
		Amount:          decimal.NewFromInt(250),
		PIN:             pin,
		Kind:            "self",
		Target:          "acc-2",
	}

	first := s.do(http.MethodPost, "/api/transfers", 1, body, IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	result := decode[transfer.Result](t, first)
	assert.Equal(t, transfer.StatusSuccess, result.Status)
	assert.False(t, result.Replayed)
	assert.NotEmpty(t, result.CreditRecordID)

	second := s.do(http.MethodPost, "/api/transfers", 1, body, IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())
	replay := decode[transfer.Result](t, second)
	assert.True(t, replay.Replayed)
	assert.Equal(t, result.TransferID, replay.TransferID)

	assert.True(t, s.balance("acc-1").Equal(decimal.NewFromInt(750)))
	assert.True(t, s.balance("acc-2").Equal(decimal.NewFromInt(250)))

	rr := s.do(http.MethodGet, "/api/notifications", 1, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[NotificationListResponse](t, rr)
	assert.Equal(t, 1, list.Pagination.Total)
	assert.Equal(t, 1, list.Pagination.Pages)
}

func TestAPI_TransferRejections(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "1000")

	tests := []struct {
		name   string
		body   CreateTransferRequest
		status int
		code   string
	}{
		{
			name:   "unknown kind",
			body:   CreateTransferRequest{SourceAccountID: "acc-1", Amount: decimal.NewFromInt(10), PIN: pin, Kind: "wire", Target: "x"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_ERROR",
		},
		{
			name:   "wrong PIN",
			body:   CreateTransferRequest{SourceAccountID: "acc-1", Amount: decimal.NewFromInt(10), PIN: "9999", Kind: "upi", Target: "friend@okbank"},
			status: http.StatusUnauthorized,
			code:   "UNAUTHORIZED",
		},
		{
			name:   "bank account not found",
			body:   CreateTransferRequest{SourceAccountID: "acc-1", Amount: decimal.NewFromInt(10), PIN: pin, Kind: "bank", Target: "XXXX0000"},
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "self transfer to same account",
			body:   CreateTransferRequest{SourceAccountID: "acc-1", Amount: decimal.NewFromInt(10), PIN: pin, Kind: "self", Target: "acc-1"},
			status: http.StatusBadRequest,
			code:   "INVALID_TRANSFER_TARGET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := s.do(http.MethodPost, "/api/transfers", 1, tt.body)
			assertError(t, rr, tt.status, tt.code)
		})
	}
	assert.True(t, s.balance("acc-1").Equal(decimal.NewFromInt(1000)))
}

func TestAPI_PayBillGrantsRewards(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "1000")
	_, err := s.bills.Create(context.Background(), bill.CreateParams{
		ID: "bill-1", UserID: 1, BillType: "Electricity", Biller: "TPDDL", ReferenceID: "CA-991", Amount: decimal.NewFromInt(300),
	})
	require.NoError(t, err)

	body := PayBillRequest{
		AccountID:   "acc-1",
		Amount:      decimal.NewFromInt(300),
		PIN:         pin,
		BillType:    "Electricity",
		ReferenceID: "CA-991",
	}
	rr := s.do(http.MethodPost, "/api/bills/bill-1/pay", 1, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rec := decode[transaction.Record](t, rr)
	assert.Equal(t, transaction.CategoryBills, rec.Category)
	assert.True(t, s.balance("acc-1").Equal(decimal.NewFromInt(700)))

	rr = s.do(http.MethodGet, "/api/rewards", 1, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	balances := decode[[]reward.Balance](t, rr)
	require.Len(t, balances, 1)
	assert.Equal(t, int64(50), balances[0].Points)

	assertError(t, s.do(http.MethodPost, "/api/bills/bill-1/pay", 1, body), http.StatusBadRequest, "VALIDATION_ERROR")
	assertError(t, s.do(http.MethodPost, "/api/bills/nope/pay", 1, body), http.StatusNotFound, "NOT_FOUND")
}

func TestAPI_BudgetLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	s.openAccount("acc-1", 1, "123456781234", "1000")

	rr := s.do(http.MethodPost, "/api/budgets", 1, CreateBudgetRequest{Category: "Food", Limit: decimal.NewFromInt(100)})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[budget.Budget](t, rr)
	assert.True(t, created.Active)

	assertError(t, s.do(http.MethodPost, "/api/budgets", 1, CreateBudgetRequest{Category: "food", Limit: decimal.NewFromInt(50)}),
		http.StatusBadRequest, "VALIDATION_ERROR")

	rr = s.do(http.MethodPost, "/api/transactions", 1, CreateTransactionRequest{
		AccountID: "acc-1", Type: "debit", Amount: decimal.NewFromInt(150), Category: "Food",
	})
	assertError(t, rr, http.StatusUnprocessableEntity, "BUDGET_EXCEEDED")

	rr = s.do(http.MethodPatch, "/api/budgets/"+created.ID, 1, budget.PatchParams{Limit: ptr(decimal.NewFromInt(200))})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[budget.Budget](t, rr).Limit.Equal(decimal.NewFromInt(200)))

	rr = s.do(http.MethodPost, "/api/transactions", 1, CreateTransactionRequest{
		AccountID: "acc-1", Type: "debit", Amount: decimal.NewFromInt(150), Category: "Food",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	assertError(t, s.do(http.MethodPatch, "/api/budgets/"+created.ID, 2, budget.PatchParams{Limit: ptr(decimal.NewFromInt(10))}),
		http.StatusNotFound, "NOT_FOUND")

	rr = s.do(http.MethodDelete, "/api/budgets/"+created.ID, 1, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(http.MethodGet, "/api/budgets", 1, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	budgets := decode[[]budget.Budget](t, rr)
	require.Len(t, budgets, 1)
	assert.False(t, budgets[0].Active)
	assert.True(t, budgets[0].Spent.Equal(decimal.NewFromInt(150)))
}

func TestAPI_NotificationSettings(t *testing.T) {
	s := newTestServer(t, nil)

	rr := s.do(http.MethodPost, "/api/notifications/devices", 1, RegisterDeviceRequest{Token: "tok-1", DeviceType: "ios"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	assertError(t, s.do(http.MethodPost, "/api/notifications/devices", 1, RegisterDeviceRequest{Token: "tok-2", DeviceType: "fax"}),
		http.StatusBadRequest, "VALIDATION_ERROR")

	rr = s.do(http.MethodGet, "/api/notifications/preferences", 1, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[notification.Preferences](t, rr).Budgets)

	off := false
	rr = s.do(http.MethodPatch, "/api/notifications/preferences", 1, notification.PreferenceUpdate{Budgets: &off})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	prefs := decode[notification.Preferences](t, rr)
	assert.False(t, prefs.Budgets)
	assert.True(t, prefs.Transactions)
	assert.True(t, prefs.Transfers)

	rr = s.do(http.MethodGet, "/api/notifications?page=1&per_page=500", 1, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[NotificationListResponse](t, rr)
	assert.Empty(t, list.Notifications)
	assert.Equal(t, 20, list.Pagination.PerPage)
	assert.Equal(t, 0, list.Pagination.Pages)
}

func TestAPI_Health(t *testing.T) {
	s := newTestServer(t, map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
	})
	rr := s.do(http.MethodGet, "/health", 0, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[healthResponse](t, rr).Status)

	s = newTestServer(t, map[string]HealthCheck{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	rr = s.do(http.MethodGet, "/health", 0, nil)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	resp := decode[healthResponse](t, rr)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"])
	assert.Equal(t, "ok", resp.Checks["database"])
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)

	writeError(rr, req, errors.New("pq: connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decode[ErrorResponse](t, rr)
	assert.Equal(t, "INTERNAL_ERROR", resp.Code)
	assert.Equal(t, "internal server error", resp.Error)
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseDate("2026-02-28T10:00:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, 28, got.Day())

	_, err = parseDate("yesterday")
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
