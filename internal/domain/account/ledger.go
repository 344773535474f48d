package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ledgerMeter           = otel.Meter("bankdash/ledger")
	balanceAdjustments, _ = ledgerMeter.Int64Counter("ledger.balance.adjustments",
		metric.WithDescription("Balance adjustments by direction and outcome"),
	)
)

// Ledger applies signed balance adjustments. It never emits notifications;
// callers decide what happens after the surrounding unit of work commits.
type Ledger struct{}

// NewLedger creates a new account ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

// AdjustBalance adds delta (negative for debits) to the account balance and
// returns the new balance. The caller must hold the account lock for the
// current unit of work. A debit that would drive the balance below zero is
// rejected with ErrInsufficientFunds and nothing is written.
func (l *Ledger) AdjustBalance(ctx context.Context, repo Repository, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsZero() {
		return decimal.Zero, ErrZeroDelta
	}

	direction := "credit"
	if delta.IsNegative() {
		direction = "debit"
	}

	acc, err := repo.AdjustBalance(ctx, accountID, delta.Round(2))
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrInsufficientFunds) {
			outcome = "insufficient_funds"
		}
		balanceAdjustments.Add(ctx, 1, metric.WithAttributes(
			attribute.String("direction", direction),
			attribute.String("outcome", outcome),
		))
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrAccountNotFound) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("failed to adjust balance of account %s: %w", accountID, err)
	}

	balanceAdjustments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("outcome", "applied"),
	))
	return acc.Balance, nil
}
