package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/notification"
	"bankdash/internal/domain/reward"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/domain/transfer"
	"bankdash/internal/shared/apperror"
	"bankdash/internal/shared/logger"
	"bankdash/internal/shared/messages"
)

var (
	ledgerTracer         = otel.Tracer("bankdash/ledger")
	ledgerMeter          = otel.Meter("bankdash/ledger")
	operationTotal, _    = ledgerMeter.Int64Counter("ledger.operation.total", metric.WithDescription("Money-moving operations by operation and outcome"))
	operationDuration, _ = ledgerMeter.Float64Histogram("ledger.operation.duration", metric.WithDescription("Unit of work duration in seconds"), metric.WithUnit("s"))
)

// Options tunes the service.
type Options struct {
	UnitTimeout          time.Duration
	IdempotencyTTL       time.Duration
	BillRewardProgram    string
	BillRewardPoints     int64
	BudgetAlertThreshold float64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		UnitTimeout:          5 * time.Second,
		IdempotencyTTL:       24 * time.Hour,
		BillRewardProgram:    "Bill Payment Rewards",
		BillRewardPoints:     50,
		BudgetAlertThreshold: 0.8,
	}
}

// Deps are the collaborators of Service. Idempotency, Notifier, Rewards
// and Messages are optional.
type Deps struct {
	Tx           TxManager
	Accounts     account.Repository
	Transactions transaction.Repository
	Idempotency  transfer.IdempotencyStore
	Notifier     notification.Dispatcher
	Rewards      reward.Awarder
	Messages     *messages.Messages
}

// Service exposes the money-moving operations.
type Service struct {
	deps         Deps
	opts         Options
	recorder     *Recorder
	orchestrator *Orchestrator
	billPayer    *BillPayer
}

// NewService creates a new ledger service
func NewService(deps Deps, opts Options) *Service {
	if deps.Notifier == nil {
		deps.Notifier = notification.NopDispatcher{}
	}
	if deps.Messages == nil {
		deps.Messages = messages.Defaults()
	}
	if opts.UnitTimeout <= 0 {
		opts.UnitTimeout = DefaultOptions().UnitTimeout
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = DefaultOptions().IdempotencyTTL
	}

	recorder := NewRecorder(account.NewLedger(), budget.NewEnforcer())
	return &Service{
		deps:         deps,
		opts:         opts,
		recorder:     recorder,
		orchestrator: NewOrchestrator(recorder),
		billPayer:    NewBillPayer(recorder),
	}
}

// CreateTransactionRequest is a manual debit or credit entry.
type CreateTransactionRequest struct {
	AccountID   string
	UserID      int64
	Type        transaction.Type
	Amount      decimal.Decimal
	Category    string
	Description string
	Date        *time.Time
}

// CreateTransaction records a manual debit or credit.
func (s *Service) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*transaction.Record, error) {
	var posting *Posting
	err := s.run(ctx, "create_transaction", func(ctx context.Context, uow UnitOfWork) error {
		var err error
		posting, err = s.recorder.Record(ctx, uow, Entry{
			AccountID:   req.AccountID,
			UserID:      req.UserID,
			Type:        req.Type,
			Amount:      req.Amount,
			Category:    req.Category,
			Description: req.Description,
			OccurredOn:  req.Date,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyPosting(ctx, posting)
	return posting.Record, nil
}

// CreateTransfer moves money per req. When req.IdempotencyKey is set, a
// replay of a completed request returns the first result without moving
// money again. Reusing a key for a different transfer is rejected.
func (s *Service) CreateTransfer(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	key := ""
	if req.IdempotencyKey != "" && s.deps.Idempotency != nil {
		key = transfer.ScopedKey(req.UserID, req.IdempotencyKey)
		stored, reserved, err := s.deps.Idempotency.Reserve(ctx, key, s.opts.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if stored != nil {
			if stored.Fingerprint != "" && stored.Fingerprint != req.Fingerprint() {
				return nil, transfer.ErrKeyReused
			}
			replay := *stored
			replay.Fingerprint = ""
			replay.Replayed = true
			log.Info().Str("transfer_id", replay.TransferID).Msg("replaying completed transfer")
			return &replay, nil
		}
		if !reserved {
			return nil, apperror.ErrDuplicateRequest
		}
	}

	var outcome *TransferOutcome
	err := s.run(ctx, "create_transfer", func(ctx context.Context, uow UnitOfWork) error {
		var err error
		outcome, err = s.orchestrator.Execute(ctx, uow, req)
		return err
	})
	if err != nil {
		if key != "" {
			if rerr := s.deps.Idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
				log.Error().Err(rerr).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	result := transfer.Result{
		Status:        transfer.StatusSuccess,
		Message:       transferMessage(req, outcome),
		TransferID:    outcome.TransferID,
		DebitRecordID: outcome.Debit.Record.ID,
	}
	if outcome.Credit != nil {
		result.CreditRecordID = outcome.Credit.Record.ID
	}

	if key != "" {
		stored := result
		stored.Fingerprint = req.Fingerprint()
		if err := s.deps.Idempotency.Complete(context.WithoutCancel(ctx), key, stored, s.opts.IdempotencyTTL); err != nil {
			log.Error().Err(err).Str("transfer_id", result.TransferID).Msg("failed to store idempotent result")
		}
	}

	s.notifyTransfer(ctx, req, outcome)
	return &result, nil
}

// PayBill pays an owned bill. The bill row is locked and marked paid in the
// same unit as the debit, so concurrent payments of one bill settle it
// once. Granting reward points happens after commit and failures are only
// logged.
func (s *Service) PayBill(ctx context.Context, req PayBillRequest) (*transaction.Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		b       *bill.Bill
		posting *Posting
	)
	err := s.run(ctx, "pay_bill", func(ctx context.Context, uow UnitOfWork) error {
		var err error
		b, err = uow.Bills().LockForUpdate(ctx, req.BillID)
		if err != nil {
			return err
		}
		if b.UserID != req.UserID {
			return bill.ErrBillNotFound
		}
		if err := b.Payable(); err != nil {
			return err
		}

		posting, err = s.billPayer.Execute(ctx, uow, req, b)
		if err != nil {
			return err
		}
		return uow.Bills().MarkPaid(ctx, b.ID, posting.Record.ID, posting.Record.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.afterBillPaid(ctx, req, b, posting)
	return posting.Record, nil
}

// ReverseTransaction appends a compensating record of the opposite type.
// The original record is left untouched. Reversing a debit is a credit and
// does not give budget spend back.
func (s *Service) ReverseTransaction(ctx context.Context, recordID string, userID int64) (*transaction.Record, error) {
	var posting *Posting
	err := s.run(ctx, "reverse_transaction", func(ctx context.Context, uow UnitOfWork) error {
		original, err := uow.Transactions().GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if original.UserID != userID {
			return transaction.ErrRecordNotFound
		}
		if original.ReversalOf != nil {
			return transaction.ErrReverseReversal
		}

		// Serializes concurrent reversals of the same record.
		if _, err := uow.Accounts().LockForUpdate(ctx, original.AccountID); err != nil {
			return err
		}
		_, err = uow.Transactions().FindReversal(ctx, original.ID)
		if err == nil {
			return transaction.ErrAlreadyReversed
		}
		if !errors.Is(err, transaction.ErrRecordNotFound) {
			return err
		}

		posting, err = s.recorder.Record(ctx, uow, Entry{
			AccountID:   original.AccountID,
			UserID:      userID,
			Type:        original.Type.Opposite(),
			Amount:      original.Amount,
			Category:    transaction.CategoryReversal,
			Description: "Reversal of " + strings.TrimSpace(original.Description),
			ReversalOf:  &original.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, userID, notification.CategoryTransactions, s.deps.Messages.Reversal, map[string]string{
		"amount":  money(posting.Account, posting.Record.Amount),
		"account": posting.Account.MaskedNumber(),
	}, map[string]string{"transactionId": posting.Record.ID})
	return posting.Record, nil
}

// ListTransactions returns the record history of an owned account, newest
// first, with the total count.
func (s *Service) ListTransactions(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Record, int64, error) {
	acc, err := s.deps.Accounts.GetByID(ctx, filter.AccountID)
	if err != nil {
		return nil, 0, err
	}
	if acc.UserID != userID {
		return nil, 0, account.ErrAccountNotFound
	}

	records, err := s.deps.Transactions.ListByAccountID(ctx, filter.Normalize())
	if err != nil {
		return nil, 0, err
	}
	total, err := s.deps.Transactions.CountByAccountID(ctx, acc.ID)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// run executes fn as one bounded unit of work with tracing, metrics and
// logging.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context, uow UnitOfWork) error) error {
	ctx, span := ledgerTracer.Start(ctx, "ledger."+op)
	defer span.End()

	unitCtx, cancel := context.WithTimeout(ctx, s.opts.UnitTimeout)
	defer cancel()

	start := time.Now()
	err := s.deps.Tx.WithinTx(unitCtx, fn)
	elapsed := time.Since(start)

	if err != nil && errors.Is(unitCtx.Err(), context.DeadlineExceeded) &&
		(apperror.Kind(err) == nil || errors.Is(err, context.DeadlineExceeded)) {
		err = fmt.Errorf("%w: %s did not complete within %s: %v", apperror.ErrUnitTimeout, op, s.opts.UnitTimeout, err)
	}

	outcome := "committed"
	if err != nil {
		outcome = strings.ToLower(apperror.Code(err))
	}
	attrs := metric.WithAttributes(attribute.String("operation", op), attribute.String("outcome", outcome))
	operationTotal.Add(ctx, 1, attrs)
	operationDuration.Record(ctx, elapsed.Seconds(), attrs)

	log := logger.FromContext(ctx)
	switch {
	case err == nil:
		log.Debug().Str("operation", op).Dur("elapsed", elapsed).Msg("unit of work committed")
	case apperror.IsBusiness(err):
		span.SetAttributes(attribute.String("ledger.rejection", outcome))
		log.Info().Str("operation", op).Str("reason", outcome).Err(err).Msg("operation rejected")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Str("operation", op).Err(err).Msg("unit of work failed")
	}
	return err
}
