package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/domain/transfer"
	"bankdash/internal/shared/apperror"
)

// TransferOutcome holds both legs of a committed transfer.
type TransferOutcome struct {
	TransferID string
	Debit      *Posting
	Credit     *Posting // nil for upi
	Target     *account.Account
}

// Orchestrator moves money between accounts or out to UPI handles.
type Orchestrator struct {
	recorder *Recorder
}

// NewOrchestrator creates a transfer orchestrator that posts through recorder.
func NewOrchestrator(recorder *Recorder) *Orchestrator {
	return &Orchestrator{recorder: recorder}
}

// Execute runs a validated request inside uow. Failures are reported in
// order: unknown source, PIN, funds, then target resolution.
func (o *Orchestrator) Execute(ctx context.Context, uow UnitOfWork, req transfer.Request) (*TransferOutcome, error) {
	amount := req.Amount.Round(2)

	targetID, targetErr := o.resolveTarget(ctx, uow.Accounts(), req)
	if targetErr != nil && !apperror.IsBusiness(targetErr) {
		return nil, targetErr
	}

	ids := []string{req.SourceAccountID}
	if targetID != "" {
		ids = append(ids, targetID)
	}
	locked, err := uow.Accounts().LockForUpdate(ctx, ids...)
	if err != nil {
		return nil, err
	}

	source, ok := locked[req.SourceAccountID]
	if !ok || source.UserID != req.UserID {
		return nil, account.ErrAccountNotFound
	}
	if err := source.VerifyPIN(req.PIN); err != nil {
		return nil, err
	}
	if source.Balance.LessThan(amount) {
		return nil, account.ErrInsufficientFunds
	}
	if targetErr != nil {
		return nil, targetErr
	}

	var target *account.Account
	if targetID != "" {
		target, ok = locked[targetID]
		if !ok || (req.Kind == transfer.KindSelf && target.UserID != req.UserID) {
			return nil, transfer.ErrNotOwnTarget
		}
	}

	transferID := uuid.NewString()
	category := req.Kind.Category()
	outcome := &TransferOutcome{TransferID: transferID, Target: target}

	outcome.Debit, err = o.recorder.Record(ctx, uow, Entry{
		AccountID:   source.ID,
		UserID:      source.UserID,
		Type:        transaction.TypeDebit,
		Amount:      amount,
		Category:    category,
		Description: debitDescription(req, target),
		TransferID:  &transferID,
	})
	if err != nil {
		return nil, err
	}

	if req.Kind.Internal() {
		outcome.Credit, err = o.recorder.Record(ctx, uow, Entry{
			AccountID:   target.ID,
			UserID:      target.UserID,
			Type:        transaction.TypeCredit,
			Amount:      amount,
			Category:    category,
			Description: creditDescription(req, source),
			TransferID:  &transferID,
		})
		if err != nil {
			return nil, err
		}
	}

	return outcome, nil
}

// resolveTarget returns the internal target account ID for self and bank
// transfers. A business error is returned alongside so that it can be
// reported after the PIN and funds checks.
func (o *Orchestrator) resolveTarget(ctx context.Context, accounts account.Repository, req transfer.Request) (string, error) {
	target := strings.TrimSpace(req.Target)

	switch req.Kind {
	case transfer.KindSelf:
		if target == req.SourceAccountID {
			return "", transfer.ErrSameAccount
		}
		return target, nil

	case transfer.KindBank:
		suffix := account.NumberSuffix(target)
		if suffix == "" {
			return "", transfer.ErrShortNumber
		}
		matches, err := accounts.FindByNumberSuffix(ctx, suffix)
		if err != nil {
			return "", fmt.Errorf("failed to resolve target account: %w", err)
		}
		var candidates []string
		for _, m := range matches {
			if m.ID != req.SourceAccountID {
				candidates = append(candidates, m.ID)
			}
		}
		switch len(candidates) {
		case 0:
			return "", fmt.Errorf("target %w", account.ErrAccountNotFound)
		case 1:
			return candidates[0], nil
		default:
			return "", transfer.ErrAmbiguous
		}
	}

	return "", nil
}

func debitDescription(req transfer.Request, target *account.Account) string {
	switch req.Kind {
	case transfer.KindUPI:
		return "UPI payment to " + strings.TrimSpace(req.Target)
	case transfer.KindSelf:
		return "Transfer to own account " + target.MaskedNumber()
	default:
		return "Transfer to account " + target.MaskedNumber()
	}
}

func creditDescription(req transfer.Request, source *account.Account) string {
	if req.Kind == transfer.KindSelf {
		return "Transfer from own account " + source.MaskedNumber()
	}
	return "Transfer from account " + source.MaskedNumber()
}
