package ledger

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/notification"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/domain/transfer"
	"bankdash/internal/shared/logger"
	"bankdash/internal/shared/messages"
)

// Everything here runs after the unit of work has committed.

func (s *Service) notify(ctx context.Context, userID int64, category notification.Category, tmpl messages.MessageText, vars, data map[string]string) {
	text := tmpl.Render(vars)
	s.deps.Notifier.Notify(ctx, userID, notification.Message{
		Title:    text.Title,
		Body:     text.Body,
		Category: category,
		Data:     data,
	})
}

func (s *Service) notifyPosting(ctx context.Context, p *Posting) {
	tmpl := s.deps.Messages.TransactionCredit
	if p.Record.Type == transaction.TypeDebit {
		tmpl = s.deps.Messages.TransactionDebit
	}
	s.notify(ctx, p.Record.UserID, notification.CategoryTransactions, tmpl, map[string]string{
		"amount":   money(p.Account, p.Record.Amount),
		"account":  p.Account.MaskedNumber(),
		"category": p.Record.Category,
		"balance":  money(p.Account, p.Balance),
	}, map[string]string{"transactionId": p.Record.ID})

	s.alertBudget(ctx, p)
}

func (s *Service) notifyTransfer(ctx context.Context, req transfer.Request, o *TransferOutcome) {
	debit := o.Debit
	s.notify(ctx, debit.Record.UserID, notification.CategoryTransfers, s.deps.Messages.TransferSent, map[string]string{
		"amount":  money(debit.Account, debit.Record.Amount),
		"account": debit.Account.MaskedNumber(),
		"target":  targetLabel(req, o.Target),
	}, map[string]string{"transferId": o.TransferID})
	s.alertBudget(ctx, debit)

	if req.Kind == transfer.KindBank && o.Credit != nil {
		credit := o.Credit
		s.notify(ctx, credit.Record.UserID, notification.CategoryTransfers, s.deps.Messages.TransferReceived, map[string]string{
			"amount":  money(credit.Account, credit.Record.Amount),
			"account": credit.Account.MaskedNumber(),
		}, map[string]string{"transferId": o.TransferID})
	}
}

func (s *Service) afterBillPaid(ctx context.Context, req PayBillRequest, b *bill.Bill, p *Posting) {
	log := logger.FromContext(ctx).With().Str("bill_id", b.ID).Str("transaction_id", p.Record.ID).Logger()

	points := int64(0)
	if s.deps.Rewards != nil && s.opts.BillRewardPoints > 0 {
		if err := s.deps.Rewards.Grant(ctx, req.UserID, s.opts.BillRewardProgram, s.opts.BillRewardPoints); err != nil {
			log.Error().Err(err).Str("program", s.opts.BillRewardProgram).Msg("failed to grant bill payment reward")
		} else {
			points = s.opts.BillRewardPoints
		}
	}

	biller := b.Biller
	if req.Provider != nil && *req.Provider != "" {
		biller = *req.Provider
	}
	s.notify(ctx, req.UserID, notification.CategoryBills, s.deps.Messages.BillPaid, map[string]string{
		"billType":  req.BillType,
		"amount":    money(p.Account, p.Record.Amount),
		"biller":    biller,
		"reference": req.ReferenceID,
		"points":    strconv.FormatInt(points, 10),
	}, map[string]string{"transactionId": p.Record.ID, "billId": b.ID})

	s.alertBudget(ctx, p)
}

func (s *Service) alertBudget(ctx context.Context, p *Posting) {
	if !budget.CrossedThreshold(p.BudgetBefore, p.BudgetAfter, s.opts.BudgetAlertThreshold) {
		return
	}
	after := p.BudgetAfter
	percent := after.Utilization().Mul(decimal.NewFromInt(100)).Floor()
	s.notify(ctx, after.UserID, notification.CategoryBudgets, s.deps.Messages.BudgetThreshold, map[string]string{
		"category": after.Category,
		"percent":  percent.String(),
		"period":   after.Period.String(),
	}, map[string]string{"budgetId": after.ID})
}

func money(acc *account.Account, amount decimal.Decimal) string {
	currency := "INR"
	if acc != nil && acc.Currency != "" {
		currency = acc.Currency
	}
	return currency + " " + amount.StringFixed(2)
}

func targetLabel(req transfer.Request, target *account.Account) string {
	if target != nil {
		return target.MaskedNumber()
	}
	return req.Target
}

func transferMessage(req transfer.Request, o *TransferOutcome) string {
	return fmt.Sprintf("Transferred %s to %s", money(o.Debit.Account, o.Debit.Record.Amount), targetLabel(req, o.Target))
}
