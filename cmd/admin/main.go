package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/bill"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/infrastructure/postgres"
	"bankdash/internal/shared/config"
	"bankdash/internal/shared/logger"
)

const usage = `bankdash admin CLI - maintenance commands for the ledger database

Usage:
  admin <command> [options]

Commands:
  migrate          Apply (or roll back) database migrations
  open-account     Open an account, optionally funded with an opening credit
  create-budget    Create a monthly category budget
  create-bill      Register a payable bill for a user
  budget-audit     Recompute budget spend from recorded debits and report drift

Examples:
  admin migrate
  admin migrate --down --steps=1
  admin open-account --user-id=1 --name=Savings --number=123456781234 --pin=1234 --deposit=5000
  admin create-budget --user-id=1 --category=Food --limit=8000
  admin create-bill --user-id=1 --type=Electricity --biller=TPDDL --ref=CA-991 --amount=1450 --due=2026-11-05
  admin budget-audit --fix
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.SetDefault(log)

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "migrate":
		err = runMigrate(cfg, log, args)
	case "open-account":
		err = runOpenAccount(cfg, log, args)
	case "create-budget":
		err = runCreateBudget(cfg, log, args)
	case "create-bill":
		err = runCreateBill(cfg, log, args)
	case "budget-audit":
		err = runBudgetAudit(cfg, log, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("command failed")
	}
}

func connect(cfg *config.Config, log zerolog.Logger) (*postgres.DB, error) {
	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.Options{MaxOpenConns: 4})
	if err != nil {
		return nil, err
	}
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("connected to database")
	return db, nil
}

func runMigrate(cfg *config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	down := fs.Bool("down", false, "Roll back instead of applying")
	steps := fs.Int("steps", 1, "Number of migrations to roll back with --down")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if *down {
		if err := postgres.MigrateDown(db, *steps); err != nil {
			return err
		}
		log.Info().Int("steps", *steps).Msg("migrations rolled back")
		return nil
	}

	version, dirty, err := postgres.Migrate(db)
	if err != nil {
		return err
	}
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
	return nil
}

func runOpenAccount(cfg *config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("open-account", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "Owner user ID")
	name := fs.String("name", "", "Account display name")
	bank := fs.String("bank", "bankdash", "Bank name")
	number := fs.String("number", "", "Full account number (digits)")
	currency := fs.String("currency", "INR", "ISO 4217 currency")
	pin := fs.String("pin", "", "4-6 digit transaction PIN")
	deposit := fs.String("deposit", "0", "Opening credit amount")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*deposit)
	if err != nil {
		return fmt.Errorf("invalid --deposit: %w", err)
	}

	db, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	accounts := postgres.NewAccountRepository(db)
	acc, err := account.NewService(accounts).OpenAccount(ctx, account.CreateParams{
		UserID:        *userID,
		Name:          *name,
		BankName:      *bank,
		AccountNumber: *number,
		Currency:      *currency,
		PIN:           *pin,
	})
	if err != nil {
		return err
	}
	log.Info().Str("account_id", acc.ID).Str("number", acc.MaskedNumber()).Msg("account opened")

	if !amount.IsPositive() {
		return nil
	}

	svc := ledger.NewService(ledger.Deps{
		Tx:           postgres.NewTxManager(db, cfg.Ledger.LockTimeout),
		Accounts:     accounts,
		Transactions: postgres.NewTransactionRepository(db),
	}, ledger.Options{UnitTimeout: cfg.Ledger.UnitTimeout})

	rec, err := svc.CreateTransaction(ctx, ledger.CreateTransactionRequest{
		AccountID:   acc.ID,
		UserID:      acc.UserID,
		Type:        transaction.TypeCredit,
		Amount:      amount,
		Category:    transaction.CategoryIncome,
		Description: "Opening deposit",
	})
	if err != nil {
		return fmt.Errorf("account %s opened but deposit failed: %w", acc.ID, err)
	}
	log.Info().Str("transaction_id", rec.ID).Str("amount", rec.Amount.StringFixed(2)).Msg("opening deposit recorded")
	return nil
}

func runCreateBudget(cfg *config.Config, log zerolog.Logger, args []string) error {
	now := time.Now().UTC()

	fs := flag.NewFlagSet("create-budget", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "Owner user ID")
	category := fs.String("category", "", "Spending category")
	limit := fs.String("limit", "", "Monthly limit")
	month := fs.Int("month", int(now.Month()), "Period month (1-12)")
	year := fs.Int("year", now.Year(), "Period year")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*limit)
	if err != nil {
		return fmt.Errorf("invalid --limit: %w", err)
	}

	db, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := budget.NewService(postgres.NewBudgetRepository(db)).Create(ctx, budget.CreateParams{
		UserID:   *userID,
		Category: *category,
		Period:   budget.Period{Month: *month, Year: *year},
		Limit:    amount,
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("budget_id", b.ID).
		Str("category", b.Category).
		Str("period", b.Period.String()).
		Str("limit", b.Limit.StringFixed(2)).
		Msg("budget created")
	return nil
}

func runCreateBill(cfg *config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("create-bill", flag.ExitOnError)
	userID := fs.Int64("user-id", 0, "Owner user ID")
	billType := fs.String("type", "", "Bill type (Electricity, Water, Mobile, ...)")
	biller := fs.String("biller", "", "Biller name")
	ref := fs.String("ref", "", "Consumer or reference number at the biller")
	provider := fs.String("provider", "", "Provider shown in the payment description")
	amountStr := fs.String("amount", "", "Amount due")
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*amountStr)
	if err != nil {
		return fmt.Errorf("invalid --amount: %w", err)
	}
	params := bill.CreateParams{
		UserID:      *userID,
		BillType:    *billType,
		Biller:      *biller,
		ReferenceID: *ref,
		Amount:      amount,
	}
	if *provider != "" {
		params.Provider = provider
	}
	if *due != "" {
		dueDate, err := time.Parse(time.DateOnly, *due)
		if err != nil {
			return fmt.Errorf("invalid --due: %w", err)
		}
		params.DueDate = &dueDate
	}

	db, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := postgres.NewBillRepository(db).Create(ctx, params)
	if err != nil {
		return err
	}
	log.Info().
		Str("bill_id", b.ID).
		Str("bill_type", b.BillType).
		Str("amount", b.Amount.StringFixed(2)).
		Msg("bill created")
	return nil
}

func runBudgetAudit(cfg *config.Config, log zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("budget-audit", flag.ExitOnError)
	fix := fs.Bool("fix", false, "Overwrite drifted spent values with the recorded total")
	timeout := fs.Duration("timeout", 10*time.Minute, "Timeout for the whole audit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := budget.NewService(postgres.NewBudgetRepository(db))
	drifts, err := svc.Audit(ctx, postgres.NewTransactionRepository(db), *fix)
	for _, d := range drifts {
		log.Warn().
			Str("budget_id", d.Budget.ID).
			Int64("user_id", d.Budget.UserID).
			Str("category", d.Budget.Category).
			Str("stored", d.Budget.Spent.StringFixed(2)).
			Str("recorded", d.Recorded.StringFixed(2)).
			Str("delta", d.Delta().StringFixed(2)).
			Bool("fixed", *fix && err == nil).
			Msg("budget drift")
	}
	if err != nil {
		return err
	}

	log.Info().Int("drifted", len(drifts)).Bool("fix", *fix).Msg("budget audit complete")
	return nil
}
