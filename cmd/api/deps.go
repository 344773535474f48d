package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bankdash/internal/domain/account"
	"bankdash/internal/domain/budget"
	"bankdash/internal/domain/ledger"
	"bankdash/internal/domain/notification"
	"bankdash/internal/domain/reward"
	"bankdash/internal/domain/transaction"
	"bankdash/internal/domain/transfer"
	"bankdash/internal/infrastructure/firebase"
	"bankdash/internal/infrastructure/memory"
	"bankdash/internal/infrastructure/postgres"
	"bankdash/internal/infrastructure/redis"
	httphandlers "bankdash/internal/interfaces/http"
	"bankdash/internal/shared/config"
	"bankdash/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	Handlers   *httphandlers.Handlers
	Dispatcher *notification.AsyncDispatcher

	closers []func() error
}

// stores is the repository set behind one storage driver.
type stores struct {
	tx            ledger.TxManager
	accounts      account.Repository
	transactions  transaction.Repository
	budgets       budget.Repository
	rewards       reward.Repository
	notifications notification.Repository
}

// NewDependencies wires storage, idempotency, push delivery and the HTTP
// handlers from cfg.
func NewDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}
	checks := map[string]httphandlers.HealthCheck{}

	st, err := deps.openStores(ctx, cfg, log, checks)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var idempotency transfer.IdempotencyStore
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, client.Close)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		idempotency = redis.NewIdempotencyStore(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	} else {
		log.Warn().Msg("redis disabled: Idempotency-Key headers are ignored")
	}

	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, st.notifications.DeactivateToken, log)
		if err != nil {
			deps.Close()
			return nil, err
		}
		breaker := firebase.NewBreakerMessenger(fcm, firebase.BreakerSettings{}, log)
		checks["push"] = func(context.Context) error {
			if breaker.State() == "open" {
				return firebase.ErrUnavailable
			}
			return nil
		}
		messenger = breaker
		log.Info().Msg("firebase messaging initialized")
	} else {
		log.Warn().Msg("firebase credentials not set: notifications are stored but not pushed")
	}

	msgs, err := messages.Load(cfg.Notifications.MessagesFile)
	if err != nil {
		deps.Close()
		return nil, err
	}

	notificationService := notification.NewService(st.notifications, messenger)
	deps.Dispatcher = notification.NewAsyncDispatcher(notificationService, cfg.Notifications.Workers, cfg.Notifications.QueueSize, log)
	deps.Dispatcher.Start()

	rewardService := reward.NewService(st.rewards)
	ledgerService := ledger.NewService(ledger.Deps{
		Tx:           st.tx,
		Accounts:     st.accounts,
		Transactions: st.transactions,
		Idempotency:  idempotency,
		Notifier:     deps.Dispatcher,
		Rewards:      rewardService,
		Messages:     msgs,
	}, ledger.Options{
		UnitTimeout:          cfg.Ledger.UnitTimeout,
		IdempotencyTTL:       cfg.Ledger.IdempotencyTTL,
		BillRewardProgram:    cfg.Ledger.BillRewardProgram,
		BillRewardPoints:     int64(cfg.Ledger.BillRewardPoints),
		BudgetAlertThreshold: cfg.Ledger.BudgetAlertThreshold,
	})

	deps.Handlers = &httphandlers.Handlers{
		Health:        httphandlers.NewHealthHandler(checks),
		Accounts:      httphandlers.NewAccountHandler(account.NewService(st.accounts), rewardService),
		Transactions:  httphandlers.NewTransactionHandler(ledgerService),
		Transfers:     httphandlers.NewTransferHandler(ledgerService),
		Bills:         httphandlers.NewBillHandler(ledgerService),
		Budgets:       httphandlers.NewBudgetHandler(budget.NewService(st.budgets)),
		Notifications: httphandlers.NewNotificationHandler(notificationService),
	}

	return deps, nil
}

func (d *Dependencies) openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]httphandlers.HealthCheck) (*stores, error) {
	switch cfg.Database.Driver {
	case "memory":
		log.Warn().Msg("using in-memory store: data is lost on restart")
		s := memory.NewStore()
		return &stores{
			tx:            s,
			accounts:      s.Accounts(),
			transactions:  s.Transactions(),
			budgets:       s.Budgets(),
			rewards:       memory.NewRewardRepository(s),
			notifications: memory.NewNotificationRepository(s),
		}, nil

	case "postgres":
		db, err := postgres.New(cfg.Database.ConnectionString(), postgres.Options{})
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		checks["database"] = db.PingContext
		log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("connected to database")

		if cfg.Database.MigrateOnStartup {
			version, dirty, err := postgres.Migrate(db)
			if err != nil {
				return nil, err
			}
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("database migrated")
		}

		return &stores{
			tx:            postgres.NewTxManager(db, cfg.Ledger.LockTimeout),
			accounts:      postgres.NewAccountRepository(db),
			transactions:  postgres.NewTransactionRepository(db),
			budgets:       postgres.NewBudgetRepository(db),
			rewards:       postgres.NewRewardRepository(db),
			notifications: postgres.NewNotificationRepository(db),
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Database.Driver)
}

// Close drains pending notifications, then releases connections.
func (d *Dependencies) Close() {
	if d.Dispatcher != nil {
		d.Dispatcher.Shutdown(10 * time.Second)
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
