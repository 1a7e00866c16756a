// Package main is the background refresher: it loads the configured
// accounts, logs them in, refreshes their records on an interval and keeps
// the cache snapshotted so a restart does not lose the last known state.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/papillon-hub/papillon-core/config"
	"github.com/papillon-hub/papillon-core/internal/application/aggregate"
	"github.com/papillon-hub/papillon-core/internal/domain/account"
	"github.com/papillon-hub/papillon-core/internal/domain/grades"
	"github.com/papillon-hub/papillon-core/internal/domain/shared"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/ecoledirecte"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/pronote"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/skolengo"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/transport"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/turboself"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/external/uphf"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/persistence/memory"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/persistence/postgres"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/persistence/redis"
	"github.com/papillon-hub/papillon-core/internal/infrastructure/service"
	"github.com/papillon-hub/papillon-core/pkg/epoch"
	"github.com/papillon-hub/papillon-core/pkg/logger"
	"github.com/papillon-hub/papillon-core/pkg/sealbox"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.App.LogLevel),
		AddCaller: true,
	})
	log.Info("starting refresher",
		logger.String("app", cfg.App.Name),
		logger.Duration("interval", cfg.Refresh.Interval),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Persistence
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.EnsureSchema(ctx); err != nil {
		return err
	}
	accounts := postgres.NewAccountRepository(dbConn)

	store := memory.NewCacheStore()

	var snapshots *redis.SnapshotStore
	if cfg.Redis.Enabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		snapshots, err = redis.NewSnapshotStore(ctx, redisCfg, log)
		if err != nil {
			log.Warn("redis unavailable, snapshots disabled", logger.Err(err))
			snapshots = nil
		} else {
			defer snapshots.Close()
			if err := snapshots.Load(ctx, store); err != nil && err != redis.ErrSnapshotMissing {
				log.Warn("snapshot restore failed", logger.Err(err))
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Backend adapters and dispatch
	// ─────────────────────────────────────────────────────────────────────────
	box, err := sealbox.New([]byte(cfg.App.SealKey))
	if err != nil {
		return fmt.Errorf("failed to init sealbox: %w", err)
	}

	newClient := func(name, baseURL string) *transport.Client {
		tc := transport.DefaultConfig(name, baseURL)
		tc.Timeout = cfg.Backends.RequestTimeout
		tc.MaxAttempts = cfg.Backends.MaxAttempts
		tc.Logger = log
		return transport.NewClient(tc)
	}

	dispatcher := service.NewDispatcher(accounts, log)
	dispatcher.Register(account.ServicePronote,
		pronote.New(newClient("pronote", cfg.Backends.PronoteURL), box, log))
	dispatcher.Register(account.ServiceEcoleDirecte,
		ecoledirecte.New(newClient("ecoledirecte", cfg.Backends.EcoleDirecteURL), box, log))
	dispatcher.Register(account.ServiceSkolengo,
		skolengo.New(newClient("skolengo", cfg.Backends.SkolengoURL), box, log))
	dispatcher.Register(account.ServiceUPHF,
		uphf.New(newClient("uphf", cfg.Backends.UPHFURL), box, log))
	dispatcher.Register(account.ServiceTurboself,
		turboself.New(newClient("turboself", cfg.Backends.TurboselfURL), box, log))

	svc := aggregate.NewService(store, dispatcher, grades.NewEngine(grades.DefaultMemoSize), log)

	// ─────────────────────────────────────────────────────────────────────────
	// Refresh and snapshot loops
	// ─────────────────────────────────────────────────────────────────────────
	refreshAll := func(ctx context.Context) {
		list, err := accounts.List(ctx)
		if err != nil {
			log.Error("failed to list accounts", logger.Err(err))
			return
		}

		week := epoch.ToWeekNumber(time.Now())
		for _, acct := range list {
			if acct.IsVirtual() {
				continue
			}
			if !acct.Authenticated() {
				if err := dispatcher.Login(ctx, acct); err != nil {
					log.Warn("login failed",
						logger.AccountID(acct.ID.String()),
						logger.Service(string(acct.Service)),
						logger.Err(err),
					)
					continue
				}
			}
			if err := svc.RefreshCurrent(ctx, acct, week); err != nil {
				if shared.IsUnauthenticated(err) {
					// force a fresh login on the next pass
					acct.Session = nil
				}
				log.Warn("refresh failed",
					logger.AccountID(acct.ID.String()),
					logger.Err(err),
				)
			}
		}
	}

	refreshTicker := time.NewTicker(cfg.Refresh.Interval)
	defer refreshTicker.Stop()
	snapshotTicker := time.NewTicker(cfg.Refresh.SnapshotInterval)
	defer snapshotTicker.Stop()

	refreshAll(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-refreshTicker.C:
			refreshAll(ctx)

		case <-snapshotTicker.C:
			if snapshots != nil {
				if err := snapshots.Save(ctx, store); err != nil {
					log.Warn("snapshot save failed", logger.Err(err))
				}
			}

		case sig := <-sigCh:
			log.Info("received shutdown signal", logger.String("signal", sig.String()))

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
			defer cancel()
			if snapshots != nil {
				if err := snapshots.Save(shutdownCtx, store); err != nil {
					log.Warn("final snapshot failed", logger.Err(err))
				}
			}
			log.Info("shutdown completed")
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
