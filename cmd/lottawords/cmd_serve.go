package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lottawords/internal/config"
	"lottawords/internal/logging"
	"lottawords/internal/schedule"
	"lottawords/internal/server"
	"lottawords/internal/store"
	"lottawords/internal/telemetry"
)

// stopTimeout bounds how long shutdown waits for the scheduled job and the
// browser.
const stopTimeout = 30 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Get(logging.CategoryBoot)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	st, err := store.Open(storeOptions(cfg))
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		// Requests still work uncached; every one will scrape.
		log.Error("cache unreachable", zap.String("backend", cfg.Cache.Backend), zap.Error(err))
	}

	fetcher, mgr := buildFetcher(cfg)
	if mgr != nil {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			_ = mgr.Shutdown(sctx)
		}()
	}
	if err := checkBrowser(ctx, cfg, mgr); err != nil {
		return err
	}

	svc, err := newService(cfg, fetcher, st)
	if err != nil {
		return err
	}
	// Runs before the store and browser defers above.
	defer svc.Close()

	if cfg.Schedule.Enabled {
		r, err := rollover(cfg)
		if err != nil {
			return err
		}
		sched := schedule.New(r, func(ctx context.Context) { svc.Refresh(ctx) })
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
			defer cancel()
			if err := sched.Stop(sctx); err != nil {
				log.Warn("scheduler stop", zap.Error(err))
			}
		}()
	}

	if w, err := config.NewWatcher(configPath, func(c *config.Config) {
		if verbose {
			return
		}
		logging.SetLevel(c.Logging.Level)
		log.Info("log level reloaded", zap.String("level", logging.Level().String()))
	}); err != nil {
		log.Warn("config watch disabled", zap.Error(err))
	} else {
		w.Start(ctx)
		defer w.Stop()
	}

	go svc.Warm(ctx)

	srv := server.New(server.Config{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.GetRequestTimeout(),
	}, svc)
	log.Info("LottaWords starting",
		zap.String("addr", cfg.Addr()),
		zap.String("env", cfg.Env),
		zap.Bool("schedule", cfg.Schedule.Enabled))
	return srv.ListenAndServe(ctx)
}
