package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"flightlog/internal/adapters/api"
	web "flightlog/internal/adapters/http"
	"flightlog/internal/adapters/http/perf"
	"flightlog/internal/adapters/storage"
	store "flightlog/internal/adapters/storage/notification"
	"flightlog/internal/application/notifications"
	"flightlog/internal/config"
	"flightlog/internal/domain/stats"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnvFiles(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(os.Getenv("FLIGHTLOG_CONFIG"), os.Getenv)
	if err != nil {
		return err
	}
	slog.SetDefault(cfg.Log.NewLogger(os.Stderr))

	collector := perf.NewCollector(perf.DefaultRingSize)

	client, err := api.NewClient(cfg.API.BaseURL, &http.Client{
		Transport: api.NewTimedTransport(http.DefaultTransport, collector),
		Timeout:   cfg.API.Timeout,
	})
	if err != nil {
		return err
	}

	notes, health, closeStore, err := openNotificationStore(cfg, collector)
	if err != nil {
		return err
	}
	defer closeStore()

	queue := notifications.NewQueue(notes, notifications.Options{
		Mode: cfg.NotificationMode(),
		TTL:  cfg.Notifications.TTL,
	})
	sweepStop := make(chan struct{})
	queue.StartSweeper(cfg.Notifications.SweepInterval, sweepStop)
	defer close(sweepStop)

	csrfKey, err := cfg.CSRFKey()
	if err != nil {
		return err
	}

	handler := web.NewMux(web.Deps{
		API:       client,
		Queue:     queue,
		Collector: collector,
		UI: web.UIOptions{
			AllowFirstClass: cfg.UI.AllowFirstClass,
			Chart: stats.ChartOptions{
				Months:   cfg.UI.StatsMonths,
				MaxBarPx: cfg.UI.MaxBarPx,
				MinBarPx: cfg.UI.MinBarPx,
			},
			RedirectDelay: cfg.UI.RedirectDelay,
		},
		CSRFKey:            csrfKey,
		Secure:             cfg.IsProduction(),
		TrustedOrigins:     cfg.Security.TrustedOrigins,
		RateLimitPerSecond: cfg.Security.RateLimitPerSecond,
		HealthChecks:       health,
		ExposePerf:         cfg.Server.ExposePerf,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting",
			"version", version,
			"addr", cfg.Server.Addr,
			"env", cfg.Env,
			"api", client.BaseURL(),
			"notifications", cfg.Notifications.Backend,
			"mode", string(queue.Mode()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openNotificationStore builds the configured notification backend plus its
// health check. The returned close func is always non-nil.
func openNotificationStore(cfg config.Config, collector *perf.Collector) (store.Store, map[string]func(context.Context) error, func(), error) {
	switch cfg.Notifications.Backend {
	case config.BackendSQLite:
		db, err := storage.Open(cfg.Notifications.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := storage.InitDB(db); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		timed := storage.NewTimedDB(db, collector, cfg.Log.SlowQueryMs)
		checks := map[string]func(context.Context) error{"sqlite": timed.Ping}
		return store.NewSQLiteStore(timed), checks, func() { timed.Close() }, nil

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Notifications.RedisAddr,
			Password: cfg.Notifications.RedisPassword,
			DB:       cfg.Notifications.RedisDB,
		})
		rs := store.NewRedisStore(rdb, cfg.Notifications.RedisPrefix)
		checks := map[string]func(context.Context) error{"redis": rs.Ping}
		return rs, checks, func() { rdb.Close() }, nil

	default:
		return store.NewMemoryStore(), nil, func() {}, nil
	}
}
