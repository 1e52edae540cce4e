package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/crucial707/hci-lending/internal/config"
	"github.com/crucial707/hci-lending/internal/db"
	"github.com/crucial707/hci-lending/internal/idempotency"
	"github.com/crucial707/hci-lending/internal/lending"
	"github.com/crucial707/hci-lending/internal/scheduler"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.LogFormat, cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		db.Options{MaxOpenConns: cfg.DBMaxOpenConns, MaxIdleConns: cfg.DBMaxIdleConns},
	)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if cfg.MigrateOnStart {
		version, err := db.Run(cfg.DatabaseURL())
		if err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		slog.Info("schema up to date", "version", version)
	}

	var idem idempotency.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		idem = idempotency.NewRedisStore(rdb)
		slog.Info("idempotency store: redis", "addr", cfg.RedisAddr)
	} else {
		idem = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	}

	svc := lending.NewService(database, lending.Options{
		Timeout:    cfg.StoreTimeout,
		LoanPeriod: cfg.LoanPeriod,
		Logger:     slog.Default(),
	})

	sched := scheduler.New(svc, slog.Default())
	if err := sched.Schedule(cfg.OverdueSweepCron, cfg.ConsistencySweepCron); err != nil {
		slog.Error("scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, svc, cfg, idem),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "port", cfg.Port, "tls", cfg.TLSCertFile != "")
		var err error
		if cfg.TLSCertFile != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		slog.Warn("sweeps still running at shutdown")
	}
}

func newLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
