package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewearhq/rewear-backend/internal/api"
	"github.com/rewearhq/rewear-backend/internal/auth"
	"github.com/rewearhq/rewear-backend/internal/config"
	"github.com/rewearhq/rewear-backend/internal/db"
	"github.com/rewearhq/rewear-backend/internal/engine"
	"github.com/rewearhq/rewear-backend/internal/logger"
	"github.com/rewearhq/rewear-backend/internal/metrics"
	"github.com/rewearhq/rewear-backend/internal/notify"
	"github.com/rewearhq/rewear-backend/internal/repository/postgres"
	"github.com/rewearhq/rewear-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	store := postgres.NewStore(pool, cfg.LockWait)
	wp := worker.NewPool(cfg.WorkerCount)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	var emitter notify.Emitter = notify.NewStoreEmitter(store)
	if cfg.NotifyDriver == "log" {
		emitter = notify.LogEmitter{}
	}
	eng := engine.New(store, emitter, wp, cfg)

	metrics.Init()
	r := api.NewRouter(cfg, eng, tm)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
