package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vibeshop.com/app/internal/app"
	"vibeshop.com/app/internal/config"
	"vibeshop.com/app/internal/database"
	"vibeshop.com/app/internal/http/middleware"
	"vibeshop.com/app/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "vibeshop:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; production uses real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Environ)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB, logger)
	if err != nil {
		return err
	}
	if cfg.DB.AutoMigrate {
		err = database.AutoMigrate(db)
	} else {
		err = database.Up(ctx, db)
	}
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	a, err := app.New(ctx, cfg, db, logger, app.Options{Redis: middleware.NewRedisClient(cfg.RateLimit)})
	if err != nil {
		return err
	}
	router, err := a.Router()
	if err != nil {
		return err
	}
	sched, err := a.Scheduler()
	if err != nil {
		return err
	}
	if cfg.Jobs.Enabled {
		sched.Start()
	}

	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", cfg.App.Addr, "env", cfg.App.Env)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("server_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "err", err)
	}
	sched.Stop(shutdownCtx)
	a.Notifier.Wait()
	return nil
}
