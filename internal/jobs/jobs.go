// Package jobs runs the shop's periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"vibeshop.com/app/internal/config"
	"vibeshop.com/app/internal/metrics"
	"vibeshop.com/app/internal/modules/products"
)

type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type LowStockSource interface {
	LowStock(ctx context.Context, threshold int) ([]products.Product, error)
}

type DigestSender interface {
	LowStockDigest(ctx context.Context, items []products.Product)
}

type Deps struct {
	Sessions SessionPurger
	Stock    LowStockSource
	Digest   DigestSender
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Scheduler struct {
	cron    *cron.Cron
	deps    Deps
	cfg     config.JobsConfig
	logger  *slog.Logger
	timeout time.Duration
}

// New validates every schedule up front so a typo fails startup instead of
// silently never running.
func New(cfg config.JobsConfig, loc *time.Location, deps Deps) (*Scheduler, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	cl := cronLogger{deps.Logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		deps:    deps,
		cfg:     cfg,
		logger:  deps.Logger,
		timeout: 5 * time.Minute,
	}

	add := func(name, spec string, run func(context.Context) error) error {
		if spec == "" {
			return nil
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("jobs: invalid schedule for %s %q: %w", name, spec, err)
		}
		_, err := s.cron.AddFunc(spec, func() { s.run(name, run) })
		return err
	}
	if deps.Sessions != nil {
		if err := add("session_purge", cfg.SessionPurge, s.PurgeSessions); err != nil {
			return nil, err
		}
	}
	if deps.Stock != nil && deps.Digest != nil {
		if err := add("low_stock_digest", cfg.LowStockDigest, s.LowStockDigest); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("jobs_started", "entries", len(s.cron.Entries()))
}

// Stop waits for running jobs or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	err := fn(ctx)
	if s.deps.Metrics != nil {
		s.deps.Metrics.Jobs.WithLabelValues(name, metrics.Outcome(err)).Inc()
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "job_failed", "job", name, "err", err)
		return
	}
	s.logger.InfoContext(ctx, "job_done", "job", name, "took", time.Since(start))
}

func (s *Scheduler) PurgeSessions(ctx context.Context) error {
	n, err := s.deps.Sessions.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "sessions_purged", "count", n)
	return nil
}

func (s *Scheduler) LowStockDigest(ctx context.Context) error {
	items, err := s.deps.Stock.LowStock(ctx, s.cfg.LowStockThreshold)
	if err != nil {
		return err
	}
	s.deps.Digest.LowStockDigest(ctx, items)
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug("cron_"+msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron_"+msg, append(kv, "err", err)...)
}
