// Package sweeper runs the governance maintenance jobs on a cron schedule:
// expiring overdue requests, reconciling stuck approvals and pruning idle
// rate-limit buckets.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Engine is the part of the governance service the sweeper drives.
type Engine interface {
	SweepExpired(ctx context.Context) (int, error)
	ReconcileCommits(ctx context.Context) (int, error)
}

// Pruner drops idle state, such as rate-limit buckets.
type Pruner interface {
	Prune(now time.Time) int
}

type Sweeper struct {
	engine   Engine
	pruners  []Pruner
	logger   *slog.Logger
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithPruner adds p to every run.
func WithPruner(p Pruner) Option {
	return func(s *Sweeper) {
		s.pruners = append(s.pruners, p)
	}
}

// WithTimeout bounds a single run.
func WithTimeout(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New validates schedule, a standard cron spec or a descriptor such as
// "@every 1m".
func New(engine Engine, schedule string, opts ...Option) (*Sweeper, error) {
	s := &Sweeper{
		engine:   engine,
		logger:   slog.Default(),
		schedule: schedule,
		timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	cl := cronLogger{logger: s.logger}
	s.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	return s, nil
}

// Run schedules the jobs and blocks until ctx is cancelled. A run in
// progress is allowed to finish.
func (s *Sweeper) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.ErrorContext(ctx, "governance sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.logger.InfoContext(ctx, "governance sweeper started", "schedule", s.schedule)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("governance sweeper stopped")
	return nil
}

// RunOnce expires overdue requests, reconciles pending commits and prunes.
// Every step runs even if an earlier one fails.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var errs []error
	expired, err := s.engine.SweepExpired(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("sweep expired: %w", err))
	}
	committed, err := s.engine.ReconcileCommits(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("reconcile commits: %w", err))
	}
	pruned := 0
	now := time.Now()
	for _, p := range s.pruners {
		pruned += p.Prune(now)
	}

	if expired > 0 || committed > 0 || pruned > 0 {
		s.logger.InfoContext(ctx, "governance sweep finished",
			"expired", expired,
			"committed", committed,
			"pruned", pruned,
		)
	}
	return errors.Join(errs...)
}

// cronLogger adapts slog to cron's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
