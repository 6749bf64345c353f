// Package scheduler fires the trigger pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. The context carries the per-run timeout.
type Job func(ctx context.Context) error

// Scheduler runs registered jobs on UTC cron schedules. Runs of the same job
// may overlap; every job it drives is safe to repeat.
type Scheduler struct {
	mu      sync.Mutex
	parser  cron.Parser
	c       *cron.Cron
	log     *slog.Logger
	baseCtx context.Context
	started bool
}

// New returns a stopped Scheduler.
func New(log *slog.Logger) *Scheduler {
	s := &Scheduler{
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		log:     log,
		baseCtx: context.Background(),
	}
	s.c = cron.New(
		cron.WithParser(s.parser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{log})),
	)
	return s
}

// Add registers job under name. spec is a five-field cron expression or a
// descriptor such as "@every 1m".
func (s *Scheduler) Add(name, spec string, timeout time.Duration, job Job) error {
	if job == nil {
		return errors.New("scheduler: nil job")
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	_, err := s.c.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.baseCtx
		s.mu.Unlock()
		s.run(ctx, name, timeout, job)
	})
	return err
}

// Start begins firing jobs. Runs started after ctx is cancelled see a done context.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.baseCtx = ctx
	s.c.Start()
	s.log.Info("scheduler started", slog.Int("jobs", len(s.c.Entries())))
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	select {
	case <-s.c.Stop().Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run(ctx context.Context, name string, timeout time.Duration, job Job) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error("scheduled job failed",
			slog.String("job", name),
			slog.Duration("took", time.Since(start)),
			slog.Any("err", err),
		)
		return
	}
	s.log.Debug("scheduled job finished",
		slog.String("job", name),
		slog.Duration("took", time.Since(start)),
	)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
