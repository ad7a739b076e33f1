// Package schedule runs the daily puzzle refresh just after the NYT rollover.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lottawords/internal/freshness"
	"lottawords/internal/logging"
)

// JobID names the refresh job in logs.
const JobID = "fetch_daily_puzzle"

// Job is the work run on each tick.
type Job func(ctx context.Context)

// Scheduler wraps a cron runner with a single refresh job.
type Scheduler struct {
	cron *cron.Cron
	spec string
	job  Job

	mu      sync.Mutex
	sched   cron.Schedule
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithSpec replaces the rollover-derived cron expression.
func WithSpec(spec string) Option {
	return func(s *Scheduler) { s.spec = spec }
}

// New creates a scheduler that runs job at every rollover.
func New(r freshness.Rollover, job Job, opts ...Option) *Scheduler {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cronLogger{log: logging.Get(logging.CategorySchedule).Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		spec: r.CronSpec(),
		job:  job,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the job and starts the runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		s.cancel()
		return fmt.Errorf("schedule %s %q: %w", JobID, s.spec, err)
	}
	s.cron.Schedule(sched, cron.FuncJob(s.run))
	s.sched = sched
	s.started = true
	s.cron.Start()

	logging.Get(logging.CategorySchedule).Info("Scheduler started",
		zap.String("job", JobID),
		zap.String("spec", s.spec),
		zap.Time("next", sched.Next(time.Now())))
	return nil
}

func (s *Scheduler) run() {
	log := logging.Get(logging.CategorySchedule)
	log.Info("running scheduled job", zap.String("job", JobID))
	timer := logging.StartTimer(logging.CategorySchedule, JobID)
	s.job(s.ctx)
	timer.Stop()
}

// Next returns the next run time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}
	}
	return s.sched.Next(time.Now())
}

// Stop halts the runner and waits for a running job to finish or ctx to
// expire. A job still running when ctx expires has its context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		logging.Get(logging.CategorySchedule).Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done.Done()
		return ctx.Err()
	}
}

// cronLogger routes cron's logging through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
