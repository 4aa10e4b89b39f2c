// Package scheduler runs crawl jobs on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler fires Job once at start and then on every cron tick.
// A tick that fires while the previous run is still going is skipped.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	job     Job
	logger  *zap.Logger
	running atomic.Bool
}

// New parses spec (standard five-field cron or @every/@hourly descriptors).
func New(spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, errors.New("scheduler requires a job")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		job:    job,
		logger: logger,
	}, nil
}

// Run executes the job immediately, then on schedule until ctx ends.
// It waits for a running job to return before it returns itself.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	s.logger.Info("scheduler started", zap.String("cron", s.spec))

	s.tick(ctx)
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// tick runs the job unless a previous run is still in progress.
// It reports whether the job ran.
func (s *Scheduler) tick(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous crawl still running, skipping tick")
		return false
	}
	defer s.running.Store(false)

	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled crawl failed", zap.Error(err))
	}
	return true
}
