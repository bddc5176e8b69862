// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/dmitrijs2005/playtracker/internal/logging"
)

// Reconciler rewrites every cached progress counter from the plays table.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int64, error)
}

type Scheduler struct {
	sched gocron.Scheduler
	log   logging.Logger
}

// New registers the progress reconcile job. It runs once on Start and then
// every interval; a run still in progress when the next one is due is
// skipped.
func New(interval time.Duration, r Reconciler, log logging.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reconcile interval must be positive, got %s", interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{sched: sched, log: log}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.reconcile, r),
		gocron.WithName("reconcile-progress"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register reconcile job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown waits for a running job to finish.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) reconcile(ctx context.Context, r Reconciler) {
	start := time.Now()
	n, err := r.ReconcileAll(ctx)
	if err != nil {
		s.log.Error(ctx, "progress reconcile failed", "error", err.Error())
		return
	}
	s.log.Info(ctx, "progress reconciled", "items", n, "duration_ms", time.Since(start).Milliseconds())
}
