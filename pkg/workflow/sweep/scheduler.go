// Package sweep runs the periodic escalation sweep on a cron schedule.
//
// The escalation engine itself is sweep-agnostic; this package only
// decides when AutoEscalateOverdue runs. The sweep is idempotent, so an
// overlapping or repeated run is harmless.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"vigil-hq/vigil/pkg/workflow"
)

// Scheduler triggers the overdue-case escalation sweep on a cron
// schedule (e.g. hourly).
type Scheduler struct {
	engine   *workflow.EscalationEngine
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a sweep scheduler.
//
// Common cron expressions:
//   - "0 * * * *"   - Hourly
//   - "*/30 * * * *" - Every 30 minutes
//   - "0 6 * * *"   - Daily at 6 AM
//
// If schedule is empty, Start does nothing.
func NewScheduler(engine *workflow.EscalationEngine, schedule string) *Scheduler {
	return &Scheduler{
		engine:   engine,
		schedule: schedule,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "workflow.sweep"),
	}
}

// Start begins the scheduled sweeps and stops them when ctx is
// cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule escalation sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("escalation sweep scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runSweep(ctx context.Context) {
	s.logger.Info("starting scheduled escalation sweep")

	results, err := s.engine.AutoEscalateOverdue(ctx)
	if err != nil {
		s.logger.Error("scheduled escalation sweep failed", "error", err)
		return
	}

	escalated, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Escalated:
			escalated++
		}
	}

	if escalated > 0 || failed > 0 {
		s.logger.Info("scheduled escalation sweep completed",
			"escalated", escalated,
			"failed", failed,
		)
	} else {
		s.logger.Debug("scheduled escalation sweep completed, nothing due")
	}
}

// Stop stops the scheduler and waits for a running sweep to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("escalation sweep scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sweep time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
