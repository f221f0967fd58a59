package recovery

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// ResumeFunc resumes one claimed execution from its latest snapshot. The
// engine package supplies this as a thin wrapper over engine.Executor.Resume.
type ResumeFunc func(ctx context.Context, lease Lease) error

// Sweeper runs Manager.ClaimStaleExecutions on a fixed interval and resumes
// every execution it successfully claims. Running this on multiple nodes
// concurrently is expected and safe: the claim itself is linearizable
// (spec.md §4.6), so two sweepers racing on the same stale row each get a
// disjoint subset of the claimed rows back.
type Sweeper struct {
	leases Manager
	cfg    *Config
	resume ResumeFunc
	cron   *cron.Cron
}

// NewSweeper constructs a Sweeper. cfg.SetDefaults should already have
// been called.
func NewSweeper(leases Manager, cfg *Config, resume ResumeFunc) *Sweeper {
	return &Sweeper{leases: leases, cfg: cfg, resume: resume}
}

// Start schedules the sweep job at cfg.SweepInterval.
func (s *Sweeper) Start(ctx context.Context) error {
	if !s.cfg.IsEnabled() {
		return nil
	}
	s.cron = cron.New()
	spec := "@every " + s.cfg.SweepInterval.String()
	_, err := s.cron.AddFunc(spec, func() { s.tick(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the sweep job and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) tick(ctx context.Context) {
	claimed, err := s.leases.ClaimStaleExecutions(ctx, s.cfg.StaleThreshold)
	if err != nil {
		slog.Warn("recovery: claim stale executions failed", "node", s.leases.ThisNodeID(), "error", err)
		return
	}
	for _, lease := range claimed {
		lease := lease
		if err := s.resume(ctx, lease); err != nil {
			slog.Warn("recovery: resume claimed execution failed",
				"execution_id", lease.ExecutionID, "tenant", lease.TenantID, "error", err)
		}
	}
}
