package recovery

import (
	"context"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
)

// Heartbeater runs Manager.UpdateHeartbeats on a fixed interval for as
// long as this process owns leases, retrying transient storage errors with
// exponential backoff before giving up for that tick (grounded in
// dotcommander-vybe's backoff dependency; the retry-then-log-and-continue
// pattern mirrors the teacher's CheckpointHooks, which never let a failed
// checkpoint write abort the caller).
type Heartbeater struct {
	leases Manager
	cfg    *Config
	cron   *cron.Cron
}

// NewHeartbeater constructs a Heartbeater. cfg.SetDefaults should already
// have been called.
func NewHeartbeater(leases Manager, cfg *Config) *Heartbeater {
	return &Heartbeater{leases: leases, cfg: cfg}
}

// Start schedules the heartbeat job at cfg.HeartbeatInterval and begins
// running it. Stop must be called to release the underlying cron runner.
func (h *Heartbeater) Start(ctx context.Context) error {
	if !h.cfg.IsEnabled() {
		return nil
	}
	h.cron = cron.New()
	spec := "@every " + h.cfg.HeartbeatInterval.String()
	_, err := h.cron.AddFunc(spec, func() { h.tick(ctx) })
	if err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

// Stop halts the heartbeat job and waits for any in-flight tick to finish.
func (h *Heartbeater) Stop() {
	if h.cron == nil {
		return
	}
	<-h.cron.Stop().Done()
}

func (h *Heartbeater) tick(ctx context.Context) {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	err := backoff.Retry(func() error {
		return h.leases.UpdateHeartbeats(ctx)
	}, bo)
	if err != nil {
		slog.Warn("recovery: heartbeat update failed after retries",
			"node", h.leases.ThisNodeID(), "error", err)
	}
}
