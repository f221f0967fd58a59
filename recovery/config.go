// Package recovery implements the lease-based distributed recovery
// protocol spec.md §4.6 describes: lease acquisition at execution start,
// periodic heartbeating, and a sweeper that claims executions whose
// heartbeat has gone stale and resumes them from their last snapshot.
package recovery

import (
	"fmt"
	"time"
)

// Config tunes the recovery subsystem's intervals, mirroring the teacher's
// pkg/checkpoint/config.go Config/RecoveryConfig shape: pointer-bool fields
// distinguish "unset" from "explicitly false", and SetDefaults/Validate
// are run once at construction.
type Config struct {
	// HeartbeatInterval is how often this node's heartbeat job refreshes
	// lastHeartbeatAt for every execution it owns. Default: 10s.
	HeartbeatInterval time.Duration

	// StaleThreshold is how long a lease may go without a heartbeat before
	// it is eligible for claiming by another node. Default: 45s.
	StaleThreshold time.Duration

	// SweepInterval is how often the sweeper job looks for stale leases.
	// Default: 15s.
	SweepInterval time.Duration

	// Enabled toggles whether the heartbeat and sweeper jobs run at all.
	// A single-process deployment with no crash-recovery requirement may
	// disable this. Default: true.
	Enabled *bool
}

// SetDefaults fills in zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 10 * time.Second
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = 45 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 15 * time.Second
	}
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
}

// IsEnabled reports whether the recovery jobs should run.
func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled != nil && *c.Enabled
}

// Validate checks the configuration's invariants: StaleThreshold must
// exceed HeartbeatInterval, or every lease would appear stale the moment
// it is written.
func (c *Config) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("recovery: heartbeat interval must be positive")
	}
	if c.StaleThreshold <= c.HeartbeatInterval {
		return fmt.Errorf("recovery: stale threshold (%s) must exceed heartbeat interval (%s)", c.StaleThreshold, c.HeartbeatInterval)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("recovery: sweep interval must be positive")
	}
	return nil
}
