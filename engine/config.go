package engine

import (
	"fmt"
	"time"
)

// Config tunes the driver loop's ambient behavior. It mirrors the pointer/
// zero-value pattern recovery.Config uses: a zero Config is valid and
// SetDefaults fills in the rest.
type Config struct {
	// NodeTimeout bounds a single NodeExecutor.Execute call. Zero disables
	// the timeout (the node runs until it returns or ctx is canceled by the
	// caller). On expiry the driver converts it to a Failure result with
	// reason "timeout" rather than propagating context.DeadlineExceeded.
	NodeTimeout time.Duration

	// MaxPlanRevisions is defaulted and validated here; the driver does not
	// read it or hand it to any plan executor. Default: 2.
	MaxPlanRevisions int
}

// SetDefaults fills in zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	if c.MaxPlanRevisions <= 0 {
		c.MaxPlanRevisions = 2
	}
}

// Validate checks Config's invariants.
func (c *Config) Validate() error {
	if c.NodeTimeout < 0 {
		return fmt.Errorf("engine: node timeout must not be negative")
	}
	if c.MaxPlanRevisions <= 0 {
		return fmt.Errorf("engine: max plan revisions must be positive")
	}
	return nil
}
