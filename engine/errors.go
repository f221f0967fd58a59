package engine

import "fmt"

// SystemFailure wraps a driver-level error that is not attributable to any
// single node's execution — a checkpoint write, a lease acquisition, or a
// malformed transition graph discovered only at runtime. It always
// terminates the execution with a Failed result; the last successful
// checkpoint remains valid for a later Resume (spec.md §7 "SystemFailure").
type SystemFailure struct {
	Op  string
	Err error
}

func (e *SystemFailure) Error() string {
	return fmt.Sprintf("engine: %s: %v", e.Op, e.Err)
}

func (e *SystemFailure) Unwrap() error { return e.Err }
