// Package observer defines the observability capability the engine emits
// events through — spec.md §6's Observer, extended with the per-event
// hooks spec.md §4 (review pause, completion, plan/step granularity,
// backtrack) names by event name but does not tabulate as methods. An
// Observer is composable: NoOp satisfies it trivially and Multi fans a
// single call out to several.
package observer

import (
	"time"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// Observer receives every lifecycle event the engine produces while
// driving an execution. No method may block the driver for long; a slow
// Observer slows the whole execution since calls are synchronous.
type Observer interface {
	OnNodeStart(executionID, nodeID string)
	OnNodeComplete(executionID, nodeID string, result state.NodeResult)
	OnAgentStart(executionID, nodeID, agentID string)
	OnAgentComplete(executionID, nodeID, agentID string, err error)
	OnCheckpoint(executionID string, snap *state.Snapshot)
	OnBacktrack(executionID string, evt state.BacktrackEvent)
	OnExecutionPaused(executionID, nodeID, reason string)
	OnExecutionCompleted(executionID string, status workflow.ExitStatus)

	OnPlannerStart(executionID, nodeID, planID, source string, stepCount int)
	OnPlannerComplete(executionID, nodeID, planID string, success bool)
	OnPlanRevised(executionID, nodeID, oldPlanID, newPlanID, reason string)
	OnStepStart(executionID, nodeID, planID string, stepIndex int, toolName string)
	OnStepComplete(executionID, nodeID, planID string, stepIndex int, toolName string, err error, duration time.Duration)
}

// NoOp implements Observer with every method doing nothing. Embed it to
// pick up the methods an observer doesn't care about.
type NoOp struct{}

func (NoOp) OnNodeStart(string, string)                                                {}
func (NoOp) OnNodeComplete(string, string, state.NodeResult)                           {}
func (NoOp) OnAgentStart(string, string, string)                                       {}
func (NoOp) OnAgentComplete(string, string, string, error)                             {}
func (NoOp) OnCheckpoint(string, *state.Snapshot)                                      {}
func (NoOp) OnBacktrack(string, state.BacktrackEvent)                                  {}
func (NoOp) OnExecutionPaused(string, string, string)                                  {}
func (NoOp) OnExecutionCompleted(string, workflow.ExitStatus)                          {}
func (NoOp) OnPlannerStart(string, string, string, string, int)                        {}
func (NoOp) OnPlannerComplete(string, string, string, bool)                            {}
func (NoOp) OnPlanRevised(string, string, string, string, string)                      {}
func (NoOp) OnStepStart(string, string, string, int, string)                           {}
func (NoOp) OnStepComplete(string, string, string, int, string, error, time.Duration)  {}

var _ Observer = NoOp{}

// Multi fans a single event out to every contained Observer in order.
type Multi []Observer

func (m Multi) OnNodeStart(executionID, nodeID string) {
	for _, o := range m {
		o.OnNodeStart(executionID, nodeID)
	}
}

func (m Multi) OnNodeComplete(executionID, nodeID string, result state.NodeResult) {
	for _, o := range m {
		o.OnNodeComplete(executionID, nodeID, result)
	}
}

func (m Multi) OnAgentStart(executionID, nodeID, agentID string) {
	for _, o := range m {
		o.OnAgentStart(executionID, nodeID, agentID)
	}
}

func (m Multi) OnAgentComplete(executionID, nodeID, agentID string, err error) {
	for _, o := range m {
		o.OnAgentComplete(executionID, nodeID, agentID, err)
	}
}

func (m Multi) OnCheckpoint(executionID string, snap *state.Snapshot) {
	for _, o := range m {
		o.OnCheckpoint(executionID, snap)
	}
}

func (m Multi) OnBacktrack(executionID string, evt state.BacktrackEvent) {
	for _, o := range m {
		o.OnBacktrack(executionID, evt)
	}
}

func (m Multi) OnExecutionPaused(executionID, nodeID, reason string) {
	for _, o := range m {
		o.OnExecutionPaused(executionID, nodeID, reason)
	}
}

func (m Multi) OnExecutionCompleted(executionID string, status workflow.ExitStatus) {
	for _, o := range m {
		o.OnExecutionCompleted(executionID, status)
	}
}

func (m Multi) OnPlannerStart(executionID, nodeID, planID, source string, stepCount int) {
	for _, o := range m {
		o.OnPlannerStart(executionID, nodeID, planID, source, stepCount)
	}
}

func (m Multi) OnPlannerComplete(executionID, nodeID, planID string, success bool) {
	for _, o := range m {
		o.OnPlannerComplete(executionID, nodeID, planID, success)
	}
}

func (m Multi) OnPlanRevised(executionID, nodeID, oldPlanID, newPlanID, reason string) {
	for _, o := range m {
		o.OnPlanRevised(executionID, nodeID, oldPlanID, newPlanID, reason)
	}
}

func (m Multi) OnStepStart(executionID, nodeID, planID string, stepIndex int, toolName string) {
	for _, o := range m {
		o.OnStepStart(executionID, nodeID, planID, stepIndex, toolName)
	}
}

func (m Multi) OnStepComplete(executionID, nodeID, planID string, stepIndex int, toolName string, err error, duration time.Duration) {
	for _, o := range m {
		o.OnStepComplete(executionID, nodeID, planID, stepIndex, toolName, err, duration)
	}
}

var _ Observer = Multi(nil)
