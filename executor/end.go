package executor

import (
	"context"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// End returns a terminal result carrying the node's configured exit
// status. The driver treats any node result with Status == StatusEnd as
// the end of the execution (spec.md §4.1 step 1, §4.2).
type End struct{}

func (e *End) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	return &state.NodeResult{
		Status:   state.StatusEnd,
		Metadata: map[string]any{"exit_status": string(node.ExitStatus)},
	}, nil
}
