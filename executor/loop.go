package executor

import (
	"context"
	"fmt"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// Loop dispatches a node's body node repeatedly (grounded on the teacher's
// pkg/agent/workflowagent/loop.go max-iterations countdown with an
// early-exit signal checked after each round). Before each iteration it
// increments a loop_iteration context key. Termination: an Always
// condition loops until some child sets state.LoopBreakTarget; an
// Expression condition is evaluated against context after every iteration.
// A hard MaxIterations cap always applies regardless of condition kind.
type Loop struct{}

func (l *Loop) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	bodyNode, ok := ec.Workflow.Nodes[node.BodyNodeID]
	if !ok {
		return nil, fmt.Errorf("executor: loop body %q is not a defined node", node.BodyNodeID)
	}
	bodyExecutor, err := ec.Nodes.ForNode(bodyNode)
	if err != nil {
		return nil, err
	}

	var lastResult *state.NodeResult
	iteration := 0
	breakTarget := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if iteration >= node.MaxIterations {
			return &state.NodeResult{
				Status:   state.StatusFailure,
				Reason:   "loop cap exceeded",
				Metadata: map[string]any{"iterations": iteration},
			}, nil
		}

		iteration++
		ec.State.Context["loop_iteration"] = iteration

		res, err := bodyExecutor.Execute(ctx, bodyNode, ec)
		if err != nil {
			res = &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}
		}
		lastResult = res

		if res.Status == state.StatusFailure {
			return res, nil
		}

		if ec.State.LoopBreakTarget != "" {
			breakTarget = ec.State.LoopBreakTarget
			ec.State.LoopBreakTarget = ""
			break
		}

		switch node.LoopCondition {
		case workflow.LoopExpression:
			if !evalExpression(node.LoopExpr, ec.State.Context) {
				return &state.NodeResult{
					Status:   state.StatusSuccess,
					Output:   lastResult.Output,
					Metadata: map[string]any{"iterations": iteration},
				}, nil
			}
		case workflow.LoopAlways:
			// loops until LoopBreakTarget is set or MaxIterations is hit
		}
	}

	meta := map[string]any{"iterations": iteration}
	if breakTarget != "" {
		meta["break_target"] = breakTarget
	}
	return &state.NodeResult{
		Status:   state.StatusSuccess,
		Output:   lastResult.Output,
		Metadata: meta,
	}, nil
}
