package executor

import (
	"context"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// ForkJoin fans out like Parallel but never reports SUCCESS/FAILURE
// itself: it gates completion on an explicit join node, returning PENDING
// with the join node id in metadata so the driver advances directly to it
// without consulting the fork node's own transition rules (spec.md §4.2).
// The join node reads the aggregated outcome from
// context["forkjoin_status"] if its own logic needs to react to it.
type ForkJoin struct{}

// JoinTargetMetadataKey is the NodeResult metadata key the driver reads to
// learn a ForkJoin node's join target when the result is StatusPending.
const JoinTargetMetadataKey = "join_target"

func (f *ForkJoin) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	results, contexts, err := runChildren(ctx, node.Children, ec)
	if err != nil {
		return nil, err
	}

	for _, childCtx := range contexts {
		mergeContext(ec.State.Context, childCtx)
	}

	successCount := 0
	for _, r := range results {
		if r.Status == state.StatusSuccess {
			successCount++
		}
	}
	allSucceeded := successCount == len(results)
	anySucceeded := successCount > 0

	ok := allSucceeded
	if node.Join == workflow.JoinAnySucceed {
		ok = anySucceeded
	}
	ec.State.Context["forkjoin_status"] = ok

	return &state.NodeResult{
		Status: state.StatusPending,
		Metadata: map[string]any{
			JoinTargetMetadataKey: node.JoinNodeID,
			"child_count":         len(results),
			"success_count":       successCount,
		},
	}, nil
}
