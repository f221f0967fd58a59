package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hensu-project/hensu-sub006/state"
	"github.com/hensu-project/hensu-sub006/workflow"
)

// Parallel fans a node's children out to the cooperative pool via errgroup
// and awaits all of them (spec.md §4.2, grounded on the teacher's
// pkg/agent/workflowagent/parallel.go errgroup fan-out). Context mutations
// from children are merged key-by-key in declaration order: the first
// child to have written a key wins on conflict (spec.md §9, a deliberate
// determinism choice validated by end-to-end scenario 4).
type Parallel struct{}

func (p *Parallel) Execute(ctx context.Context, node workflow.Node, ec *ExecutionContext) (*state.NodeResult, error) {
	results, contexts, err := runChildren(ctx, node.Children, ec)
	if err != nil {
		return nil, err
	}

	for _, childCtx := range contexts {
		mergeContext(ec.State.Context, childCtx)
	}

	successCount := 0
	var firstFailure string
	for i, r := range results {
		if r.Status == state.StatusSuccess {
			successCount++
		} else if firstFailure == "" {
			firstFailure = fmt.Sprintf("child %q: %s", node.Children[i], r.Reason)
		}
	}

	allSucceeded := successCount == len(results)
	anySucceeded := successCount > 0

	ok := allSucceeded
	if node.Join == workflow.JoinAnySucceed {
		ok = anySucceeded
	}

	if !ok {
		return &state.NodeResult{
			Status:   state.StatusFailure,
			Reason:   firstFailure,
			Metadata: map[string]any{"child_count": len(results), "success_count": successCount},
		}, nil
	}
	return &state.NodeResult{
		Status:   state.StatusSuccess,
		Metadata: map[string]any{"child_count": len(results), "success_count": successCount},
	}, nil
}

// runChildren dispatches every child node id concurrently, each against an
// isolated ExecutionContext, and returns their results and final contexts
// in child-declaration order (not completion order, which is
// nondeterministic per spec.md §5).
func runChildren(ctx context.Context, children []string, ec *ExecutionContext) ([]state.NodeResult, []map[string]any, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := make([]state.NodeResult, len(children))
	contexts := make([]map[string]any, len(children))

	for i, childID := range children {
		i, childID := i, childID
		g.Go(func() error {
			childNode, ok := ec.Workflow.Nodes[childID]
			if !ok {
				return fmt.Errorf("executor: child %q is not a defined node", childID)
			}
			childEC := ec.forChild(childNode.ID)
			ex, err := ec.Nodes.ForNode(childNode)
			if err != nil {
				return err
			}
			res, err := ex.Execute(gctx, childNode, childEC)
			if err != nil {
				res = &state.NodeResult{Status: state.StatusFailure, Reason: err.Error()}
			}
			results[i] = *res
			contexts[i] = childEC.State.Context
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, contexts, nil
}
