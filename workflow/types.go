// Package workflow defines the static, immutable graph of nodes and
// transitions that the engine drives an execution through.
package workflow

import "fmt"

// Terminal is the sentinel node id meaning "no further node" — an
// execution's currentNodeId equal to Terminal means the execution has
// finished (successfully or not).
const Terminal = ""

// ExitStatus is the terminal outcome of a completed execution.
type ExitStatus string

const (
	ExitSuccess ExitStatus = "SUCCESS"
	ExitFailure ExitStatus = "FAILURE"
	ExitCancel  ExitStatus = "CANCEL"
)

// NodeKind tags which Node variant is populated.
type NodeKind string

const (
	KindStandard NodeKind = "STANDARD"
	KindParallel NodeKind = "PARALLEL"
	KindForkJoin NodeKind = "FORK_JOIN"
	KindLoop     NodeKind = "LOOP"
	KindAction   NodeKind = "ACTION"
	KindGeneric  NodeKind = "GENERIC"
	KindEnd      NodeKind = "END"
)

// JoinPolicy governs how a Parallel/ForkJoin node judges its children.
type JoinPolicy string

const (
	JoinAllSucceed JoinPolicy = "ALL_SUCCEED"
	JoinAnySucceed JoinPolicy = "ANY_SUCCEED"
)

// LoopConditionKind tags a Loop node's termination condition.
type LoopConditionKind string

const (
	LoopAlways     LoopConditionKind = "ALWAYS"
	LoopExpression LoopConditionKind = "EXPRESSION"
)

// ReviewMode controls when a Standard node pauses for human review.
type ReviewMode string

const (
	ReviewNone     ReviewMode = ""
	ReviewRequired ReviewMode = "REQUIRED"
	ReviewOnFailure ReviewMode = "OPTIONAL"
)

// ReviewConfig is attached to a Standard node to request a human decision
// before the node's completion is honored.
type ReviewConfig struct {
	Mode ReviewMode
}

// ActionKind tags an Action value inside an Action node.
type ActionKind string

const (
	ActionSend    ActionKind = "SEND"
	ActionExecute ActionKind = "EXECUTE"
)

// Action is one step inside an Action node. Send dispatches to a named
// handler; Execute is reserved for local (non-server) modes and must fail
// when run in a server context.
type Action struct {
	Kind      ActionKind
	HandlerID string         // Send
	Payload   map[string]any // Send
	CommandID string         // Execute
}

// Node is a closed, tagged union over the seven node variants spec.md
// names. Exactly the fields for Kind are meaningful; the rest are zero.
// Node is immutable once constructed — it is shared read-only across every
// execution of the Workflow that owns it.
type Node struct {
	ID   string
	Kind NodeKind

	// Standard
	AgentID       string
	PromptTmpl    string
	RubricID      string // optional
	Review        *ReviewConfig
	NamedOutputs  []string // context keys to extract from JSON output
	Transitions   []TransitionRule

	// Parallel / ForkJoin
	Children   []string
	Join       JoinPolicy
	JoinNodeID string // ForkJoin only

	// Loop
	BodyNodeID    string
	LoopCondition LoopConditionKind
	LoopExpr      string
	MaxIterations int

	// Action
	Actions []Action

	// Generic
	TypeTag string
	Config  map[string]any

	// End
	ExitStatus ExitStatus
}

// ScoreOperator is the comparison applied by a Score transition rule.
type ScoreOperator string

const (
	OpGT   ScoreOperator = "GT"
	OpGTE  ScoreOperator = "GTE"
	OpLT   ScoreOperator = "LT"
	OpLTE  ScoreOperator = "LTE"
	OpEQ   ScoreOperator = "EQ"
	OpRange ScoreOperator = "RANGE"
)

// ScoreClause is one (operator, value) entry of a Score transition rule;
// for OpRange, Low/High bound the range inclusively and Value is unused.
type ScoreClause struct {
	Operator ScoreOperator
	Value    float64
	Low      float64
	High     float64
	Target   string
}

// TransitionKind tags which TransitionRule variant is populated.
type TransitionKind string

const (
	TransitionSuccess   TransitionKind = "SUCCESS"
	TransitionFailure   TransitionKind = "FAILURE"
	TransitionScore     TransitionKind = "SCORE"
	TransitionConsensus TransitionKind = "CONSENSUS"
)

// TransitionRule is a tagged-variant predicate attached to a node.
// Evaluation order is the declaration order of the owning node's
// Transitions slice; the first rule whose condition holds wins.
type TransitionRule struct {
	Kind TransitionKind

	// Success
	SuccessTarget string

	// Failure
	RetryCount int
	FailTarget string

	// Score
	ScoreClauses []ScoreClause

	// Consensus — shape reserved, evaluator intentionally unimplemented
	// (spec Open Question: fail closed on encounter).
	ConsensusTarget string
}

// AgentBinding associates a workflow-local agent id with the concrete agent
// configuration an AgentProvider should use to construct it.
type AgentBinding struct {
	AgentID         string
	Role            string
	Model           string
	Instructions    string
	MaintainContext bool
}

// Workflow is the immutable, shared-read-only definition of a directed
// graph: a start node, a node-id→Node map, agent bindings, and an optional
// set of rubric ids referenced by its nodes.
type Workflow struct {
	ID          string
	StartNodeID string
	Nodes       map[string]Node
	Bindings    []AgentBinding
	RubricIDs   []string
}

// Validate checks the two structural invariants spec.md §3 states: the
// start node exists, and every transition target is either a node id or
// the terminal sentinel. It is run once, eagerly, before any execution of
// the workflow begins. A violation is a UserConfig-class failure (spec.md
// §7): non-retryable, surfaced as a *ConfigError before any node runs.
func (w *Workflow) Validate() error {
	if err := w.validate(); err != nil {
		return NewConfigError(w.ID, err.Error())
	}
	return nil
}

func (w *Workflow) validate() error {
	if w.ID == "" {
		return fmt.Errorf("workflow: id is required")
	}
	if _, ok := w.Nodes[w.StartNodeID]; !ok {
		return fmt.Errorf("workflow %s: start node %q is not defined", w.ID, w.StartNodeID)
	}

	for id, n := range w.Nodes {
		if n.ID != id {
			return fmt.Errorf("workflow %s: node map key %q does not match node id %q", w.ID, id, n.ID)
		}
		if err := w.validateNode(n); err != nil {
			return fmt.Errorf("workflow %s: %w", w.ID, err)
		}
	}
	return nil
}

func (w *Workflow) validateTarget(nodeID, target string) error {
	if target == Terminal {
		return nil
	}
	if _, ok := w.Nodes[target]; !ok {
		return fmt.Errorf("node %q: transition target %q is not a defined node", nodeID, target)
	}
	return nil
}

func (w *Workflow) validateNode(n Node) error {
	switch n.Kind {
	case KindStandard:
		for _, t := range n.Transitions {
			if err := w.validateTransition(n.ID, t); err != nil {
				return err
			}
		}
	case KindParallel, KindForkJoin:
		if len(n.Children) == 0 {
			return fmt.Errorf("node %q: parallel/fork-join node has no children", n.ID)
		}
		for _, c := range n.Children {
			if _, ok := w.Nodes[c]; !ok {
				return fmt.Errorf("node %q: child %q is not a defined node", n.ID, c)
			}
		}
		if n.Kind == KindForkJoin {
			if err := w.validateTarget(n.ID, n.JoinNodeID); err != nil {
				return err
			}
		}
		for _, t := range n.Transitions {
			if err := w.validateTransition(n.ID, t); err != nil {
				return err
			}
		}
	case KindLoop:
		if _, ok := w.Nodes[n.BodyNodeID]; !ok {
			return fmt.Errorf("node %q: loop body %q is not a defined node", n.ID, n.BodyNodeID)
		}
		if n.MaxIterations <= 0 {
			return fmt.Errorf("node %q: loop maxIterations must be positive", n.ID)
		}
		for _, t := range n.Transitions {
			if err := w.validateTransition(n.ID, t); err != nil {
				return err
			}
		}
	case KindAction, KindGeneric:
		for _, t := range n.Transitions {
			if err := w.validateTransition(n.ID, t); err != nil {
				return err
			}
		}
	case KindEnd:
		// terminal; no transitions expected, none validated.
	default:
		return fmt.Errorf("node %q: unknown kind %q", n.ID, n.Kind)
	}
	return nil
}

func (w *Workflow) validateTransition(nodeID string, t TransitionRule) error {
	switch t.Kind {
	case TransitionSuccess:
		return w.validateTarget(nodeID, t.SuccessTarget)
	case TransitionFailure:
		return w.validateTarget(nodeID, t.FailTarget)
	case TransitionScore:
		for _, c := range t.ScoreClauses {
			if err := w.validateTarget(nodeID, c.Target); err != nil {
				return err
			}
		}
		return nil
	case TransitionConsensus:
		return w.validateTarget(nodeID, t.ConsensusTarget)
	default:
		return fmt.Errorf("node %q: unknown transition kind %q", nodeID, t.Kind)
	}
}
