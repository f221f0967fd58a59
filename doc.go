// Package hensu implements a multi-tenant workflow execution engine for
// directed-graph AI agent orchestration.
//
// A workflow is a directed graph of nodes connected by transition rules.
// The engine advances an execution one node at a time, evaluating each
// node's transition rules against the node's result to pick the next node,
// recording every step in an append-only history, and snapshotting state so
// an execution can be paused for human review or resumed after a crash.
//
// # Library, not a service
//
// This module has no network surface, no CLI, and no bundled LLM client.
// Everything it depends on beyond the standard library and the small
// dependency set in go.mod is injected through the capability interfaces in
// package repository, agent, and observer: a WorkflowRepository, an
// AgentProvider, an Observer. A reference, SQL-backed implementation of the
// storage interfaces lives in repository/sqlstore for demonstration and
// testing; it is one possible backend, not a required one.
//
// # Packages
//
//   - workflow: workflow/node/transition graph definition and validation
//   - state: execution state, append-only history, snapshots
//   - agent: agent and agent-response capability interfaces
//   - template: {name} placeholder substitution over an execution context
//   - jsonextract: defensive extraction of a JSON object embedded in text
//   - validate: output text validation (size cap, Unicode control chars)
//   - rubric: weighted-criteria scoring and pass/fail evaluation
//   - transition: first-match transition rule evaluation
//   - executor: per-node-type execution strategies and their registry
//   - plan: LLM- or statically-planned ordered tool-call execution
//   - review: human-in-the-loop pause/approve/backtrack/reject controller
//   - recovery: lease-based distributed crash recovery
//   - repository: storage capability interfaces plus a SQL reference impl
//   - observer: execution observability hooks
//   - engine: the top-level Execute/Resume driver
package hensu
