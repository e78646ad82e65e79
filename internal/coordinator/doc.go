// Package coordinator arbitrates shared work between concurrently running agents.
//
// The Coordinator owns four structures behind a single mutex:
//   - Agent registry: agent ID to its task record, status, retries and heartbeat
//   - Lock table: resource path to the single agent holding it
//   - Dependency graph: agent to the agents it must wait on (kept acyclic)
//   - Registration order: a sequence number used for every deterministic tie-break
//
// On top of those it detects and resolves conflicting claims, recovers failed
// agents within a retry budget, enforces a concurrency ceiling and evicts
// agents whose heartbeats have gone stale.
//
// Steady-state outcomes are reported as booleans rather than errors: a rejected
// call returns false and leaves every structure untouched.
//
// Example usage:
//
//	c := coordinator.New(coordinator.WithPolicy(coordinator.DefaultPolicy()))
//	c.RegisterAgent("agent-1", models.TaskInfo{TaskID: "t1", Files: []string{"src/a.go"}})
//	if c.AcquireFileLock("agent-1", "src/a.go", "write") {
//		defer c.ReleaseFileLock("agent-1", "src/a.go")
//	}
package coordinator
