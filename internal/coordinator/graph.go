package coordinator

import (
	"sort"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// AddDependency records that dependent must wait for dependency.
// Both agents must be registered. The edge is rejected if it would close a
// cycle, including the self-loop. Adding an existing edge succeeds without change.
func (c *Coordinator) AddDependency(dependent, dependency string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.agents[dependent]; !ok {
		debugLog("graph", "rejected %s -> %s: %s not registered", dependent, dependency, dependent)
		return false
	}
	if _, ok := c.agents[dependency]; !ok {
		debugLog("graph", "rejected %s -> %s: %s not registered", dependent, dependency, dependency)
		return false
	}
	if _, exists := c.deps[dependent][dependency]; exists {
		return true
	}
	// A new edge dependent->dependency closes a cycle iff dependent is
	// already reachable from dependency.
	if dependent == dependency || c.reachableLocked(dependency, dependent) {
		debugLog("graph", "rejected %s -> %s: would create cycle", dependent, dependency)
		c.emit(models.EventDependencyRejected, dependent, "", "cycle via "+dependency)
		return false
	}

	set, ok := c.deps[dependent]
	if !ok {
		set = make(map[string]struct{})
		c.deps[dependent] = set
	}
	set[dependency] = struct{}{}
	debugLog("graph", "%s now depends on %s", dependent, dependency)
	c.emit(models.EventDependencyAdded, dependent, "", dependency)
	return true
}

// reachableLocked reports whether target can be reached from start by
// following dependency edges.
func (c *Coordinator) reachableLocked(start, target string) bool {
	visited := make(map[string]bool)
	stack := []string{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == target {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		for next := range c.deps[n] {
			if !visited[next] {
				stack = append(stack, next)
			}
		}
	}
	return false
}

// CheckDependencies returns the agent's dependencies that have not yet
// completed, sorted. Dependencies that are no longer registered are skipped.
func (c *Coordinator) CheckDependencies(agentID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unmetDependenciesLocked(agentID)
}

func (c *Coordinator) unmetDependenciesLocked(agentID string) []string {
	unmet := []string{}
	for dep := range c.deps[agentID] {
		entry, ok := c.agents[dep]
		if !ok {
			debugLog("graph", "%s has dangling dependency %s", agentID, dep)
			continue
		}
		if entry.rec.Status != models.AgentStatusCompleted {
			unmet = append(unmet, dep)
		}
	}
	sort.Strings(unmet)
	return unmet
}

// Dependencies returns the agents agentID waits on, sorted.
func (c *Coordinator) Dependencies(agentID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []string{}
	for dep := range c.deps[agentID] {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// Dependents returns the agents waiting on agentID, sorted.
func (c *Coordinator) Dependents(agentID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := []string{}
	for dependent, set := range c.deps {
		if _, ok := set[agentID]; ok {
			out = append(out, dependent)
		}
	}
	sort.Strings(out)
	return out
}

// OptimizeExecutionOrder returns every registered agent in an order where each
// agent appears after all of its dependencies. Among agents that are ready at
// the same time the earlier registration goes first.
func (c *Coordinator) OptimizeExecutionOrder() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.executionOrderLocked()
}

func (c *Coordinator) executionOrderLocked() []string {
	inDegree := make(map[string]int, len(c.agents))
	dependents := make(map[string][]string)
	for id := range c.agents {
		inDegree[id] = 0
	}
	for dependent, set := range c.deps {
		if _, ok := c.agents[dependent]; !ok {
			continue
		}
		for dep := range set {
			if _, ok := c.agents[dep]; !ok {
				continue
			}
			inDegree[dependent]++
			dependents[dep] = append(dependents[dep], dependent)
		}
	}

	bySeq := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool {
			return c.agents[ids[i]].seq < c.agents[ids[j]].seq
		})
	}

	var ready []string
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	bySeq(ready)

	order := make([]string, 0, len(c.agents))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		released := false
		for _, dependent := range dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
				released = true
			}
		}
		if released {
			bySeq(ready)
		}
	}

	if len(order) != len(c.agents) {
		// Unreachable while AddDependency keeps the graph acyclic.
		debugLog("graph", "execution order incomplete (%d/%d), appending remainder", len(order), len(c.agents))
		placed := make(map[string]bool, len(order))
		for _, id := range order {
			placed[id] = true
		}
		for _, id := range c.orderedIDsLocked() {
			if !placed[id] {
				order = append(order, id)
			}
		}
	}
	return order
}
