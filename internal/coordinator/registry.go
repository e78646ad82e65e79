package coordinator

import (
	"fmt"
	"sort"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// RegisterAgent admits a new agent. It returns false when the ID is empty or
// already registered, when info carries an unknown status or a negative retry
// count, or when the concurrency ceiling has been reached.
func (c *Coordinator) RegisterAgent(agentID string, info models.TaskInfo) bool {
	if agentID == "" {
		debugLog("registry", "rejected registration with empty agent ID")
		return false
	}
	status := info.Status
	if status == "" {
		status = models.AgentStatusRunning
	}
	if !status.Valid() || info.RetryCount < 0 {
		debugLog("registry", "rejected %s: invalid status=%q retries=%d", agentID, info.Status, info.RetryCount)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.agents[agentID]; exists {
		debugLog("registry", "rejected %s: already registered", agentID)
		return false
	}
	if !c.canAcceptLocked() {
		debugLog("registry", "rejected %s: at capacity (%d/%d)", agentID, len(c.agents), c.policy.MaxConcurrentAgents)
		c.emit(models.EventAdmissionDenied, agentID, "", fmt.Sprintf("at capacity (%d)", c.policy.MaxConcurrentAgents))
		return false
	}

	now := c.now()
	c.seq++
	c.agents[agentID] = &agentEntry{
		seq: c.seq,
		rec: models.AgentRecord{
			ID:            agentID,
			TaskID:        info.TaskID,
			Description:   info.Description,
			Files:         NormalizePaths(info.Files),
			Status:        status,
			RetryCount:    info.RetryCount,
			RegisteredAt:  now,
			LastHeartbeat: now,
		},
	}

	debugLog("registry", "registered %s task=%s files=%v", agentID, info.TaskID, info.Files)
	c.emit(models.EventAgentRegistered, agentID, "", info.TaskID)
	return true
}

// UnregisterAgent removes an agent, releasing its locks and dropping every
// dependency edge that mentions it. Returns false if the agent was unknown.
func (c *Coordinator) UnregisterAgent(agentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.agents[agentID]; !ok {
		return false
	}
	released := c.removeAgentLocked(agentID)
	debugLog("registry", "unregistered %s (released %d locks)", agentID, released)
	c.emit(models.EventAgentUnregistered, agentID, "", fmt.Sprintf("released %d locks", released))
	return true
}

// ActiveAgents returns every registered agent ID in registration order,
// whatever its status.
func (c *Coordinator) ActiveAgents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderedIDsLocked()
}

// Heartbeat refreshes the agent's liveness timestamp.
// Returns false for unknown agents.
func (c *Coordinator) Heartbeat(agentID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.agents[agentID]
	if !ok {
		return false
	}
	now := c.now()
	// Keep heartbeats strictly increasing even if the clock stalls.
	if !now.After(entry.rec.LastHeartbeat) {
		now = entry.rec.LastHeartbeat.Add(1)
	}
	entry.rec.LastHeartbeat = now
	return true
}

// AgentStatus returns a copy of the agent's record joined with the locks it
// holds and the agents it depends on.
func (c *Coordinator) AgentStatus(agentID string) (models.AgentSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.agents[agentID]; !ok {
		return models.AgentSnapshot{}, false
	}
	return c.snapshotLocked(agentID), true
}

// Snapshot returns a copy of every agent in registration order.
func (c *Coordinator) Snapshot() []models.AgentSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.orderedIDsLocked()
	out := make([]models.AgentSnapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.snapshotLocked(id))
	}
	return out
}

// SetAgentStatus records a status reported by the agent's executor.
func (c *Coordinator) SetAgentStatus(agentID string, status models.AgentStatus) bool {
	if !status.Valid() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.agents[agentID]
	if !ok {
		return false
	}
	entry.rec.Status = status
	c.emit(models.EventAgentStatus, agentID, "", string(status))
	return true
}

// MarkAgentCompleted is shorthand for SetAgentStatus(agentID, completed).
func (c *Coordinator) MarkAgentCompleted(agentID string) bool {
	return c.SetAgentStatus(agentID, models.AgentStatusCompleted)
}

func (c *Coordinator) snapshotLocked(agentID string) models.AgentSnapshot {
	rec := c.agents[agentID].rec
	rec.Files = append([]string(nil), rec.Files...)

	snap := models.AgentSnapshot{
		AgentRecord: rec,
		Locks:       c.locksByAgentLocked(agentID),
	}
	for dep := range c.deps[agentID] {
		snap.Dependencies = append(snap.Dependencies, dep)
	}
	sort.Strings(snap.Dependencies)
	return snap
}
