package coordinator

import (
	"fmt"
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// CanAcceptAgent reports whether another agent can be registered.
func (c *Coordinator) CanAcceptAgent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canAcceptLocked()
}

func (c *Coordinator) canAcceptLocked() bool {
	return len(c.agents) < c.policy.MaxConcurrentAgents
}

// ResourceUsage reports the agent count, lock count and the share of the
// concurrency ceiling in use as a percentage.
func (c *Coordinator) ResourceUsage() models.ResourceUsage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return models.ResourceUsage{
		ActiveAgents:    len(c.agents),
		FileLocks:       len(c.locks),
		CapacityPercent: float64(len(c.agents)) / float64(c.policy.MaxConcurrentAgents) * 100,
	}
}

// CleanupStaleAgents evicts every agent whose last heartbeat is older than
// maxAge, releasing its locks and dependency edges. Returns the number evicted.
func (c *Coordinator) CleanupStaleAgents(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanupStaleLocked(maxAge)
}

func (c *Coordinator) cleanupStaleLocked(maxAge time.Duration) int {
	now := c.now()
	evicted := 0
	for _, id := range c.orderedIDsLocked() {
		age := now.Sub(c.agents[id].rec.LastHeartbeat)
		if age <= maxAge {
			continue
		}
		released := c.removeAgentLocked(id)
		evicted++
		debugLog("governor", "evicted %s (heartbeat age %s, released %d locks)", id, age, released)
		c.emit(models.EventAgentEvicted, id, "", fmt.Sprintf("heartbeat age %s", age.Truncate(time.Millisecond)))
	}
	return evicted
}

// Status returns the coordinator-wide summary, counting conflicts as
// DetectConflicts would report them.
func (c *Coordinator) Status() models.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return models.Status{
		ActiveAgents: len(c.agents),
		FileLocks:    len(c.locks),
		Conflicts:    len(c.detectConflictsLocked()),
	}
}
