package coordinator

import (
	"fmt"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// MarkAgentFailed records a failure reported by the agent's executor.
// Locks stay held until RecoverFailedAgent runs.
func (c *Coordinator) MarkAgentFailed(agentID, reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.agents[agentID]
	if !ok {
		return false
	}
	entry.rec.Status = models.AgentStatusFailed
	entry.rec.Error = reason
	debugLog("recovery", "%s failed: %s", agentID, reason)
	c.emit(models.EventAgentFailed, agentID, "", reason)
	return true
}

// RecoverFailedAgent releases the agent's locks and decides whether it may
// run again. While retries remain the agent goes back to running and its
// retry count increases by one. Once MaxRetries retries have been spent the
// agent is left failed and the count is left alone.
//
// The current status is not consulted: every call spends one retry, so a
// caller that recovers a running or completed agent still consumes budget and
// can drive it to abandonment. Callers are expected to pair it with
// MarkAgentFailed.
func (c *Coordinator) RecoverFailedAgent(agentID string) (models.RecoveryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.agents[agentID]
	if !ok {
		return models.RecoveryResult{}, false
	}

	released := c.releaseAllLocksLocked(agentID)
	result := models.RecoveryResult{
		AgentID:       agentID,
		LocksReleased: released,
		Error:         entry.rec.Error,
	}

	if entry.rec.RetryCount < c.policy.MaxRetries {
		entry.rec.RetryCount++
		entry.rec.Status = models.AgentStatusRunning
		result.Strategy = models.RecoveryRetry
		result.RetryCount = entry.rec.RetryCount
		debugLog("recovery", "%s retry %d/%d", agentID, entry.rec.RetryCount, c.policy.MaxRetries)
		c.emit(models.EventAgentRetried, agentID, "", fmt.Sprintf("retry %d/%d", entry.rec.RetryCount, c.policy.MaxRetries))
		return result, true
	}

	entry.rec.Status = models.AgentStatusFailed
	result.Strategy = models.RecoveryAbandon
	result.RetryCount = entry.rec.RetryCount
	debugLog("recovery", "%s abandoned after %d retries", agentID, entry.rec.RetryCount)
	c.emit(models.EventAgentAbandoned, agentID, "", fmt.Sprintf("retries exhausted (%d)", entry.rec.RetryCount))
	return result, true
}
