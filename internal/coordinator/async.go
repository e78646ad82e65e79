package coordinator

import (
	"context"
	"time"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// RegisterAgentContext is RegisterAgent for callers that carry a context.
// A cancelled context returns its error without touching any state.
func (c *Coordinator) RegisterAgentContext(ctx context.Context, agentID string, info models.TaskInfo) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.RegisterAgent(agentID, info), nil
}

// AcquireFileLockContext is AcquireFileLock for callers that carry a context.
func (c *Coordinator) AcquireFileLockContext(ctx context.Context, agentID, filePath, operation string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.AcquireFileLock(agentID, filePath, operation), nil
}

// WaitForDependencies polls until every dependency of agentID has completed.
// It returns false when the timeout elapses, ctx is cancelled, or the agent
// is not (or no longer) registered. A non-positive timeout waits on ctx alone.
func (c *Coordinator) WaitForDependencies(ctx context.Context, agentID string, timeout time.Duration) bool {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return c.poll(ctx, func() (done, ok bool) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, registered := c.agents[agentID]; !registered {
			return true, false
		}
		return len(c.unmetDependenciesLocked(agentID)) == 0, true
	})
}

// WaitForFileLock polls AcquireFileLock until it succeeds or ctx is done.
func (c *Coordinator) WaitForFileLock(ctx context.Context, agentID, filePath, operation string) bool {
	p, ok := normalizePath(filePath)
	if !ok || agentID == "" {
		return false
	}

	return c.poll(ctx, func() (done, ok bool) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.acquireLocked(agentID, p, operation) {
			return true, true
		}
		return false, false
	})
}

// poll evaluates check immediately and then every PollInterval until it
// reports done or ctx ends. The result is check's ok value, or false on ctx end.
func (c *Coordinator) poll(ctx context.Context, check func() (done, ok bool)) bool {
	if done, ok := check(); done {
		return ok
	}

	ticker := time.NewTicker(c.policy.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if done, ok := check(); done {
				return ok
			}
		}
	}
}
