package coordinator

import (
	"context"
	"time"
)

// SweepResult counts what a single sweep removed.
type SweepResult struct {
	Evicted   int
	Reclaimed int
}

// SweepNow evicts agents whose heartbeat is older than StaleAfter and then
// reclaims locks idle for longer than LockTimeout, in one critical section.
func (c *Coordinator) SweepNow() SweepResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return SweepResult{
		Evicted:   c.cleanupStaleLocked(c.policy.StaleAfter),
		Reclaimed: c.reclaimStaleLocksLocked(),
	}
}

// StartSweeper runs SweepNow every interval until ctx is cancelled.
// A non-positive interval uses the policy's SweepInterval.
// The returned channel is closed once the sweeper has stopped.
func (c *Coordinator) StartSweeper(ctx context.Context, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = c.policy.SweepInterval
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if r := c.SweepNow(); r.Evicted > 0 || r.Reclaimed > 0 {
					debugLog("sweeper", "evicted=%d reclaimed=%d", r.Evicted, r.Reclaimed)
				}
			}
		}
	}()

	return done
}
