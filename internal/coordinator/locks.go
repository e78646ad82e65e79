package coordinator

import (
	"path"
	"sort"
	"strings"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// normalizePath canonicalises a resource path so that "src/./a.go" and
// "src\a.go" name the same lock. Empty paths are rejected.
func normalizePath(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", false
	}
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if p == "." {
		return "", false
	}
	return p, true
}

// NormalizePaths normalises and de-duplicates a list of paths, preserving
// order. Paths that cannot name a lock are dropped.
func NormalizePaths(paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		n, ok := normalizePath(p)
		if !ok || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// CheckFileConflict reports whether path is locked by an agent other than agentID.
func (c *Coordinator) CheckFileConflict(agentID, filePath string) bool {
	p, ok := normalizePath(filePath)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lock, held := c.locks[p]
	return held && lock.AgentID != agentID
}

// AcquireFileLock grants agentID an exclusive lock on path. Locks are not
// re-entrant: any acquire on a held path fails and leaves the lock untouched,
// even when agentID is the holder.
func (c *Coordinator) AcquireFileLock(agentID, filePath, operation string) bool {
	p, ok := normalizePath(filePath)
	if !ok || agentID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquireLocked(agentID, p, operation)
}

func (c *Coordinator) acquireLocked(agentID, p, operation string) bool {
	if lock, held := c.locks[p]; held {
		debugLog("locks", "%s denied %s (held by %s)", agentID, p, lock.AgentID)
		return false
	}

	c.locks[p] = &FileLock{
		Path:       p,
		AgentID:    agentID,
		Operation:  operation,
		AcquiredAt: c.now(),
	}
	debugLog("locks", "%s acquired %s (%s)", agentID, p, operation)
	c.emit(models.EventLockAcquired, agentID, p, operation)
	return true
}

// ReleaseFileLock releases path if agentID holds it.
// Returns false when the path is unlocked or held by someone else.
func (c *Coordinator) ReleaseFileLock(agentID, filePath string) bool {
	p, ok := normalizePath(filePath)
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lock, held := c.locks[p]
	if !held || lock.AgentID != agentID {
		return false
	}
	delete(c.locks, p)
	debugLog("locks", "%s released %s", agentID, p)
	c.emit(models.EventLockReleased, agentID, p, "")
	return true
}

// ReleaseAllLocks releases every lock held by agentID and returns how many.
func (c *Coordinator) ReleaseAllLocks(agentID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseAllLocksLocked(agentID)
}

func (c *Coordinator) releaseAllLocksLocked(agentID string) int {
	released := 0
	for p, lock := range c.locks {
		if lock.AgentID != agentID {
			continue
		}
		delete(c.locks, p)
		released++
		c.emit(models.EventLockReleased, agentID, p, "")
	}
	if released > 0 {
		debugLog("locks", "%s released all (%d)", agentID, released)
	}
	return released
}

// LockedFiles returns every locked path, sorted.
func (c *Coordinator) LockedFiles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]string, 0, len(c.locks))
	for p := range c.locks {
		files = append(files, p)
	}
	sort.Strings(files)
	return files
}

// LocksByAgent returns the paths agentID holds, sorted.
func (c *Coordinator) LocksByAgent(agentID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locksByAgentLocked(agentID)
}

func (c *Coordinator) locksByAgentLocked(agentID string) []string {
	files := []string{}
	for p, lock := range c.locks {
		if lock.AgentID == agentID {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files
}

// LockInfo returns a copy of the lock on path.
func (c *Coordinator) LockInfo(filePath string) (FileLock, bool) {
	p, ok := normalizePath(filePath)
	if !ok {
		return FileLock{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lock, held := c.locks[p]
	if !held {
		return FileLock{}, false
	}
	return *lock, true
}

// ReclaimStaleLocks releases locks nobody is tending. A lock is stale when
// its holder is registered but has not sent a heartbeat within LockTimeout,
// or when its holder is unregistered and the lock is older than LockTimeout.
// Returns the number of locks reclaimed.
func (c *Coordinator) ReclaimStaleLocks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reclaimStaleLocksLocked()
}

func (c *Coordinator) reclaimStaleLocksLocked() int {
	now := c.now()
	reclaimed := 0
	for p, lock := range c.locks {
		last := lock.AcquiredAt
		if entry, ok := c.agents[lock.AgentID]; ok {
			last = entry.rec.LastHeartbeat
		}
		if now.Sub(last) <= c.policy.LockTimeout {
			continue
		}
		delete(c.locks, p)
		reclaimed++
		debugLog("locks", "reclaimed %s from %s (idle %s)", p, lock.AgentID, now.Sub(last))
		c.emit(models.EventLockReclaimed, lock.AgentID, p, "lock timeout")
	}
	return reclaimed
}
