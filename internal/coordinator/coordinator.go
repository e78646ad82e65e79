package coordinator

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// Policy constants used when no explicit policy is configured.
const (
	// MaxConcurrentAgents is the default admission ceiling.
	MaxConcurrentAgents = 10
	// MaxRetries is the default number of recoveries that may choose retry.
	MaxRetries = 3
	// LockTimeoutSeconds is the default age after which an unattended lock is reclaimed.
	LockTimeoutSeconds = 300
)

// Policy holds the tunable limits of a Coordinator.
type Policy struct {
	// MaxConcurrentAgents is the maximum number of registered agents.
	MaxConcurrentAgents int
	// MaxRetries is the retry budget per agent. Zero disables retries.
	MaxRetries int
	// LockTimeout is how long a lock survives without a heartbeat from its holder.
	LockTimeout time.Duration
	// StaleAfter is the heartbeat age after which the sweeper evicts an agent.
	StaleAfter time.Duration
	// SweepInterval is how often the sweeper runs.
	SweepInterval time.Duration
	// PollInterval is the polling period of the wait helpers.
	PollInterval time.Duration
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxConcurrentAgents: MaxConcurrentAgents,
		MaxRetries:          MaxRetries,
		LockTimeout:         LockTimeoutSeconds * time.Second,
		StaleAfter:          300 * time.Second,
		SweepInterval:       30 * time.Second,
		PollInterval:        100 * time.Millisecond,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxConcurrentAgents <= 0 {
		p.MaxConcurrentAgents = d.MaxConcurrentAgents
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = d.MaxRetries
	}
	if p.LockTimeout <= 0 {
		p.LockTimeout = d.LockTimeout
	}
	if p.StaleAfter <= 0 {
		p.StaleAfter = d.StaleAfter
	}
	if p.SweepInterval <= 0 {
		p.SweepInterval = d.SweepInterval
	}
	if p.PollInterval <= 0 {
		p.PollInterval = d.PollInterval
	}
	return p
}

// FileLock is an exclusive claim on a resource path.
type FileLock struct {
	// Path is the normalised resource path.
	Path string
	// AgentID is the current holder.
	AgentID string
	// Operation is a free-form tag such as "write".
	Operation string
	// AcquiredAt is when the lock was granted.
	AcquiredAt time.Time
}

// agentEntry pairs a record with its registration sequence number.
type agentEntry struct {
	rec models.AgentRecord
	seq uint64
}

// Coordinator arbitrates locks, dependencies and lifecycle for a set of agents.
// All exported methods are safe for concurrent use. Each takes mu exactly once
// and delegates to *Locked helpers, which assume mu is held.
type Coordinator struct {
	mu sync.Mutex
	// agents maps agent IDs to their registry entries.
	agents map[string]*agentEntry
	// locks maps normalised paths to the lock on them.
	locks map[string]*FileLock
	// deps maps a dependent agent to the set of agents it waits on.
	deps map[string]map[string]struct{}
	// seq is the last registration sequence number handed out.
	seq uint64

	policy  Policy
	now     func() time.Time
	emitter *EventEmitter
}

// New creates a Coordinator with empty state.
func New(opts ...Option) *Coordinator {
	o := &coordinatorOptions{
		policy: DefaultPolicy(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger != nil {
		setPackageLogger(o.logger)
	}

	return &Coordinator{
		agents:  make(map[string]*agentEntry),
		locks:   make(map[string]*FileLock),
		deps:    make(map[string]map[string]struct{}),
		policy:  o.policy.withDefaults(),
		now:     o.clock,
		emitter: NewEventEmitter(),
	}
}

var (
	defaultOnce        sync.Once
	defaultCoordinator *Coordinator
)

// Default returns the process-wide Coordinator, creating it on first use.
func Default() *Coordinator {
	defaultOnce.Do(func() {
		defaultCoordinator = New()
	})
	return defaultCoordinator
}

// Policy returns the effective policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// Subscribe returns a channel receiving every event emitted after the call.
// Slow subscribers lose events rather than stalling the coordinator.
func (c *Coordinator) Subscribe(buffer int) <-chan models.Event {
	return c.emitter.Subscribe(buffer)
}

// DroppedEventCount returns the number of events lost to full subscribers.
func (c *Coordinator) DroppedEventCount() uint64 {
	return c.emitter.DroppedCount()
}

// Close closes every subscription. The coordinator stays usable.
func (c *Coordinator) Close() {
	c.emitter.Close()
}

func (c *Coordinator) emit(eventType models.EventType, agentID, path, message string) {
	c.emitter.Emit(models.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AgentID:   agentID,
		Path:      path,
		Message:   message,
		Timestamp: c.now(),
	})
}

// orderedIDsLocked returns registered agent IDs in registration order.
func (c *Coordinator) orderedIDsLocked() []string {
	ids := make([]string, 0, len(c.agents))
	for id := range c.agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return c.agents[ids[i]].seq < c.agents[ids[j]].seq
	})
	return ids
}

// orderAgentsLocked sorts ids by registration order. Unknown IDs keep their
// relative input order after every registered one. Duplicates are dropped.
func (c *Coordinator) orderAgentsLocked(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var known, unknown []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.agents[id]; ok {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	sort.SliceStable(known, func(i, j int) bool {
		return c.agents[known[i]].seq < c.agents[known[j]].seq
	})
	return append(known, unknown...)
}

// removeAgentLocked deletes an agent together with its locks and every
// dependency edge touching it. Returns the number of locks released.
func (c *Coordinator) removeAgentLocked(agentID string) int {
	released := c.releaseAllLocksLocked(agentID)
	delete(c.agents, agentID)
	delete(c.deps, agentID)
	for dependent, set := range c.deps {
		if _, ok := set[agentID]; ok {
			delete(set, agentID)
			if len(set) == 0 {
				delete(c.deps, dependent)
			}
		}
	}
	return released
}
