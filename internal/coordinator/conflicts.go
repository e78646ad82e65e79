package coordinator

import (
	"fmt"
	"sort"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// DetectConflicts scans registered agents pairwise and reports file overlaps
// and duplicate tasks. Pairs are visited in registration order so the output
// is deterministic. Each overlapping pair yields one conflict listing every
// shared path.
func (c *Coordinator) DetectConflicts() []models.Conflict {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detectConflictsLocked()
}

func (c *Coordinator) detectConflictsLocked() []models.Conflict {
	ids := c.orderedIDsLocked()
	conflicts := []models.Conflict{}

	for i := 0; i < len(ids); i++ {
		a := c.agents[ids[i]].rec
		for j := i + 1; j < len(ids); j++ {
			b := c.agents[ids[j]].rec
			if shared := sharedFiles(a.Files, b.Files); len(shared) > 0 {
				conflicts = append(conflicts, models.Conflict{
					Type:   models.ConflictFileOverlap,
					Agents: []string{a.ID, b.ID},
					File:   shared[0],
					Files:  shared,
				})
			}
		}
	}

	for i := 0; i < len(ids); i++ {
		a := c.agents[ids[i]].rec
		if a.TaskID == "" {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := c.agents[ids[j]].rec
			if a.TaskID == b.TaskID && a.Description == b.Description {
				conflicts = append(conflicts, models.Conflict{
					Type:   models.ConflictDuplicateTask,
					Agents: []string{a.ID, b.ID},
					TaskID: a.TaskID,
				})
			}
		}
	}
	return conflicts
}

// sharedFiles returns the sorted intersection of two path lists.
func sharedFiles(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	var shared []string
	for _, p := range b {
		if _, ok := set[p]; ok {
			shared = append(shared, p)
			delete(set, p)
		}
	}
	sort.Strings(shared)
	return shared
}

// ResolveConflict recommends how to handle a conflict. It never changes
// coordinator state; registration order is only read to rank the agents.
//
//   - file_overlap, file_edit: serialize the agents in registration order
//   - duplicate_task: keep the earliest registered agent, cancel the rest
//   - anything else: escalate
func (c *Coordinator) ResolveConflict(conflict models.Conflict) models.Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch conflict.Type {
	case models.ConflictFileOverlap, models.ConflictFileEdit:
		return models.Resolution{
			Strategy: models.ResolutionSerialize,
			Queue:    c.orderAgentsLocked(conflict.Agents),
		}

	case models.ConflictDuplicateTask:
		ordered := c.orderAgentsLocked(conflict.Agents)
		if len(ordered) == 0 {
			return models.Resolution{
				Strategy: models.ResolutionEscalate,
				Reason:   "duplicate task conflict names no agents",
			}
		}
		return models.Resolution{
			Strategy: models.ResolutionCancelDuplicate,
			Keep:     ordered[0],
			Cancel:   ordered[1:],
		}

	default:
		return models.Resolution{
			Strategy: models.ResolutionEscalate,
			Reason:   fmt.Sprintf("unknown conflict type %q", conflict.Type),
		}
	}
}
