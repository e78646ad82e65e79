package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ShayCichocki/agentcoord/internal/sim"
	"github.com/ShayCichocki/agentcoord/internal/tui"
	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// printStatus prints a status line with a colored symbol.
func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}

// outcomeStyle returns the symbol and color used for an agent outcome.
func outcomeStyle(o sim.Outcome) (string, color.Attribute) {
	switch o {
	case sim.OutcomeCompleted:
		return "✓", color.FgGreen
	case sim.OutcomeCancelled:
		return "⊘", color.FgCyan
	case sim.OutcomeRejected, sim.OutcomeBlocked, sim.OutcomeInterrupted:
		return "⚠", color.FgYellow
	default:
		return "✗", color.FgRed
	}
}

// levelColor maps an event's display level onto a terminal color.
func levelColor(t models.EventType) color.Attribute {
	switch tui.EventLevel(t) {
	case tui.LogLevelError:
		return color.FgRed
	case tui.LogLevelWarn:
		return color.FgYellow
	default:
		return color.FgGreen
	}
}

// failedAgents counts agents that did not finish and were not deliberately cancelled.
func failedAgents(r *sim.Report) int {
	return len(r.Agents) - r.Count(sim.OutcomeCompleted) - r.Count(sim.OutcomeCancelled)
}

// printReport writes a human-readable summary of a scenario run.
func printReport(w io.Writer, r *sim.Report) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Scenario:"), r.Scenario)
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Run:"), r.RunID)
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Duration:"), formatDuration(r.Duration))
	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Order:"), strings.Join(r.Order, " → "))

	if len(r.RejectedDependencies) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, bold.Sprint("Rejected dependencies:"))
		for _, edge := range r.RejectedDependencies {
			printStatus(w, "⚠", edge+" (would create a cycle)", color.FgYellow)
		}
	}

	if len(r.Conflicts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, bold.Sprint("Conflicts:"))
		for i, c := range r.Conflicts {
			fmt.Fprintf(w, "  %s %s\n", color.YellowString(string(c.Type)), describeConflict(c))
			if i < len(r.Resolutions) {
				fmt.Fprintf(w, "    %s %s\n", dim.Sprint("→"), describeResolution(r.Resolutions[i]))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bold.Sprint("Agents:"))
	for _, a := range r.Agents {
		symbol, attr := outcomeStyle(a.Outcome)
		line := fmt.Sprintf("%-16s %-11s attempts=%d retries=%d %s",
			a.ID, a.Outcome, a.Attempts, a.RetryCount, dim.Sprint(formatDuration(a.Duration)))
		if a.Error != "" && a.Outcome != sim.OutcomeCompleted {
			line += " " + dim.Sprint(a.Error)
		}
		printStatus(w, symbol, line, attr)
	}

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%d completed, %d cancelled, %d failed",
		r.Count(sim.OutcomeCompleted), r.Count(sim.OutcomeCancelled), failedAgents(r))
	if failedAgents(r) > 0 {
		printStatus(w, "✗", summary, color.FgRed)
	} else {
		printStatus(w, "✓", summary, color.FgGreen)
	}
}

func describeConflict(c models.Conflict) string {
	switch c.Type {
	case models.ConflictDuplicateTask:
		return fmt.Sprintf("%s share task %q", strings.Join(c.Agents, ", "), c.TaskID)
	default:
		files := c.Files
		if len(files) == 0 && c.File != "" {
			files = []string{c.File}
		}
		return fmt.Sprintf("%s on %s", strings.Join(c.Agents, ", "), strings.Join(files, ", "))
	}
}

func describeResolution(r models.Resolution) string {
	switch r.Strategy {
	case models.ResolutionSerialize:
		return "serialize " + strings.Join(r.Queue, " then ")
	case models.ResolutionCancelDuplicate:
		return fmt.Sprintf("keep %s, cancel %s", r.Keep, strings.Join(r.Cancel, ", "))
	default:
		return fmt.Sprintf("%s: %s", r.Strategy, r.Reason)
	}
}

// formatDuration formats a duration in a compact human-readable form.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
