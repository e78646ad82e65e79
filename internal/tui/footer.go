package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// AgentCounts holds the number of agents in each status.
type AgentCounts struct {
	Running   int
	Completed int
	Failed    int
}

// CountAgents tallies snapshot statuses.
func CountAgents(agents []models.AgentSnapshot) AgentCounts {
	var c AgentCounts
	for _, a := range agents {
		switch a.Status {
		case models.AgentStatusRunning:
			c.Running++
		case models.AgentStatusCompleted:
			c.Completed++
		case models.AgentStatusFailed:
			c.Failed++
		}
	}
	return c
}

// Footer renders the status bar and keyboard hints.
type Footer struct {
	message string
	success bool
	done    bool
	width   int
	counts  AgentCounts

	successStyle   lipgloss.Style
	errorStyle     lipgloss.Style
	hintStyle      lipgloss.Style
	separatorStyle lipgloss.Style
}

// NewFooter creates a new Footer instance.
func NewFooter() *Footer {
	return &Footer{
		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")).
			Bold(true),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		hintStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		separatorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("236")),
	}
}

// SetDone marks the run as finished.
func (f *Footer) SetDone(success bool, message string) {
	f.done = true
	f.success = success
	f.message = message
}

// SetWidth sets the footer width.
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetCounts updates the agent counts for display.
func (f *Footer) SetCounts(counts AgentCounts) {
	f.counts = counts
}

// View renders the footer.
func (f *Footer) View() string {
	left := fmt.Sprintf("✓%d", f.counts.Completed)
	if f.counts.Failed > 0 {
		left += f.errorStyle.Render(fmt.Sprintf(" ✗%d", f.counts.Failed))
	}
	if f.counts.Running > 0 {
		left += fmt.Sprintf(" ⏳%d", f.counts.Running)
	}

	if f.done {
		if f.success {
			left = f.successStyle.Render("✓ " + f.message)
		} else {
			left = f.errorStyle.Render("✗ " + f.message)
		}
	}

	hint := "q quit"
	if f.done {
		hint = "Press q to exit"
	}
	return left + f.separatorStyle.Render(" │ ") + f.hintStyle.Render(hint)
}
