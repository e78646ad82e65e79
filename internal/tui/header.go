package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// Header renders the title bar and coordinator-wide counters.
type Header struct {
	width    int
	title    string
	usage    models.ResourceUsage
	status   models.Status
	capacity int

	titleStyle    lipgloss.Style
	labelStyle    lipgloss.Style
	valueStyle    lipgloss.Style
	progressFull  lipgloss.Style
	progressWarn  lipgloss.Style
	progressEmpty lipgloss.Style
	conflictStyle lipgloss.Style
}

// NewHeader creates a new Header.
func NewHeader(title string) *Header {
	return &Header{
		width: 80,
		title: title,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("63")).
			Padding(0, 1),

		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		valueStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		progressFull: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		progressWarn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		progressEmpty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		conflictStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetUsage updates the counters shown in the header.
func (h *Header) SetUsage(usage models.ResourceUsage, status models.Status, capacity int) {
	h.usage = usage
	h.status = status
	h.capacity = capacity
}

// View renders the header.
func (h *Header) View() string {
	var b strings.Builder

	b.WriteString(h.titleStyle.Render(h.title))
	b.WriteString("\n\n")

	b.WriteString(h.labelStyle.Render("Capacity "))
	b.WriteString(h.renderBar(h.usage.CapacityPercent, 30))
	b.WriteString(h.valueStyle.Render(fmt.Sprintf(" %d/%d agents", h.usage.ActiveAgents, h.capacity)))
	b.WriteString("\n")

	b.WriteString(h.labelStyle.Render("Locks    "))
	b.WriteString(h.valueStyle.Render(fmt.Sprintf("%d", h.usage.FileLocks)))
	b.WriteString(h.labelStyle.Render("   Conflicts "))
	conflicts := fmt.Sprintf("%d", h.status.Conflicts)
	if h.status.Conflicts > 0 {
		b.WriteString(h.conflictStyle.Render(conflicts))
	} else {
		b.WriteString(h.valueStyle.Render(conflicts))
	}
	b.WriteString("\n")

	return b.String()
}

// Height returns the header height in lines.
func (h *Header) Height() int {
	return 4 // title + blank + capacity + locks
}

// renderBar draws a capacity bar that turns orange once the ceiling is near.
func (h *Header) renderBar(pct float64, width int) string {
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	filled := int(pct / 100 * float64(width))
	full := h.progressFull
	if pct >= 80 {
		full = h.progressWarn
	}

	return full.Render(strings.Repeat("█", filled)) +
		h.progressEmpty.Render(strings.Repeat("░", width-filled)) +
		fmt.Sprintf(" %3.0f%%", pct)
}
