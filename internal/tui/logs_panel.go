package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// LogLevel represents the severity shown for an event.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// EventLevel maps an event type onto a display severity.
func EventLevel(t models.EventType) LogLevel {
	switch t {
	case models.EventAgentFailed, models.EventAgentAbandoned, models.EventAgentEvicted:
		return LogLevelError
	case models.EventAdmissionDenied, models.EventDependencyRejected,
		models.EventLockReclaimed, models.EventAgentRetried:
		return LogLevelWarn
	default:
		return LogLevelInfo
	}
}

// EventsPanel displays recent coordination events, optionally filtered to one agent.
type EventsPanel struct {
	events        []models.Event
	filter        string
	filterOptions []string
	filterIndex   int
	width         int
	height        int
	maxEvents     int

	titleStyle   lipgloss.Style
	filterStyle  lipgloss.Style
	infoStyle    lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	timeStyle    lipgloss.Style
	agentStyle   lipgloss.Style
	messageStyle lipgloss.Style
	emptyStyle   lipgloss.Style
}

// NewEventsPanel creates a new EventsPanel instance.
func NewEventsPanel() *EventsPanel {
	return &EventsPanel{
		filter:        "all",
		filterOptions: []string{"all"},
		maxEvents:     500,
		height:        10,
		width:         80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")),

		filterStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),

		infoStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		warnStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		timeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		agentStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")),

		messageStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		emptyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true),
	}
}

// AddEvent appends an event, trimming the oldest beyond the cap.
func (p *EventsPanel) AddEvent(ev models.Event) {
	p.events = append(p.events, ev)
	if len(p.events) > p.maxEvents {
		p.events = p.events[len(p.events)-p.maxEvents:]
	}
	if ev.AgentID != "" {
		p.addFilterOption(ev.AgentID)
	}
}

func (p *EventsPanel) addFilterOption(agentID string) {
	for _, opt := range p.filterOptions {
		if opt == agentID {
			return
		}
	}
	p.filterOptions = append(p.filterOptions, agentID)
}

// SetSize updates the panel dimensions.
func (p *EventsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Update handles key presses. 'f' cycles the agent filter.
func (p *EventsPanel) Update(msg tea.Msg) (*EventsPanel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "f" {
		p.filterIndex = (p.filterIndex + 1) % len(p.filterOptions)
		p.filter = p.filterOptions[p.filterIndex]
	}
	return p, nil
}

// Filtered returns the events matching the current filter.
func (p *EventsPanel) Filtered() []models.Event {
	if p.filter == "all" {
		return p.events
	}
	var out []models.Event
	for _, ev := range p.events {
		if ev.AgentID == p.filter {
			out = append(out, ev)
		}
	}
	return out
}

// CurrentFilter returns the current filter value.
func (p *EventsPanel) CurrentFilter() string {
	return p.filter
}

// View renders the newest events that fit in the panel.
func (p *EventsPanel) View() string {
	var b strings.Builder

	b.WriteString(p.titleStyle.Render("Events"))
	b.WriteString(p.filterStyle.Render(fmt.Sprintf(" [%s]", p.filter)))
	b.WriteString("\n")

	filtered := p.Filtered()
	if len(filtered) == 0 {
		b.WriteString(p.emptyStyle.Render("  No events"))
		return b.String()
	}

	visible := p.height - 1
	if visible < 1 {
		visible = 1
	}
	start := len(filtered) - visible
	if start < 0 {
		start = 0
	}
	for _, ev := range filtered[start:] {
		b.WriteString(p.renderLine(ev))
		b.WriteString("\n")
	}
	return b.String()
}

func (p *EventsPanel) renderLine(ev models.Event) string {
	parts := []string{p.timeStyle.Render(ev.Timestamp.Format("15:04:05.000"))}

	levelStyle := p.infoStyle
	switch EventLevel(ev.Type) {
	case LogLevelWarn:
		levelStyle = p.warnStyle
	case LogLevelError:
		levelStyle = p.errorStyle
	}
	parts = append(parts, levelStyle.Render(string(ev.Type)))

	if ev.AgentID != "" && p.filter == "all" {
		parts = append(parts, p.agentStyle.Render("["+ev.AgentID+"]"))
	}

	msg := ev.Message
	if ev.Path != "" {
		msg = strings.TrimSpace(ev.Path + " " + msg)
	}
	maxLen := p.width - 40
	if maxLen < 20 {
		maxLen = 20
	}
	if len(msg) > maxLen {
		msg = msg[:maxLen-3] + "..."
	}
	parts = append(parts, p.messageStyle.Render(msg))

	return strings.Join(parts, " ")
}
