package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/agentcoord/pkg/models"
)

// Source is the read side of a coordinator the dashboard polls.
type Source interface {
	Snapshot() []models.AgentSnapshot
	ResourceUsage() models.ResourceUsage
	Status() models.Status
}

// DefaultRefresh is used when NewDashboard is given a non-positive interval.
const DefaultRefresh = 200 * time.Millisecond

// refreshMsg triggers a poll of the source.
type refreshMsg time.Time

// EventMsg forwards a coordination event to the dashboard.
type EventMsg struct {
	Event models.Event
}

// DoneMsg tells the dashboard the run has finished.
type DoneMsg struct {
	Summary string
	Err     error
}

// Dashboard is the bubbletea model for a live coordinator view.
type Dashboard struct {
	src      Source
	refresh  time.Duration
	capacity int

	agents []models.AgentSnapshot
	usage  models.ResourceUsage
	status models.Status

	spinner spinner.Model
	header  *Header
	footer  *Footer
	events  *EventsPanel

	width    int
	height   int
	done     bool
	doneErr  error
	quitting bool

	runningStyle   lipgloss.Style
	completedStyle lipgloss.Style
	failedStyle    lipgloss.Style
	idStyle        lipgloss.Style
	dimStyle       lipgloss.Style
	columnStyle    lipgloss.Style
}

// NewDashboard creates a dashboard over src. capacity is the admission
// ceiling shown in the header.
func NewDashboard(src Source, title string, capacity int, refresh time.Duration) *Dashboard {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	d := &Dashboard{
		src:      src,
		refresh:  refresh,
		capacity: capacity,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
		),
		header: NewHeader(title),
		footer: NewFooter(),
		events: NewEventsPanel(),

		runningStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")),

		completedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")),

		failedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),

		idStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		columnStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Underline(true),
	}
	d.poll()
	return d
}

// NewProgram creates a bubbletea program running a dashboard over src.
func NewProgram(src Source, title string, capacity int, refresh time.Duration) (*tea.Program, *Dashboard) {
	d := NewDashboard(src, title, capacity, refresh)
	p := tea.NewProgram(d, tea.WithAltScreen())
	return p, d
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spinner.Tick, d.scheduleRefresh())
}

func (d *Dashboard) scheduleRefresh() tea.Cmd {
	return tea.Tick(d.refresh, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// poll copies the current coordinator state into the model.
func (d *Dashboard) poll() {
	d.agents = d.src.Snapshot()
	d.usage = d.src.ResourceUsage()
	d.status = d.src.Status()
	d.header.SetUsage(d.usage, d.status, d.capacity)
	d.footer.SetCounts(CountAgents(d.agents))
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.quitting = true
			return d, tea.Quit
		}
		d.events, _ = d.events.Update(msg)

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.header.SetWidth(msg.Width)
		d.footer.SetWidth(msg.Width)
		d.events.SetSize(msg.Width, d.eventsHeight())

	case refreshMsg:
		d.poll()
		if !d.done {
			return d, d.scheduleRefresh()
		}

	case spinner.TickMsg:
		if d.done {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd

	case EventMsg:
		d.events.AddEvent(msg.Event)

	case DoneMsg:
		d.done = true
		d.doneErr = msg.Err
		d.poll()
		summary := msg.Summary
		if msg.Err != nil {
			summary = fmt.Sprintf("%s (%v)", summary, msg.Err)
		}
		d.footer.SetDone(msg.Err == nil, summary)
	}

	return d, nil
}

// eventsHeight is what remains below the header and agent rows.
func (d *Dashboard) eventsHeight() int {
	h := d.height - d.header.Height() - len(d.agents) - 5
	if h < 3 {
		h = 3
	}
	return h
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	if d.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(d.header.View())
	b.WriteString("\n")

	if !d.done {
		b.WriteString(d.spinner.View())
		b.WriteString(" running\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(d.renderAgents())
	b.WriteString("\n")
	b.WriteString(d.events.View())
	b.WriteString("\n")
	b.WriteString(d.footer.View())
	return b.String()
}

// renderAgents draws one row per agent in registration order.
func (d *Dashboard) renderAgents() string {
	if len(d.agents) == 0 {
		return d.dimStyle.Render("  No agents registered") + "\n"
	}

	var b strings.Builder
	b.WriteString(d.columnStyle.Render(fmt.Sprintf("  %-16s %-10s %-7s %s", "AGENT", "STATUS", "RETRY", "LOCKS")))
	b.WriteString("\n")

	for _, a := range d.agents {
		style := d.runningStyle
		switch a.Status {
		case models.AgentStatusCompleted:
			style = d.completedStyle
		case models.AgentStatusFailed:
			style = d.failedStyle
		}

		id := a.ID
		if len(id) > 16 {
			id = id[:15] + "…"
		}
		locks := strings.Join(a.Locks, ", ")
		if locks == "" {
			locks = "-"
		}
		if len(a.Dependencies) > 0 {
			locks += d.dimStyle.Render("  waits on " + strings.Join(a.Dependencies, ","))
		}

		b.WriteString("  ")
		b.WriteString(d.idStyle.Render(fmt.Sprintf("%-16s", id)))
		b.WriteString(" ")
		b.WriteString(style.Render(fmt.Sprintf("%-10s", a.Status)))
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf("%-7d", a.RetryCount))
		b.WriteString(" ")
		b.WriteString(locks)
		if a.Error != "" && a.Status == models.AgentStatusFailed {
			b.WriteString(d.failedStyle.Render("  " + a.Error))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Done reports whether DoneMsg has been received.
func (d *Dashboard) Done() bool {
	return d.done
}

// Err returns the error carried by DoneMsg, if any.
func (d *Dashboard) Err() error {
	return d.doneErr
}
