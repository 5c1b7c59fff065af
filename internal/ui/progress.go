// Package ui renders live progress for long CLI runs in a terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Status is the state of one phase.
type Status uint8

const (
	StatusQueued Status = iota
	StatusRunning
	StatusDone
	StatusFailed
)

// String returns the label shown next to a phase.
func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports progress of one phase. Done and Total count operations;
// a zero Total means the phase has no measurable size.
type Event struct {
	Phase  string
	Status Status
	Done   int
	Total  int
	Note   string
}

type phaseItem struct {
	name   string
	status Status
	done   int
	total  int
	note   string
}

// fraction is how far along the phase is, in [0, 1].
func (p phaseItem) fraction() float64 {
	switch {
	case p.status == StatusDone || p.status == StatusFailed:
		return 1
	case p.status == StatusQueued || p.total <= 0:
		return 0
	default:
		return min(float64(p.done)/float64(p.total), 1)
	}
}

type progressModel struct {
	title   string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	items   []phaseItem
	index   map[string]int
	width   int
	done    bool
}

type eventMsg Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model listing phases with their
// status and an overall progress bar. It quits when events is closed.
func NewProgressModel(title string, phases []string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]phaseItem, 0, len(phases))
	index := make(map[string]int, len(phases))
	for i, name := range phases {
		items = append(items, phaseItem{name: name})
		index[name] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := 0
	for _, item := range m.items {
		nameWidth = max(nameWidth, runewidth.StringWidth(item.name))
	}
	noteWidth := max(m.width-nameWidth-30, 10)

	for _, item := range m.items {
		status := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		line := fmt.Sprintf("  %s %s", status, runewidth.FillRight(item.name, nameWidth))
		if item.total > 0 {
			line += fmt.Sprintf("  %d/%d", item.done, item.total)
		}
		if item.note != "" {
			line += "  " + truncate(item.note, noteWidth)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev Event) tea.Cmd {
	idx, ok := m.index[ev.Phase]
	if !ok {
		return nil
	}
	item := &m.items[idx]
	item.status = ev.Status
	item.done = ev.Done
	if ev.Total > 0 {
		item.total = ev.Total
	}
	if ev.Note != "" {
		item.note = ev.Note
	}
	return m.prog.SetPercent(m.overall())
}

// overall averages the phase fractions.
func (m *progressModel) overall() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, item := range m.items {
		total += item.fraction()
	}
	return total / float64(len(m.items))
}

func styleStatus(status Status) lipgloss.Style {
	switch status {
	case StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case StatusRunning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
