package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"cosched/internal/sched"
)

// Frame is one sampled view of a scheduler.
type Frame struct {
	Cycle uint64
	Total uint64 // planned cycles, 0 when running until interrupted
	Tick  uint32
	Tasks []sched.TaskInfo
}

type topModel struct {
	title   string
	frames  <-chan Frame
	spinner spinner.Model
	prog    progress.Model
	frame   Frame
	width   int
	done    bool
}

type frameMsg Frame
type doneMsg struct{}

// NewTopModel returns a Bubble Tea model that renders scheduler frames
// until the channel is closed.
func NewTopModel(title string, frames <-chan Frame) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &topModel{
		title:   title,
		frames:  frames,
		spinner: sp,
		prog:    prog,
		width:   80,
	}
}

func (m *topModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m *topModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = Frame(msg)
		return m, tea.Batch(m.progressCmd(), m.listen())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
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

func (m *topModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("%s  cycle %d  tick %d", m.title, m.frame.Cycle, m.frame.Tick)
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := m.width - 52
	if nameWidth < 12 {
		nameWidth = 12
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	b.WriteString(dim.Render(fmt.Sprintf("  %3s %-*s %10s %6s %8s %10s", "#", nameWidth, "task", "state", "mark", "timeout", "runs")))
	b.WriteString("\n")

	for _, info := range m.frame.Tasks {
		name := pad(truncate(info.Name, nameWidth), nameWidth)
		if info.HoldsLock {
			name = pad(truncate(info.Name+" *", nameWidth), nameWidth)
		}
		state := styleState(info.State).Render(fmt.Sprintf("%10s", info.State))
		fmt.Fprintf(&b, "  %3d %s %s %6d %8d %10d\n",
			info.Handle, name, state, info.Marker, info.Timeout, info.Activations)
	}

	if m.frame.Total > 0 {
		b.WriteString("\n")
		if m.done {
			b.WriteString(m.prog.ViewAs(1.0))
		} else {
			b.WriteString(m.prog.View())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *topModel) listen() tea.Cmd {
	return func() tea.Msg {
		f, ok := <-m.frames
		if !ok {
			return doneMsg{}
		}
		return frameMsg(f)
	}
}

func (m *topModel) progressCmd() tea.Cmd {
	if m.frame.Total == 0 {
		return nil
	}
	pct := float64(m.frame.Cycle) / float64(m.frame.Total)
	if pct > 1 {
		pct = 1
	}
	return m.prog.SetPercent(pct)
}

func styleState(st sched.State) lipgloss.Style {
	switch st {
	case sched.StateRunning, sched.StateReady:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case sched.StateBlocked:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case sched.StateWaiting:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	case sched.StateSuspend:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func pad(value string, width int) string {
	return runewidth.FillRight(value, width)
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
