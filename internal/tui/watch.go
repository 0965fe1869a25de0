// Package tui renders a live terminal view of a running sampling
// session, fed by the engine's event stream.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"resmon/internal/session"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

const (
	gaugeFill  = "█"
	gaugeEmpty = "░"
	gaugeWidth = 28
)

// Model displays the latest measurement and session progress
type Model struct {
	engine *session.Engine
	events <-chan session.Event
	cancel func()

	latest    *session.Measurement
	progress  float64
	elapsed   float64
	duration  float64
	lastError string
	finished  bool
	quitting  bool
}

// New attaches a fresh view to the engine's event stream
func New(engine *session.Engine) *Model {
	events, cancel := engine.Subscribe()
	return &Model{
		engine: engine,
		events: events,
		cancel: cancel,
	}
}

type (
	eventMsg session.Event
	doneMsg  struct{}
)

// waitForEvent blocks on the subscription until the next event or
// channel close.
func waitForEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.cancel()
			m.engine.Stop()
			return m, tea.Quit
		}
	case eventMsg:
		ev := session.Event(msg)
		switch ev.Type {
		case session.EventSample:
			m.latest = ev.Measurement
			m.progress = ev.ProgressPercent
			m.elapsed = ev.ElapsedSeconds
			m.duration = ev.DurationSeconds
			m.lastError = ""
		case session.EventError:
			if ev.Err != nil {
				m.lastError = ev.Err.Error()
			}
		case session.EventCompleted:
			m.finished = true
		}
		return m, waitForEvent(m.events)
	case doneMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render("resmon") + "  " +
		subtleStyle.Render(fmt.Sprintf("%.0fs / %.0fs", m.elapsed, m.duration))

	if m.latest == nil {
		body := subtleStyle.Render("Waiting for first sample...")
		if m.lastError != "" {
			body = errorStyle.Render(m.lastError)
		}
		return header + "\n" + body + "\n"
	}

	s := m.latest

	cpuBody := gaugeBar(s.CPU.UsagePercent, gaugeWidth)
	if s.CPU.TemperatureC != nil {
		cpuBody += fmt.Sprintf("  %.0f°C", *s.CPU.TemperatureC)
	}
	cpuCard := card("CPU", cpuBody)

	memCard := card("Memory", fmt.Sprintf("%s  %.1f/%.1f GiB",
		gaugeBar(s.Memory.UsedPercent, gaugeWidth),
		gib(s.Memory.UsedBytes), gib(s.Memory.TotalBytes)))

	ioCard := card("IO / NET", fmt.Sprintf(
		"Disk R/W: %.1f / %.1f MB/s   Net RX/TX: %.1f / %.1f MB/s",
		mbs(s.Disk.ReadBytesPerSec), mbs(s.Disk.WriteBytesPerSec),
		mbs(s.Network.RecvBytesPerSec), mbs(s.Network.SentBytesPerSec)))

	cards := []string{cpuCard, memCard, ioCard}
	if s.GPU != nil {
		cards = append(cards, card("GPU", fmt.Sprintf("%s %4.0f%%  %.0f°C  %.0f/%.0f MiB",
			s.GPU.Name, s.GPU.UtilizationPercent, s.GPU.TemperatureC,
			float64(s.GPU.MemoryUsedBytes)/(1<<20), float64(s.GPU.MemoryTotalBytes)/(1<<20))))
	}

	lines := []string{
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		subtleStyle.Render(fmt.Sprintf("Progress: %s %.1f%%", gaugeBarPlain(m.progress, gaugeWidth), m.progress)),
	}
	if m.lastError != "" {
		lines = append(lines, errorStyle.Render("Last error: "+m.lastError))
	}
	if m.finished {
		lines = append(lines, labelStyle.Render("Session completed."))
	} else {
		lines = append(lines, subtleStyle.Render("Press q to stop the session."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func card(title, body string) string {
	return cardStyle.Render(labelStyle.Render(title) + "\n" + body)
}

func gaugeBar(pct float64, width int) string {
	return fmt.Sprintf("%s %5.1f%%", gaugeBarPlain(pct, width), pct)
}

func gaugeBarPlain(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat(gaugeFill, filled) + strings.Repeat(gaugeEmpty, width-filled) + "]"
}

func gib(b uint64) float64 { return float64(b) / (1 << 30) }

func mbs(v float64) float64 { return v / (1000 * 1000) }

// Run drives the live view until the session ends or the user quits
func Run(engine *session.Engine) error {
	prog := tea.NewProgram(New(engine), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
