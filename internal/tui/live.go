// Package tui renders a live step monitor for long runs.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/picmesh/internal/diag"
	"github.com/san-kum/picmesh/internal/driver"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// Monitor collects per-step status from the run goroutine for the UI
// goroutine to render. It is safe for concurrent use.
type Monitor struct {
	mu        sync.Mutex
	step      int
	time      float64
	particles int
	levels    int
	energy    []float64
	done      bool
	err       error
}

func NewMonitor() *Monitor { return &Monitor{} }

func (m *Monitor) OnStep(step int, t float64, d *driver.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.step = step
	m.time = t
	m.levels = len(d.Levels())
	m.particles = 0
	for _, lv := range d.Levels() {
		m.particles += lv.Arena.Total()
	}
	m.energy = append(m.energy, diag.TotalFieldEnergy(d))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
}

// Finish marks the run complete so the UI can stop on its own.
func (m *Monitor) Finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = true
	m.err = err
}

func (m *Monitor) snapshot() Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	hist := make([]float64, len(m.energy))
	copy(hist, m.energy)
	return Model{
		step:      m.step,
		time:      m.time,
		particles: m.particles,
		levels:    m.levels,
		energy:    hist,
		done:      m.done,
		err:       m.err,
	}
}

type TickMsg time.Time

// Model is the bubbletea state for the monitor view.
type Model struct {
	monitor    *Monitor
	totalSteps int

	step      int
	time      float64
	particles int
	levels    int
	energy    []float64
	done      bool
	err       error
}

func NewModel(monitor *Monitor, totalSteps int) Model {
	return Model{monitor: monitor, totalSteps: totalSteps}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case TickMsg:
		snap := m.monitor.snapshot()
		snap.monitor = m.monitor
		snap.totalSteps = m.totalSteps
		if snap.done {
			return snap, tea.Quit
		}
		return snap, tick()
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("picmesh"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	row("step", fmt.Sprintf("%d / %d", m.step, m.totalSteps))
	row("time", fmt.Sprintf("%.4e s", m.time))
	row("levels", fmt.Sprintf("%d", m.levels))
	row("particles", fmt.Sprintf("%d", m.particles))
	if n := len(m.energy); n > 0 {
		row("field energy", fmt.Sprintf("%.6e J", m.energy[n-1]))
		b.WriteString(graphStyle.Render(asciigraph.Plot(m.energy, asciigraph.Height(8), asciigraph.Width(60))))
		b.WriteString("\n")
	}
	if m.done {
		if m.err != nil {
			b.WriteString(doneStyle.Render(fmt.Sprintf("run failed: %v", m.err)))
		} else {
			b.WriteString(doneStyle.Render("run complete"))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("q: quit"))
	return b.String()
}

// Run blocks until the monitored run finishes or the user quits.
func Run(monitor *Monitor, totalSteps int) error {
	p := tea.NewProgram(NewModel(monitor, totalSteps))
	_, err := p.Run()
	return err
}
