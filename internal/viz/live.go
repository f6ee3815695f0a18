package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/picsim/internal/metrics"
	"github.com/san-kum/picsim/internal/pic"
	"github.com/san-kum/picsim/internal/sim"
)

const (
	width           = 64
	height          = 24
	historyCapacity = 600
)

// views is the order the F key cycles through.
var views = []string{"jx", "jy", "jz", "rho"}

type TickMsg time.Time

// Model steps one tile and renders it.
type Model struct {
	sim       *sim.Simulator
	tile      *pic.Tile
	title     string
	step      int
	maxSteps  int
	running   bool
	view      int
	particles bool
	showHelp  bool
	canvas    *Canvas
	last      metrics.Summary
	history   []float64
	frameRate time.Duration
}

// NewModel wraps s and t. maxSteps <= 0 runs until quit.
func NewModel(s *sim.Simulator, t *pic.Tile, title string, maxSteps int) Model {
	return Model{
		sim:       s,
		tile:      t,
		title:     title,
		maxSteps:  maxSteps,
		running:   true,
		canvas:    NewCanvas(width/2, height/2),
		history:   make([]float64, 0, historyCapacity),
		frameRate: time.Second / 30,
	}
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.advance()
			}
		case "f":
			m.view = (m.view + 1) % len(views)
		case "p":
			m.particles = !m.particles
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, m.tick()
	}
	return m, nil
}

// Done reports whether the step limit has been reached.
func (m Model) Done() bool {
	return m.maxSteps > 0 && m.step >= m.maxSteps
}

func (m *Model) advance() {
	if m.Done() {
		m.running = false
		return
	}
	m.last = m.sim.Step(m.tile, m.step)
	m.step++

	m.history = append(m.history, m.last.CurrentEnergy)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m Model) Step() int { return m.step }

func (m Model) View() string {
	var body string
	if m.particles {
		m.canvas.PlotParticles(m.tile)
		body = m.canvas.String()
	} else {
		f, _ := m.tile.Lattice.Field(views[m.view])
		body = Heatmap(f, 0, width, height)
	}

	left := canvasStyle.Render(body)
	right := statsStyle.Render(m.stats())
	out := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	if len(m.history) >= 2 {
		plot := asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(width),
			asciigraph.Caption("current energy"))
		out = lipgloss.JoinVertical(lipgloss.Left, out, graphStyle.Render(plot))
	}

	help := "space pause  n step  f field  p particles  ? help  q quit"
	if m.showHelp {
		help = strings.Join([]string{
			"space  pause or resume",
			"n      single step while paused",
			"f      cycle jx, jy, jz, rho",
			"p      toggle particle view",
			"q      quit",
		}, "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, out, helpStyle.Render(help))
}

func (m Model) stats() string {
	status := statusRunning.Render("RUNNING")
	if !m.running {
		status = statusPaused.Render("PAUSED")
	}
	view := views[m.view]
	if m.particles {
		view = "particles"
	}

	rows := [][2]string{
		{"step", fmt.Sprintf("%d", m.step)},
		{"view", view},
		{"particles", fmt.Sprintf("%d", m.tile.NumParticles())},
		{"sum jx", fmt.Sprintf("%+.4e", m.last.JxSum)},
		{"sum jy", fmt.Sprintf("%+.4e", m.last.JySum)},
		{"sum jz", fmt.Sprintf("%+.4e", m.last.JzSum)},
		{"sum rho", fmt.Sprintf("%+.4e", m.last.RhoSum)},
		{"|j|^2", fmt.Sprintf("%.4e", m.last.CurrentEnergy)},
		{"peak", fmt.Sprintf("%.4e", m.last.PeakCurrent)},
		{"kinetic", fmt.Sprintf("%.4e", m.last.Kinetic)},
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.title+" "+m.tile.Dim.String()) + "\n")
	b.WriteString(status + "\n\n")
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	return b.String()
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
