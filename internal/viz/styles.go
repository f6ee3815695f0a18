package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/picsim/internal/mesh"
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusPaused  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))

	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6655"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#55aaff"))
)

// shades runs from empty to full; sign is carried by colour.
var shades = []rune(" .:-=+*#%@")

// Shade maps |v|/scale to a ramp character.
func Shade(v, scale float64) rune {
	if scale <= 0 || v == 0 {
		return shades[0]
	}
	idx := int(math.Abs(v) / scale * float64(len(shades)-1))
	if idx >= len(shades) {
		idx = len(shades) - 1
	}
	return shades[idx]
}

// Heatmap renders the k-plane of m, downsampled to at most width by height
// characters. Each character shows the cell at the start of its block.
func Heatmap(m *mesh.Mesh, k, width, height int) string {
	sx := stride(m.Nx, width)
	sy := stride(m.Ny, height)

	scale := 0.0
	for j := 0; j < m.Ny; j++ {
		for i := 0; i < m.Nx; i++ {
			scale = math.Max(scale, math.Abs(m.At(i, j, k)))
		}
	}

	var b strings.Builder
	for j := m.Ny - 1; j >= 0; j -= sy {
		for i := 0; i < m.Nx; i += sx {
			v := m.At(i, j, k)
			c := string(Shade(v, scale))
			switch {
			case v > 0:
				b.WriteString(positiveStyle.Render(c))
			case v < 0:
				b.WriteString(negativeStyle.Render(c))
			default:
				b.WriteString(c)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func stride(n, limit int) int {
	if limit <= 0 || n <= limit {
		return 1
	}
	return (n + limit - 1) / limit
}
