package viz

import (
	"strings"

	"github.com/san-kum/picsim/internal/pic"
)

// Braille cell dot layout, offset 0x2800:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a Braille dot matrix of Width*2 by Height*4 pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on pixel (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Count returns the number of lit pixels.
func (c *Canvas) Count() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := r - brailleBlank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

// PlotParticles projects every particle of t onto the x-y plane of the
// canvas. On a 1D tile y is taken from the particle's x-velocity instead,
// giving an x-u phase portrait.
func (c *Canvas) PlotParticles(t *pic.Tile) {
	c.Clear()
	pw, ph := float64(c.Width*2), float64(c.Height*4)
	lx := float64(t.Lengths[0])
	ly := float64(t.Lengths[1])

	for _, con := range t.Containers {
		for n := 0; n < con.Size(); n++ {
			px := (con.Loc(0, n) - t.Mins[0]) / lx
			var py float64
			if t.Dim.Active(1) {
				py = (con.Loc(1, n) - t.Mins[1]) / ly
			} else {
				py = 0.5 + 0.25*con.Vel(0, n)
			}
			c.Set(int(px*pw), int((1-py)*ph))
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
