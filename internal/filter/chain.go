package filter

import (
	"strings"

	"github.com/san-kum/picsim/internal/pic"
)

type chainStep struct {
	f      Filter
	passes int
}

// Chain applies filters in order, each the given number of times.
type Chain struct {
	steps []chainStep
}

func NewChain() *Chain { return &Chain{} }

func (c *Chain) Add(f Filter, passes int) *Chain {
	if passes < 1 {
		passes = 1
	}
	c.steps = append(c.steps, chainStep{f: f, passes: passes})
	return c
}

func (c *Chain) Len() int { return len(c.steps) }

func (c *Chain) Name() string {
	names := make([]string, len(c.steps))
	for n, s := range c.steps {
		names[n] = s.f.Name()
	}
	return strings.Join(names, "+")
}

func (c *Chain) Reach() int {
	r := 0
	for _, s := range c.steps {
		if re, ok := s.f.(Reacher); ok {
			r = max(r, re.Reach())
		}
	}
	return r
}

func (c *Chain) Solve(t *pic.Tile) {
	for _, s := range c.steps {
		for p := 0; p < s.passes; p++ {
			s.f.Solve(t)
		}
	}
}
