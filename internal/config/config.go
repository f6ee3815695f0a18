package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/picsim/internal/pic"
)

const (
	DefaultDim     = 2
	DefaultN       = 32
	DefaultCFL     = 0.45
	DefaultPPC     = 4
	DefaultCOmp    = 10.0
	DefaultDelgam  = 0.1
	DefaultSteps   = 50
	DefaultDataDir = ".picsim"
)

type Config struct {
	Scenario string         `yaml:"scenario"`
	Dim      int            `yaml:"dim"`
	Mesh     MeshConfig     `yaml:"mesh"`
	Mins     [3]float64     `yaml:"mins"`
	CFL      float64        `yaml:"cfl"`
	Plasma   PlasmaConfig   `yaml:"plasma"`
	Steps    int            `yaml:"steps"`
	Seed     int64          `yaml:"seed"`
	Workers  int            `yaml:"workers"`
	Tiles    int            `yaml:"tiles"`
	Deposit  DepositConfig  `yaml:"deposit"`
	Filters  []FilterConfig `yaml:"filters"`
	Output   OutputConfig   `yaml:"output"`
}

type MeshConfig struct {
	Nx   int `yaml:"nx"`
	Ny   int `yaml:"ny"`
	Nz   int `yaml:"nz"`
	Halo int `yaml:"halo"`
}

// PlasmaConfig follows the pair-plasma normalisation: ppc particles per cell
// per species, skin depth c_omp cells, masses me and mi (signed by charge).
type PlasmaConfig struct {
	PPC       int     `yaml:"ppc"`
	COmp      float64 `yaml:"c_omp"`
	Me        float64 `yaml:"me"`
	Mi        float64 `yaml:"mi"`
	Delgam    float64 `yaml:"delgam"`
	TempRatio float64 `yaml:"temp_ratio"`
	BeamU     float64 `yaml:"beam_u"`
}

type DepositConfig struct {
	Backend     string `yaml:"backend"`
	Contraction bool   `yaml:"contraction"`
	Charge      bool   `yaml:"charge"`
}

type FilterConfig struct {
	Name      string  `yaml:"name"`
	Passes    int     `yaml:"passes"`
	Alpha     float64 `yaml:"alpha"`
	Stride    int     `yaml:"stride"`
	Subcycles int     `yaml:"subcycles"`
}

type OutputConfig struct {
	Dir           string   `yaml:"dir"`
	SnapshotEvery int      `yaml:"snapshot_every"`
	Fields        []string `yaml:"fields"`
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: "turbulence",
		Dim:      DefaultDim,
		Mesh:     MeshConfig{Nx: DefaultN, Ny: DefaultN, Nz: 1, Halo: pic.DefaultHalo},
		CFL:      DefaultCFL,
		Plasma: PlasmaConfig{
			PPC:       DefaultPPC,
			COmp:      DefaultCOmp,
			Me:        -1.0,
			Mi:        1.0,
			Delgam:    DefaultDelgam,
			TempRatio: 1.0,
		},
		Steps:   DefaultSteps,
		Seed:    1,
		Tiles:   1,
		Deposit: DepositConfig{Backend: "auto", Contraction: true},
		Filters: []FilterConfig{{Name: "binomial2", Passes: 1, Alpha: 0.5}},
		Output: OutputConfig{
			Dir:    DefaultDataDir,
			Fields: []string{"jx", "jy", "jz"},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Lengths returns the mesh extents with inactive axes forced to one cell.
func (c *Config) Lengths() [3]int {
	l := [3]int{c.Mesh.Nx, c.Mesh.Ny, c.Mesh.Nz}
	for a := c.Dim; a < 3; a++ {
		l[a] = 1
	}
	return l
}

func (c *Config) Validate() error {
	dim := pic.Dim(c.Dim)
	if !dim.Valid() {
		return fmt.Errorf("%w: %d", pic.ErrInvalidDim, c.Dim)
	}
	lengths := [3]int{c.Mesh.Nx, c.Mesh.Ny, c.Mesh.Nz}
	for a := 0; a < c.Dim; a++ {
		if lengths[a] < 1 {
			return fmt.Errorf("%w: axis %d has length %d", pic.ErrInvalidExtent, a, lengths[a])
		}
	}
	if c.CFL <= 0 {
		return fmt.Errorf("%w: %g", pic.ErrInvalidCFL, c.CFL)
	}
	if c.Mesh.Halo < 1 {
		return fmt.Errorf("%w: %d", pic.ErrHaloTooSmall, c.Mesh.Halo)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", pic.ErrInvalidParam, c.Steps)
	}
	if c.Tiles < 1 {
		return fmt.Errorf("%w: tiles must be at least 1, got %d", pic.ErrInvalidParam, c.Tiles)
	}
	p := c.Plasma
	if p.PPC < 0 {
		return fmt.Errorf("%w: ppc %d", pic.ErrInvalidParam, p.PPC)
	}
	if p.COmp <= 0 {
		return fmt.Errorf("%w: c_omp must be positive, got %g", pic.ErrInvalidParam, p.COmp)
	}
	if p.Me == 0 || p.Mi == 0 {
		return fmt.Errorf("%w: species masses must be non-zero", pic.ErrInvalidParam)
	}
	if p.Delgam < 0 || p.TempRatio < 0 {
		return fmt.Errorf("%w: temperatures must be non-negative", pic.ErrInvalidParam)
	}
	for _, f := range c.Filters {
		if f.Passes < 0 {
			return fmt.Errorf("%w: filter %s has %d passes", pic.ErrInvalidParam, f.Name, f.Passes)
		}
	}
	if c.Output.SnapshotEvery < 0 {
		return fmt.Errorf("%w: snapshot_every %d", pic.ErrInvalidParam, c.Output.SnapshotEvery)
	}
	return nil
}

// Derived holds the plasma normalisation computed from a config.
type Derived struct {
	Omp     float64 // plasma frequency per step
	Qe, Qi  float64 // macro-particle charges
	JNorm   float64 // current normalisation
	DelgamE float64
	DelgamI float64
	GammaTh float64 // approximate thermal Lorentz factor
}

func (c *Config) Derived() Derived {
	p := c.Plasma
	me, mi := math.Abs(p.Me), math.Abs(p.Mi)
	omp := c.CFL / p.COmp

	var qe float64
	if p.PPC > 0 {
		qe = -(omp * omp) / (float64(p.PPC) * (1.0 + me/mi))
	}

	return Derived{
		Omp:     omp,
		Qe:      qe,
		Qi:      -qe,
		JNorm:   math.Abs(qe) * float64(p.PPC) * 2 * c.CFL * c.CFL,
		DelgamE: p.Delgam,
		DelgamI: p.TempRatio * p.Delgam,
		GammaTh: 1.0 + 1.5*p.Delgam,
	}
}
