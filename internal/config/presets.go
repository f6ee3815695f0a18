package config

import "sort"

func preset(mutate func(c *Config)) *Config {
	c := DefaultConfig()
	mutate(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"turbulence": {
		"small": preset(func(c *Config) {
			c.Mesh.Nx, c.Mesh.Ny = 16, 16
			c.Steps = 20
		}),
		"default": DefaultConfig(),
		"hot": preset(func(c *Config) {
			c.Plasma.Delgam = 0.5
			c.Filters = []FilterConfig{
				{Name: "binomial2", Passes: 2, Alpha: 0.5},
				{Name: "compensator2", Passes: 1},
			}
		}),
		"3d": preset(func(c *Config) {
			c.Dim = 3
			c.Mesh = MeshConfig{Nx: 12, Ny: 12, Nz: 12, Halo: 3}
			c.Plasma.PPC = 2
			c.Steps = 10
		}),
	},
	"beam": {
		"cold": preset(func(c *Config) {
			c.Scenario = "beam"
			c.Plasma.Delgam = 0
			c.Plasma.BeamU = 0.5
		}),
		"relativistic": preset(func(c *Config) {
			c.Scenario = "beam"
			c.Plasma.Delgam = 0.01
			c.Plasma.BeamU = 5.0
		}),
	},
	"rest": {
		"single": preset(func(c *Config) {
			c.Scenario = "rest"
			c.Mesh.Nx, c.Mesh.Ny = 4, 4
			c.CFL = 1.0
			c.Steps = 1
			c.Filters = nil
		}),
	},
	"filter-test": {
		"strided": preset(func(c *Config) {
			c.Filters = []FilterConfig{{Name: "general3p_strided", Passes: 1, Alpha: 0.5, Stride: 2}}
		}),
		"closed-form": preset(func(c *Config) {
			c.Filters = []FilterConfig{{Name: "binomial2_strided2", Passes: 1}}
		}),
		"sweep": preset(func(c *Config) {
			c.Filters = []FilterConfig{{Name: "opt_binomial2", Passes: 1, Subcycles: 2}}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scenario, name string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[name]
	if !ok {
		return nil
	}
	out := *cfg
	out.Filters = append([]FilterConfig(nil), cfg.Filters...)
	out.Output.Fields = append([]string(nil), cfg.Output.Fields...)
	return &out
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Scenarios() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
