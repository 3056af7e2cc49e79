// Package config holds the YAML run configuration and the builder that
// turns it into a ready simulation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/picmesh/internal/push"
	"github.com/san-kum/picmesh/internal/solver"
)

const (
	DefaultOrder       = 2
	DefaultShapeOrder  = 1
	DefaultSteps       = 100
	DefaultRatio       = 2
	DefaultPMLCells    = 8
	DefaultRhoFloor    = 1e-12
	DefaultCFLFraction = 0.9
)

type Config struct {
	Algorithm string `yaml:"algorithm"`
	// Geometry is "cartesian" or "cylindrical".
	Geometry string  `yaml:"geometry"`
	Order    int     `yaml:"order"`
	Dt       float64 `yaml:"dt"`
	// CFL sets dt from the grid when dt is zero.
	CFL         float64        `yaml:"cfl"`
	Steps       int            `yaml:"steps"`
	Workers     int            `yaml:"workers"`
	Seed        int64          `yaml:"seed"`
	Grid        GridConfig     `yaml:"grid"`
	Cylindrical *CylGridConfig `yaml:"cylindrical"`
	Boundary    BoundaryConfig `yaml:"boundary"`
	// Cleaning enables the hyperbolic divergence-cleaning fields F and G.
	Cleaning   bool            `yaml:"cleaning"`
	Particles  ParticleConfig  `yaml:"particles"`
	Species    []SpeciesConfig `yaml:"species"`
	Levels     []LevelConfig   `yaml:"levels"`
	EMode      string          `yaml:"e_mode"`
	Medium     *MediumConfig   `yaml:"medium"`
	Hybrid     *HybridConfig   `yaml:"hybrid"`
	Lattice    []ElementConfig `yaml:"lattice"`
	GammaBoost float64         `yaml:"gamma_boost"`
	Output     OutputConfig    `yaml:"output"`
}

type GridConfig struct {
	Lo    [3]float64 `yaml:"lo"`
	N     [3]int     `yaml:"n"`
	Cell  [3]float64 `yaml:"cell"`
	Ghost int        `yaml:"ghost"`
}

// CylGridConfig is the RZ multimode grid: NR x NZ cells, RMin at the inner
// radial edge (zero puts it on the symmetry axis), Modes azimuthal modes.
type CylGridConfig struct {
	NR    int     `yaml:"nr"`
	NZ    int     `yaml:"nz"`
	RMin  float64 `yaml:"rmin"`
	Dr    float64 `yaml:"dr"`
	Dz    float64 `yaml:"dz"`
	Modes int     `yaml:"modes"`
}

type BoundaryConfig struct {
	// Kind is "none", "absorbing" or "pml".
	Kind     string  `yaml:"kind"`
	PMLCells int     `yaml:"pml_cells"`
	PMLSigma float64 `yaml:"pml_sigma"`
}

type ParticleConfig struct {
	GatherOrder  int `yaml:"gather_order"`
	DepositOrder int `yaml:"deposit_order"`
	// Buffer widths in fine cells; zero means gather takes order+1 and
	// deposit follows gather.
	GatherBuffer  int    `yaml:"gather_buffer"`
	DepositBuffer int    `yaml:"deposit_buffer"`
	BufferMode    string `yaml:"buffer_deposit_mode"`
}

type SpeciesConfig struct {
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"`
	Charge float64 `yaml:"charge"`
	Mass   float64 `yaml:"mass"`
	// Level the species lives on.
	Level int `yaml:"level"`
	// Count particles are seeded uniformly over [lo, hi] with a shared
	// initial momentum. Zero leaves the species empty for external loading.
	Count  int        `yaml:"count"`
	Lo     [3]float64 `yaml:"lo"`
	Hi     [3]float64 `yaml:"hi"`
	Mom    [3]float64 `yaml:"mom"`
	Weight float64    `yaml:"weight"`
}

type LevelConfig struct {
	Lo    [3]float64 `yaml:"lo"`
	N     [3]int     `yaml:"n"`
	Ratio int        `yaml:"ratio"`
	// Faces flags which of the six faces border coarser mesh; a face set
	// false touches the domain boundary and carries no buffer there.
	Faces [3][2]bool `yaml:"faces"`
}

type MediumConfig struct {
	Eps   float64 `yaml:"eps"`
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
	// Method is "laxwendroff" or "backwardeuler".
	Method string `yaml:"method"`
}

type HybridConfig struct {
	Eta      float64 `yaml:"eta"`
	RhoFloor float64 `yaml:"rho_floor"`
	// Pe is a uniform electron pressure.
	Pe float64 `yaml:"pe"`
}

type ElementConfig struct {
	Kind string  `yaml:"kind"`
	ZMin float64 `yaml:"zmin"`
	ZMax float64 `yaml:"zmax"`
	// E and B are the transverse gradient strengths.
	E float64 `yaml:"e"`
	B float64 `yaml:"b"`
}

type OutputConfig struct {
	HistoryPath string `yaml:"history_path"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Algorithm: "yee",
		Geometry:  "cartesian",
		Order:     DefaultOrder,
		CFL:       DefaultCFLFraction,
		Steps:     DefaultSteps,
		Grid: GridConfig{
			N:     [3]int{32, 32, 32},
			Cell:  [3]float64{1e-6, 1e-6, 1e-6},
			Ghost: 3,
		},
		Boundary: BoundaryConfig{Kind: "none", PMLCells: DefaultPMLCells},
		Particles: ParticleConfig{
			GatherOrder: DefaultShapeOrder,
			BufferMode:  "replace",
		},
		EMode:      "leapfrog",
		GammaBoost: 1,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyDefaults resolves the derived defaults a zero value stands for.
func (c *Config) applyDefaults() {
	if c.Particles.DepositOrder == 0 {
		c.Particles.DepositOrder = c.Particles.GatherOrder
	}
	if c.Particles.GatherBuffer == 0 {
		c.Particles.GatherBuffer = c.Particles.GatherOrder + 1
	}
	if c.Particles.DepositBuffer == 0 {
		c.Particles.DepositBuffer = c.Particles.GatherBuffer
	}
	for i := range c.Levels {
		if c.Levels[i].Ratio == 0 {
			c.Levels[i].Ratio = DefaultRatio
		}
	}
	if c.Hybrid != nil && c.Hybrid.RhoFloor == 0 {
		c.Hybrid.RhoFloor = DefaultRhoFloor
	}
}

func (c *Config) Validate() error {
	if _, err := solver.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	if c.Dt < 0 {
		return fmt.Errorf("config: dt must be non-negative, got %g", c.Dt)
	}
	if c.Dt == 0 && (c.CFL <= 0 || c.CFL > 1) {
		return fmt.Errorf("config: cfl fraction must be in (0,1], got %g", c.CFL)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("config: steps must be positive, got %d", c.Steps)
	}
	switch c.Geometry {
	case "", "cartesian":
	case "cylindrical":
		if err := c.validateCylindrical(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: unknown geometry %q", c.Geometry)
	}
	for ax := 0; ax < 3; ax++ {
		if c.Grid.N[ax] <= 0 {
			return fmt.Errorf("config: grid extent axis %d must be positive, got %d", ax, c.Grid.N[ax])
		}
		if c.Grid.Cell[ax] <= 0 {
			return fmt.Errorf("config: cell size axis %d must be positive, got %g", ax, c.Grid.Cell[ax])
		}
	}
	switch c.Boundary.Kind {
	case "", "none", "absorbing":
	case "pml":
		if c.Boundary.PMLCells <= 0 {
			return fmt.Errorf("config: pml layer needs a positive cell count, got %d", c.Boundary.PMLCells)
		}
	default:
		return fmt.Errorf("config: unknown boundary kind %q", c.Boundary.Kind)
	}
	if _, err := parseBufferMode(c.Particles.BufferMode); err != nil {
		return err
	}
	switch c.EMode {
	case "", "leapfrog":
	case "macroscopic":
		if c.Medium == nil {
			return fmt.Errorf("config: macroscopic e_mode needs a medium section")
		}
		if _, err := solver.ParseSigmaMethod(c.Medium.Method); err != nil {
			return err
		}
	case "hybrid":
		if c.Hybrid == nil {
			return fmt.Errorf("config: hybrid e_mode needs a hybrid section")
		}
	default:
		return fmt.Errorf("config: unknown e_mode %q", c.EMode)
	}
	if c.GammaBoost < 1 {
		return fmt.Errorf("config: gamma_boost must be >= 1, got %g", c.GammaBoost)
	}
	for _, sp := range c.Species {
		switch sp.Kind {
		case "", "physical", "photon", "laser":
		default:
			return fmt.Errorf("config: species %q has unknown kind %q", sp.Name, sp.Kind)
		}
		if sp.Level < 0 || sp.Level > len(c.Levels) {
			return fmt.Errorf("config: species %q placed on missing level %d", sp.Name, sp.Level)
		}
		if sp.Count < 0 {
			return fmt.Errorf("config: species %q has negative count %d", sp.Name, sp.Count)
		}
		if sp.Count > 0 {
			if sp.Weight <= 0 {
				return fmt.Errorf("config: species %q needs a positive weight to seed particles", sp.Name)
			}
			for ax := 0; ax < 3; ax++ {
				if sp.Hi[ax] < sp.Lo[ax] {
					return fmt.Errorf("config: species %q has inverted seed region on axis %d", sp.Name, ax)
				}
			}
		}
	}
	return nil
}

// validateCylindrical gates the RZ multimode path. It carries fields only:
// the particle pipeline, refinement and the boundary variants are Cartesian.
func (c *Config) validateCylindrical() error {
	cc := c.Cylindrical
	if cc == nil {
		return fmt.Errorf("config: cylindrical geometry needs a cylindrical section")
	}
	if cc.NR <= 0 || cc.NZ <= 0 {
		return fmt.Errorf("config: cylindrical extents must be positive, got %dx%d", cc.NR, cc.NZ)
	}
	if cc.Dr <= 0 || cc.Dz <= 0 {
		return fmt.Errorf("config: cylindrical cell sizes must be positive, got dr=%g dz=%g", cc.Dr, cc.Dz)
	}
	if cc.RMin < 0 {
		return fmt.Errorf("config: rmin must be non-negative, got %g", cc.RMin)
	}
	if cc.Modes < 1 {
		return fmt.Errorf("config: need at least one azimuthal mode, got %d", cc.Modes)
	}
	if c.Order != 2 {
		return fmt.Errorf("config: cylindrical geometry supports order 2 only, got %d", c.Order)
	}
	if len(c.Levels) > 0 {
		return fmt.Errorf("config: cylindrical geometry does not support refinement levels")
	}
	if len(c.Species) > 0 || len(c.Lattice) > 0 {
		return fmt.Errorf("config: cylindrical geometry carries fields only, drop the species and lattice sections")
	}
	if c.Boundary.Kind != "" && c.Boundary.Kind != "none" {
		return fmt.Errorf("config: cylindrical geometry does not support boundary kind %q", c.Boundary.Kind)
	}
	if c.EMode != "" && c.EMode != "leapfrog" {
		return fmt.Errorf("config: cylindrical geometry does not support e_mode %q", c.EMode)
	}
	if c.Cleaning {
		return fmt.Errorf("config: cylindrical geometry does not support divergence cleaning")
	}
	return nil
}

func parseBufferMode(id string) (push.BufferDepositMode, error) {
	switch id {
	case "", "replace":
		return push.Replace, nil
	case "add":
		return push.Add, nil
	default:
		return 0, fmt.Errorf("config: unknown buffer_deposit_mode %q", id)
	}
}
