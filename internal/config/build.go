package config

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/driver"
	"github.com/san-kum/picmesh/internal/hybrid"
	"github.com/san-kum/picmesh/internal/lattice"
	"github.com/san-kum/picmesh/internal/medium"
	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/particles"
	"github.com/san-kum/picmesh/internal/push"
	"github.com/san-kum/picmesh/internal/refine"
	"github.com/san-kum/picmesh/internal/solver"
	"github.com/san-kum/picmesh/internal/stencil"
)

// Build turns a validated configuration into a ready driver. Everything a
// run needs is constructed here; a bad combination fails now instead of
// mid-run.
func Build(cfg *Config) (*driver.Driver, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Geometry == "cylindrical" {
		return nil, fmt.Errorf("config: cylindrical geometry builds through BuildCyl")
	}
	algo, err := solver.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return nil, err
	}
	bufMode, err := parseBufferMode(cfg.Particles.BufferMode)
	if err != nil {
		return nil, err
	}

	ghost := cfg.Grid.Ghost
	if ghost == 0 {
		ghost = cfg.Particles.DepositOrder + 2
		if p := cfg.Order / 2; p+1 > ghost {
			ghost = p + 1
		}
	}
	dt := cfg.Dt
	if dt == 0 {
		s := 0.0
		for ax := 0; ax < 3; ax++ {
			s += 1 / (cfg.Grid.Cell[ax] * cfg.Grid.Cell[ax])
		}
		dt = cfg.CFL / (constants.C * math.Sqrt(s))
	}

	pushCfg := push.Config{
		GatherOrder:  cfg.Particles.GatherOrder,
		DepositOrder: cfg.Particles.DepositOrder,
		BufferMode:   bufMode,
	}
	if err := pushCfg.Validate(ghost); err != nil {
		return nil, err
	}

	var lat *lattice.Lattice
	if len(cfg.Lattice) > 0 || cfg.GammaBoost > 1 {
		elems := make([]lattice.Element, len(cfg.Lattice))
		for i, ec := range cfg.Lattice {
			kind, err := parseElementKind(ec.Kind)
			if err != nil {
				return nil, err
			}
			elems[i] = lattice.Element{Kind: kind, ZStart: ec.ZMin, ZEnd: ec.ZMax, DEdx: ec.E, DBdx: ec.B}
		}
		if lat, err = lattice.New(elems, cfg.GammaBoost); err != nil {
			return nil, err
		}
	}

	needRho := cfg.Cleaning || cfg.EMode == "hybrid"
	baseGeom := mesh.Geometry{Lo: cfg.Grid.Lo, N: cfg.Grid.N, Cell: cfg.Grid.Cell, Ghost: ghost}
	baseOpts := mesh.Options{Rho: needRho, DivCleaning: cfg.Cleaning}
	if cfg.Boundary.Kind == "pml" {
		baseOpts.PMLCells = cfg.Boundary.PMLCells
		baseOpts.PMLSigma = cfg.Boundary.PMLSigma
	}
	baseMesh, err := mesh.NewLevel(baseGeom, baseOpts)
	if err != nil {
		return nil, err
	}
	base := &driver.Level{Mesh: baseMesh, Ratio: 1}
	if base.Solver, err = newSolver(algo, cfg.Order, baseGeom); err != nil {
		return nil, err
	}
	base.Pass = &push.Pass{Cfg: pushCfg, Level: baseMesh}
	if lat != nil {
		base.Pass.Finder = lat.NewFinder(baseGeom)
	}
	if cfg.Boundary.Kind == "absorbing" {
		base.AbsorbLo = [3]bool{true, true, true}
		base.AbsorbHi = [3]bool{true, true, true}
	}

	// The medium and Ohm's-law modes apply to the base level; refined
	// patches always run the vacuum leapfrog update.
	switch cfg.EMode {
	case "macroscopic":
		base.EMode = driver.Macroscopic
		if base.Medium, err = medium.Uniform(baseGeom, cfg.Medium.Eps, cfg.Medium.Mu, cfg.Medium.Sigma); err != nil {
			return nil, err
		}
		if base.Sigma, err = solver.ParseSigmaMethod(cfg.Medium.Method); err != nil {
			return nil, err
		}
	case "hybrid":
		base.EMode = driver.HybridOhm
		if base.Hybrid, err = hybrid.NewModel(baseGeom, cfg.Hybrid.Eta, cfg.Hybrid.RhoFloor); err != nil {
			return nil, err
		}
		base.Hybrid.Pe.Fill(cfg.Hybrid.Pe)
	}

	parent := base
	for li, lc := range cfg.Levels {
		var cell [3]float64
		for ax := 0; ax < 3; ax++ {
			cell[ax] = parent.Mesh.Geom.Cell[ax] / float64(lc.Ratio)
		}
		fg := mesh.Geometry{Lo: lc.Lo, N: lc.N, Cell: cell, Ghost: ghost}
		fm, err := mesh.NewLevel(fg, mesh.Options{Rho: needRho, Refined: true})
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", li+1, err)
		}
		mask, err := refine.Build(fg, lc.Faces, cfg.Particles.GatherBuffer, cfg.Particles.DepositBuffer)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", li+1, err)
		}
		lv := &driver.Level{Mesh: fm, Ratio: lc.Ratio, Parent: parent}
		if lv.Solver, err = newSolver(algo, cfg.Order, fg); err != nil {
			return nil, fmt.Errorf("level %d: %w", li+1, err)
		}
		coarseGeom := parent.Mesh.Geom
		lv.Pass = &push.Pass{Cfg: pushCfg, Level: fm, Mask: mask, CoarseGeom: &coarseGeom}
		if lat != nil {
			lv.Pass.Finder = lat.NewFinder(fg)
		}
		parent.Child = lv
		parent = lv
	}

	levels := []*driver.Level{base}
	for lv := base.Child; lv != nil; lv = lv.Child {
		levels = append(levels, lv)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	for _, sc := range cfg.Species {
		kind, err := parseSpeciesKind(sc.Kind)
		if err != nil {
			return nil, err
		}
		sp, err := particles.NewSpecies(sc.Name, kind, sc.Charge, sc.Mass)
		if err != nil {
			return nil, err
		}
		lv := levels[sc.Level]
		if lv.Arena == nil {
			lv.Arena = &particles.Arena{}
		}
		patch := particles.NewPatch(sp, len(lv.Arena.Patches))
		attrs := make([]float64, len(sp.Attrs))
		if kind == particles.Laser {
			// laser particles advect with the velocity attributes
			copy(attrs, sc.Mom[:])
		}
		for i := 0; i < sc.Count; i++ {
			var pos [3]float64
			for ax := 0; ax < 3; ax++ {
				pos[ax] = sc.Lo[ax] + rng.Float64()*(sc.Hi[ax]-sc.Lo[ax])
			}
			if !lv.Mesh.Geom.Contains(pos, 0) {
				return nil, fmt.Errorf("config: species %q seed region leaves level %d", sc.Name, sc.Level)
			}
			if _, err := patch.Add(pos, sc.Mom, sc.Weight, attrs); err != nil {
				return nil, err
			}
		}
		lv.Arena.Add(patch)
	}

	d, err := driver.New(driver.Config{Dt: dt, Steps: cfg.Steps, Workers: cfg.Workers}, base)
	if err != nil {
		return nil, err
	}
	// Single-process runs have nowhere to hand leavers to.
	d.SetRedistributor(driver.CompactRedistributor{})
	return d, nil
}

// BuildCyl is the cylindrical counterpart of Build: it turns a validated
// configuration with geometry "cylindrical" into a ready RZ field run.
func BuildCyl(cfg *Config) (*driver.CylRun, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Geometry != "cylindrical" {
		return nil, fmt.Errorf("config: geometry %q is not cylindrical", cfg.Geometry)
	}
	cc := cfg.Cylindrical

	coef, err := stencil.New(stencil.Config{
		Order:    cfg.Order,
		Grid:     stencil.Staggered,
		Geometry: stencil.Cylindrical,
		CellSize: [3]float64{cc.Dr, 0, cc.Dz},
		RMin:     cc.RMin,
		Modes:    cc.Modes,
	})
	if err != nil {
		return nil, err
	}
	s, err := solver.NewCylindrical(coef)
	if err != nil {
		return nil, err
	}

	ghost := cfg.Grid.Ghost
	if ghost == 0 {
		ghost = cfg.Order/2 + 1
	}
	m, err := mesh.NewCylLevel(cc.NR, cc.NZ, ghost, cc.RMin, cc.Dr, cc.Dz, cc.Modes)
	if err != nil {
		return nil, err
	}

	dt := cfg.Dt
	if dt == 0 {
		dt = cfg.CFL / (constants.C * math.Sqrt(1/(cc.Dr*cc.Dr)+1/(cc.Dz*cc.Dz)))
	}
	return driver.NewCylRun(m, s, dt, cfg.Steps)
}

func newSolver(algo solver.Algorithm, order int, g mesh.Geometry) (*solver.Solver, error) {
	coef, err := stencil.New(stencil.Config{
		Order:    order,
		Grid:     stencil.Staggered,
		Geometry: stencil.Cartesian,
		CellSize: g.Cell,
	})
	if err != nil {
		return nil, err
	}
	return solver.New(algo, coef, g)
}

func parseElementKind(id string) (lattice.ElementKind, error) {
	switch id {
	case "", "quadrupole":
		return lattice.Quadrupole, nil
	case "plasmalens":
		return lattice.PlasmaLens, nil
	default:
		return 0, fmt.Errorf("config: unknown lattice element kind %q", id)
	}
}

func parseSpeciesKind(id string) (particles.Kind, error) {
	switch id {
	case "", "physical":
		return particles.Physical, nil
	case "photon":
		return particles.Photon, nil
	case "laser":
		return particles.Laser, nil
	default:
		return 0, fmt.Errorf("config: unknown species kind %q", id)
	}
}
