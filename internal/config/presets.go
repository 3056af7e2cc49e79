package config

// Presets are ready-to-run configurations for common setups; `picmesh run
// --preset name` starts from one and applies flag overrides on top.
var Presets = map[string]*Config{
	"vacuum-pml": {
		Algorithm: "yee",
		Order:     2,
		CFL:       0.9,
		Steps:     200,
		Grid: GridConfig{
			N:    [3]int{32, 32, 32},
			Cell: [3]float64{1e-6, 1e-6, 1e-6},
		},
		Boundary:   BoundaryConfig{Kind: "pml", PMLCells: 8, PMLSigma: 5e12},
		Particles:  ParticleConfig{GatherOrder: 1},
		GammaBoost: 1,
	},
	"quad-beam": {
		Algorithm: "ckc",
		Order:     2,
		CFL:       0.95,
		// The beam covers about 0.55 cells per step; 80 steps keeps it
		// inside the lattice finder's tabulated z range.
		Steps: 80,
		Grid: GridConfig{
			N:    [3]int{32, 32, 64},
			Cell: [3]float64{1e-6, 1e-6, 1e-6},
		},
		Boundary:  BoundaryConfig{Kind: "absorbing"},
		Particles: ParticleConfig{GatherOrder: 2},
		Species: []SpeciesConfig{{
			Name:   "beam",
			Kind:   "physical",
			Charge: -1.602176634e-19,
			Mass:   9.1093837015e-31,
			Count:  2000,
			Lo:     [3]float64{1.4e-5, 1.4e-5, 4e-6},
			Hi:     [3]float64{1.8e-5, 1.8e-5, 8e-6},
			Mom:    [3]float64{0, 0, 2.7e-21},
			Weight: 1e6,
		}},
		Lattice: []ElementConfig{
			{Kind: "quadrupole", ZMin: 2e-5, ZMax: 4e-5, B: 1e4},
		},
		GammaBoost: 1,
	},
	"refined-core": {
		Algorithm: "yee",
		Order:     2,
		CFL:       0.9,
		Steps:     100,
		Cleaning:  true,
		Grid: GridConfig{
			N:    [3]int{32, 32, 32},
			Cell: [3]float64{1e-6, 1e-6, 1e-6},
		},
		Particles: ParticleConfig{GatherOrder: 1, BufferMode: "replace"},
		Levels: []LevelConfig{{
			Lo:    [3]float64{8e-6, 8e-6, 8e-6},
			N:     [3]int{32, 32, 32},
			Ratio: 2,
			Faces: [3][2]bool{{true, true}, {true, true}, {true, true}},
		}},
		Species: []SpeciesConfig{{
			Name:   "electrons",
			Kind:   "physical",
			Charge: -1.602176634e-19,
			Mass:   9.1093837015e-31,
			Level:  1,
			Count:  1000,
			Lo:     [3]float64{1.2e-5, 1.2e-5, 1.2e-5},
			Hi:     [3]float64{2e-5, 2e-5, 2e-5},
			Weight: 1e5,
		}},
		GammaBoost: 1,
	},
	"hybrid-slab": {
		Algorithm: "yee",
		Order:     2,
		CFL:       0.5,
		Steps:     50,
		EMode:     "hybrid",
		Hybrid:    &HybridConfig{Eta: 1e-4, Pe: 1e-12},
		Grid: GridConfig{
			N:    [3]int{16, 16, 16},
			Cell: [3]float64{1e-2, 1e-2, 1e-2},
		},
		Particles: ParticleConfig{GatherOrder: 1},
		Species: []SpeciesConfig{{
			Name:   "ions",
			Kind:   "physical",
			Charge: 1.602176634e-19,
			Mass:   1.67262192369e-27,
			Count:  4000,
			Lo:     [3]float64{0, 0, 0},
			Hi:     [3]float64{0.1599, 0.1599, 0.1599},
			Weight: 1e12,
		}},
		GammaBoost: 1,
	},
	"conducting-slab": {
		Algorithm: "yee",
		Order:     2,
		CFL:       0.9,
		Steps:     100,
		EMode:     "macroscopic",
		Medium: &MediumConfig{
			Eps:    8.8541878128e-12,
			Mu:     1.25663706212e-6,
			Sigma:  10,
			Method: "laxwendroff",
		},
		Grid: GridConfig{
			N:    [3]int{32, 32, 32},
			Cell: [3]float64{1e-3, 1e-3, 1e-3},
		},
		Particles:  ParticleConfig{GatherOrder: 1},
		GammaBoost: 1,
	},
}

// GetPreset returns a copy of the named preset, or nil when the name is
// unknown. Callers may mutate the result freely.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	if p.Medium != nil {
		m := *p.Medium
		cp.Medium = &m
	}
	if p.Hybrid != nil {
		h := *p.Hybrid
		cp.Hybrid = &h
	}
	cp.Species = append([]SpeciesConfig(nil), p.Species...)
	cp.Levels = append([]LevelConfig(nil), p.Levels...)
	cp.Lattice = append([]ElementConfig(nil), p.Lattice...)
	return &cp
}
