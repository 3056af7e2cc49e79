// Package driver orchestrates the leapfrog cycle across refinement levels:
// half B step, particle pass, full E step, level sync, with sub-cycling on
// refined levels. Phase ordering is the caller contract the field solver
// relies on; nothing here re-derives it.
package driver

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/hybrid"
	"github.com/san-kum/picmesh/internal/medium"
	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/particles"
	"github.com/san-kum/picmesh/internal/push"
	"github.com/san-kum/picmesh/internal/solver"
)

// EMode selects how the electric field advances on a level.
type EMode int

const (
	// Leapfrog is the standard explicit curl update.
	Leapfrog EMode = iota
	// Macroscopic runs the per-cell medium update.
	Macroscopic
	// HybridOhm solves E algebraically from the Ohm's-law closure instead
	// of time-stepping it.
	HybridOhm
)

// Level bundles everything one refinement level steps with. Parent is nil on
// the base level; Ratio is the refinement ratio relative to the parent.
type Level struct {
	Mesh   *mesh.Level
	Solver *solver.Solver
	Arena  *particles.Arena
	Pass   *push.Pass
	Ratio  int
	Parent *Level
	Child  *Level

	// EMode, medium and hybrid state may differ per level.
	EMode  EMode
	Medium *medium.Properties
	Sigma  solver.SigmaMethod
	Hybrid *hybrid.Model

	// Absorbing faces for the Silver-Mueller condition (base level only).
	AbsorbLo, AbsorbHi [3]bool

	scratches []*push.Scratch
	// jAccum collects this level's deposited current across sub-cycles for
	// the reflux onto the parent.
	jAccum [3]*mesh.Field
	// coarsePending collects buffer-particle current in parent index space.
	coarsePending [3]*mesh.Field
	subSteps      int
}

// Config drives Run. Steps counts base-level steps.
type Config struct {
	Dt      float64
	Steps   int
	Workers int
}

// Metric mirrors the observer pattern of the diagnostics package: observed
// once per base step, reduced to a scalar at the end.
type Metric interface {
	Name() string
	Observe(d *Driver)
	Value() float64
	Reset()
}

// Observer receives a callback after every base-level step.
type Observer interface {
	OnStep(step int, t float64, d *Driver)
}

// Redistributor owns what happens to particles flagged as leaving their
// level after a particle phase. The driver itself never removes them; the
// installed hook decides whether they are dropped, handed to a neighbor
// rank, or respawned.
type Redistributor interface {
	Redistribute(lv *Level) error
}

// CompactRedistributor drops flagged leavers in place.
type CompactRedistributor struct{}

func (CompactRedistributor) Redistribute(lv *Level) error {
	for _, p := range lv.Arena.Patches {
		p.Compact()
	}
	return nil
}

// Result summarizes a completed run.
type Result struct {
	Steps     int
	FinalTime float64
	Metrics   map[string]float64
}

// Driver is the top-level stepping state machine. It is handed to every
// component that needs simulation-wide context instead of living in a
// package-level singleton.
type Driver struct {
	cfg       Config
	base      *Level
	time      float64
	step      int
	metrics   []Metric
	observers []Observer
	redist    Redistributor
}

func New(cfg Config, base *Level) (*Driver, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("driver: dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Steps <= 0 {
		return nil, fmt.Errorf("driver: step count must be positive, got %d", cfg.Steps)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("driver: worker count must be non-negative, got %d", cfg.Workers)
	}
	if base == nil || base.Parent != nil {
		return nil, fmt.Errorf("driver: need a base level with no parent")
	}
	for lv := base; lv != nil; lv = lv.Child {
		if err := validateLevel(lv, cfg.Dt); err != nil {
			return nil, err
		}
	}
	d := &Driver{cfg: cfg, base: base}
	for lv := base; lv != nil; lv = lv.Child {
		lv.prepare()
	}
	return d, nil
}

func validateLevel(lv *Level, baseDt float64) error {
	if lv.Mesh == nil || lv.Solver == nil || lv.Pass == nil {
		return fmt.Errorf("driver: level missing mesh, solver or particle pass")
	}
	g := lv.Mesh.Geom
	dt := baseDt
	for p := lv; p.Parent != nil; p = p.Parent {
		if p.Ratio < 2 {
			return fmt.Errorf("driver: refined level needs ratio >= 2, got %d", p.Ratio)
		}
		dt /= float64(p.Ratio)
	}
	// Explicit leapfrog stability bound.
	s := 0.0
	for ax := 0; ax < 3; ax++ {
		s += 1 / (g.Cell[ax] * g.Cell[ax])
	}
	if limit := 1 / (constants.C * math.Sqrt(s)); dt > limit {
		return fmt.Errorf("driver: dt %g exceeds the CFL limit %g of a level", dt, limit)
	}
	if lv.Parent != nil {
		pg := lv.Parent.Mesh.Geom
		for ax := 0; ax < 3; ax++ {
			off := (g.Lo[ax] - pg.Lo[ax]) / pg.Cell[ax]
			if math.Abs(off-math.Round(off)) > 1e-9 {
				return fmt.Errorf("driver: refined level axis %d not aligned to parent cells", ax)
			}
			if g.N[ax]%lv.Ratio != 0 {
				return fmt.Errorf("driver: refined level extent %d not divisible by ratio %d", g.N[ax], lv.Ratio)
			}
		}
		if lv.Mesh.AuxEx == nil {
			return fmt.Errorf("driver: refined level allocated without auxiliary field copies")
		}
	}
	if lv.EMode == Macroscopic && lv.Medium == nil {
		return fmt.Errorf("driver: macroscopic level without medium properties")
	}
	if lv.EMode == HybridOhm && lv.Hybrid == nil {
		return fmt.Errorf("driver: hybrid level without a hybrid model")
	}
	return nil
}

func (lv *Level) prepare() {
	if lv.Arena == nil {
		lv.Arena = &particles.Arena{}
	}
	lv.scratches = make([]*push.Scratch, len(lv.Arena.Patches))
	var coarse *mesh.Geometry
	if lv.Parent != nil {
		g := lv.Parent.Mesh.Geom
		coarse = &g
		lv.coarsePending = [3]*mesh.Field{
			mesh.NewField(g, mesh.StagEx),
			mesh.NewField(g, mesh.StagEy),
			mesh.NewField(g, mesh.StagEz),
		}
		lv.jAccum = [3]*mesh.Field{
			mesh.NewField(lv.Mesh.Geom, mesh.StagEx),
			mesh.NewField(lv.Mesh.Geom, mesh.StagEy),
			mesh.NewField(lv.Mesh.Geom, mesh.StagEz),
		}
	}
	for i := range lv.scratches {
		lv.scratches[i] = push.NewScratch(lv.Mesh.Geom, coarse, lv.Mesh.Rho != nil)
	}
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// SetRedistributor installs the leaver hook. With none installed, flagged
// particles stay in their patch until a hook or a later Compact removes them.
func (d *Driver) SetRedistributor(r Redistributor) { d.redist = r }

func (d *Driver) Base() *Level   { return d.base }
func (d *Driver) Time() float64  { return d.time }
func (d *Driver) StepCount() int { return d.step }
func (d *Driver) Dt() float64    { return d.cfg.Dt }

// Levels returns base-to-finest order.
func (d *Driver) Levels() []*Level {
	var out []*Level
	for lv := d.base; lv != nil; lv = lv.Child {
		out = append(out, lv)
	}
	return out
}

// Run advances the configured number of base steps. Errors abort the run:
// a half-completed field/particle state is not physically meaningful, so
// there is no partial-step recovery.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	for _, m := range d.metrics {
		m.Reset()
	}
	for i := 0; i < d.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := d.stepLevel(d.base, d.cfg.Dt, d.time); err != nil {
			return nil, fmt.Errorf("step %d: %w", d.step, err)
		}
		d.step++
		d.time += d.cfg.Dt
		for _, m := range d.metrics {
			m.Observe(d)
		}
		for _, o := range d.observers {
			o.OnStep(d.step, d.time, d)
		}
	}
	res := &Result{Steps: d.step, FinalTime: d.time, Metrics: make(map[string]float64)}
	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, nil
}

// stepLevel runs one leapfrog step of dt on lv starting at time now: B half
// step, child sub-cycles (finest levels complete their pushes first),
// particle pass, reflux, E full step, trailing B half step, then the child's
// auxiliary coarse-field copies are refreshed. Sub-cycled levels see now
// advance by their own sub-step, not the base step.
func (d *Driver) stepLevel(lv *Level, dt, now float64) error {
	if err := d.evolveBHalf(lv, dt/2); err != nil {
		return err
	}

	if lv.Child != nil {
		sub := dt / float64(lv.Child.Ratio)
		for s := 0; s < lv.Child.Ratio; s++ {
			if err := d.stepLevel(lv.Child, sub, now+float64(s)*sub); err != nil {
				return err
			}
		}
	}

	if lv.Pass.Finder != nil {
		lv.Pass.Finder.Update(now)
	}
	if err := d.particlePhase(lv, dt, now); err != nil {
		return err
	}

	if lv.Child != nil {
		d.refluxChild(lv)
	}

	if err := d.evolveE(lv, dt); err != nil {
		return err
	}
	if err := d.evolveBHalf(lv, dt/2); err != nil {
		return err
	}

	if lv.Child != nil {
		d.refreshAux(lv.Child)
	}
	return nil
}

func (d *Driver) evolveBHalf(lv *Level, dt float64) error {
	if lv.Mesh.PML != nil {
		if err := lv.Solver.EvolveBPML(lv.Mesh, dt); err != nil {
			return err
		}
		lv.Mesh.PML.Reconstruct(lv.Mesh)
	} else {
		lv.Solver.EvolveB(lv.Mesh, dt)
	}
	if lv.AbsorbLo != [3]bool{} || lv.AbsorbHi != [3]bool{} {
		lv.Solver.ApplySilverMuellerBoundary(lv.Mesh, dt, lv.AbsorbLo, lv.AbsorbHi)
	}
	if lv.Mesh.G != nil {
		return lv.Solver.EvolveG(lv.Mesh, dt)
	}
	return nil
}

func (d *Driver) evolveE(lv *Level, dt float64) error {
	switch lv.EMode {
	case Macroscopic:
		lv.Solver.MacroscopicEvolveE(lv.Mesh, dt, lv.Medium, lv.Sigma)
	case HybridOhm:
		// The deposited current is the kinetic ion current; the electron
		// contribution comes from Ampere's law.
		for c, f := range lv.Mesh.J() {
			if err := lv.Hybrid.Ji[c].CopyFrom(f); err != nil {
				return err
			}
		}
		lv.Solver.CalculateCurrentAmpere(lv.Mesh)
		lv.Solver.HybridPICSolveE(lv.Mesh, lv.Hybrid, lv.Hybrid.Eta > 0)
	default:
		if lv.Mesh.PML != nil {
			if err := lv.Solver.EvolveEPML(lv.Mesh, dt, true); err != nil {
				return err
			}
			lv.Mesh.PML.Reconstruct(lv.Mesh)
		} else {
			lv.Solver.EvolveE(lv.Mesh, dt)
		}
		if lv.Mesh.F != nil {
			if err := lv.Solver.EvolveF(lv.Mesh, dt); err != nil {
				return err
			}
		}
	}
	return nil
}
