package push

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/lattice"
	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/particles"
	"github.com/san-kum/picmesh/internal/refine"
)

// BufferDepositMode fixes what deposit-buffer particles do with their
// current: Replace sends it to the coarse level only, Add deposits on both
// levels.
type BufferDepositMode int

const (
	Replace BufferDepositMode = iota
	Add
)

// Config is the per-level pipeline configuration, validated at setup.
type Config struct {
	GatherOrder  int
	DepositOrder int
	BufferMode   BufferDepositMode
}

func (c Config) Validate(ghost int) error {
	for _, o := range [2]int{c.GatherOrder, c.DepositOrder} {
		if o < 1 || o > maxShapeOrder {
			return fmt.Errorf("push: shape order must be in [1, %d], got %d", maxShapeOrder, o)
		}
	}
	if need := c.DepositOrder + 2; ghost < need {
		return fmt.Errorf("push: ghost width %d too small for deposit order %d (need %d)", ghost, c.DepositOrder, need)
	}
	if c.BufferMode != Replace && c.BufferMode != Add {
		return fmt.Errorf("push: undefined buffer deposit mode %d", c.BufferMode)
	}
	return nil
}

// Pass binds one level's mesh state to the particle pipeline. Mask, Finder
// and CoarseGeom are nil on levels where the corresponding feature is off.
type Pass struct {
	Cfg        Config
	Level      *mesh.Level
	Mask       *refine.Mask
	Finder     *lattice.Finder
	CoarseGeom *mesh.Geometry
}

// Scratch is a patch-private deposition target; the driver merges scratches
// into the level arrays after the parallel particle phase, which keeps the
// hot loop free of atomics.
type Scratch struct {
	J       [3]*mesh.Field
	CoarseJ [3]*mesh.Field
	Rho     *mesh.Field
}

func NewScratch(fine mesh.Geometry, coarse *mesh.Geometry, withRho bool) *Scratch {
	s := &Scratch{}
	s.J = [3]*mesh.Field{
		mesh.NewField(fine, mesh.StagEx),
		mesh.NewField(fine, mesh.StagEy),
		mesh.NewField(fine, mesh.StagEz),
	}
	if coarse != nil {
		s.CoarseJ = [3]*mesh.Field{
			mesh.NewField(*coarse, mesh.StagEx),
			mesh.NewField(*coarse, mesh.StagEy),
			mesh.NewField(*coarse, mesh.StagEz),
		}
	}
	if withRho {
		s.Rho = mesh.NewField(fine, mesh.StagRho)
	}
	return s
}

func (s *Scratch) Zero() {
	for _, f := range s.J {
		f.Zero()
	}
	if s.CoarseJ[0] != nil {
		for _, f := range s.CoarseJ {
			f.Zero()
		}
	}
	if s.Rho != nil {
		s.Rho.Zero()
	}
}

// Run gathers, pushes and deposits every particle of patch. A particle whose
// pre-push position falls outside the mask or lattice lookup ranges aborts
// the pass: it means the redistribution collaborator broke its invariant,
// and clamping would hide a physical divergence.
func (p *Pass) Run(patch *particles.Patch, dt, now float64, scr *Scratch) error {
	n := patch.Len()
	if n == 0 {
		return nil
	}
	g := p.Level.Geom
	sp := patch.Species

	cls := make([]refine.Class, n)
	for i := 0; i < n; i++ {
		if p.Mask == nil {
			continue
		}
		c, ok := p.Mask.ClassifyAt(g, patch.Pos(i))
		if !ok {
			return fmt.Errorf("push: particle %d of %q at %v outside level extent %v+%v",
				patch.ID[i], sp.Name, patch.Pos(i), g.Lo, g.Hi())
		}
		cls[i] = c
	}

	// Buffer particles form one contiguous run so the interior run skips the
	// aux-field and coarse-deposit branches entirely.
	perm, interior := particles.PartitionStable(n, func(i int) bool { return cls[i] != refine.Interior })

	e, b := p.Level.E(), p.Level.B()
	auxE, auxB := e, b
	if p.Level.AuxEx != nil {
		auxE = [3]*mesh.Field{p.Level.AuxEx, p.Level.AuxEy, p.Level.AuxEz}
		auxB = [3]*mesh.Field{p.Level.AuxBx, p.Level.AuxBy, p.Level.AuxBz}
	}

	step := func(i int, gatherAux, depositBuf bool) error {
		pos := patch.Pos(i)
		old := pos
		mom := patch.Mom(i)

		switch sp.Kind {
		case particles.Physical:
			srcE, srcB := e, b
			if gatherAux {
				srcE, srcB = auxE, auxB
			}
			ef, bf := GatherEB(srcE, srcB, g, p.Cfg.GatherOrder, pos)
			if p.Finder != nil {
				le, lb, ok := p.Finder.FieldAt(pos, now)
				if !ok {
					return fmt.Errorf("push: particle %d of %q at %v outside lattice index range",
						patch.ID[i], sp.Name, pos)
				}
				for c := 0; c < 3; c++ {
					ef[c] += le[c]
					bf[c] += lb[c]
				}
			}
			BorisPush(&pos, &mom, ef, bf, sp.Charge, sp.Mass, dt)
		case particles.Photon:
			PhotonPush(&pos, &mom, dt)
		case particles.Laser:
			v := [3]float64{patch.Attrs[0][i], patch.Attrs[1][i], patch.Attrs[2][i]}
			LaserPush(&pos, v, dt)
		}

		qw := sp.Charge * patch.W[i]
		if qw != 0 {
			toCoarse := depositBuf && p.CoarseGeom != nil
			if !toCoarse || p.Cfg.BufferMode == Add {
				DepositCurrent(scr.J, g, p.Cfg.DepositOrder, old, pos, qw, dt)
			}
			if toCoarse {
				DepositCurrent(scr.CoarseJ, *p.CoarseGeom, p.Cfg.DepositOrder, old, pos, qw, dt)
			}
			if scr.Rho != nil {
				DepositRho(scr.Rho, g, p.Cfg.DepositOrder, pos, qw)
			}
		}

		patch.X[i], patch.Y[i], patch.Z[i] = pos[0], pos[1], pos[2]
		patch.Px[i], patch.Py[i], patch.Pz[i] = mom[0], mom[1], mom[2]
		if !g.Contains(pos, p.Level.Geom.Ghost) {
			patch.Out[i] = true
		}
		return nil
	}

	for _, i := range perm[:interior] {
		if err := step(i, false, false); err != nil {
			return err
		}
	}
	for _, i := range perm[interior:] {
		if err := step(i, cls[i].Gather(), cls[i].Deposit()); err != nil {
			return err
		}
	}
	return nil
}
