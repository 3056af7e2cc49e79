package solver

import (
	"fmt"
	"math"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/mesh"
)

// The PML variants advance the split (directionally decomposed) shadow
// copies. Each split part carries the curl term of exactly one transverse
// derivative and is damped by the sigma profile of that derivative's axis;
// outside the layer sigma vanishes and the update matches the unsplit one,
// so the whole level can run through these entry points when a PML is
// configured. Derivatives read the reconstructed totals, so call
// lv.PML.Reconstruct(lv) after each of these.

// damped integrates dF/dt = -sigma*F + src over dt exactly for the constant
// coefficient, which stays well-behaved for strongly absorbing cells.
func damped(f, src, sigma, dt float64) float64 {
	if sigma == 0 {
		return f + dt*src
	}
	e := math.Exp(-sigma * dt)
	return f*e + src*(1-e)/sigma
}

// EvolveBPML is EvolveB on the split magnetic parts.
func (s *Solver) EvolveBPML(lv *mesh.Level, dt float64) error {
	p := lv.PML
	if p == nil {
		return fmt.Errorf("solver: EvolveBPML without a configured PML layer")
	}
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	g := lv.Geom
	step := func(part *mesh.Field, ax int, src func(i, j, k int) float64) {
		each(g.N, func(i, j, k int) {
			pos := float64([3]int{i, j, k}[ax]) + part.Stag[ax]
			sg := p.Sigma(ax, pos)
			part.Set(i, j, k, damped(part.At(i, j, k), src(i, j, k), sg, dt))
		})
	}
	// Bx = Bxy + Bxz: -dEz/dy damped along y, +dEy/dz damped along z.
	step(p.Bxy, 1, func(i, j, k int) float64 { return -s.dup(cy, lv.Ez, 1, i, j, k) })
	step(p.Bxz, 2, func(i, j, k int) float64 { return s.dup(cz, lv.Ey, 2, i, j, k) })
	step(p.Byz, 2, func(i, j, k int) float64 { return -s.dup(cz, lv.Ex, 2, i, j, k) })
	step(p.Byx, 0, func(i, j, k int) float64 { return s.dup(cx, lv.Ez, 0, i, j, k) })
	step(p.Bzx, 0, func(i, j, k int) float64 { return -s.dup(cx, lv.Ey, 0, i, j, k) })
	step(p.Bzy, 1, func(i, j, k int) float64 { return s.dup(cy, lv.Ex, 1, i, j, k) })
	return nil
}

// EvolveEPML is EvolveE on the split electric parts. withCurrent includes
// the deposited J (particles inside the layer); the J term rides on the
// first split part of each component.
func (s *Solver) EvolveEPML(lv *mesh.Level, dt float64, withCurrent bool) error {
	p := lv.PML
	if p == nil {
		return fmt.Errorf("solver: EvolveEPML without a configured PML layer")
	}
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	c2 := constants.C * constants.C
	invEps := 1.0 / constants.Eps0
	g := lv.Geom
	step := func(part *mesh.Field, ax int, src func(i, j, k int) float64) {
		each(g.N, func(i, j, k int) {
			pos := float64([3]int{i, j, k}[ax]) + part.Stag[ax]
			sg := p.Sigma(ax, pos)
			part.Set(i, j, k, damped(part.At(i, j, k), src(i, j, k), sg, dt))
		})
	}
	jx := func(i, j, k int) float64 {
		if withCurrent {
			return invEps * lv.Jx.At(i, j, k)
		}
		return 0
	}
	jy := func(i, j, k int) float64 {
		if withCurrent {
			return invEps * lv.Jy.At(i, j, k)
		}
		return 0
	}
	jz := func(i, j, k int) float64 {
		if withCurrent {
			return invEps * lv.Jz.At(i, j, k)
		}
		return 0
	}
	// Ex = Exy + Exz: +c^2 dBz/dy damped along y, -c^2 dBy/dz along z.
	step(p.Exy, 1, func(i, j, k int) float64 { return c2*s.ddn(cy, lv.Bz, 1, i, j, k) - jx(i, j, k) })
	step(p.Exz, 2, func(i, j, k int) float64 { return -c2 * s.ddn(cz, lv.By, 2, i, j, k) })
	step(p.Eyz, 2, func(i, j, k int) float64 { return c2*s.ddn(cz, lv.Bx, 2, i, j, k) - jy(i, j, k) })
	step(p.Eyx, 0, func(i, j, k int) float64 { return -c2 * s.ddn(cx, lv.Bz, 0, i, j, k) })
	step(p.Ezx, 0, func(i, j, k int) float64 { return c2*s.ddn(cx, lv.By, 0, i, j, k) - jz(i, j, k) })
	step(p.Ezy, 1, func(i, j, k int) float64 { return -c2 * s.ddn(cy, lv.Bx, 1, i, j, k) })
	return nil
}
