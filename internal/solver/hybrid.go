package solver

import (
	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/hybrid"
	"github.com/san-kum/picmesh/internal/mesh"
)

// CalculateCurrentAmpere derives the total current from Ampere's law without
// displacement current, J = curl(B)/mu0, written onto the level's J arrays.
// Used by the hybrid scheme when no kinetic electron current exists.
func (s *Solver) CalculateCurrentAmpere(lv *mesh.Level) {
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	inv := 1.0 / constants.Mu0
	each(lv.Geom.N, func(i, j, k int) {
		lv.Jx.Set(i, j, k, inv*(s.ddn(cy, lv.Bz, 1, i, j, k)-s.ddn(cz, lv.By, 2, i, j, k)))
		lv.Jy.Set(i, j, k, inv*(s.ddn(cz, lv.Bx, 2, i, j, k)-s.ddn(cx, lv.Bz, 0, i, j, k)))
		lv.Jz.Set(i, j, k, inv*(s.ddn(cx, lv.By, 0, i, j, k)-s.ddn(cy, lv.Bx, 1, i, j, k)))
	})
}

// HybridPICSolveE replaces the leapfrog E update with the generalized Ohm's
// law closure (Winske et al. 2003, eq. 10):
//
//	E = -(Je x B)/rho - grad(Pe)/rho + eta*J,  Je = J - Ji - Jext
//
// an algebraic substitution, not a time integration. The level's J must
// already hold the total current (CalculateCurrentAmpere or deposition).
// Cross terms use local second-order averages to co-locate the staggered
// inputs; the configured stencil order applies to the curl that produced J.
func (s *Solver) HybridPICSolveE(lv *mesh.Level, m *hybrid.Model, includeResistivity bool) {
	n := lv.Geom.N

	je := func(tot, ji, jext *mesh.Field, stag mesh.Stagger, i, j, k int) float64 {
		return avgToStag(tot, stag, i, j, k) - avgToStag(ji, stag, i, j, k) - avgToStag(jext, stag, i, j, k)
	}

	solve := func(e *mesh.Field, comp int) {
		stag := e.Stag
		t1, t2 := (comp+1)%3, (comp+2)%3
		b := lv.B()
		jt := lv.J()
		each(n, func(i, j, k int) {
			rho := rhoAtStag(m, stag, i, j, k)
			// (Je x B)_comp = Je_t1*B_t2 - Je_t2*B_t1, co-located at e's sample.
			jeT1 := je(jt[t1], m.Ji[t1], m.Jext[t1], stag, i, j, k)
			jeT2 := je(jt[t2], m.Ji[t2], m.Jext[t2], stag, i, j, k)
			bT1 := avgToStag(b[t1], stag, i, j, k)
			bT2 := avgToStag(b[t2], stag, i, j, k)
			v := -(jeT1*bT2 - jeT2*bT1) / rho
			v -= gradPe(m.Pe, lv.Geom, comp, stag, i, j, k) / rho
			if includeResistivity {
				// J_comp shares e's stagger, no averaging needed.
				v += m.Eta * jt[comp].At(i, j, k)
			}
			e.Set(i, j, k, v)
		})
	}
	solve(lv.Ex, 0)
	solve(lv.Ey, 1)
	solve(lv.Ez, 2)
}

func rhoAtStag(m *hybrid.Model, stag mesh.Stagger, i, j, k int) float64 {
	r := avgToStag(m.Rho, stag, i, j, k)
	if r < m.RhoFloor {
		return m.RhoFloor
	}
	return r
}

// avgToStag linearly averages a staggered field onto a target stagger. For
// each axis where the source and target offsets differ by half a cell the
// two bracketing samples are averaged.
func avgToStag(f *mesh.Field, stag mesh.Stagger, i, j, k int) float64 {
	idx := [3]int{i, j, k}
	var lo, cnt [3]int
	for ax := 0; ax < 3; ax++ {
		switch {
		case f.Stag[ax] == stag[ax]:
			lo[ax], cnt[ax] = idx[ax], 1
		case f.Stag[ax] > stag[ax]: // source at +1/2 relative to target
			lo[ax], cnt[ax] = idx[ax]-1, 2
		default: // source at -1/2 relative to target
			lo[ax], cnt[ax] = idx[ax], 2
		}
	}
	sum, n := 0.0, 0
	for di := 0; di < cnt[0]; di++ {
		for dj := 0; dj < cnt[1]; dj++ {
			for dk := 0; dk < cnt[2]; dk++ {
				ci, cj, ck := lo[0]+di, lo[1]+dj, lo[2]+dk
				if !f.In(ci, cj, ck) {
					continue
				}
				sum += f.At(ci, cj, ck)
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// gradPe evaluates d(Pe)/d(axis comp) at the E-component stagger with a
// centered second-order difference of the cell-centered pressure. Every E
// component is half-staggered along its own axis, so the pressure samples at
// comp-1 and comp+1 bracket the target symmetrically; the transverse axes
// are averaged by avgToStag.
func gradPe(pe *mesh.Field, g mesh.Geometry, comp int, stag mesh.Stagger, i, j, k int) float64 {
	hi := [3]int{i, j, k}
	lo := hi
	hi[comp]++
	lo[comp]--
	return (avgToStag(pe, stag, hi[0], hi[1], hi[2]) - avgToStag(pe, stag, lo[0], lo[1], lo[2])) /
		(2 * g.Cell[comp])
}
