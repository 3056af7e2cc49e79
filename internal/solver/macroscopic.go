package solver

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/medium"
	"github.com/san-kum/picmesh/internal/mesh"
)

// SigmaMethod selects how the Ohmic damping term is averaged in time.
type SigmaMethod int

const (
	// LaxWendroff is the semi-implicit (time-centered) average.
	LaxWendroff SigmaMethod = iota
	// BackwardEuler is fully implicit in the damping term.
	BackwardEuler
)

func ParseSigmaMethod(id string) (SigmaMethod, error) {
	switch id {
	case "laxwendroff", "":
		return LaxWendroff, nil
	case "backwardeuler":
		return BackwardEuler, nil
	default:
		return 0, fmt.Errorf("solver: undefined sigma method %q", id)
	}
}

// MacroscopicEvolveE is EvolveE in a medium with per-cell permittivity,
// permeability and conductivity:
//
//	E <- alpha*E + beta*(curl(B)/mu - J)
//
// with alpha and beta built per cell from sigma*dt/eps under the selected
// averaging. With vacuum properties it reduces exactly to EvolveE.
func (s *Solver) MacroscopicEvolveE(lv *mesh.Level, dt float64, props *medium.Properties, method SigmaMethod) {
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	n := lv.Geom.N

	coefs := func(eps, sig float64) (alpha, beta float64) {
		sd := sig * dt / eps
		switch method {
		case BackwardEuler:
			return 1 / (1 + sd), (dt / eps) / (1 + sd)
		default:
			return (1 - sd/2) / (1 + sd/2), (dt / eps) / (1 + sd/2)
		}
	}

	update := func(e *mesh.Field, curl func(i, j, k int) float64, jf *mesh.Field) {
		each(n, func(i, j, k int) {
			eps := avgToComponent(props.Eps, e.Stag, i, j, k)
			mu := avgToComponent(props.Mu, e.Stag, i, j, k)
			sig := avgToComponent(props.Sigma, e.Stag, i, j, k)
			alpha, beta := coefs(eps, sig)
			e.Set(i, j, k, alpha*e.At(i, j, k)+beta*(curl(i, j, k)/mu-jf.At(i, j, k)))
		})
	}

	update(lv.Ex, func(i, j, k int) float64 {
		return s.ddn(cy, lv.Bz, 1, i, j, k) - s.ddn(cz, lv.By, 2, i, j, k)
	}, lv.Jx)
	update(lv.Ey, func(i, j, k int) float64 {
		return s.ddn(cz, lv.Bx, 2, i, j, k) - s.ddn(cx, lv.Bz, 0, i, j, k)
	}, lv.Jy)
	update(lv.Ez, func(i, j, k int) float64 {
		return s.ddn(cx, lv.By, 0, i, j, k) - s.ddn(cy, lv.Bx, 1, i, j, k)
	}, lv.Jz)
}

// avgToComponent interpolates a cell-centered property to a staggered sample
// by averaging the neighboring cells along every node-aligned axis.
func avgToComponent(p *mesh.Field, stag mesh.Stagger, i, j, k int) float64 {
	idx := [3]int{i, j, k}
	var lo, cnt [3]int
	for ax := 0; ax < 3; ax++ {
		if stag[ax] == 0.5 {
			lo[ax], cnt[ax] = idx[ax], 1
		} else {
			lo[ax], cnt[ax] = idx[ax]-1, 2
		}
	}
	sum, m := 0.0, 0
	for di := 0; di < cnt[0]; di++ {
		for dj := 0; dj < cnt[1]; dj++ {
			for dk := 0; dk < cnt[2]; dk++ {
				ci, cj, ck := lo[0]+di, lo[1]+dj, lo[2]+dk
				if !p.In(ci, cj, ck) {
					continue
				}
				sum += p.At(ci, cj, ck)
				m++
			}
		}
	}
	if m == 0 {
		return p.At(i, j, k)
	}
	return sum / float64(m)
}
