package solver

import (
	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/mesh"
)

// ApplySilverMuellerBoundary relaxes the tangential B guard cells toward the
// outgoing plane-wave impedance relation B_tan = ±E_tan/c for the face's
// outward normal. lo[ax] and hi[ax] select which domain faces absorb; the
// others keep their usual (perfectly conducting) behavior. Call after
// EvolveB each half step.
func (s *Solver) ApplySilverMuellerBoundary(lv *mesh.Level, dt float64, lo, hi [3]bool) {
	n := lv.Geom.N
	c := constants.C
	for ax := 0; ax < 3; ax++ {
		beta := c * dt / lv.Geom.Cell[ax]
		c1 := (1 - beta) / (1 + beta)
		c2 := 2 * beta / (1 + beta)
		// Tangential component pairs and the sign of E/c each relaxes to at
		// the lo face; signs flip at the hi face.
		t1, t2 := (ax+1)%3, (ax+2)%3
		b := lv.B()
		e := lv.E()
		// At the lo face (outward normal -ax): B_t2 -> +E_t1/c, B_t1 -> -E_t2/c.
		if lo[ax] {
			s.relaxFace(lv, b[t2], e[t1], ax, -1, c1, c2/c)
			s.relaxFace(lv, b[t1], e[t2], ax, -1, c1, -c2/c)
		}
		if hi[ax] {
			s.relaxFace(lv, b[t2], e[t1], ax, n[ax], c1, -c2/c)
			s.relaxFace(lv, b[t1], e[t2], ax, n[ax], c1, c2/c)
		}
	}
}

// relaxFace applies b_guard = c1*b_guard + c2e*e_inner over the guard plane
// at index plane along ax, reading E one cell inward.
func (s *Solver) relaxFace(lv *mesh.Level, b, e *mesh.Field, ax, plane int, c1, c2e float64) {
	n := lv.Geom.N
	inner := plane
	if plane < 0 {
		inner = 0
	} else {
		inner = n[ax] - 1
	}
	t1, t2 := (ax+1)%3, (ax+2)%3
	for u := 0; u <= n[t1]; u++ {
		for v := 0; v <= n[t2]; v++ {
			var g, in [3]int
			g[ax], in[ax] = plane, inner
			g[t1], in[t1] = u, u
			g[t2], in[t2] = v, v
			cur := b.At(g[0], g[1], g[2])
			b.Set(g[0], g[1], g[2], c1*cur+c2e*e.At(in[0], in[1], in[2]))
		}
	}
}
