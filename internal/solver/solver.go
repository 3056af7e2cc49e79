// Package solver advances the staggered electromagnetic field state. The
// algorithm variant is resolved once at setup into a Solver value; the per
// step entry points run branch-free over the mesh.
//
// Caller contract: within one leapfrog step EvolveB runs before the particle
// pass and EvolveE after current deposition. The solver does not re-derive
// that ordering.
package solver

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/stencil"
)

type Algorithm int

const (
	// Yee is the standard staggered leapfrog update at the configured order.
	Yee Algorithm = iota
	// CKC is the Cole-Karkkainen-Cowan extended stencil: the E derivatives
	// entering the B update are smoothed transversely (M24 weights), pushing
	// the Courant limit to the cell diagonal. Assumes near-cubic cells.
	CKC
)

// M24 transverse smoothing weights: center, edge neighbor, corner neighbor.
// alpha + 4 beta + 4 gamma = 1.
const (
	ckcAlpha = 7.0 / 12.0
	ckcBeta  = 1.0 / 12.0
	ckcGamma = 1.0 / 48.0
)

func ParseAlgorithm(id string) (Algorithm, error) {
	switch id {
	case "yee", "":
		return Yee, nil
	case "ckc":
		return CKC, nil
	default:
		return 0, fmt.Errorf("solver: undefined algorithm id %q", id)
	}
}

// Solver is the Cartesian finite-difference solver for one level.
type Solver struct {
	algo Algorithm
	coef *stencil.Coefficients
}

func New(algo Algorithm, coef *stencil.Coefficients, g mesh.Geometry) (*Solver, error) {
	if algo != Yee && algo != CKC {
		return nil, fmt.Errorf("solver: undefined algorithm %d", algo)
	}
	if coef.Geometry != stencil.Cartesian {
		return nil, fmt.Errorf("solver: cartesian solver given %s stencil", coef.Geometry)
	}
	if algo == CKC && (coef.Order != 2 || coef.Grid != stencil.Staggered) {
		return nil, fmt.Errorf("solver: ckc requires the order-2 staggered stencil, got order %d %s",
			coef.Order, coef.Grid)
	}
	p := coef.Points()
	if algo == CKC {
		p++ // transverse smoothing reaches one cell further
	}
	if g.Ghost < p {
		return nil, fmt.Errorf("solver: ghost width %d too small for order %d (need %d)", g.Ghost, coef.Order, p)
	}
	return &Solver{algo: algo, coef: coef}, nil
}

func (s *Solver) Order() int { return s.coef.Order }

// dup differentiates node-aligned data along ax, yielding the value at the
// dual (half-offset) location with base index i. ddn is its mirror for
// half-aligned data differentiated onto nodes. On collocated grids both
// collapse to the centered difference.
func (s *Solver) dup(c []float64, f *mesh.Field, ax, i, j, k int) float64 {
	if s.coef.Grid == stencil.Collocated {
		return ddc(c, f, ax, i, j, k)
	}
	d := 0.0
	switch ax {
	case 0:
		for l, w := range c {
			d += w * (f.At(i+1+l, j, k) - f.At(i-l, j, k))
		}
	case 1:
		for l, w := range c {
			d += w * (f.At(i, j+1+l, k) - f.At(i, j-l, k))
		}
	default:
		for l, w := range c {
			d += w * (f.At(i, j, k+1+l) - f.At(i, j, k-l))
		}
	}
	return d
}

func (s *Solver) ddn(c []float64, f *mesh.Field, ax, i, j, k int) float64 {
	if s.coef.Grid == stencil.Collocated {
		return ddc(c, f, ax, i, j, k)
	}
	d := 0.0
	switch ax {
	case 0:
		for l, w := range c {
			d += w * (f.At(i+l, j, k) - f.At(i-1-l, j, k))
		}
	case 1:
		for l, w := range c {
			d += w * (f.At(i, j+l, k) - f.At(i, j-1-l, k))
		}
	default:
		for l, w := range c {
			d += w * (f.At(i, j, k+l) - f.At(i, j, k-1-l))
		}
	}
	return d
}

func ddc(c []float64, f *mesh.Field, ax, i, j, k int) float64 {
	d := 0.0
	switch ax {
	case 0:
		for l, w := range c {
			d += w * (f.At(i+1+l, j, k) - f.At(i-1-l, j, k))
		}
	case 1:
		for l, w := range c {
			d += w * (f.At(i, j+1+l, k) - f.At(i, j-1-l, k))
		}
	default:
		for l, w := range c {
			d += w * (f.At(i, j, k+1+l) - f.At(i, j, k-1-l))
		}
	}
	return d
}

// dupSmooth is dup with the CKC transverse average over the two axes
// perpendicular to ax.
func (s *Solver) dupSmooth(c []float64, f *mesh.Field, ax, i, j, k int) float64 {
	if s.algo != CKC {
		return s.dup(c, f, ax, i, j, k)
	}
	t1, t2 := (ax+1)%3, (ax+2)%3
	at := func(d1, d2 int) float64 {
		p := [3]int{i, j, k}
		p[t1] += d1
		p[t2] += d2
		return s.dup(c, f, ax, p[0], p[1], p[2])
	}
	v := ckcAlpha * at(0, 0)
	v += ckcBeta * (at(1, 0) + at(-1, 0) + at(0, 1) + at(0, -1))
	v += ckcGamma * (at(1, 1) + at(1, -1) + at(-1, 1) + at(-1, -1))
	return v
}

func each(n [3]int, fn func(i, j, k int)) {
	for i := 0; i <= n[0]; i++ {
		for j := 0; j <= n[1]; j++ {
			for k := 0; k <= n[2]; k++ {
				fn(i, j, k)
			}
		}
	}
}

// EvolveB advances B by -dt*curl(E), plus dt*grad(G) when divergence
// cleaning is enabled. Called with dt/2 either side of the particle pass.
func (s *Solver) EvolveB(lv *mesh.Level, dt float64) {
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	n := lv.Geom.N
	each(n, func(i, j, k int) {
		lv.Bx.Add(i, j, k, dt*(s.dupSmooth(cz, lv.Ey, 2, i, j, k)-s.dupSmooth(cy, lv.Ez, 1, i, j, k)))
		lv.By.Add(i, j, k, dt*(s.dupSmooth(cx, lv.Ez, 0, i, j, k)-s.dupSmooth(cz, lv.Ex, 2, i, j, k)))
		lv.Bz.Add(i, j, k, dt*(s.dupSmooth(cy, lv.Ex, 1, i, j, k)-s.dupSmooth(cx, lv.Ey, 0, i, j, k)))
	})
	if lv.G != nil {
		each(n, func(i, j, k int) {
			lv.Bx.Add(i, j, k, dt*s.ddn(cx, lv.G, 0, i, j, k))
			lv.By.Add(i, j, k, dt*s.ddn(cy, lv.G, 1, i, j, k))
			lv.Bz.Add(i, j, k, dt*s.ddn(cz, lv.G, 2, i, j, k))
		})
	}
}

// EvolveE advances E by dt*(c^2 curl(B) - J/eps0), plus c^2*dt*grad(F) when
// divergence cleaning is enabled.
func (s *Solver) EvolveE(lv *mesh.Level, dt float64) {
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	c2 := constants.C * constants.C
	inv := 1.0 / constants.Eps0
	n := lv.Geom.N
	each(n, func(i, j, k int) {
		lv.Ex.Add(i, j, k, dt*(c2*(s.ddn(cy, lv.Bz, 1, i, j, k)-s.ddn(cz, lv.By, 2, i, j, k))-inv*lv.Jx.At(i, j, k)))
		lv.Ey.Add(i, j, k, dt*(c2*(s.ddn(cz, lv.Bx, 2, i, j, k)-s.ddn(cx, lv.Bz, 0, i, j, k))-inv*lv.Jy.At(i, j, k)))
		lv.Ez.Add(i, j, k, dt*(c2*(s.ddn(cx, lv.By, 0, i, j, k)-s.ddn(cy, lv.Bx, 1, i, j, k))-inv*lv.Jz.At(i, j, k)))
	})
	if lv.F != nil {
		each(n, func(i, j, k int) {
			lv.Ex.Add(i, j, k, c2*dt*s.dup(cx, lv.F, 0, i, j, k))
			lv.Ey.Add(i, j, k, c2*dt*s.dup(cy, lv.F, 1, i, j, k))
			lv.Ez.Add(i, j, k, c2*dt*s.dup(cz, lv.F, 2, i, j, k))
		})
	}
}

// EvolveF transports the div(E) error: F += dt*(div E - rho/eps0). Requires
// both cleaning fields and the charge density to be allocated.
func (s *Solver) EvolveF(lv *mesh.Level, dt float64) error {
	if lv.F == nil || lv.Rho == nil {
		return fmt.Errorf("solver: EvolveF needs divergence cleaning and rho enabled")
	}
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	each(lv.Geom.N, func(i, j, k int) {
		div := s.ddn(cx, lv.Ex, 0, i, j, k) +
			s.ddn(cy, lv.Ey, 1, i, j, k) +
			s.ddn(cz, lv.Ez, 2, i, j, k)
		lv.F.Add(i, j, k, dt*(div-lv.Rho.At(i, j, k)/constants.Eps0))
	})
	return nil
}

// EvolveG transports the div(B) error: G += c^2*dt*div B.
func (s *Solver) EvolveG(lv *mesh.Level, dt float64) error {
	if lv.G == nil {
		return fmt.Errorf("solver: EvolveG needs divergence cleaning enabled")
	}
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	c2 := constants.C * constants.C
	each(lv.Geom.N, func(i, j, k int) {
		div := s.dup(cx, lv.Bx, 0, i, j, k) +
			s.dup(cy, lv.By, 1, i, j, k) +
			s.dup(cz, lv.Bz, 2, i, j, k)
		lv.G.Add(i, j, k, c2*dt*div)
	})
	return nil
}

// ComputeDivE evaluates div(E) at nodes into out, which must be node
// staggered with the level's shape.
func (s *Solver) ComputeDivE(lv *mesh.Level, out *mesh.Field) {
	cx, cy, cz := s.coef.X, s.coef.Y, s.coef.Z
	each(lv.Geom.N, func(i, j, k int) {
		out.Set(i, j, k,
			s.ddn(cx, lv.Ex, 0, i, j, k)+
				s.ddn(cy, lv.Ey, 1, i, j, k)+
				s.ddn(cz, lv.Ez, 2, i, j, k))
	})
}
