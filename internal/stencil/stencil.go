// Package stencil precomputes finite-difference derivative weights for the
// field solver. Weights are solved once at setup from the Taylor-expansion
// moment conditions; the hot loops only ever read the resulting slices.
package stencil

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

type GridType int

const (
	Staggered GridType = iota
	Collocated
)

type Geometry int

const (
	Cartesian Geometry = iota
	Cylindrical
)

func (g GridType) String() string {
	if g == Collocated {
		return "collocated"
	}
	return "staggered"
}

func (g Geometry) String() string {
	if g == Cylindrical {
		return "cylindrical"
	}
	return "cartesian"
}

// Config describes the stencil to build. Order is the formal accuracy 2p,
// shared by all axes. Cylindrical geometry reads CellSize[0] as dr and
// CellSize[2] as dz, and additionally needs RMin and Modes.
type Config struct {
	Order    int
	Grid     GridType
	Geometry Geometry
	CellSize [3]float64
	RMin     float64
	Modes    int
}

// Coefficients holds one derivative weight sequence per axis. Entry j of an
// axis slice multiplies the pair of field samples at distance (2j+1)/2 cells
// (staggered) or j+1 cells (collocated) from the evaluation point, and already
// includes the 1/dx factor, so a derivative is just the weighted sum of
// sample differences.
type Coefficients struct {
	Order    int
	Grid     GridType
	Geometry Geometry

	X, Y, Z []float64

	// Cylindrical extras; R aliases X and Z stays Z.
	RMin  float64
	Dr    float64
	Dz    float64
	Modes int
}

// Points returns the number of neighbor pairs per derivative (p = Order/2).
func (c *Coefficients) Points() int { return c.Order / 2 }

// New validates cfg and solves for the weights.
func New(cfg Config) (*Coefficients, error) {
	if cfg.Order <= 0 || cfg.Order%2 != 0 {
		return nil, fmt.Errorf("stencil: order must be positive and even, got %d", cfg.Order)
	}
	switch cfg.Geometry {
	case Cartesian:
		for ax, d := range cfg.CellSize {
			if d <= 0 {
				return nil, fmt.Errorf("stencil: cell size must be positive, axis %d has %g", ax, d)
			}
		}
	case Cylindrical:
		if cfg.CellSize[0] <= 0 || cfg.CellSize[2] <= 0 {
			return nil, fmt.Errorf("stencil: cylindrical geometry needs positive dr and dz, got dr=%g dz=%g",
				cfg.CellSize[0], cfg.CellSize[2])
		}
		if cfg.RMin < 0 {
			return nil, fmt.Errorf("stencil: cylindrical geometry needs rmin >= 0, got %g", cfg.RMin)
		}
		if cfg.Modes < 1 {
			return nil, fmt.Errorf("stencil: cylindrical geometry needs at least one azimuthal mode, got %d", cfg.Modes)
		}
		if cfg.Grid == Staggered && cfg.Order > 2 {
			// The r=0 axis treatment below is only worked out for the
			// standard Yee stencil.
			return nil, fmt.Errorf("stencil: cylindrical staggered grids support order 2 only, got %d", cfg.Order)
		}
	default:
		return nil, fmt.Errorf("stencil: unknown geometry %d", cfg.Geometry)
	}

	raw, err := solve(cfg.Order/2, cfg.Grid)
	if err != nil {
		return nil, err
	}

	c := &Coefficients{
		Order:    cfg.Order,
		Grid:     cfg.Grid,
		Geometry: cfg.Geometry,
		RMin:     cfg.RMin,
		Modes:    cfg.Modes,
	}
	if cfg.Geometry == Cylindrical {
		c.Dr, c.Dz = cfg.CellSize[0], cfg.CellSize[2]
		c.X = scaled(raw, cfg.CellSize[0])
		c.Z = scaled(raw, cfg.CellSize[2])
		c.Y = nil
		return c, nil
	}
	c.X = scaled(raw, cfg.CellSize[0])
	c.Y = scaled(raw, cfg.CellSize[1])
	c.Z = scaled(raw, cfg.CellSize[2])
	return c, nil
}

// NewPerAxis is New with an explicit order per axis. The orders must agree;
// differing orders would make the curl components formally inconsistent.
func NewPerAxis(cfg Config, orders [3]int) (*Coefficients, error) {
	for ax := 1; ax < 3; ax++ {
		if orders[ax] != orders[0] {
			return nil, fmt.Errorf("stencil: inconsistent orders across axes: %v", orders)
		}
	}
	cfg.Order = orders[0]
	return New(cfg)
}

func scaled(raw []float64, d float64) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = v / d
	}
	return out
}

// solve returns the unscaled weights c_1..c_p such that
//
//	f'(x) ≈ (1/h) Σ_j c_j (f(x+a_j h) − f(x−a_j h))
//
// with a_j = (2j−1)/2 on staggered grids and a_j = j on collocated grids.
// Matching Taylor expansions through order 2p gives the moment conditions
//
//	Σ_j 2 c_j a_j^(2k−1)/(2k−1)! = δ_{k1},  k = 1..p,
//
// a p×p linear system solved here with gonum. For p=2 staggered this yields
// the familiar {9/8, −1/24}.
func solve(p int, grid GridType) ([]float64, error) {
	a := make([]float64, p)
	for j := 0; j < p; j++ {
		if grid == Staggered {
			a[j] = float64(2*j+1) / 2
		} else {
			a[j] = float64(j + 1)
		}
	}
	m := mat.NewDense(p, p, nil)
	rhs := mat.NewVecDense(p, nil)
	rhs.SetVec(0, 1)
	for k := 1; k <= p; k++ {
		fact := 1.0
		for i := 2; i <= 2*k-1; i++ {
			fact *= float64(i)
		}
		for j := 0; j < p; j++ {
			pow := 1.0
			for i := 0; i < 2*k-1; i++ {
				pow *= a[j]
			}
			m.Set(k-1, j, 2*pow/fact)
		}
	}
	var c mat.VecDense
	if err := c.SolveVec(m, rhs); err != nil {
		return nil, fmt.Errorf("stencil: singular moment system for p=%d: %w", p, err)
	}
	out := make([]float64, p)
	for j := 0; j < p; j++ {
		out[j] = c.AtVec(j)
	}
	return out, nil
}

// DiffStaggered evaluates a derivative at the dual location i+1/2 from
// node-centered samples, or at node i from face-centered samples when the
// caller shifts i by one. get(k) must return the sample at node index k.
func (c *Coefficients) DiffStaggered(coefs []float64, get func(int) float64, i int) float64 {
	d := 0.0
	for j, w := range coefs {
		d += w * (get(i+j+1) - get(i-j))
	}
	return d
}

// DiffCollocated evaluates a centered derivative at node i.
func (c *Coefficients) DiffCollocated(coefs []float64, get func(int) float64, i int) float64 {
	d := 0.0
	for j, w := range coefs {
		d += w * (get(i+j+1) - get(i-j-1))
	}
	return d
}
