// Package mesh holds the per-refinement-level staggered field state. Each
// field component lives at a fixed Yee sub-cell offset; the arrays are linear
// with row strides so the solver loops stay cache-friendly.
package mesh

import (
	"fmt"
	"math"

	"github.com/san-kum/picmesh/internal/constants"
)

// Geometry describes one level's valid region: physical lower corner, cell
// counts, cell sizes and the ghost width carried on every side.
type Geometry struct {
	Lo    [3]float64
	N     [3]int
	Cell  [3]float64
	Ghost int
}

func (g Geometry) Validate() error {
	for ax := 0; ax < 3; ax++ {
		if g.N[ax] <= 0 {
			return fmt.Errorf("mesh: cell count must be positive, axis %d has %d", ax, g.N[ax])
		}
		if g.Cell[ax] <= 0 {
			return fmt.Errorf("mesh: cell size must be positive, axis %d has %g", ax, g.Cell[ax])
		}
	}
	if g.Ghost < 0 {
		return fmt.Errorf("mesh: ghost width must be non-negative, got %d", g.Ghost)
	}
	return nil
}

// Hi returns the physical upper corner of the valid region.
func (g Geometry) Hi() [3]float64 {
	var hi [3]float64
	for ax := 0; ax < 3; ax++ {
		hi[ax] = g.Lo[ax] + float64(g.N[ax])*g.Cell[ax]
	}
	return hi
}

// Contains reports whether pos lies inside the valid region extended by
// margin cells on every side.
func (g Geometry) Contains(pos [3]float64, margin int) bool {
	for ax := 0; ax < 3; ax++ {
		lo := g.Lo[ax] - float64(margin)*g.Cell[ax]
		hi := g.Lo[ax] + float64(g.N[ax]+margin)*g.Cell[ax]
		if pos[ax] < lo || pos[ax] >= hi {
			return false
		}
	}
	return true
}

// Stagger is the sub-cell offset of a component, in cell units (0 or 1/2 per
// axis). Offsets are fixed by the physical role of each component and never
// change after allocation.
type Stagger [3]float64

var (
	StagEx  = Stagger{0.5, 0, 0}
	StagEy  = Stagger{0, 0.5, 0}
	StagEz  = Stagger{0, 0, 0.5}
	StagBx  = Stagger{0, 0.5, 0.5}
	StagBy  = Stagger{0.5, 0, 0.5}
	StagBz  = Stagger{0.5, 0.5, 0}
	StagRho = Stagger{0, 0, 0}
	// F (div E cleaning) is nodal, G (div B cleaning) is cell-centered.
	StagF = Stagger{0, 0, 0}
	StagG = Stagger{0.5, 0.5, 0.5}
)

// Field is one staggered scalar array over a level, ghost cells included.
// Valid indices run from -Ghost to N[ax]+Ghost inclusive on each axis.
type Field struct {
	Stag  Stagger
	ghost int
	n     [3]int // valid cells
	dim   [3]int // allocated nodes per axis
	sx    int
	sy    int
	data  []float64
}

func NewField(g Geometry, stag Stagger) *Field {
	f := &Field{Stag: stag, ghost: g.Ghost, n: g.N}
	for ax := 0; ax < 3; ax++ {
		f.dim[ax] = g.N[ax] + 2*g.Ghost + 1
	}
	f.sy = f.dim[2]
	f.sx = f.dim[1] * f.dim[2]
	f.data = make([]float64, f.dim[0]*f.sx)
	return f
}

func (f *Field) idx(i, j, k int) int {
	return (i+f.ghost)*f.sx + (j+f.ghost)*f.sy + (k + f.ghost)
}

func (f *Field) At(i, j, k int) float64     { return f.data[f.idx(i, j, k)] }
func (f *Field) Set(i, j, k int, v float64) { f.data[f.idx(i, j, k)] = v }
func (f *Field) Add(i, j, k int, v float64) { f.data[f.idx(i, j, k)] += v }

// In reports whether (i,j,k) is addressable, ghosts included.
func (f *Field) In(i, j, k int) bool {
	for ax, v := range [3]int{i, j, k} {
		if v < -f.ghost || v > f.n[ax]+f.ghost {
			return false
		}
	}
	return true
}

func (f *Field) Ghost() int { return f.ghost }
func (f *Field) N() [3]int  { return f.n }

// Pos returns the physical coordinate of sample (i,j,k) given the level's
// geometry, accounting for the component's stagger.
func (f *Field) Pos(g Geometry, i, j, k int) [3]float64 {
	return [3]float64{
		g.Lo[0] + (float64(i)+f.Stag[0])*g.Cell[0],
		g.Lo[1] + (float64(j)+f.Stag[1])*g.Cell[1],
		g.Lo[2] + (float64(k)+f.Stag[2])*g.Cell[2],
	}
}

func (f *Field) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

func (f *Field) Zero() { f.Fill(0) }

// CopyFrom copies sample-for-sample; shapes must match.
func (f *Field) CopyFrom(src *Field) error {
	if len(f.data) != len(src.data) || f.dim != src.dim {
		return fmt.Errorf("mesh: copy between mismatched field shapes %v and %v", f.dim, src.dim)
	}
	copy(f.data, src.data)
	return nil
}

// Raw exposes the backing array for merge and snapshot paths.
func (f *Field) Raw() []float64 { return f.data }

// AddRaw accumulates src's backing array into f, used when merging per-patch
// deposition scratch buffers.
func (f *Field) AddRaw(src *Field) error {
	if len(f.data) != len(src.data) {
		return fmt.Errorf("mesh: accumulate between mismatched field sizes %d and %d", len(f.data), len(src.data))
	}
	for i, v := range src.data {
		f.data[i] += v
	}
	return nil
}

// Each visits every valid (non-ghost) sample.
func (f *Field) Each(fn func(i, j, k int, v float64)) {
	for i := 0; i <= f.n[0]; i++ {
		for j := 0; j <= f.n[1]; j++ {
			for k := 0; k <= f.n[2]; k++ {
				fn(i, j, k, f.At(i, j, k))
			}
		}
	}
}

// Level is the full field state of one refinement level.
type Level struct {
	Geom Geometry

	Ex, Ey, Ez *Field
	Bx, By, Bz *Field
	Jx, Jy, Jz *Field

	Rho  *Field // optional
	F, G *Field // optional divergence-cleaning scalars

	// Aux* hold the coarse-level fields interpolated onto this level's index
	// space; particles in the gather buffer read these instead of the fine
	// fields. Nil on the base level.
	AuxEx, AuxEy, AuxEz *Field
	AuxBx, AuxBy, AuxBz *Field

	PML *PMLState // optional
}

// Options selects the optional per-level state.
type Options struct {
	Rho         bool
	DivCleaning bool
	Refined     bool // allocate the auxiliary coarse-field copies
	PMLCells    int  // 0 disables the absorbing layer
	PMLSigma    float64
}

func NewLevel(g Geometry, opts Options) (*Level, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	lv := &Level{Geom: g}
	lv.Ex, lv.Ey, lv.Ez = NewField(g, StagEx), NewField(g, StagEy), NewField(g, StagEz)
	lv.Bx, lv.By, lv.Bz = NewField(g, StagBx), NewField(g, StagBy), NewField(g, StagBz)
	lv.Jx, lv.Jy, lv.Jz = NewField(g, StagEx), NewField(g, StagEy), NewField(g, StagEz)
	if opts.Rho {
		lv.Rho = NewField(g, StagRho)
	}
	if opts.DivCleaning {
		lv.F = NewField(g, StagF)
		lv.G = NewField(g, StagG)
	}
	if opts.Refined {
		lv.AuxEx, lv.AuxEy, lv.AuxEz = NewField(g, StagEx), NewField(g, StagEy), NewField(g, StagEz)
		lv.AuxBx, lv.AuxBy, lv.AuxBz = NewField(g, StagBx), NewField(g, StagBy), NewField(g, StagBz)
	}
	if opts.PMLCells > 0 {
		lv.PML = NewPMLState(g, opts.PMLCells, opts.PMLSigma)
	}
	return lv, nil
}

// E, B and J return the component triplets in axis order.
func (lv *Level) E() [3]*Field { return [3]*Field{lv.Ex, lv.Ey, lv.Ez} }
func (lv *Level) B() [3]*Field { return [3]*Field{lv.Bx, lv.By, lv.Bz} }
func (lv *Level) J() [3]*Field { return [3]*Field{lv.Jx, lv.Jy, lv.Jz} }

func (lv *Level) ZeroCurrent() {
	lv.Jx.Zero()
	lv.Jy.Zero()
	lv.Jz.Zero()
}

// FieldEnergy integrates eps0/2 |E|^2 + |B|^2/(2 mu0) over the valid region.
func (lv *Level) FieldEnergy() float64 {
	dv := lv.Geom.Cell[0] * lv.Geom.Cell[1] * lv.Geom.Cell[2]
	e2, b2 := 0.0, 0.0
	for _, f := range lv.E() {
		f.Each(func(_, _, _ int, v float64) { e2 += v * v })
	}
	for _, f := range lv.B() {
		f.Each(func(_, _, _ int, v float64) { b2 += v * v })
	}
	return dv * (0.5*constants.Eps0*e2 + 0.5*b2/constants.Mu0)
}

// MaxField returns the largest |component| over E and B, a cheap blow-up
// detector for diagnostics.
func (lv *Level) MaxField() float64 {
	m := 0.0
	for _, f := range [6]*Field{lv.Ex, lv.Ey, lv.Ez, lv.Bx, lv.By, lv.Bz} {
		for _, v := range f.data {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
	}
	return m
}
