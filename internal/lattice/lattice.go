// Package lattice evaluates external accelerator-element fields at particle
// positions. Elements are defined in the lab frame along z; a per-level
// z-indexed lookup table makes the per-particle query O(1), and positions and
// fields are Lorentz-transformed when the simulation runs in a boosted frame.
package lattice

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/mesh"
)

type ElementKind int

const (
	Quadrupole ElementKind = iota
	PlasmaLens
)

func (k ElementKind) String() string {
	if k == PlasmaLens {
		return "plasmalens"
	}
	return "quadrupole"
}

// Element is one hard-edged field-generating segment. DEdx is the electric
// gradient (V/m^2), DBdx the magnetic gradient (T/m); either may be zero.
type Element struct {
	Kind         ElementKind
	ZStart, ZEnd float64
	DEdx         float64
	DBdx         float64
}

// Lattice is the ordered element list plus the frame it is consumed from.
type Lattice struct {
	Elements   []Element
	GammaBoost float64
	betaBoost  float64
}

func New(elems []Element, gammaBoost float64) (*Lattice, error) {
	if gammaBoost < 1 {
		return nil, fmt.Errorf("lattice: gamma_boost must be >= 1, got %g", gammaBoost)
	}
	sorted := make([]Element, len(elems))
	copy(sorted, elems)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ZStart < sorted[j].ZStart })
	for i, e := range sorted {
		if e.ZEnd <= e.ZStart {
			return nil, fmt.Errorf("lattice: element %d has non-positive length [%g, %g]", i, e.ZStart, e.ZEnd)
		}
		if i > 0 && sorted[i-1].ZEnd > e.ZStart {
			return nil, fmt.Errorf("lattice: elements %d and %d overlap", i-1, i)
		}
	}
	l := &Lattice{Elements: sorted, GammaBoost: gammaBoost}
	if gammaBoost > 1 {
		l.betaBoost = math.Sqrt(1 - 1/(gammaBoost*gammaBoost))
	}
	return l, nil
}

// Finder is the per-level position-to-element table, rebuilt on regrid and
// whenever the boosted-frame time advances (the lab position of a fixed
// boosted z drifts with time).
type Finder struct {
	lat  *Lattice
	zLo  float64
	dz   float64
	nz   int
	idx  []int // element index per z cell, -1 for gaps
	time float64
}

func (l *Lattice) NewFinder(g mesh.Geometry) *Finder {
	f := &Finder{lat: l, zLo: g.Lo[2], dz: g.Cell[2], nz: g.N[2], idx: make([]int, g.N[2])}
	f.Update(0)
	return f
}

// Update rebuilds the table for boosted-frame time t.
func (f *Finder) Update(t float64) {
	f.time = t
	for iz := 0; iz < f.nz; iz++ {
		zc := f.zLo + (float64(iz)+0.5)*f.dz
		f.idx[iz] = f.lookup(f.lat.LabZ(zc, t))
	}
}

func (f *Finder) lookup(zLab float64) int {
	elems := f.lat.Elements
	i := sort.Search(len(elems), func(i int) bool { return elems[i].ZEnd > zLab })
	if i < len(elems) && elems[i].ZStart <= zLab {
		return i
	}
	return -1
}

// LabZ maps a boosted-frame z at boosted-frame time t into the lab frame.
// With gamma_boost == 1 it is the identity.
func (l *Lattice) LabZ(z, t float64) float64 {
	if l.GammaBoost <= 1 {
		return z
	}
	return l.GammaBoost * (z + l.betaBoost*constants.C*t)
}

// FieldAt returns the element (E, B) contribution at a boosted-frame
// position and time, already transformed into the simulation frame. ok is
// false when pos falls outside the finder's tabulated range, which signals a
// stale table rather than a recoverable condition.
func (f *Finder) FieldAt(pos [3]float64, t float64) (e, b [3]float64, ok bool) {
	iz := int((pos[2] - f.zLo) / f.dz)
	if pos[2] < f.zLo || iz < 0 || iz >= f.nz {
		return e, b, false
	}
	ei := f.idx[iz]
	if ei < 0 {
		return e, b, true
	}
	el := &f.lat.Elements[ei]
	x, y := pos[0], pos[1]
	switch el.Kind {
	case Quadrupole:
		e[0], e[1] = el.DEdx*x, -el.DEdx*y
		b[0], b[1] = el.DBdx*y, el.DBdx*x
	case PlasmaLens:
		e[0], e[1] = el.DEdx*x, el.DEdx*y
		b[0], b[1] = el.DBdx*y, -el.DBdx*x
	}
	if f.lat.GammaBoost > 1 {
		e, b = BoostFields(e, b, f.lat.GammaBoost, f.lat.betaBoost)
	}
	return e, b, true
}

// BoostFields applies the field transform for a boost beta (in units of c)
// along z: the transverse components mix, the z components are unchanged.
// Passing -beta inverts a previous transform exactly.
func BoostFields(e, b [3]float64, gamma, beta float64) (eOut, bOut [3]float64) {
	v := beta * constants.C
	eOut[0] = gamma * (e[0] - v*b[1])
	eOut[1] = gamma * (e[1] + v*b[0])
	eOut[2] = e[2]
	bOut[0] = gamma * (b[0] + v*e[1]/(constants.C*constants.C))
	bOut[1] = gamma * (b[1] - v*e[0]/(constants.C*constants.C))
	bOut[2] = b[2]
	return eOut, bOut
}
