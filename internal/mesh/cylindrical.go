package mesh

import "fmt"

// CylField is one azimuthal-mode component on the 2D (r,z) grid. Mode
// amplitudes are complex; mode 0 keeps a zero imaginary part. Staggering
// follows the RZ Yee layout: Sr/Sz are 0 or 1/2 in cell units.
type CylField struct {
	Sr, Sz float64
	nr, nz int
	ghost  int
	srow   int
	data   []complex128
}

func NewCylField(nr, nz, ghost int, sr, sz float64) *CylField {
	f := &CylField{Sr: sr, Sz: sz, nr: nr, nz: nz, ghost: ghost}
	f.srow = nz + 2*ghost + 1
	f.data = make([]complex128, (nr+2*ghost+1)*f.srow)
	return f
}

func (f *CylField) At(i, k int) complex128     { return f.data[(i+f.ghost)*f.srow+(k+f.ghost)] }
func (f *CylField) Set(i, k int, v complex128) { f.data[(i+f.ghost)*f.srow+(k+f.ghost)] = v }
func (f *CylField) Add(i, k int, v complex128) { f.data[(i+f.ghost)*f.srow+(k+f.ghost)] += v }

func (f *CylField) Zero() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// CylLevel is the cylindrical-mode counterpart of Level: one component set
// per azimuthal mode m = 0..Modes-1.
type CylLevel struct {
	NR, NZ int
	Ghost  int
	RMin   float64
	Dr, Dz float64
	Modes  int

	Er, Et, Ez []*CylField
	Br, Bt, Bz []*CylField
	Jr, Jt, Jz []*CylField
}

func NewCylLevel(nr, nz, ghost int, rmin, dr, dz float64, modes int) (*CylLevel, error) {
	if nr <= 0 || nz <= 0 {
		return nil, fmt.Errorf("mesh: cylindrical extents must be positive, got %dx%d", nr, nz)
	}
	if dr <= 0 || dz <= 0 {
		return nil, fmt.Errorf("mesh: cylindrical cell sizes must be positive, got dr=%g dz=%g", dr, dz)
	}
	if rmin < 0 {
		return nil, fmt.Errorf("mesh: rmin must be non-negative, got %g", rmin)
	}
	if modes < 1 {
		return nil, fmt.Errorf("mesh: need at least one azimuthal mode, got %d", modes)
	}
	lv := &CylLevel{NR: nr, NZ: nz, Ghost: ghost, RMin: rmin, Dr: dr, Dz: dz, Modes: modes}
	mk := func(sr, sz float64) []*CylField {
		fs := make([]*CylField, modes)
		for m := range fs {
			fs[m] = NewCylField(nr, nz, ghost, sr, sz)
		}
		return fs
	}
	lv.Er, lv.Et, lv.Ez = mk(0.5, 0), mk(0, 0), mk(0, 0.5)
	lv.Br, lv.Bt, lv.Bz = mk(0, 0.5), mk(0.5, 0.5), mk(0.5, 0)
	lv.Jr, lv.Jt, lv.Jz = mk(0.5, 0), mk(0, 0), mk(0, 0.5)
	return lv, nil
}

// R returns the radius of a sample at index i with stagger sr.
func (lv *CylLevel) R(i int, sr float64) float64 {
	return lv.RMin + (float64(i)+sr)*lv.Dr
}

// OnAxis reports whether the level's inner edge sits on the symmetry axis.
func (lv *CylLevel) OnAxis() bool { return lv.RMin == 0 }
