package mesh

import (
	"math"
	"testing"

	"github.com/san-kum/picmesh/internal/constants"
)

func testGeom() Geometry {
	return Geometry{
		Lo:    [3]float64{0, 0, 0},
		N:     [3]int{4, 5, 6},
		Cell:  [3]float64{0.5, 1, 2},
		Ghost: 2,
	}
}

func TestGeometryValidate(t *testing.T) {
	if err := testGeom().Validate(); err != nil {
		t.Fatalf("valid geometry rejected: %v", err)
	}
	bad := testGeom()
	bad.N[1] = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero cell count accepted")
	}
	bad = testGeom()
	bad.Cell[2] = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative cell size accepted")
	}
	bad = testGeom()
	bad.Ghost = -1
	if err := bad.Validate(); err == nil {
		t.Error("negative ghost width accepted")
	}
}

func TestGeometryContains(t *testing.T) {
	g := testGeom()
	if !g.Contains([3]float64{1, 2, 3}, 0) {
		t.Error("interior point reported outside")
	}
	if g.Contains([3]float64{-0.1, 2, 3}, 0) {
		t.Error("point below lo reported inside")
	}
	// one ghost cell of margin admits it
	if !g.Contains([3]float64{-0.1, 2, 3}, 1) {
		t.Error("point within margin reported outside")
	}
	hi := g.Hi()
	if g.Contains([3]float64{hi[0], 2, 3}, 0) {
		t.Error("upper face is exclusive")
	}
}

func TestFieldIndexing(t *testing.T) {
	g := testGeom()
	f := NewField(g, StagEx)
	f.Set(-g.Ghost, -g.Ghost, -g.Ghost, 1)
	f.Set(g.N[0]+g.Ghost, g.N[1]+g.Ghost, g.N[2]+g.Ghost, 2)
	f.Set(1, 2, 3, 7)
	if got := f.At(1, 2, 3); got != 7 {
		t.Errorf("At(1,2,3) = %g, want 7", got)
	}
	if got := f.At(-g.Ghost, -g.Ghost, -g.Ghost); got != 1 {
		t.Errorf("lower ghost corner = %g, want 1", got)
	}
	if got := f.At(g.N[0]+g.Ghost, g.N[1]+g.Ghost, g.N[2]+g.Ghost); got != 2 {
		t.Errorf("upper ghost corner = %g, want 2", got)
	}
	// distinct samples must not alias
	sum := 0.0
	for _, v := range f.Raw() {
		sum += v
	}
	if sum != 10 {
		t.Errorf("raw sum = %g, want 10", sum)
	}

	if f.In(g.N[0]+g.Ghost+1, 0, 0) {
		t.Error("index past the ghost region reported addressable")
	}
	if !f.In(-g.Ghost, 0, 0) {
		t.Error("lower ghost index reported unaddressable")
	}
}

func TestFieldPosStagger(t *testing.T) {
	g := testGeom()
	ex := NewField(g, StagEx)
	p := ex.Pos(g, 0, 0, 0)
	if p[0] != 0.25 || p[1] != 0 || p[2] != 0 {
		t.Errorf("Ex(0,0,0) at %v, want {0.25 0 0}", p)
	}
	bx := NewField(g, StagBx)
	p = bx.Pos(g, 1, 1, 1)
	want := [3]float64{0.5, 1.5, 3}
	if p != want {
		t.Errorf("Bx(1,1,1) at %v, want %v", p, want)
	}
}

func TestCopyAndAccumulate(t *testing.T) {
	g := testGeom()
	a := NewField(g, StagEy)
	b := NewField(g, StagEy)
	a.Set(2, 2, 2, 3)
	b.Set(2, 2, 2, 4)
	if err := a.AddRaw(b); err != nil {
		t.Fatalf("AddRaw failed: %v", err)
	}
	if got := a.At(2, 2, 2); got != 7 {
		t.Errorf("accumulated sample = %g, want 7", got)
	}
	c := NewField(Geometry{Lo: g.Lo, N: [3]int{2, 2, 2}, Cell: g.Cell, Ghost: 1}, StagEy)
	if err := a.AddRaw(c); err == nil {
		t.Error("mismatched accumulate accepted")
	}
	if err := c.CopyFrom(a); err == nil {
		t.Error("mismatched copy accepted")
	}
}

func TestNewLevelOptions(t *testing.T) {
	g := testGeom()
	lv, err := NewLevel(g, Options{})
	if err != nil {
		t.Fatalf("NewLevel failed: %v", err)
	}
	if lv.Rho != nil || lv.F != nil || lv.AuxEx != nil || lv.PML != nil {
		t.Error("optional state allocated without being requested")
	}

	lv, err = NewLevel(g, Options{Rho: true, DivCleaning: true, Refined: true, PMLCells: 2, PMLSigma: 1e8})
	if err != nil {
		t.Fatalf("NewLevel failed: %v", err)
	}
	if lv.Rho == nil || lv.F == nil || lv.G == nil || lv.AuxBz == nil || lv.PML == nil {
		t.Error("requested optional state missing")
	}

	bad := g
	bad.N[0] = 0
	if _, err := NewLevel(bad, Options{}); err == nil {
		t.Error("invalid geometry accepted")
	}
}

func TestFieldEnergyUniform(t *testing.T) {
	g := Geometry{N: [3]int{2, 2, 2}, Cell: [3]float64{1, 1, 1}, Ghost: 1}
	lv, err := NewLevel(g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	lv.Ex.Fill(2)
	// Each visits (N+1)^3 samples; ghosts carry the fill too but are not
	// counted by FieldEnergy.
	samples := 27.0
	want := 0.5 * constants.Eps0 * 4 * samples
	got := lv.FieldEnergy()
	if math.Abs(got-want) > 1e-20 {
		t.Errorf("energy = %g, want %g", got, want)
	}
	if lv.MaxField() != 2 {
		t.Errorf("max field = %g, want 2", lv.MaxField())
	}
}

func TestPMLSigmaProfile(t *testing.T) {
	g := Geometry{N: [3]int{8, 8, 8}, Cell: [3]float64{1, 1, 1}, Ghost: 1}
	p := NewPMLState(g, 2, 100)
	if s := p.Sigma(0, 4); s != 0 {
		t.Errorf("interior sigma = %g, want 0", s)
	}
	if s := p.Sigma(0, 0); s <= 0 {
		t.Errorf("layer sigma = %g, want > 0", s)
	}
	// cubic ramp grows toward the boundary
	if p.Sigma(0, 0.25) <= p.Sigma(0, 1.5) {
		t.Error("sigma does not grow toward the domain edge")
	}
	if !p.InLayer(0, 4, 4) {
		t.Error("cell in the layer not flagged")
	}
	if p.InLayer(4, 4, 4) {
		t.Error("interior cell flagged as layer")
	}
}
