package push

import (
	"math"
	"testing"

	"github.com/san-kum/picmesh/internal/mesh"
)

// Partition of unity makes the gather of a uniform field exact at every
// order and position, staggering included.
func TestGatherUniformField(t *testing.T) {
	g := depositGeom()
	lv, err := mesh.NewLevel(g, mesh.Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := [6]float64{1.5, -2.5, 3.5, 0.25, -0.5, 0.75}
	for c, f := range [6]*mesh.Field{lv.Ex, lv.Ey, lv.Ez, lv.Bx, lv.By, lv.Bz} {
		f.Fill(want[c])
	}

	positions := [][3]float64{
		{1.3, 2.2, 1.1},
		{1.6, 2.0, 0.875}, // on nodes and face centers
		{0.93, 3.1, 0.49},
	}
	for order := 1; order <= 3; order++ {
		for _, pos := range positions {
			ef, bf := GatherEB(lv.E(), lv.B(), g, order, pos)
			got := [6]float64{ef[0], ef[1], ef[2], bf[0], bf[1], bf[2]}
			for c := range got {
				if math.Abs(got[c]-want[c]) > 1e-13*math.Abs(want[c]) {
					t.Errorf("order %d pos %v component %d: got %v want %v",
						order, pos, c, got[c], want[c])
				}
			}
		}
	}
}

// B-splines reproduce linear functions, so sampling a linear field and
// gathering it back returns the exact point value regardless of the
// component's stagger.
func TestGatherLinearField(t *testing.T) {
	g := depositGeom()
	lv, err := mesh.NewLevel(g, mesh.Options{})
	if err != nil {
		t.Fatal(err)
	}
	lin := func(p [3]float64) float64 { return 2*p[0] - 3*p[1] + 0.5*p[2] + 1 }
	for _, f := range []*mesh.Field{lv.Ex, lv.Ey, lv.Ez, lv.Bx, lv.By, lv.Bz} {
		for i := -g.Ghost; i <= g.N[0]+g.Ghost; i++ {
			for j := -g.Ghost; j <= g.N[1]+g.Ghost; j++ {
				for k := -g.Ghost; k <= g.N[2]+g.Ghost; k++ {
					f.Set(i, j, k, lin(f.Pos(g, i, j, k)))
				}
			}
		}
	}

	for order := 1; order <= 3; order++ {
		pos := [3]float64{1.37, 2.21, 1.03}
		ef, bf := GatherEB(lv.E(), lv.B(), g, order, pos)
		want := lin(pos)
		for c := 0; c < 3; c++ {
			if math.Abs(ef[c]-want) > 1e-12*math.Abs(want) {
				t.Errorf("order %d E%d: got %v want %v", order, c, ef[c], want)
			}
			if math.Abs(bf[c]-want) > 1e-12*math.Abs(want) {
				t.Errorf("order %d B%d: got %v want %v", order, c, bf[c], want)
			}
		}
	}
}
