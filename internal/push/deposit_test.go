package push

import (
	"math"
	"testing"

	"github.com/san-kum/picmesh/internal/mesh"
)

func depositGeom() mesh.Geometry {
	return mesh.Geometry{
		Lo:    [3]float64{0, 0, 0},
		N:     [3]int{8, 8, 8},
		Cell:  [3]float64{0.4, 0.5, 0.25},
		Ghost: 5,
	}
}

func newJ(g mesh.Geometry) [3]*mesh.Field {
	return [3]*mesh.Field{
		mesh.NewField(g, mesh.StagEx),
		mesh.NewField(g, mesh.StagEy),
		mesh.NewField(g, mesh.StagEz),
	}
}

// The Esirkepov decomposition is built so that the discrete divergence of
// the deposited current exactly balances the change of the shape-deposited
// charge density. Verify node by node for every supported order.
func TestDepositCurrentContinuity(t *testing.T) {
	g := depositGeom()
	dt := 1e-3

	moves := [][2][3]float64{
		{{1.33, 2.1, 1.07}, {1.47, 2.02, 1.13}},
		{{1.6, 2.25, 1.0}, {1.75, 2.44, 0.94}},  // shape support shifts mid-move
		{{3.0, 3.0, 1.5}, {3.19, 2.81, 1.62}},   // starts exactly on nodes
		{{1.05, 1.05, 0.55}, {0.93, 1.1, 0.49}}, // moves toward lower corner
	}

	for order := 1; order <= 3; order++ {
		for _, mv := range moves {
			x0, x1 := mv[0], mv[1]
			j := newJ(g)
			rho0 := mesh.NewField(g, mesh.StagRho)
			rho1 := mesh.NewField(g, mesh.StagRho)

			qw := -1.5e-9
			DepositCurrent(j, g, order, x0, x1, qw, dt)
			DepositRho(rho0, g, order, x0, qw)
			DepositRho(rho1, g, order, x1, qw)

			scale := 0.0
			rho1.Each(func(i, jj, k int, v float64) {
				if d := math.Abs(v-rho0.At(i, jj, k)) / dt; d > scale {
					scale = d
				}
			})
			if scale == 0 {
				t.Fatalf("order %d: deposit produced no density change", order)
			}

			worst := 0.0
			for i := -4; i <= g.N[0]+4; i++ {
				for jj := -4; jj <= g.N[1]+4; jj++ {
					for k := -4; k <= g.N[2]+4; k++ {
						div := (j[0].At(i, jj, k)-j[0].At(i-1, jj, k))/g.Cell[0] +
							(j[1].At(i, jj, k)-j[1].At(i, jj-1, k))/g.Cell[1] +
							(j[2].At(i, jj, k)-j[2].At(i, jj, k-1))/g.Cell[2]
						res := (rho1.At(i, jj, k)-rho0.At(i, jj, k))/dt + div
						if r := math.Abs(res); r > worst {
							worst = r
						}
					}
				}
			}
			if worst > 1e-10*scale {
				t.Errorf("order %d move %v: continuity residual %v (scale %v)",
					order, mv, worst, scale)
			}
		}
	}
}

func TestDepositCurrentStationary(t *testing.T) {
	g := depositGeom()
	j := newJ(g)
	pos := [3]float64{1.3, 2.2, 1.1}
	DepositCurrent(j, g, 2, pos, pos, 1e-9, 1e-3)
	for c, f := range j {
		sum := 0.0
		f.Each(func(i, jj, k int, v float64) { sum += math.Abs(v) })
		if sum != 0 {
			t.Errorf("component %d nonzero for a stationary particle: %v", c, sum)
		}
	}
}

// The mean deposited current times the cell volume must equal qw times the
// average velocity, independent of shape order.
func TestDepositCurrentMean(t *testing.T) {
	g := depositGeom()
	dt := 2e-3
	x0 := [3]float64{1.33, 2.1, 1.07}
	x1 := [3]float64{1.45, 1.96, 1.13}
	qw := 3e-9
	dv := g.Cell[0] * g.Cell[1] * g.Cell[2]

	for order := 1; order <= 3; order++ {
		j := newJ(g)
		DepositCurrent(j, g, order, x0, x1, qw, dt)
		for c := 0; c < 3; c++ {
			sum := 0.0
			j[c].Each(func(i, jj, k int, v float64) { sum += v })
			want := qw * (x1[c] - x0[c]) / dt
			if math.Abs(sum*dv-want) > 1e-12*math.Abs(want) {
				t.Errorf("order %d component %d: integrated current %v, want %v",
					order, c, sum*dv, want)
			}
		}
	}
}

func TestDepositRhoTotalCharge(t *testing.T) {
	g := depositGeom()
	qw := -2.5e-9
	dv := g.Cell[0] * g.Cell[1] * g.Cell[2]
	for order := 1; order <= 3; order++ {
		rho := mesh.NewField(g, mesh.StagRho)
		DepositRho(rho, g, order, [3]float64{1.21, 2.07, 1.03}, qw)
		sum := 0.0
		rho.Each(func(i, jj, k int, v float64) { sum += v })
		if math.Abs(sum*dv-qw) > 1e-12*math.Abs(qw) {
			t.Errorf("order %d: total charge %v, want %v", order, sum*dv, qw)
		}
	}
}
