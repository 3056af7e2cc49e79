package push

import "github.com/san-kum/picmesh/internal/mesh"

// depositWindow covers the widest shape support (order 3 -> 4 nodes) plus
// one cell of motion and a safety node.
const depositWindow = 6

// DepositCurrent adds one particle's current to j using the Esirkepov
// decomposition of the step from x0 to x1: the per-axis node shapes before
// and after the move fix face-crossing currents whose discrete divergence
// equals the change of the shape-deposited charge density exactly, so the
// discrete continuity equation holds to rounding for any supported order.
// The step displacement must stay below one cell per axis (guaranteed by
// any stable timestep).
func DepositCurrent(j [3]*mesh.Field, g mesh.Geometry, order int, x0, x1 [3]float64, qw, dt float64) {
	var s0, s1, ds [3][depositWindow]float64
	var base [3]int

	for ax := 0; ax < 3; ax++ {
		var w0, w1 [4]float64
		g0 := (x0[ax] - g.Lo[ax]) / g.Cell[ax]
		g1 := (x1[ax] - g.Lo[ax]) / g.Cell[ax]
		st0, n := shapeWeights(order, g0, &w0)
		st1, _ := shapeWeights(order, g1, &w1)
		b := st0
		if st1 < b {
			b = st1
		}
		base[ax] = b
		for l := 0; l < n; l++ {
			s0[ax][st0-b+l] = w0[l]
			s1[ax][st1-b+l] = w1[l]
		}
		for l := 0; l < depositWindow; l++ {
			ds[ax][l] = s1[ax][l] - s0[ax][l]
		}
	}

	dx, dy, dz := g.Cell[0], g.Cell[1], g.Cell[2]
	fx := -qw / (dt * dy * dz)
	fy := -qw / (dt * dx * dz)
	fz := -qw / (dt * dx * dy)

	// W = DS_a * (S0_b S0_c + DS_b S0_c / 2 + S0_b DS_c / 2 + DS_b DS_c / 3),
	// prefix-summed along the current's own axis.
	wgt := func(dsa, s0b, dsb, s0c, dsc float64) float64 {
		return dsa * (s0b*s0c + 0.5*dsb*s0c + 0.5*s0b*dsc + dsb*dsc/3)
	}

	for l2 := 0; l2 < depositWindow; l2++ {
		for l3 := 0; l3 < depositWindow; l3++ {
			acc := 0.0
			for l1 := 0; l1 < depositWindow-1; l1++ {
				acc += wgt(ds[0][l1], s0[1][l2], ds[1][l2], s0[2][l3], ds[2][l3])
				if acc != 0 {
					j[0].Add(base[0]+l1, base[1]+l2, base[2]+l3, fx*acc)
				}
			}
		}
	}
	for l1 := 0; l1 < depositWindow; l1++ {
		for l3 := 0; l3 < depositWindow; l3++ {
			acc := 0.0
			for l2 := 0; l2 < depositWindow-1; l2++ {
				acc += wgt(ds[1][l2], s0[0][l1], ds[0][l1], s0[2][l3], ds[2][l3])
				if acc != 0 {
					j[1].Add(base[0]+l1, base[1]+l2, base[2]+l3, fy*acc)
				}
			}
		}
	}
	for l1 := 0; l1 < depositWindow; l1++ {
		for l2 := 0; l2 < depositWindow; l2++ {
			acc := 0.0
			for l3 := 0; l3 < depositWindow-1; l3++ {
				acc += wgt(ds[2][l3], s0[0][l1], ds[0][l1], s0[1][l2], ds[1][l2])
				if acc != 0 {
					j[2].Add(base[0]+l1, base[1]+l2, base[2]+l3, fz*acc)
				}
			}
		}
	}
}

// DepositRho adds one particle's charge density to rho with the node shape
// of the given order. Using the same order as DepositCurrent is what makes
// the continuity equation close.
func DepositRho(rho *mesh.Field, g mesh.Geometry, order int, pos [3]float64, qw float64) {
	var wx, wy, wz [4]float64
	sx, nx := shapeWeights(order, (pos[0]-g.Lo[0])/g.Cell[0], &wx)
	sy, ny := shapeWeights(order, (pos[1]-g.Lo[1])/g.Cell[1], &wy)
	sz, nz := shapeWeights(order, (pos[2]-g.Lo[2])/g.Cell[2], &wz)
	inv := qw / (g.Cell[0] * g.Cell[1] * g.Cell[2])
	for a := 0; a < nx; a++ {
		for b := 0; b < ny; b++ {
			for c := 0; c < nz; c++ {
				rho.Add(sx+a, sy+b, sz+c, inv*wx[a]*wy[b]*wz[c])
			}
		}
	}
}
