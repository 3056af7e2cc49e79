package push

import (
	"github.com/san-kum/picmesh/internal/mesh"
)

// gatherComponent interpolates one staggered component to pos using the
// configured shape order along every axis.
func gatherComponent(f *mesh.Field, g mesh.Geometry, order int, pos [3]float64) float64 {
	var wx, wy, wz [4]float64
	sx, nx := shapeWeights(order, (pos[0]-g.Lo[0])/g.Cell[0]-f.Stag[0], &wx)
	sy, ny := shapeWeights(order, (pos[1]-g.Lo[1])/g.Cell[1]-f.Stag[1], &wy)
	sz, nz := shapeWeights(order, (pos[2]-g.Lo[2])/g.Cell[2]-f.Stag[2], &wz)
	v := 0.0
	for a := 0; a < nx; a++ {
		for b := 0; b < ny; b++ {
			for c := 0; c < nz; c++ {
				v += wx[a] * wy[b] * wz[c] * f.At(sx+a, sy+b, sz+c)
			}
		}
	}
	return v
}

// GatherEB interpolates all six components to pos. e and b are the component
// triplets to source from, which lets the caller switch between the fine
// fields and the coarse auxiliary copies without branching per component.
func GatherEB(e, b [3]*mesh.Field, g mesh.Geometry, order int, pos [3]float64) (ef, bf [3]float64) {
	for c := 0; c < 3; c++ {
		ef[c] = gatherComponent(e[c], g, order, pos)
		bf[c] = gatherComponent(b[c], g, order, pos)
	}
	return ef, bf
}

// GatherComponent interpolates a single staggered component to pos. The
// level-sync path uses it to refill auxiliary coarse-field copies from the
// parent level.
func GatherComponent(f *mesh.Field, g mesh.Geometry, order int, pos [3]float64) float64 {
	return gatherComponent(f, g, order, pos)
}
