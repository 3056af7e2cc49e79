package driver

import (
	"math"

	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/push"
)

// refluxChild folds the child's sub-cycle-averaged current back onto the
// parent before the parent's E update. Coarse samples covered by the child
// region are replaced with the restriction of the fine current; the current
// that buffer particles deposited directly in coarse index space is then
// added on top. In Add buffer mode those particles also deposited on the
// fine level, so they are counted on both levels there.
func (d *Driver) refluxChild(parent *Level) {
	child := parent.Child
	if child.subSteps == 0 {
		return
	}
	inv := 1 / float64(child.subSteps)
	r := child.Ratio
	cg, pg := child.Mesh.Geom, parent.Mesh.Geom

	var off [3]int
	for ax := 0; ax < 3; ax++ {
		off[ax] = int(math.Round((cg.Lo[ax] - pg.Lo[ax]) / pg.Cell[ax]))
	}

	for c, pf := range parent.Mesh.J() {
		ff := child.jAccum[c]
		var hi [3]int
		for ax := 0; ax < 3; ax++ {
			hi[ax] = off[ax] + cg.N[ax]/r
			if pf.Stag[ax] != 0 {
				hi[ax]--
			}
		}
		for i := off[0]; i <= hi[0]; i++ {
			for j := off[1]; j <= hi[1]; j++ {
				for k := off[2]; k <= hi[2]; k++ {
					v := restrict(ff, r, i-off[0], j-off[1], k-off[2])
					pf.Set(i, j, k, v*inv)
				}
			}
		}

		pr := pf.Raw()
		cr := child.coarsePending[c].Raw()
		for n := range pr {
			pr[n] += cr[n] * inv
		}
		child.coarsePending[c].Zero()
		ff.Zero()
	}
	child.subSteps = 0
}

// restrict averages the fine samples coinciding with one coarse sample:
// the single coincident node along nodal axes, the r face samples along
// half-staggered axes.
func restrict(f *mesh.Field, r int, ci, cj, ck int) float64 {
	var cnt [3]int
	for ax := 0; ax < 3; ax++ {
		cnt[ax] = 1
		if f.Stag[ax] != 0 {
			cnt[ax] = r
		}
	}
	sum := 0.0
	for a := 0; a < cnt[0]; a++ {
		for b := 0; b < cnt[1]; b++ {
			for c := 0; c < cnt[2]; c++ {
				sum += f.At(ci*r+a, cj*r+b, ck*r+c)
			}
		}
	}
	return sum / float64(cnt[0]*cnt[1]*cnt[2])
}

// refreshAux refills the child's auxiliary E and B copies by interpolating
// the parent fields at every fine sample position. The gather path only
// reads the copies inside the buffer band, but the whole extent is
// refreshed.
func (d *Driver) refreshAux(child *Level) {
	parent := child.Parent
	cm := child.Mesh
	auxE := [3]*mesh.Field{cm.AuxEx, cm.AuxEy, cm.AuxEz}
	auxB := [3]*mesh.Field{cm.AuxBx, cm.AuxBy, cm.AuxBz}
	srcE, srcB := parent.Mesh.E(), parent.Mesh.B()
	for c := 0; c < 3; c++ {
		fillFrom(auxE[c], cm.Geom, srcE[c], parent.Mesh.Geom)
		fillFrom(auxB[c], cm.Geom, srcB[c], parent.Mesh.Geom)
	}
}

func fillFrom(dst *mesh.Field, g mesh.Geometry, src *mesh.Field, sg mesh.Geometry) {
	n := dst.N()
	for i := 0; i <= n[0]; i++ {
		for j := 0; j <= n[1]; j++ {
			for k := 0; k <= n[2]; k++ {
				dst.Set(i, j, k, push.GatherComponent(src, sg, 1, dst.Pos(g, i, j, k)))
			}
		}
	}
}
