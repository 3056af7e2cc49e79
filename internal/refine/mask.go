// Package refine classifies fine-level cells by their distance to the
// coarse-fine interface. The masks are built once per regrid and are
// read-only afterwards, so the hot gather/deposit loops can treat Classify
// as a branch-free table lookup.
package refine

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/mesh"
)

// Class is a pair of independent flags: a cell near the interface can sit in
// both buffers when the two widths overlap.
type Class uint8

const (
	Interior      Class = 0
	GatherBuffer  Class = 1 << 0
	DepositBuffer Class = 1 << 1
)

func (c Class) Gather() bool  { return c&GatherBuffer != 0 }
func (c Class) Deposit() bool { return c&DepositBuffer != 0 }

// Mask holds the per-cell classification for one level.
type Mask struct {
	n            [3]int
	gatherWidth  int
	depositWidth int
	cls          []Class
}

// Build computes the mask for a fine level. faces[ax][side] marks which of
// the level's six faces touch coarser cells; a face flush with the physical
// domain boundary is not a coarse-fine interface and must be passed false.
func Build(g mesh.Geometry, faces [3][2]bool, gatherWidth, depositWidth int) (*Mask, error) {
	if gatherWidth < 0 || depositWidth < 0 {
		return nil, fmt.Errorf("refine: buffer widths must be non-negative, got gather=%d deposit=%d",
			gatherWidth, depositWidth)
	}
	m := &Mask{n: g.N, gatherWidth: gatherWidth, depositWidth: depositWidth}
	m.cls = make([]Class, g.N[0]*g.N[1]*g.N[2])
	for i := 0; i < g.N[0]; i++ {
		for j := 0; j < g.N[1]; j++ {
			for k := 0; k < g.N[2]; k++ {
				d := m.distance(faces, [3]int{i, j, k})
				var c Class
				if d < gatherWidth {
					c |= GatherBuffer
				}
				if d < depositWidth {
					c |= DepositBuffer
				}
				m.cls[(i*g.N[1]+j)*g.N[2]+k] = c
			}
		}
	}
	return m, nil
}

// distance is the cell distance to the nearest coarse-fine face, or a value
// past any buffer width when no face qualifies.
func (m *Mask) distance(faces [3][2]bool, c [3]int) int {
	d := m.n[0] + m.n[1] + m.n[2]
	for ax := 0; ax < 3; ax++ {
		if faces[ax][0] && c[ax] < d {
			d = c[ax]
		}
		if hi := m.n[ax] - 1 - c[ax]; faces[ax][1] && hi < d {
			d = hi
		}
	}
	return d
}

// Classify returns the flags for cell (i,j,k). Out-of-range indices are a
// consistency violation upstream (redistribution failed to contain the
// particle) and panic rather than being clamped.
func (m *Mask) Classify(i, j, k int) Class {
	if i < 0 || i >= m.n[0] || j < 0 || j >= m.n[1] || k < 0 || k >= m.n[2] {
		panic(fmt.Sprintf("refine: cell (%d,%d,%d) outside mask extent %v", i, j, k, m.n))
	}
	return m.cls[(i*m.n[1]+j)*m.n[2]+k]
}

// ClassifyAt maps a physical position to its cell and classifies it. The
// second return is false when the position lies outside the level.
func (m *Mask) ClassifyAt(g mesh.Geometry, pos [3]float64) (Class, bool) {
	var c [3]int
	for ax := 0; ax < 3; ax++ {
		ci := int((pos[ax] - g.Lo[ax]) / g.Cell[ax])
		if pos[ax] < g.Lo[ax] || ci < 0 || ci >= m.n[ax] {
			return Interior, false
		}
		c[ax] = ci
	}
	return m.cls[(c[0]*m.n[1]+c[1])*m.n[2]+c[2]], true
}

// GatherWidth and DepositWidth echo the build parameters.
func (m *Mask) GatherWidth() int  { return m.gatherWidth }
func (m *Mask) DepositWidth() int { return m.depositWidth }
