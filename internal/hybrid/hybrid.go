// Package hybrid supplies the closure inputs for the Ohm's-law electric
// field solve: kinetic ion current, electron pressure, resistivity and the
// ion charge density, all on the same staggered layout as the field mesh.
package hybrid

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/mesh"
)

// Model is the hybrid-PIC closure state for one level.
type Model struct {
	// Ji is the kinetic ion current on the E-component stagger.
	Ji [3]*mesh.Field
	// Jext is an optional externally imposed current, same stagger.
	Jext [3]*mesh.Field
	// Pe is the scalar electron pressure at cell centers.
	Pe *mesh.Field
	// Rho is the ion charge density at nodes.
	Rho *mesh.Field

	// Eta is the (uniform) resistivity, Ohm·m.
	Eta float64
	// RhoFloor guards the 1/(e n) factors against evacuated cells.
	RhoFloor float64
}

func NewModel(g mesh.Geometry, eta, rhoFloor float64) (*Model, error) {
	if eta < 0 {
		return nil, fmt.Errorf("hybrid: resistivity must be non-negative, got %g", eta)
	}
	if rhoFloor <= 0 {
		return nil, fmt.Errorf("hybrid: charge-density floor must be positive, got %g", rhoFloor)
	}
	m := &Model{Eta: eta, RhoFloor: rhoFloor}
	m.Ji = [3]*mesh.Field{
		mesh.NewField(g, mesh.StagEx),
		mesh.NewField(g, mesh.StagEy),
		mesh.NewField(g, mesh.StagEz),
	}
	m.Jext = [3]*mesh.Field{
		mesh.NewField(g, mesh.StagEx),
		mesh.NewField(g, mesh.StagEy),
		mesh.NewField(g, mesh.StagEz),
	}
	m.Pe = mesh.NewField(g, mesh.StagG)
	m.Rho = mesh.NewField(g, mesh.StagRho)
	return m, nil
}

// RhoAt returns the floored charge density interpolated to cell (i,j,k).
func (m *Model) RhoAt(i, j, k int) float64 {
	r := m.Rho.At(i, j, k)
	if r < m.RhoFloor {
		return m.RhoFloor
	}
	return r
}
