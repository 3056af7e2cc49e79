package diag

import (
	"math"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/driver"
	"github.com/san-kum/picmesh/internal/mesh"
)

// ChargeError tracks the worst violation of Gauss's law seen during the run:
// the max-norm of eps0*div(E) - rho over every level that carries a charge
// density. Levels without rho are skipped.
type ChargeError struct {
	name    string
	worst   float64
	scratch map[*driver.Level]*mesh.Field
}

func NewChargeError() *ChargeError {
	return &ChargeError{name: "charge_error", scratch: make(map[*driver.Level]*mesh.Field)}
}

func (c *ChargeError) Name() string { return c.name }

func (c *ChargeError) Observe(d *driver.Driver) {
	for _, lv := range d.Levels() {
		if lv.Mesh.Rho == nil {
			continue
		}
		div := c.scratch[lv]
		if div == nil {
			div = mesh.NewField(lv.Mesh.Geom, mesh.StagRho)
			c.scratch[lv] = div
		}
		lv.Solver.ComputeDivE(lv.Mesh, div)
		n := lv.Mesh.Geom.N
		for i := 0; i <= n[0]; i++ {
			for j := 0; j <= n[1]; j++ {
				for k := 0; k <= n[2]; k++ {
					r := math.Abs(constants.Eps0*div.At(i, j, k) - lv.Mesh.Rho.At(i, j, k))
					if r > c.worst {
						c.worst = r
					}
				}
			}
		}
	}
}

func (c *ChargeError) Value() float64 { return c.worst }

func (c *ChargeError) Reset() { c.worst = 0 }
