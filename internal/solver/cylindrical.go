package solver

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/stencil"
)

// CylSolver advances the RZ multimode field state. The azimuthal direction
// is spectral: each mode m couples to itself through the curl's im/r terms
// (the m±1 coupling of the physical fields is carried by the complex mode
// amplitudes). Order 2 staggered only; the stencil package rejects anything
// else for this geometry.
//
// Axis treatment at r=0: samples of Et and Br on the axis are forced to zero
// for m=0 (azimuthal symmetry) and Ez is forced to zero for m>=1; the
// remaining singular 1/r terms are regularized, either by the integral form
// (Ez update, m=0) or one-sided l'Hopital substitution im/r -> im d/dr
// (Et and Br updates, m>=1).
type CylSolver struct {
	coef *stencil.Coefficients
}

func NewCylindrical(coef *stencil.Coefficients) (*CylSolver, error) {
	if coef.Geometry != stencil.Cylindrical {
		return nil, fmt.Errorf("solver: cylindrical solver given %s stencil", coef.Geometry)
	}
	return &CylSolver{coef: coef}, nil
}

// EvolveB advances all modes by -dt*curl(E).
func (s *CylSolver) EvolveB(lv *mesh.CylLevel, dt float64) {
	dr, dz := lv.Dr, lv.Dz
	for m := 0; m < lv.Modes; m++ {
		im := complex(0, float64(m))
		er, et, ez := lv.Er[m], lv.Et[m], lv.Ez[m]
		br, bt, bz := lv.Br[m], lv.Bt[m], lv.Bz[m]
		cdt := complex(dt, 0)

		for i := 0; i <= lv.NR; i++ {
			onAxis := lv.OnAxis() && i == 0
			r := complex(lv.R(i, 0), 0)
			rHalf := complex(lv.R(i, 0.5), 0)
			for k := 0; k <= lv.NZ; k++ {
				// Br at (i, k+1/2).
				dEtdz := (et.At(i, k+1) - et.At(i, k)) / complex(dz, 0)
				switch {
				case onAxis && m == 0:
					br.Set(i, k, 0)
				case onAxis:
					dEzdr := (ez.At(i+1, k) - ez.At(i, k)) / complex(dr, 0)
					br.Add(i, k, -cdt*(im*dEzdr-dEtdz))
				default:
					br.Add(i, k, -cdt*(im*ez.At(i, k)/r-dEtdz))
				}

				// Bt at (i+1/2, k+1/2).
				dErdz := (er.At(i, k+1) - er.At(i, k)) / complex(dz, 0)
				dEzdr := (ez.At(i+1, k) - ez.At(i, k)) / complex(dr, 0)
				bt.Add(i, k, -cdt*(dErdz-dEzdr))

				// Bz at (i+1/2, k).
				rp := complex(lv.R(i+1, 0), 0)
				drEt := (rp*et.At(i+1, k) - r*et.At(i, k)) / complex(dr, 0)
				bz.Add(i, k, -cdt*(drEt/rHalf-im*er.At(i, k)/rHalf))
			}
		}
	}
}

// EvolveE advances all modes by dt*(c^2 curl(B) - J/eps0).
func (s *CylSolver) EvolveE(lv *mesh.CylLevel, dt float64) {
	dr, dz := lv.Dr, lv.Dz
	c2 := complex(constants.C*constants.C, 0)
	invEps := complex(1.0/constants.Eps0, 0)
	cdt := complex(dt, 0)
	for m := 0; m < lv.Modes; m++ {
		im := complex(0, float64(m))
		er, et, ez := lv.Er[m], lv.Et[m], lv.Ez[m]
		br, bt, bz := lv.Br[m], lv.Bt[m], lv.Bz[m]
		jr, jt, jz := lv.Jr[m], lv.Jt[m], lv.Jz[m]

		for i := 0; i <= lv.NR; i++ {
			onAxis := lv.OnAxis() && i == 0
			r := complex(lv.R(i, 0), 0)
			rHalf := complex(lv.R(i, 0.5), 0)
			for k := 0; k <= lv.NZ; k++ {
				// Er at (i+1/2, k): never on the axis.
				dBtdz := (bt.At(i, k) - bt.At(i, k-1)) / complex(dz, 0)
				er.Add(i, k, cdt*(c2*(im*bz.At(i, k)/rHalf-dBtdz)-invEps*jr.At(i, k)))

				// Et at (i, k).
				dBrdz := (br.At(i, k) - br.At(i, k-1)) / complex(dz, 0)
				switch {
				case onAxis && m == 0:
					et.Set(i, k, 0)
				case onAxis:
					dBzdrOneSided := (bz.At(i, k) - 0) / complex(dr, 0) // Bz(+1/2) from a vanishing axis limit
					et.Add(i, k, cdt*(c2*(dBrdz-dBzdrOneSided)-invEps*jt.At(i, k)))
				default:
					dBzdr := (bz.At(i, k) - bz.At(i-1, k)) / complex(dr, 0)
					et.Add(i, k, cdt*(c2*(dBrdz-dBzdr)-invEps*jt.At(i, k)))
				}

				// Ez at (i, k+1/2).
				switch {
				case onAxis && m == 0:
					// Integral (Stokes) form over the axis disc.
					ez.Add(i, k, cdt*(c2*complex(4.0/dr, 0)*bt.At(i, k)-invEps*jz.At(i, k)))
				case onAxis:
					ez.Set(i, k, 0)
				default:
					rp := complex(lv.R(i, 0.5), 0)
					rmhalf := complex(lv.R(i-1, 0.5), 0)
					drBt := (rp*bt.At(i, k) - rmhalf*bt.At(i-1, k)) / complex(dr, 0)
					ez.Add(i, k, cdt*(c2*(drBt/r-im*br.At(i, k)/r)-invEps*jz.At(i, k)))
				}
			}
		}
	}
}
