package solver

import (
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/stencil"
)

const (
	cylDr = 0.5
	cylDz = 0.5
)

func newCylLevel(modes int) *mesh.CylLevel {
	lv, err := mesh.NewCylLevel(8, 8, 2, 0, cylDr, cylDz, modes)
	Expect(err).NotTo(HaveOccurred())
	return lv
}

func newCylSolver(modes int) *CylSolver {
	coef, err := stencil.New(stencil.Config{
		Order:    2,
		Grid:     stencil.Staggered,
		Geometry: stencil.Cylindrical,
		CellSize: [3]float64{cylDr, 0, cylDz},
		Modes:    modes,
	})
	Expect(err).NotTo(HaveOccurred())
	s, err := NewCylindrical(coef)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func fillCyl(f *mesh.CylField, nr, nz, ghost int, fn func(i, k int) complex128) {
	for i := -ghost; i <= nr+ghost; i++ {
		for k := -ghost; k <= nz+ghost; k++ {
			f.Set(i, k, fn(i, k))
		}
	}
}

var _ = Describe("Cylindrical RZ modes", func() {
	It("rejects a Cartesian stencil", func() {
		coef, err := stencil.New(stencil.Config{
			Order:    2,
			Grid:     stencil.Staggered,
			Geometry: stencil.Cartesian,
			CellSize: [3]float64{1, 1, 1},
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = NewCylindrical(coef)
		Expect(err).To(HaveOccurred())
	})

	It("forces the singular axis samples to zero", func() {
		lv := newCylLevel(2)
		s := newCylSolver(2)

		for m := 0; m < 2; m++ {
			fillCyl(lv.Et[m], lv.NR, lv.NZ, lv.Ghost, func(i, k int) complex128 { return 0.3 })
			fillCyl(lv.Ez[m], lv.NR, lv.NZ, lv.Ghost, func(i, k int) complex128 { return 0.7i })
		}
		s.EvolveB(lv, 1e-10)
		s.EvolveE(lv, 1e-10)

		// m=0: no azimuthal dependence, so Et and Br vanish on the axis.
		Expect(lv.Br[0].At(0, 4)).To(Equal(0 + 0i))
		Expect(lv.Et[0].At(0, 4)).To(Equal(0 + 0i))
		// m>=1: the mode amplitude of Ez must vanish on the axis.
		Expect(lv.Ez[1].At(0, 4)).To(Equal(0 + 0i))
	})

	It("updates the axis Ez of mode 0 by the integral form", func() {
		lv := newCylLevel(1)
		s := newCylSolver(1)

		const bt = 2e-9
		fillCyl(lv.Bt[0], lv.NR, lv.NZ, lv.Ghost, func(i, k int) complex128 { return complex(bt, 0) })

		dt := 1e-10
		s.EvolveE(lv, dt)

		// Stokes over the axis disc of radius dr/2: curl_z = 4 Bt / dr.
		want := complex(dt*constants.C*constants.C*4*bt/cylDr, 0)
		Expect(cmplx.Abs(lv.Ez[0].At(0, 4)-want)).To(BeNumerically("<", 1e-12*cmplx.Abs(want)))
	})

	It("matches the one-sided axis stencil to the off-axis im/r limit", func() {
		lv := newCylLevel(2)
		s := newCylSolver(2)

		// Ez of mode 1 linear in r: im Ez / r is the constant i*a everywhere,
		// and the one-sided l'Hopital substitution must reproduce it at r=0.
		const a = 3e-8
		fillCyl(lv.Ez[1], lv.NR, lv.NZ, lv.Ghost, func(i, k int) complex128 {
			return complex(a*lv.R(i, 0), 0)
		})

		dt := 1e-10
		s.EvolveB(lv, dt)

		want := complex(0, -dt*a)
		axis := lv.Br[1].At(0, 4)
		Expect(cmplx.Abs(axis-want)).To(BeNumerically("<", 1e-12*cmplx.Abs(want)))
		for i := 1; i <= 4; i++ {
			Expect(cmplx.Abs(lv.Br[1].At(i, 4)-want)).To(BeNumerically("<", 1e-12*cmplx.Abs(want)))
		}
	})

	It("applies the im/r coupling off axis", func() {
		lv := newCylLevel(2)
		s := newCylSolver(2)

		const e0 = 5e-8
		fillCyl(lv.Ez[1], lv.NR, lv.NZ, lv.Ghost, func(i, k int) complex128 { return complex(e0, 0) })

		dt := 1e-10
		s.EvolveB(lv, dt)

		r := lv.R(3, 0)
		want := complex(0, -dt*e0/r)
		Expect(cmplx.Abs(lv.Br[1].At(3, 4)-want)).To(BeNumerically("<", 1e-12*cmplx.Abs(want)))
	})

	It("drives E from the mode current", func() {
		lv := newCylLevel(1)
		s := newCylSolver(1)

		const jz = 2e-3
		fillCyl(lv.Jz[0], lv.NR, lv.NZ, lv.Ghost, func(i, k int) complex128 { return complex(jz, 0) })

		dt := 1e-12
		s.EvolveE(lv, dt)

		want := complex(-dt*jz/constants.Eps0, 0)
		Expect(cmplx.Abs(lv.Ez[0].At(4, 4)-want)).To(BeNumerically("<", 1e-12*cmplx.Abs(want)))
	})
})
