package solver

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/hybrid"
	"github.com/san-kum/picmesh/internal/medium"
	"github.com/san-kum/picmesh/internal/mesh"
	"github.com/san-kum/picmesh/internal/stencil"
)

func testGeom() mesh.Geometry {
	return mesh.Geometry{
		Lo:    [3]float64{0, 0, 0},
		N:     [3]int{8, 8, 8},
		Cell:  [3]float64{1, 1, 1},
		Ghost: 3,
	}
}

func newTestSolver(algo Algorithm, order int, g mesh.Geometry) *Solver {
	coef, err := stencil.New(stencil.Config{
		Order:    order,
		Grid:     stencil.Staggered,
		Geometry: stencil.Cartesian,
		CellSize: g.Cell,
	})
	Expect(err).NotTo(HaveOccurred())
	s, err := New(algo, coef, g)
	Expect(err).NotTo(HaveOccurred())
	return s
}

// fillLinear samples fn at every node of f, ghosts included, so stencil
// reads near the interior edge stay consistent.
func fillLinear(f *mesh.Field, g mesh.Geometry, fn func(p [3]float64) float64) {
	for i := -g.Ghost; i <= g.N[0]+g.Ghost; i++ {
		for j := -g.Ghost; j <= g.N[1]+g.Ghost; j++ {
			for k := -g.Ghost; k <= g.N[2]+g.Ghost; k++ {
				f.Set(i, j, k, fn(f.Pos(g, i, j, k)))
			}
		}
	}
}

var _ = Describe("Solver construction", func() {
	g := testGeom()

	It("accepts the Yee scheme at every even order", func() {
		for _, order := range []int{2, 4, 6} {
			newTestSolver(Yee, order, g)
		}
	})

	It("restricts CKC to the order-2 staggered stencil", func() {
		coef, err := stencil.New(stencil.Config{
			Order: 4, Grid: stencil.Staggered,
			Geometry: stencil.Cartesian, CellSize: g.Cell,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = New(CKC, coef, g)
		Expect(err).To(HaveOccurred())
	})

	It("rejects ghost regions narrower than the stencil reach", func() {
		small := g
		small.Ghost = 1
		coef, err := stencil.New(stencil.Config{
			Order: 6, Grid: stencil.Staggered,
			Geometry: stencil.Cartesian, CellSize: g.Cell,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = New(Yee, coef, small)
		Expect(err).To(HaveOccurred())
	})

	It("parses algorithm ids", func() {
		a, err := ParseAlgorithm("ckc")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(CKC))
		_, err = ParseAlgorithm("spectral")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Field evolution", func() {
	var (
		g  mesh.Geometry
		lv *mesh.Level
		s  *Solver
	)

	BeforeEach(func() {
		g = testGeom()
		var err error
		lv, err = mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s = newTestSolver(Yee, 2, g)
	})

	It("leaves B unchanged under a uniform E", func() {
		lv.Ex.Fill(3)
		lv.Ey.Fill(-1)
		lv.Ez.Fill(2)
		lv.Bz.Fill(0.5)
		s.EvolveB(lv, 1e-3)
		Expect(lv.Bz.At(4, 4, 4)).To(BeNumerically("~", 0.5, 1e-15))
		Expect(lv.Bx.At(4, 4, 4)).To(BeZero())
	})

	It("advances B by minus the curl of a linear E", func() {
		const a = 2.5
		fillLinear(lv.Ey, g, func(p [3]float64) float64 { return a * p[0] })
		dt := 1e-3
		s.EvolveB(lv, dt)
		// (curl E)_z = dEy/dx = a, so Bz picks up -dt*a.
		Expect(lv.Bz.At(4, 4, 4)).To(BeNumerically("~", -dt*a, 1e-12))
		Expect(lv.Bx.At(4, 4, 4)).To(BeNumerically("~", 0, 1e-15))
		Expect(lv.By.At(4, 4, 4)).To(BeNumerically("~", 0, 1e-15))
	})

	It("matches Yee on linear fields when CKC smoothing is active", func() {
		const a = -1.25
		fillLinear(lv.Ey, g, func(p [3]float64) float64 { return a * p[0] })
		ckc := newTestSolver(CKC, 2, g)
		dt := 1e-3
		ckc.EvolveB(lv, dt)
		Expect(lv.Bz.At(4, 4, 4)).To(BeNumerically("~", -dt*a, 1e-12))
	})

	It("advances E by c^2 times the curl of a linear B", func() {
		const a = 1.5e-9
		fillLinear(lv.By, g, func(p [3]float64) float64 { return a * p[0] })
		dt := 1e-9
		s.EvolveE(lv, dt)
		c2 := constants.C * constants.C
		// (curl B)_z = dBy/dx = a.
		Expect(lv.Ez.At(4, 4, 4)).To(BeNumerically("~", c2*dt*a, 1e-6*c2*dt*a))
		Expect(lv.Ex.At(4, 4, 4)).To(BeNumerically("~", 0, 1e-12))
	})

	It("subtracts the deposited current from E", func() {
		const jz = 4e-7
		lv.Jz.Fill(jz)
		dt := 1e-9
		s.EvolveE(lv, dt)
		want := -dt * jz / constants.Eps0
		Expect(lv.Ez.At(4, 4, 4)).To(BeNumerically("~", want, 1e-12*-want))
	})
})

var _ = Describe("Divergence cleaning", func() {
	g := testGeom()

	It("requires the cleaning fields to be allocated", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)
		Expect(s.EvolveF(lv, 1e-3)).To(HaveOccurred())
		Expect(s.EvolveG(lv, 1e-3)).To(HaveOccurred())
	})

	It("keeps F at zero when Gauss's law holds", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{Rho: true, DivCleaning: true})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const a = 3e-4
		fillLinear(lv.Ex, g, func(p [3]float64) float64 { return a * p[0] })
		lv.Rho.Fill(a * constants.Eps0)

		Expect(s.EvolveF(lv, 1e-3)).To(Succeed())
		Expect(lv.F.At(4, 4, 4)).To(BeNumerically("~", 0, 1e-16))
	})

	It("measures the divergence of a linear E", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const a = 0.75
		fillLinear(lv.Ex, g, func(p [3]float64) float64 { return a * p[0] })
		div := mesh.NewField(g, mesh.StagRho)
		s.ComputeDivE(lv, div)
		Expect(div.At(4, 4, 4)).To(BeNumerically("~", a, 1e-12))
	})

	It("accumulates div B error into G", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{DivCleaning: true})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const a = 2e-6
		fillLinear(lv.Bx, g, func(p [3]float64) float64 { return a * p[0] })
		dt := 1e-9
		Expect(s.EvolveG(lv, dt)).To(Succeed())
		c2 := constants.C * constants.C
		Expect(lv.G.At(4, 4, 4)).To(BeNumerically("~", c2*dt*a, 1e-6*c2*dt*a))
	})
})

var _ = Describe("Silver-Mueller absorption", func() {
	It("relaxes the guard tangential B toward the impedance relation", func() {
		g := testGeom()
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const b0 = 0.02
		lv.Bz.Fill(b0)
		dt := 1e-9
		beta := constants.C * dt / g.Cell[0]
		c1 := (1 - beta) / (1 + beta)

		s.ApplySilverMuellerBoundary(lv, dt, [3]bool{true, false, false}, [3]bool{})

		Expect(lv.Bz.At(-1, 4, 4)).To(BeNumerically("~", c1*b0, 1e-12))
		Expect(lv.Bz.At(0, 4, 4)).To(Equal(b0))
		// Faces not selected keep their guard values.
		Expect(lv.Bz.At(g.N[0], 4, 4)).To(Equal(b0))
	})
})

var _ = Describe("Macroscopic media", func() {
	g := testGeom()

	It("reduces to the vacuum update in vacuum", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		ref, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const a = 3e-9
		fillLinear(lv.By, g, func(p [3]float64) float64 { return a * p[0] })
		fillLinear(ref.By, g, func(p [3]float64) float64 { return a * p[0] })
		lv.Jz.Fill(2e-8)
		ref.Jz.Fill(2e-8)

		dt := 1e-9
		s.EvolveE(ref, dt)
		s.MacroscopicEvolveE(lv, dt, medium.Vacuum(g), LaxWendroff)

		ez := ref.Ez.At(4, 4, 4)
		Expect(lv.Ez.At(4, 4, 4)).To(BeNumerically("~", ez, 1e-12*math.Abs(ez)))
	})

	It("damps E per the semi-implicit conductivity average", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const e0, sig = 5.0, 1e-3
		lv.Ez.Fill(e0)
		props, err := medium.Uniform(g, constants.Eps0, constants.Mu0, sig)
		Expect(err).NotTo(HaveOccurred())

		dt := 1e-12
		sd := sig * dt / constants.Eps0
		s.MacroscopicEvolveE(lv, dt, props, LaxWendroff)
		want := e0 * (1 - sd/2) / (1 + sd/2)
		Expect(lv.Ez.At(4, 4, 4)).To(BeNumerically("~", want, 1e-12*e0))
	})

	It("damps E per the implicit conductivity average", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const e0, sig = 5.0, 1e-3
		lv.Ez.Fill(e0)
		props, err := medium.Uniform(g, constants.Eps0, constants.Mu0, sig)
		Expect(err).NotTo(HaveOccurred())

		dt := 1e-12
		sd := sig * dt / constants.Eps0
		s.MacroscopicEvolveE(lv, dt, props, BackwardEuler)
		Expect(lv.Ez.At(4, 4, 4)).To(BeNumerically("~", e0/(1+sd), 1e-12*e0))
	})

	It("parses sigma method ids", func() {
		m, err := ParseSigmaMethod("backwardeuler")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(BackwardEuler))
		_, err = ParseSigmaMethod("crank")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Hybrid Ohm's-law closure", func() {
	g := testGeom()

	It("derives the total current from Ampere's law", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const a = 4e-8
		fillLinear(lv.By, g, func(p [3]float64) float64 { return a * p[0] })
		s.CalculateCurrentAmpere(lv)

		Expect(lv.Jz.At(4, 4, 4)).To(BeNumerically("~", a/constants.Mu0, 1e-8*a/constants.Mu0))
		Expect(lv.Jx.At(4, 4, 4)).To(BeNumerically("~", 0, 1e-15))
	})

	It("yields the resistive field for a field-free current", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)
		m, err := hybrid.NewModel(g, 1e-4, 1e-12)
		Expect(err).NotTo(HaveOccurred())

		const jz, rho0 = 2e-3, 1e-6
		lv.Jz.Fill(jz)
		m.Rho.Fill(rho0)
		m.Pe.Fill(0.5) // uniform pressure has no gradient

		s.HybridPICSolveE(lv, m, true)
		Expect(lv.Ez.At(4, 4, 4)).To(BeNumerically("~", m.Eta*jz, 1e-12*m.Eta*jz))

		s.HybridPICSolveE(lv, m, false)
		Expect(lv.Ez.At(4, 4, 4)).To(BeNumerically("~", 0, 1e-18))
	})

	It("produces the Hall field from J cross B", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)
		m, err := hybrid.NewModel(g, 0, 1e-12)
		Expect(err).NotTo(HaveOccurred())

		const jz, bx, rho0 = 2e-3, 1e-2, 1e-6
		lv.Jz.Fill(jz)
		lv.Bx.Fill(bx)
		m.Rho.Fill(rho0)

		s.HybridPICSolveE(lv, m, false)
		// E_y = -(Je x B)_y / rho with Je = J: -(Jz*Bx)/rho.
		Expect(lv.Ey.At(4, 4, 4)).To(BeNumerically("~", -jz*bx/rho0, 1e-9*jz*bx/rho0))
		Expect(lv.Ex.At(4, 4, 4)).To(BeNumerically("~", 0, 1e-15))
	})

	It("floors an evacuated charge density", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)
		m, err := hybrid.NewModel(g, 1e-4, 1e-12)
		Expect(err).NotTo(HaveOccurred())

		lv.Jz.Fill(1e-3)
		s.HybridPICSolveE(lv, m, true)
		Expect(lv.Ez.At(4, 4, 4)).NotTo(WithTransform(math.IsNaN, BeTrue()))
	})
})

var _ = Describe("PML split-field updates", func() {
	g := testGeom()

	It("requires a configured layer", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)
		Expect(s.EvolveBPML(lv, 1e-9)).To(HaveOccurred())
		Expect(s.EvolveEPML(lv, 1e-9, false)).To(HaveOccurred())
	})

	It("degenerates to the unsplit update outside the layer", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{PMLCells: 2, PMLSigma: 5e8})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		const a = 2.5
		fillLinear(lv.Ey, g, func(p [3]float64) float64 { return a * p[0] })
		dt := 1e-3
		Expect(s.EvolveBPML(lv, dt)).To(Succeed())
		lv.PML.Reconstruct(lv)

		// Interior cells see zero sigma and recover -dt * curl(E).
		Expect(lv.Bz.At(4, 4, 4)).To(BeNumerically("~", -dt*a, 1e-12))
		// Layer cells damp the same source term.
		Expect(math.Abs(lv.Bz.At(0, 4, 4))).To(BeNumerically("<", dt*a))
	})

	It("damps split parts toward the driving term inside the layer", func() {
		lv, err := mesh.NewLevel(g, mesh.Options{PMLCells: 3, PMLSigma: 1e9})
		Expect(err).NotTo(HaveOccurred())
		s := newTestSolver(Yee, 2, g)

		lv.PML.Bzx.Fill(0.1)
		// No E means no source: the split part decays freely where sigma > 0.
		Expect(s.EvolveBPML(lv, 1e-9)).To(Succeed())
		Expect(lv.PML.Bzx.At(0, 4, 4)).To(BeNumerically("<", 0.1))
		Expect(lv.PML.Bzx.At(4, 4, 4)).To(BeNumerically("~", 0.1, 1e-15))
	})
})
