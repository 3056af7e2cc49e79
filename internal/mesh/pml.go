package mesh

// PMLState carries the split (directionally decomposed) shadow copies of E
// and B used inside the absorbing layer, plus the damping profiles. Each
// component splits into the two parts driven by its two transverse
// derivatives; the physical field is the sum of the two parts.
type PMLState struct {
	Cells int

	// Naming: Exy is the part of Ex updated by the d/dy derivative.
	Exy, Exz *Field
	Eyz, Eyx *Field
	Ezx, Ezy *Field
	Bxy, Bxz *Field
	Byz, Byx *Field
	Bzx, Bzy *Field

	n        [3]int
	ghost    int
	sigmaMax float64
}

// NewPMLState allocates split fields over the whole level. Damping is zero
// outside the layer, so interior cells evolve identically to the unsplit
// update; only the outermost cells pay the split-field cost in practice.
func NewPMLState(g Geometry, cells int, sigmaMax float64) *PMLState {
	p := &PMLState{Cells: cells, n: g.N, ghost: g.Ghost, sigmaMax: sigmaMax}
	p.Exy, p.Exz = NewField(g, StagEx), NewField(g, StagEx)
	p.Eyz, p.Eyx = NewField(g, StagEy), NewField(g, StagEy)
	p.Ezx, p.Ezy = NewField(g, StagEz), NewField(g, StagEz)
	p.Bxy, p.Bxz = NewField(g, StagBx), NewField(g, StagBx)
	p.Byz, p.Byx = NewField(g, StagBy), NewField(g, StagBy)
	p.Bzx, p.Bzy = NewField(g, StagBz), NewField(g, StagBz)
	return p
}

// Sigma evaluates the damping coefficient along axis ax at fractional cell
// position x (cell units from the level's lower edge). The profile is the
// usual cubic ramp from zero at the inner layer edge to sigmaMax at the
// domain boundary.
func (p *PMLState) Sigma(ax int, x float64) float64 {
	if p.Cells == 0 {
		return 0
	}
	n := float64(p.n[ax])
	w := float64(p.Cells)
	var depth float64
	switch {
	case x < w:
		depth = (w - x) / w
	case x > n-w:
		depth = (x - (n - w)) / w
	default:
		return 0
	}
	if depth > 1 {
		depth = 1
	}
	return p.sigmaMax * depth * depth * depth
}

// InLayer reports whether cell (i,j,k) lies in the absorbing layer on any
// axis.
func (p *PMLState) InLayer(i, j, k int) bool {
	for ax, v := range [3]int{i, j, k} {
		if v < p.Cells || v > p.n[ax]-p.Cells {
			return true
		}
	}
	return false
}

// Reconstruct sums the split parts back into the level's unsplit arrays, so
// gather and diagnostics see ordinary fields. When the PML is enabled the
// split arrays are the source of truth over the whole level; outside the
// layer sigma is zero and the split update degenerates to the standard one.
func (p *PMLState) Reconstruct(lv *Level) {
	sum := func(dst, a, b *Field) {
		dst.Each(func(i, j, k int, _ float64) {
			dst.Set(i, j, k, a.At(i, j, k)+b.At(i, j, k))
		})
	}
	sum(lv.Ex, p.Exy, p.Exz)
	sum(lv.Ey, p.Eyz, p.Eyx)
	sum(lv.Ez, p.Ezx, p.Ezy)
	sum(lv.Bx, p.Bxy, p.Bxz)
	sum(lv.By, p.Byz, p.Byx)
	sum(lv.Bz, p.Bzx, p.Bzy)
}
