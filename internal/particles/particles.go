// Package particles stores macroparticle ensembles in struct-of-arrays form,
// one Patch per mesh tile. Species are a closed set of kinds selected by tag;
// the pusher switches on the tag instead of dispatching through an interface.
package particles

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/constants"
)

type Kind int

const (
	// Physical species respond to the Lorentz force.
	Physical Kind = iota
	// Photon species advance ballistically at c along their momentum.
	Photon
	// Laser species are non-physical antenna particles; only their position
	// is updated, from a prescribed velocity attribute.
	Laser
)

func (k Kind) String() string {
	switch k {
	case Photon:
		return "photon"
	case Laser:
		return "laser"
	default:
		return "physical"
	}
}

// Species fixes charge, mass and the runtime attribute schema for every
// particle that carries it. The attribute layout is declared once and is
// immutable afterwards.
type Species struct {
	Name   string
	Kind   Kind
	Charge float64
	Mass   float64
	Attrs  []string
}

func NewSpecies(name string, kind Kind, charge, mass float64, attrs ...string) (*Species, error) {
	if kind == Physical && mass <= 0 {
		return nil, fmt.Errorf("particles: physical species %q needs positive mass, got %g", name, mass)
	}
	if kind == Laser {
		// Antenna particles are positioned by their velocity attributes.
		attrs = append([]string{"vx", "vy", "vz"}, attrs...)
	}
	return &Species{Name: name, Kind: kind, Charge: charge, Mass: mass, Attrs: attrs}, nil
}

func (s *Species) AttrIndex(name string) (int, bool) {
	for i, a := range s.Attrs {
		if a == name {
			return i, true
		}
	}
	return 0, false
}

// Electron is the conventional test species.
func Electron() *Species {
	s, _ := NewSpecies("electron", Physical, -constants.ElectronCharge, constants.ElectronMass)
	return s
}

// Patch is the per-tile ensemble. Positions are SI coordinates inside the
// tile's valid region plus ghost margin; P* are momentum components in SI.
// Order is unspecified across redistributions but stable within one pass.
type Patch struct {
	Species *Species
	Tile    int

	X, Y, Z    []float64
	Px, Py, Pz []float64
	W          []float64
	ID         []uint64
	Attrs      [][]float64 // indexed [attr][particle]

	// Out is set by the pusher when a particle may have left the tile; the
	// external redistribution collaborator clears it.
	Out []bool

	nextID uint64
}

func NewPatch(sp *Species, tile int) *Patch {
	p := &Patch{Species: sp, Tile: tile}
	p.Attrs = make([][]float64, len(sp.Attrs))
	return p
}

func (p *Patch) Len() int { return len(p.X) }

// Add appends one particle and returns its creation id. attrs must match the
// species schema length (nil means all zero).
func (p *Patch) Add(pos, mom [3]float64, w float64, attrs []float64) (uint64, error) {
	if attrs != nil && len(attrs) != len(p.Species.Attrs) {
		return 0, fmt.Errorf("particles: species %q expects %d attributes, got %d",
			p.Species.Name, len(p.Species.Attrs), len(attrs))
	}
	id := p.nextID
	p.nextID++
	p.X = append(p.X, pos[0])
	p.Y = append(p.Y, pos[1])
	p.Z = append(p.Z, pos[2])
	p.Px = append(p.Px, mom[0])
	p.Py = append(p.Py, mom[1])
	p.Pz = append(p.Pz, mom[2])
	p.W = append(p.W, w)
	p.ID = append(p.ID, id)
	p.Out = append(p.Out, false)
	for a := range p.Attrs {
		v := 0.0
		if attrs != nil {
			v = attrs[a]
		}
		p.Attrs[a] = append(p.Attrs[a], v)
	}
	return id, nil
}

// Pos and Mom are convenience accessors for diagnostics and tests.
func (p *Patch) Pos(i int) [3]float64 { return [3]float64{p.X[i], p.Y[i], p.Z[i]} }
func (p *Patch) Mom(i int) [3]float64 { return [3]float64{p.Px[i], p.Py[i], p.Pz[i]} }

// Arena groups the patches of one refinement level.
type Arena struct {
	Patches []*Patch
}

func (a *Arena) Add(p *Patch) { a.Patches = append(a.Patches, p) }

func (a *Arena) Total() int {
	n := 0
	for _, p := range a.Patches {
		n += p.Len()
	}
	return n
}

// PartitionStable computes an index permutation placing particles for which
// inBuffer is false first, preserving relative order inside both runs. The
// arrays themselves are not rearranged; callers iterate perm so the same
// contract holds under any storage discipline. Returns the permutation and
// the length of the interior run.
func PartitionStable(n int, inBuffer func(i int) bool) ([]int, int) {
	perm := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !inBuffer(i) {
			perm = append(perm, i)
		}
	}
	interior := len(perm)
	for i := 0; i < n; i++ {
		if inBuffer(i) {
			perm = append(perm, i)
		}
	}
	return perm, interior
}

// Compact drops every particle flagged Out, preserving the order of the
// survivors, and reports how many were removed.
func (p *Patch) Compact() int {
	n := p.Len()
	keep := 0
	for i := 0; i < n; i++ {
		if p.Out[i] {
			continue
		}
		if keep != i {
			p.X[keep], p.Y[keep], p.Z[keep] = p.X[i], p.Y[i], p.Z[i]
			p.Px[keep], p.Py[keep], p.Pz[keep] = p.Px[i], p.Py[i], p.Pz[i]
			p.W[keep] = p.W[i]
			p.ID[keep] = p.ID[i]
			for a := range p.Attrs {
				p.Attrs[a][keep] = p.Attrs[a][i]
			}
			p.Out[keep] = false
		}
		keep++
	}
	p.X, p.Y, p.Z = p.X[:keep], p.Y[:keep], p.Z[:keep]
	p.Px, p.Py, p.Pz = p.Px[:keep], p.Py[:keep], p.Pz[:keep]
	p.W, p.ID, p.Out = p.W[:keep], p.ID[:keep], p.Out[:keep]
	for a := range p.Attrs {
		p.Attrs[a] = p.Attrs[a][:keep]
	}
	return n - keep
}
