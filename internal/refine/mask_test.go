package refine

import (
	"testing"

	"github.com/san-kum/picmesh/internal/mesh"
)

func maskGeom(n int) mesh.Geometry {
	return mesh.Geometry{N: [3]int{n, n, n}, Cell: [3]float64{1, 1, 1}, Ghost: 2}
}

func TestBuildAllFaces(t *testing.T) {
	g := maskGeom(10)
	all := [3][2]bool{{true, true}, {true, true}, {true, true}}
	m, err := Build(g, all, 2, 1)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// face cell: distance 0, inside both buffers
	c := m.Classify(0, 5, 5)
	if !c.Gather() || !c.Deposit() {
		t.Errorf("face cell class = %v, want both buffers", c)
	}
	// one cell in: gather only
	c = m.Classify(1, 5, 5)
	if !c.Gather() || c.Deposit() {
		t.Errorf("depth-1 cell class = %v, want gather only", c)
	}
	// deep interior
	if c = m.Classify(5, 5, 5); c != Interior {
		t.Errorf("interior cell class = %v, want interior", c)
	}
	// the upper faces count too
	c = m.Classify(5, 5, 9)
	if !c.Gather() || !c.Deposit() {
		t.Errorf("upper face cell class = %v, want both buffers", c)
	}
}

func TestBuildPartialFaces(t *testing.T) {
	g := maskGeom(10)
	// only the low-x face borders coarse mesh
	faces := [3][2]bool{{true, false}, {false, false}, {false, false}}
	m, err := Build(g, faces, 3, 3)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if c := m.Classify(9, 0, 0); c != Interior {
		t.Errorf("cell on non-interface face classed %v, want interior", c)
	}
	if c := m.Classify(2, 0, 0); !c.Gather() {
		t.Errorf("cell at depth 2 classed %v, want gather", c)
	}
	if c := m.Classify(3, 0, 0); c != Interior {
		t.Errorf("cell at depth 3 classed %v, want interior", c)
	}
}

func TestBuildRejectsNegativeWidths(t *testing.T) {
	if _, err := Build(maskGeom(4), [3][2]bool{}, -1, 0); err == nil {
		t.Error("negative gather width accepted")
	}
}

func TestClassifyPanicsOutside(t *testing.T) {
	m, err := Build(maskGeom(4), [3][2]bool{}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Error("out-of-range Classify did not panic")
		}
	}()
	m.Classify(4, 0, 0)
}

func TestClassifyAt(t *testing.T) {
	g := maskGeom(8)
	g.Lo = [3]float64{-4, -4, -4}
	all := [3][2]bool{{true, true}, {true, true}, {true, true}}
	m, err := Build(g, all, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c, ok := m.ClassifyAt(g, [3]float64{0, 0, 0}); !ok || c != Interior {
		t.Errorf("center classed (%v, %v), want interior", c, ok)
	}
	if c, ok := m.ClassifyAt(g, [3]float64{-3.5, 0, 0}); !ok || !c.Gather() {
		t.Errorf("buffer position classed (%v, %v), want gather", c, ok)
	}
	if _, ok := m.ClassifyAt(g, [3]float64{4.5, 0, 0}); ok {
		t.Error("position outside the level reported classified")
	}
	if _, ok := m.ClassifyAt(g, [3]float64{-4.5, 0, 0}); ok {
		t.Error("position below the level reported classified")
	}
}
