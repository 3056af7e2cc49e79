package export

import (
	"strings"
	"testing"

	"github.com/san-kum/picmesh/internal/mesh"
)

func TestSliceSVG(t *testing.T) {
	g := mesh.Geometry{N: [3]int{4, 4, 4}, Cell: [3]float64{1, 1, 1}, Ghost: 1}
	f := mesh.NewField(g, mesh.StagRho)
	f.Set(1, 2, 2, 1.0)
	f.Set(3, 2, 2, -0.5)

	svg := SliceSVG(f, g, Z, 2, 8)
	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Fatal("missing SVG header")
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("missing SVG footer")
	}
	// Two nonzero nodes produce exactly two cells plus the background rect.
	if n := strings.Count(svg, "<rect"); n != 3 {
		t.Errorf("rect count = %d, want 3", n)
	}
	// Full positive amplitude renders pure red-dominant, negative blue-dominant.
	if !strings.Contains(svg, `fill="#ff5520"`) {
		t.Error("positive peak color missing")
	}

	if SliceSVG(nil, g, Z, 2, 8) != "" {
		t.Error("nil field should render empty")
	}
}

func TestSliceSVGOtherAxes(t *testing.T) {
	g := mesh.Geometry{N: [3]int{2, 3, 4}, Cell: [3]float64{1, 1, 1}, Ghost: 1}
	f := mesh.NewField(g, mesh.StagRho)
	f.Set(1, 1, 1, 2.0)

	for _, axis := range []Axis{X, Y} {
		svg := SliceSVG(f, g, axis, 1, 4)
		if strings.Count(svg, "<rect") != 2 {
			t.Errorf("axis %d: expected one lit cell", axis)
		}
	}
}

func TestHistorySVG(t *testing.T) {
	svg := HistorySVG([]float64{0, 1, 4, 2}, 100, 50, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("stroke color missing")
	}
	if strings.Count(svg, "L") != 3 {
		t.Errorf("want 3 line segments, got %d", strings.Count(svg, "L"))
	}
	if HistorySVG([]float64{1}, 100, 50, "#fff") != "" {
		t.Error("single sample should render empty")
	}
}
