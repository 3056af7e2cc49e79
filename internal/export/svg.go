// Package export renders field data to standalone SVG files.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/picmesh/internal/mesh"
)

// Axis selects the normal of a 2D slice through the mesh.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// SliceSVG renders one plane of a field as a heatmap. axis is the slice
// normal, index the node plane along it; pixel is the edge length of one
// cell in SVG units. Amplitudes map onto a blue-white-red ramp symmetric
// about zero.
func SliceSVG(f *mesh.Field, g mesh.Geometry, axis Axis, index, pixel int) string {
	if f == nil || pixel <= 0 {
		return ""
	}
	var nu, nv int
	sample := sliceSampler(f, axis, index)
	switch axis {
	case X:
		nu, nv = g.N[1], g.N[2]
	case Y:
		nu, nv = g.N[0], g.N[2]
	default:
		nu, nv = g.N[0], g.N[1]
	}

	peak := 0.0
	for u := 0; u <= nu; u++ {
		for v := 0; v <= nv; v++ {
			if a := math.Abs(sample(u, v)); a > peak {
				peak = a
			}
		}
	}

	width := (nu + 1) * pixel
	height := (nv + 1) * pixel

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for u := 0; u <= nu; u++ {
		for v := 0; v <= nv; v++ {
			val := sample(u, v)
			if peak > 0 && val != 0 {
				// v axis grows upward on the mesh, downward in SVG.
				sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s"/>
`, u*pixel, (nv-v)*pixel, pixel, pixel, rampColor(val/peak)))
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func sliceSampler(f *mesh.Field, axis Axis, index int) func(u, v int) float64 {
	switch axis {
	case X:
		return func(u, v int) float64 { return f.At(index, u, v) }
	case Y:
		return func(u, v int) float64 { return f.At(u, index, v) }
	default:
		return func(u, v int) float64 { return f.At(u, v, index) }
	}
}

// rampColor maps t in [-1, 1] onto blue for negative, red for positive,
// fading to black at zero.
func rampColor(t float64) string {
	c := int(math.Min(math.Abs(t), 1) * 255)
	if t < 0 {
		return fmt.Sprintf("#20%02x%02x", c/3, c)
	}
	return fmt.Sprintf("#%02x%02x20", c, c/3)
}

// HistorySVG draws a scalar time series as a polyline, auto-scaled with a
// tenth of the range as padding.
func HistorySVG(values []float64, width, height int, stroke string) string {
	if len(values) < 2 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	lo -= span * 0.1
	hi += span * 0.1
	span = hi - lo

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, stroke))

	for i, v := range values {
		x := float64(i) / float64(len(values)-1) * float64(width)
		y := float64(height) - (v-lo)/span*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
