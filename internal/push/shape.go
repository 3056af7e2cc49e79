// Package push runs the per-particle hot loop: field gather, relativistic
// push and charge-conserving current deposition.
package push

import "math"

// maxShapeOrder bounds the B-spline order supported by the fixed-size weight
// buffers below.
const maxShapeOrder = 3

// shapeWeights fills w with the B-spline shape factors of the given order at
// grid position x (cell units), returning the first node index touched and
// the point count (order+1). w must have room for order+1 entries.
func shapeWeights(order int, x float64, w *[4]float64) (start, n int) {
	switch order {
	case 1:
		i := int(math.Floor(x))
		f := x - float64(i)
		w[0], w[1] = 1-f, f
		return i, 2
	case 2:
		i := int(math.Floor(x + 0.5))
		f := x - float64(i)
		w[0] = 0.5 * (0.5 - f) * (0.5 - f)
		w[1] = 0.75 - f*f
		w[2] = 0.5 * (0.5 + f) * (0.5 + f)
		return i - 1, 3
	case 3:
		i := int(math.Floor(x))
		f := x - float64(i)
		f2, f3 := f*f, f*f*f
		w[0] = (1 - 3*f + 3*f2 - f3) / 6
		w[1] = (4 - 6*f2 + 3*f3) / 6
		w[2] = (1 + 3*f + 3*f2 - 3*f3) / 6
		w[3] = f3 / 6
		return i - 1, 4
	default:
		panic("push: unsupported shape order")
	}
}
