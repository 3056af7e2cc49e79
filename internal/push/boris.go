package push

import (
	"math"

	"github.com/san-kum/picmesh/internal/constants"
)

// BorisPush advances momentum and position of one physical particle by dt
// under (E, B): half electric kick, exact magnetic rotation, half electric
// kick, then a position update with the post-kick velocity. The rotation
// uses the Rodrigues formula at the exact gyration angle rather than the
// tan(theta/2) approximation, so |p| is preserved to machine precision in a
// pure magnetic field and the gyration period is exact.
func BorisPush(pos, p *[3]float64, e, b [3]float64, charge, mass, dt float64) {
	half := charge * dt / 2

	// u = p/m is the reduced momentum (gamma*v).
	var u [3]float64
	for c := 0; c < 3; c++ {
		u[c] = p[c]/mass + half*e[c]/mass
	}

	bmag := math.Sqrt(b[0]*b[0] + b[1]*b[1] + b[2]*b[2])
	if bmag > 0 {
		gamma := lorentzGamma(u)
		// Negative for positive charge: u x B turns clockwise about b.
		theta := -charge * bmag * dt / (gamma * mass)
		bhat := [3]float64{b[0] / bmag, b[1] / bmag, b[2] / bmag}
		u = rotate(u, bhat, theta)
	}

	for c := 0; c < 3; c++ {
		u[c] += half * e[c] / mass
		p[c] = u[c] * mass
	}

	gamma := lorentzGamma(u)
	for c := 0; c < 3; c++ {
		pos[c] += dt * u[c] / gamma
	}
}

// lorentzGamma computes gamma from the reduced momentum u = gamma*v.
func lorentzGamma(u [3]float64) float64 {
	c2 := constants.C * constants.C
	return math.Sqrt(1 + (u[0]*u[0]+u[1]*u[1]+u[2]*u[2])/c2)
}

// rotate applies the Rodrigues rotation of v about unit axis n by angle a.
func rotate(v, n [3]float64, a float64) [3]float64 {
	sin, cos := math.Sincos(a)
	dot := n[0]*v[0] + n[1]*v[1] + n[2]*v[2]
	cross := [3]float64{
		n[1]*v[2] - n[2]*v[1],
		n[2]*v[0] - n[0]*v[2],
		n[0]*v[1] - n[1]*v[0],
	}
	var out [3]float64
	for c := 0; c < 3; c++ {
		out[c] = v[c]*cos + cross[c]*sin + n[c]*dot*(1-cos)
	}
	return out
}

// PhotonPush moves a photon ballistically at c along its momentum.
func PhotonPush(pos, p *[3]float64, dt float64) {
	mag := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	if mag == 0 {
		return
	}
	for c := 0; c < 3; c++ {
		pos[c] += dt * constants.C * p[c] / mag
	}
}

// LaserPush moves an antenna particle by its prescribed velocity.
func LaserPush(pos *[3]float64, v [3]float64, dt float64) {
	for c := 0; c < 3; c++ {
		pos[c] += dt * v[c]
	}
}
