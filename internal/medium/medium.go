// Package medium supplies per-cell material properties to the macroscopic
// field solver.
package medium

import (
	"fmt"

	"github.com/san-kum/picmesh/internal/constants"
	"github.com/san-kum/picmesh/internal/mesh"
)

// Properties holds cell-centered permittivity, permeability and conductivity
// arrays for one level. Values are absolute (not relative).
type Properties struct {
	Eps   *mesh.Field
	Mu    *mesh.Field
	Sigma *mesh.Field
}

// Uniform fills the whole level with one medium.
func Uniform(g mesh.Geometry, eps, mu, sigma float64) (*Properties, error) {
	if eps <= 0 || mu <= 0 {
		return nil, fmt.Errorf("medium: permittivity and permeability must be positive, got eps=%g mu=%g", eps, mu)
	}
	if sigma < 0 {
		return nil, fmt.Errorf("medium: conductivity must be non-negative, got %g", sigma)
	}
	p := &Properties{
		Eps:   mesh.NewField(g, mesh.StagG),
		Mu:    mesh.NewField(g, mesh.StagG),
		Sigma: mesh.NewField(g, mesh.StagG),
	}
	p.Eps.Fill(eps)
	p.Mu.Fill(mu)
	p.Sigma.Fill(sigma)
	return p, nil
}

// Vacuum is the trivial medium; the macroscopic update reduces to the vacuum
// update with it.
func Vacuum(g mesh.Geometry) *Properties {
	p, _ := Uniform(g, constants.Eps0, constants.Mu0, 0)
	return p
}

// FromFunc evaluates a spatially varying medium at each cell center.
func FromFunc(g mesh.Geometry, fn func(pos [3]float64) (eps, mu, sigma float64)) (*Properties, error) {
	p := Vacuum(g)
	var err error
	p.Eps.Each(func(i, j, k int, _ float64) {
		eps, mu, sigma := fn(p.Eps.Pos(g, i, j, k))
		if eps <= 0 || mu <= 0 || sigma < 0 {
			err = fmt.Errorf("medium: invalid properties (%g, %g, %g) at cell (%d,%d,%d)", eps, mu, sigma, i, j, k)
			return
		}
		p.Eps.Set(i, j, k, eps)
		p.Mu.Set(i, j, k, mu)
		p.Sigma.Set(i, j, k, sigma)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
