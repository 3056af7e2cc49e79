// Package constants holds the physical constants used throughout the solver,
// in SI units (CODATA 2018).
package constants

const (
	// C is the speed of light in vacuum, m/s.
	C = 2.99792458e8
	// Eps0 is the vacuum permittivity, F/m.
	Eps0 = 8.8541878128e-12
	// Mu0 is the vacuum permeability, H/m.
	Mu0 = 1.25663706212e-6

	// ElectronCharge is the elementary charge, C. Electrons carry -ElectronCharge.
	ElectronCharge = 1.602176634e-19
	// ElectronMass in kg.
	ElectronMass = 9.1093837015e-31
	// ProtonMass in kg.
	ProtonMass = 1.67262192369e-27
)
