// Package diag provides run diagnostics: scalar metrics observed once per
// base step and a CSV step recorder.
package diag

import (
	"math"

	"github.com/san-kum/picmesh/internal/driver"
)

// FieldEnergy reports the time-averaged electromagnetic field energy summed
// over all levels.
type FieldEnergy struct {
	name    string
	sum     float64
	samples int
}

func NewFieldEnergy() *FieldEnergy {
	return &FieldEnergy{name: "field_energy"}
}

func (f *FieldEnergy) Name() string { return f.name }

func (f *FieldEnergy) Observe(d *driver.Driver) {
	f.sum += TotalFieldEnergy(d)
	f.samples++
}

func (f *FieldEnergy) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return f.sum / float64(f.samples)
}

func (f *FieldEnergy) Reset() {
	f.sum = 0
	f.samples = 0
}

// TotalFieldEnergy sums the field energy over every level.
func TotalFieldEnergy(d *driver.Driver) float64 {
	e := 0.0
	for _, lv := range d.Levels() {
		e += lv.Mesh.FieldEnergy()
	}
	return e
}

// EnergyDrift reports the largest relative departure of the total field
// energy from its value at the first observation.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(d *driver.Driver) {
	energy := TotalFieldEnergy(d)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++
	if e.initial == 0 {
		return
	}
	drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
	if drift > e.maxDrift {
		e.maxDrift = drift
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
