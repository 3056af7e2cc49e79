package diag

import (
	"github.com/san-kum/picmesh/internal/driver"
)

// PeakField reports the largest field amplitude seen at any point of the run.
type PeakField struct {
	name string
	peak float64
}

func NewPeakField() *PeakField {
	return &PeakField{name: "peak_field"}
}

func (p *PeakField) Name() string { return p.name }

func (p *PeakField) Observe(d *driver.Driver) {
	for _, lv := range d.Levels() {
		if m := lv.Mesh.MaxField(); m > p.peak {
			p.peak = m
		}
	}
}

func (p *PeakField) Value() float64 { return p.peak }

func (p *PeakField) Reset() { p.peak = 0 }
