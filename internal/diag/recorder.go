package diag

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/picmesh/internal/driver"
)

// StepRecord is one row of the per-step history file.
type StepRecord struct {
	Step        int     `csv:"step"`
	Time        float64 `csv:"time"`
	FieldEnergy float64 `csv:"field_energy"`
	PeakField   float64 `csv:"peak_field"`
	Particles   int     `csv:"particles"`
}

// Recorder streams a StepRecord per base step to a CSV file. It implements
// the driver observer callback; Close flushes the file.
type Recorder struct {
	file          *os.File
	headerWritten bool
	err           error
}

func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("diag: creating history file: %w", err)
	}
	return &Recorder{file: f}, nil
}

func (r *Recorder) OnStep(step int, t float64, d *driver.Driver) {
	if r.err != nil {
		return
	}
	particles := 0
	peak := 0.0
	for _, lv := range d.Levels() {
		particles += lv.Arena.Total()
		if m := lv.Mesh.MaxField(); m > peak {
			peak = m
		}
	}
	rows := []StepRecord{{
		Step:        step,
		Time:        t,
		FieldEnergy: TotalFieldEnergy(d),
		PeakField:   peak,
		Particles:   particles,
	}}
	if !r.headerWritten {
		r.err = gocsv.Marshal(rows, r.file)
		r.headerWritten = true
	} else {
		r.err = gocsv.MarshalWithoutHeaders(rows, r.file)
	}
}

// Err reports the first write failure, if any. Recording is best-effort
// during the run; the caller checks once at the end.
func (r *Recorder) Err() error { return r.err }

func (r *Recorder) Close() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	return r.err
}
