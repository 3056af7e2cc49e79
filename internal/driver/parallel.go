package driver

import (
	"runtime"
	"sync"

	"github.com/san-kum/picmesh/internal/push"
)

// particlePhase runs the gather/push/deposit pass over every patch of lv,
// patches in parallel with per-patch scratch current, then merges the
// scratches serially. Particles flagged as leaving the level are handed to
// the installed redistributor after the merge.
func (d *Driver) particlePhase(lv *Level, dt, now float64) error {
	lv.Mesh.ZeroCurrent()
	if lv.Mesh.Rho != nil {
		lv.Mesh.Rho.Zero()
	}
	patches := lv.Arena.Patches
	// Patches may have been added after New.
	for len(lv.scratches) < len(patches) {
		var coarse = lv.Pass.CoarseGeom
		lv.scratches = append(lv.scratches, push.NewScratch(lv.Mesh.Geom, coarse, lv.Mesh.Rho != nil))
	}
	if len(patches) == 0 {
		if lv.jAccum[0] != nil {
			lv.subSteps++
		}
		return nil
	}

	workers := d.cfg.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(patches) {
		workers = len(patches)
	}

	errs := make([]error, len(patches))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				scr := lv.scratches[i]
				scr.Zero()
				errs[i] = lv.Pass.Run(patches[i], dt, now, scr)
			}
		}()
	}
	for i := range patches {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for i := range patches {
		scr := lv.scratches[i]
		for c, f := range lv.Mesh.J() {
			if err := f.AddRaw(scr.J[c]); err != nil {
				return err
			}
		}
		if lv.Mesh.Rho != nil && scr.Rho != nil {
			if err := lv.Mesh.Rho.AddRaw(scr.Rho); err != nil {
				return err
			}
		}
		if lv.coarsePending[0] != nil && scr.CoarseJ[0] != nil {
			for c := range scr.CoarseJ {
				if err := lv.coarsePending[c].AddRaw(scr.CoarseJ[c]); err != nil {
					return err
				}
			}
		}
	}

	if lv.jAccum[0] != nil {
		for c, f := range lv.Mesh.J() {
			if err := lv.jAccum[c].AddRaw(f); err != nil {
				return err
			}
		}
		lv.subSteps++
	}

	if d.redist != nil {
		return d.redist.Redistribute(lv)
	}
	return nil
}
