package canopy

import (
	"errors"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// ProgressFunc is notified after each completed grid row. It is called from
// worker goroutines and must not block.
type ProgressFunc func(rowsDone, rowsTotal int)

// TraceConfig controls one tracing run.
type TraceConfig struct {
	RaysPerCell    int
	MaxBounces     int
	GridResolution Real // horizontal cell size, m
	ProfileStep    Real // vertical profile plane spacing, m
	Scattering     bool
	Fluorescence   bool
	Seed           int64
	Workers        int // 0 = NumCPU

	// ConvergenceThreshold is advisory only: it is logged and carried for
	// callers but never used to terminate sampling early. The sample count
	// is fixed by RaysPerCell regardless.
	ConvergenceThreshold Real

	Progress ProgressFunc
}

func DefaultTraceConfig() *TraceConfig {
	return &TraceConfig{
		RaysPerCell:    64,
		MaxBounces:     10,
		GridResolution: 0.1,
		ProfileStep:    0.25,
		Scattering:     true,
		Fluorescence:   true,
		Seed:           1,
	}
}

func (c *TraceConfig) normalize() {
	if c.RaysPerCell <= 0 {
		c.RaysPerCell = 64
	}
	if c.MaxBounces < 0 {
		c.MaxBounces = 0
	}
	if c.MaxBounces == 0 && c.Scattering {
		DebugLog("maxBounces=0: scatter and wall bounces are disabled")
	}
	if c.GridResolution <= 0 {
		c.GridResolution = 0.1
	}
	if c.ProfileStep <= 0 {
		c.ProfileStep = 0.25
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ConvergenceThreshold > 0 {
		DebugLog("convergence threshold %.3g is advisory; sampling count stays fixed", c.ConvergenceThreshold)
	}
}

// Trace runs the full Monte Carlo sweep: for every grid cell and every
// light source, RaysPerCell jittered rays are traced through the layer
// stack, and the per-cell accumulators are reduced into a TracingResult.
//
// Cells are independent given the read-only scene, so rows are fanned out
// to a worker pool; each cell gets its own RNG seeded from Seed and the
// cell index, which makes the result identical for identical inputs no
// matter how the work is scheduled.
func Trace(scene *Scene, cfg *TraceConfig) (*TracingResult, error) {
	if scene == nil {
		return nil, errors.New("trace: nil scene")
	}
	if len(scene.Lights) == 0 {
		return nil, errors.New("trace: scene has no light sources")
	}
	if cfg == nil {
		cfg = DefaultTraceConfig()
	}
	run := *cfg
	run.normalize()

	room := &scene.Room
	for _, l := range scene.Lights {
		if !room.contains(l.Position) {
			Warnf("light at (%.2f, %.2f, %.2f) is outside the room; rays start clamped to the ceiling",
				l.Position.X, l.Position.Y, l.Position.Z)
		}
	}
	nx := int(math.Ceil(room.Width / run.GridResolution))
	ny := int(math.Ceil(room.Depth / run.GridResolution))
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	cellW := room.Width / Real(nx)
	cellD := room.Depth / Real(ny)

	nPlanes := int(room.Height/run.ProfileStep) + 1
	planes := make([]Real, nPlanes)
	for i := range planes {
		planes[i] = Real(i) * run.ProfileStep
	}

	tr := &tracer{scene: scene, cfg: &run, profileH: planes, fluor: fluorescenceEmission()}
	accs := make([]*cellAccum, nx*ny)

	DebugLog("tracing %dx%d cells, %d rays/cell/light, %d lights, %d layers, %d workers",
		nx, ny, run.RaysPerCell, len(scene.Lights), len(scene.Layers), run.Workers)
	start := time.Now()

	rows := make(chan int)
	var done int64
	var wg sync.WaitGroup
	wg.Add(run.Workers)
	for w := 0; w < run.Workers; w++ {
		go func() {
			defer wg.Done()
			for iy := range rows {
				for ix := 0; ix < nx; ix++ {
					ci := iy*nx + ix
					seed := run.Seed ^ int64(uint64(ci+1)*0x9e3779b97f4a7c15)
					rng := rand.New(rand.NewSource(seed))
					acc := newCellAccum(len(scene.Layers), nPlanes)
					tr.castCell(ix, iy, cellW, cellD, acc, rng)
					accs[ci] = acc
				}
				d := atomic.AddInt64(&done, 1)
				if run.Progress != nil {
					run.Progress(int(d), ny)
				}
			}
		}()
	}
	for iy := 0; iy < ny; iy++ {
		rows <- iy
	}
	close(rows)
	wg.Wait()

	res := aggregate(scene, accs, nx, ny, planes)
	res.Elapsed = time.Since(start)
	DebugLog("traced %d rays in %s", res.TotalRays, res.Elapsed)
	return res, nil
}

// castCell traces every light's ray batch for one grid cell. Each ray
// carries the source emission divided by the batch size, so an unattenuated
// cell accumulates the source intensity exactly.
func (tr *tracer) castCell(ix, iy int, cellW, cellD Real, acc *cellAccum, rng *rand.Rand) {
	room := &tr.scene.Room
	invN := 1.0 / Real(tr.cfg.RaysPerCell)
	for _, light := range tr.scene.Lights {
		startZ := clamp(light.Position.Z, bumpShift, room.Height-bumpShift)
		for r := 0; r < tr.cfg.RaysPerCell; r++ {
			target := r3.Vec{
				X: (Real(ix) + rng.Float64()) * cellW,
				Y: (Real(iy) + rng.Float64()) * cellD,
			}
			origin, dir, weight := light.sampleRay(target, startZ, rng)
			acc.rays++
			if weight <= 0 {
				continue
			}
			spec := light.Emission.Clone()
			spec.Scale(weight * invN)
			tr.traceRay(origin, dir, spec, acc, rng)
		}
	}
}
