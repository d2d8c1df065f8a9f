package canopy

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// Dead-ray energy cutoff and the epsilon used to re-origin bounced
	// rays off surfaces.
	minRayEnergy = 1e-9
	bumpShift    = 1e-6

	// Secondary-ray fan-out per scattering event.
	maxScatterRays = 5

	// Fluorescence model: excitation band weights, fixed quantum yield and
	// the bimodal emission shape (F685/F740).
	fluorYield      = 0.05
	fluorBlueWeight = 1.2
	fluorRedWeight  = 1.0
	fluorRedLowNM   = 600
	fluorRedHighNM  = 680
)

// fluorescenceEmission is the chlorophyll re-emission shape: two Gaussian
// peaks at 685 nm (σ=15) and 740 nm (σ=25) with 0.7/0.3 weights, normalized
// to unit total energy.
func fluorescenceEmission() Spectrum {
	s := GaussianSpectrum(685, 15, 0.7)
	s.Add(GaussianSpectrum(740, 25, 0.3))
	if t := s.Total(); t > 0 {
		s.Scale(1 / t)
	}
	return s
}

// raySegment is one unit of work on the explicit trace stack. Recursive
// scatter/fluorescence/wall fan-out becomes stack pushes with a bounded
// bounce counter, never native recursion.
type raySegment struct {
	origin    r3.Vec
	dir       r3.Vec // unit
	spec      Spectrum
	bounce    int
	scattered bool
}

// cellAccum collects everything the rays of a single grid cell deposit.
// It is owned by exactly one worker at a time and merged afterwards, so no
// synchronization is needed on the hot path.
type cellAccum struct {
	incident    []Spectrum // per layer, entering the slab
	absorbed    []Spectrum // per layer
	transmitted []Spectrum // per layer, exiting the slab
	profile     []Spectrum // per profile plane
	directE     Real       // layer-incident energy from unscattered rays
	scatterE    Real       // same, from scattered/fluoresced rays
	rays        int
}

func newCellAccum(nLayers, nPlanes int) *cellAccum {
	a := &cellAccum{
		incident:    make([]Spectrum, nLayers),
		absorbed:    make([]Spectrum, nLayers),
		transmitted: make([]Spectrum, nLayers),
		profile:     make([]Spectrum, nPlanes),
	}
	for i := 0; i < nLayers; i++ {
		a.incident[i] = NewSpectrum()
		a.absorbed[i] = NewSpectrum()
		a.transmitted[i] = NewSpectrum()
	}
	for i := 0; i < nPlanes; i++ {
		a.profile[i] = NewSpectrum()
	}
	return a
}

type tracer struct {
	scene    *Scene
	cfg      *TraceConfig
	profileH []Real
	fluor    Spectrum
}

// slabCrossing is one layer traversal along a ray, clipped to the room.
type slabCrossing struct {
	t0, t1 Real
	li     int
}

// boxExit returns the exit distance of a ray starting inside the room box
// and the inward normal of the exited face.
func (tr *tracer) boxExit(o, d r3.Vec) (Real, r3.Vec) {
	room := &tr.scene.Room
	tExit := math.Inf(1)
	var n r3.Vec

	axis := func(oc, dc, lo, hi Real, inLo, inHi r3.Vec) {
		if dc > 0 {
			if t := (hi - oc) / dc; t < tExit {
				tExit, n = t, inHi
			}
		} else if dc < 0 {
			if t := (lo - oc) / dc; t < tExit {
				tExit, n = t, inLo
			}
		}
	}
	axis(o.X, d.X, 0, room.Width, r3.Vec{X: 1}, r3.Vec{X: -1})
	axis(o.Y, d.Y, 0, room.Depth, r3.Vec{Y: 1}, r3.Vec{Y: -1})
	axis(o.Z, d.Z, 0, room.Height, r3.Vec{Z: 1}, r3.Vec{Z: -1})
	return tExit, n
}

// slabCrossings gathers every layer traversal ahead of the ray, clipped to
// [0, tExit], sorted by entry distance.
func (tr *tracer) slabCrossings(o, d r3.Vec, tExit Real) []slabCrossing {
	var out []slabCrossing
	for li, l := range tr.scene.Layers {
		top, bottom := l.Top(), l.Bottom()
		var t0, t1 Real
		if math.Abs(d.Z) < 1e-12 {
			if o.Z < bottom || o.Z >= top {
				continue
			}
			t0, t1 = 0, tExit
		} else {
			ta := (top - o.Z) / d.Z
			tb := (bottom - o.Z) / d.Z
			t0, t1 = math.Min(ta, tb), math.Max(ta, tb)
			if t0 < 0 {
				t0 = 0
			}
			if t1 > tExit {
				t1 = tExit
			}
			if t1 <= t0 {
				continue
			}
		}
		out = append(out, slabCrossing{t0: t0, t1: t1, li: li})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].t0 < out[j].t0 })
	return out
}

func pointAt(o, d r3.Vec, t Real) r3.Vec { return r3.Add(o, r3.Scale(t, d)) }

// depositPlanes adds spec to every profile plane the ray crosses in
// (tA, tB]; used for the free-flight stretches between slabs.
func (tr *tracer) depositPlanes(acc *cellAccum, o, d r3.Vec, tA, tB Real, spec Spectrum) {
	if math.Abs(d.Z) < 1e-12 {
		return
	}
	for pi, h := range tr.profileH {
		tP := (h - o.Z) / d.Z
		if tP > tA && tP <= tB {
			acc.profile[pi].Add(spec)
		}
	}
}

// traceRay runs one top-level ray and all of its offspring to completion.
func (tr *tracer) traceRay(origin, dir r3.Vec, spec Spectrum, acc *cellAccum, rng *rand.Rand) {
	stack := make([]raySegment, 0, 16)
	stack = append(stack, raySegment{origin: origin, dir: dir, spec: spec, bounce: 0})
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tr.walk(seg, acc, rng, &stack)
	}
}

// walk advances one segment: attenuate through every slab ahead, spawn
// scatter/fluorescence offspring, then bounce off the room wall or die.
func (tr *tracer) walk(seg raySegment, acc *cellAccum, rng *rand.Rand, stack *[]raySegment) {
	cfg := tr.cfg
	if seg.bounce > cfg.MaxBounces {
		return
	}
	d := seg.dir
	if l2 := r3.Dot(d, d); l2 == 0 {
		return // degenerate direction
	} else if math.Abs(l2-1) > 1e-9 {
		d = r3.Scale(1/math.Sqrt(l2), d)
	}
	o := seg.origin
	S := seg.spec
	if S.Total() < minRayEnergy {
		return
	}

	tExit, wallN := tr.boxExit(o, d)
	if !isFinite(tExit) || tExit <= 0 {
		return
	}

	cursor := 0.0
	for _, cr := range tr.slabCrossings(o, d, tExit) {
		a := math.Max(cr.t0, cursor)
		b := cr.t1
		if b <= a {
			continue
		}
		tr.depositPlanes(acc, o, d, cursor, a, S)

		layer := tr.scene.Layers[cr.li]
		L := b - a
		mid := pointAt(o, d, (a+b)/2)
		lai := layer.LocalLAI(mid)
		k := layer.Dist.G() * lai / layer.Thickness
		td := math.Exp(-k * L)

		// Light level at the slab: record the entering spectrum.
		acc.incident[cr.li].Add(S)
		if seg.scattered {
			acc.scatterE += S.Total()
		} else {
			acc.directE += S.Total()
		}

		// Profile planes inside the slab see partially attenuated flux.
		if math.Abs(d.Z) >= 1e-12 {
			for pi, h := range tr.profileH {
				tP := (h - o.Z) / d.Z
				if tP <= a || tP > b {
					continue
				}
				tdp := math.Exp(-k * (tP - a))
				dep := NewSpectrum()
				refl, trans := layer.Optics.Reflectance, layer.Optics.Transmittance
				for i := range dep {
					rt := refl[i] + trans[i]
					teff := tdp + (1-tdp)*rt*0.5
					dep[i] = S[i] * teff
				}
				acc.profile[pi].Add(dep)
			}
		}

		// Modified Beer-Lambert: direct transmission plus half of the
		// non-absorbed intercepted flux continuing as forward scatter.
		refl, trans, abs := layer.Optics.Reflectance, layer.Optics.Transmittance, layer.Optics.Absorptance
		out := NewSpectrum()
		absorbed := NewSpectrum()
		scattered := NewSpectrum()
		for i := range S {
			rt := refl[i] + trans[i]
			teff := td + (1-td)*rt*0.5
			intercepted := S[i] * (1 - teff)
			out[i] = S[i] * teff
			absorbed[i] = intercepted * abs[i]
			scattered[i] = intercepted * rt
		}
		acc.absorbed[cr.li].Add(absorbed)
		acc.transmitted[cr.li].Add(out)

		if cfg.Scattering && seg.bounce < cfg.MaxBounces {
			if scatTotal := scattered.Total(); scatTotal > minRayEnergy {
				tr.spawnScatter(layer, mid, scattered, seg.bounce+1, rng, stack)
			}
		}
		if cfg.Fluorescence && seg.bounce < cfg.MaxBounces && layer.Optics.Pigments.Chlorophyll > 0 {
			excite := fluorBlueWeight*absorbed.BandIntegral(BlueLowNM, BlueHighNM) +
				fluorRedWeight*absorbed.BandIntegral(fluorRedLowNM, fluorRedHighNM)
			if e := excite * fluorYield; e > minRayEnergy {
				emit := tr.fluor.Clone()
				emit.Scale(e)
				fdir := cosineHemisphere(r3.Vec{Z: -1}, rng)
				*stack = append(*stack, raySegment{
					origin:    pointAt(mid, fdir, bumpShift),
					dir:       fdir,
					spec:      emit,
					bounce:    seg.bounce + 1,
					scattered: true,
				})
			}
		}

		S = out
		cursor = b
		if S.Total() < minRayEnergy {
			return
		}
	}
	tr.depositPlanes(acc, o, d, cursor, tExit, S)

	// Wall interaction: reflect with the room's spectral reflectance,
	// diffuse or specular, then keep going as a new segment.
	if seg.bounce >= cfg.MaxBounces {
		return
	}
	S.Mul(tr.scene.Room.WallReflectance)
	if S.Total() < minRayEnergy {
		return
	}
	hit := pointAt(o, d, tExit)
	var nd r3.Vec
	if tr.scene.Room.WallsDiffuse {
		nd = cosineHemisphere(wallN, rng)
	} else {
		nd = reflectDir(d, wallN)
	}
	*stack = append(*stack, raySegment{
		origin:    pointAt(hit, nd, bumpShift),
		dir:       nd,
		spec:      S,
		bounce:    seg.bounce + 1,
		scattered: seg.scattered,
	})
}

// spawnScatter fans the scattered flux into secondary rays. Each samples a
// leaf normal from the layer's distribution and then chooses reflection or
// transmission about it with equal probability.
func (tr *tracer) spawnScatter(layer *Layer, at r3.Vec, scattered Spectrum, bounce int, rng *rand.Rand, stack *[]raySegment) {
	share := 1.0 / Real(maxScatterRays)
	for i := 0; i < maxScatterRays; i++ {
		normal := layer.Dist.SampleNormal(rng)
		if rng.Float64() < 0.5 {
			normal = r3.Scale(-1, normal) // transmission side
		}
		dir := cosineHemisphere(normal, rng)
		sub := scattered.Clone()
		sub.Scale(share)
		*stack = append(*stack, raySegment{
			origin:    pointAt(at, dir, bumpShift),
			dir:       dir,
			spec:      sub,
			bounce:    bounce,
			scattered: true,
		})
	}
}
