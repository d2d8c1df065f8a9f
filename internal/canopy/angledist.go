package canopy

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// AngleDistKind enumerates the closed set of leaf-angle distribution
// families.
type AngleDistKind int

const (
	Spherical AngleDistKind = iota
	UniformAngles
	Planophile
	Erectophile
	Plagiophile
	Extremophile
	CustomAngles
)

func (k AngleDistKind) String() string {
	switch k {
	case Spherical:
		return "spherical"
	case UniformAngles:
		return "uniform"
	case Planophile:
		return "planophile"
	case Erectophile:
		return "erectophile"
	case Plagiophile:
		return "plagiophile"
	case Extremophile:
		return "extremophile"
	case CustomAngles:
		return "custom"
	}
	return "unknown"
}

const (
	// Zenith angles are clamped short of 90° before any 1/cos.
	maxLeafAngleDeg = 89.9
	angleLutN       = 256
)

// AngleDist is a leaf-angle distribution: a projection function G and a
// samplable leaf-zenith-angle density. The inverse-CDF sampling table is
// built once, at layer registration, and is read-only afterwards.
type AngleDist struct {
	Kind         AngleDistKind
	MeanAngleDeg Real // custom only
	Beta         Real // custom only: concentration of the beta density

	lut []Real // inverse CDF of the zenith density, radians
}

func NewAngleDist(kind AngleDistKind) *AngleDist { return &AngleDist{Kind: kind} }

// NewCustomAngleDist builds a custom distribution whose zenith density is a
// beta distribution over θ/(π/2) with the given mean angle; beta sets the
// concentration (larger = tighter around the mean).
func NewCustomAngleDist(meanAngleDeg, beta Real) *AngleDist {
	if beta <= 0 {
		beta = 4
	}
	return &AngleDist{Kind: CustomAngles, MeanAngleDeg: meanAngleDeg, Beta: beta}
}

// G returns the projection coefficient: the mean leaf area fraction
// projected perpendicular to the beam, averaged over the distribution.
func (d *AngleDist) G() Real {
	switch d.Kind {
	case Spherical, UniformAngles:
		return 0.5
	case Planophile:
		return 0.88
	case Erectophile:
		return 0.32
	case Plagiophile:
		return 0.66
	case Extremophile:
		return 0.6
	case CustomAngles:
		mean := clamp(d.MeanAngleDeg, 0, maxLeafAngleDeg)
		return 0.5 / math.Cos(mean*math.Pi/180)
	}
	return 0.5
}

// Density is the unnormalized leaf-zenith-angle density f(θ) on
// [0, π/2). The classical de Wit trigonometric families are used; the
// custom family is a beta density over the normalized angle.
func (d *AngleDist) Density(theta Real) Real {
	if theta < 0 || theta >= math.Pi/2 {
		return 0
	}
	switch d.Kind {
	case Spherical:
		return math.Sin(theta)
	case UniformAngles:
		return 1
	case Planophile:
		return 1 + math.Cos(2*theta)
	case Erectophile:
		return 1 - math.Cos(2*theta)
	case Plagiophile:
		return 1 - math.Cos(4*theta)
	case Extremophile:
		return 1 + math.Cos(4*theta)
	case CustomAngles:
		mean := clamp(d.MeanAngleDeg, 1e-3, maxLeafAngleDeg) / 90
		b := distuv.Beta{Alpha: mean * d.Beta, Beta: (1 - mean) * d.Beta}
		return b.Prob(theta / (math.Pi / 2))
	}
	return 0
}

// buildLUT tabulates the inverse CDF of Density over [0, maxLeafAngleDeg]
// so SampleZenith is a table lookup plus a lerp. Same construction as a
// narrow-cone light LUT: cumulative integral, normalized, inverted on a
// uniform grid.
func (d *AngleDist) buildLUT() {
	if d.lut != nil {
		return
	}
	const steps = 4096
	thetaMax := maxLeafAngleDeg * math.Pi / 180
	dt := thetaMax / steps

	cdf := make([]Real, steps+1)
	for i := 1; i <= steps; i++ {
		t0 := Real(i-1) * dt
		t1 := Real(i) * dt
		cdf[i] = cdf[i-1] + 0.5*(d.Density(t0)+d.Density(t1))*dt
	}
	total := cdf[steps]
	if total <= 0 {
		// degenerate density: fall back to uniform zenith
		d.lut = make([]Real, angleLutN+1)
		for i := range d.lut {
			d.lut[i] = thetaMax * Real(i) / angleLutN
		}
		return
	}

	d.lut = make([]Real, angleLutN+1)
	j := 0
	for i := 0; i <= angleLutN; i++ {
		target := total * Real(i) / angleLutN
		for j < steps && cdf[j+1] < target {
			j++
		}
		// lerp inside [j, j+1]
		theta := Real(j) * dt
		if seg := cdf[j+1] - cdf[j]; seg > 0 {
			theta += dt * (target - cdf[j]) / seg
		}
		d.lut[i] = theta
	}
}

// SampleZenith draws a leaf zenith angle in radians from the distribution.
func (d *AngleDist) SampleZenith(rng *rand.Rand) Real {
	if d.lut == nil {
		d.buildLUT()
	}
	fu := rng.Float64() * angleLutN
	i := int(fu)
	if i >= angleLutN {
		i = angleLutN - 1
		fu = angleLutN
	}
	t0 := d.lut[i]
	t1 := d.lut[i+1]
	return t0 + (t1-t0)*(fu-Real(i))
}

// SampleNormal draws a leaf normal: zenith from the distribution's density,
// azimuth uniform. The returned vector is unit length with Z >= 0.
func (d *AngleDist) SampleNormal(rng *rand.Rand) r3.Vec {
	theta := d.SampleZenith(rng)
	phi := 2 * math.Pi * rng.Float64()
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	return r3.Vec{X: st * cp, Y: st * sp, Z: ct}
}
