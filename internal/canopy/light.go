package canopy

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// AngularDist enumerates source angular-emission models.
type AngularDist int

const (
	// Lambertian is the default fixture model: per-cell rays travel
	// straight down with a small directional jitter for soft shadows.
	Lambertian AngularDist = iota
	// Isotropic fixtures illuminate every cell equally; per-cell sampling
	// is identical to Lambertian.
	Isotropic
	// GaussianBeam weights each cell's energy by exp(-θ²/2σ²), θ being the
	// off-axis angle from the fixture to the cell.
	GaussianBeam
	// DiffuseOverhead models sky-style diffuse light: rays start above the
	// cell with cosine-weighted downward directions.
	DiffuseOverhead
)

func (a AngularDist) String() string {
	switch a {
	case Isotropic:
		return "isotropic"
	case GaussianBeam:
		return "gaussian"
	case DiffuseOverhead:
		return "diffuse"
	}
	return "lambertian"
}

// LightSource is one fixture. Emission is stored normalized so that its
// PPFD equals Intensity: a cell's unattenuated contribution from the source
// integrates back to Intensity μmol/m²/s. Multiple sources superpose
// linearly.
type LightSource struct {
	Position  r3.Vec
	Emission  Spectrum
	Intensity Real
	Angular   AngularDist
	SigmaDeg  Real // GaussianBeam width
}

// Per-cell aiming jitter: a ~2° cone around the nominal direction softens
// shadow edges without disturbing path lengths measurably.
const directionJitterRad = 2 * math.Pi / 180

// NewLightSource validates and normalizes a fixture. The emission shape
// must carry some PAR energy and the intensity must be positive.
func NewLightSource(pos r3.Vec, emission Spectrum, intensity Real, angular AngularDist, sigmaDeg Real) (*LightSource, error) {
	if len(emission) != SpectrumBins {
		return nil, errors.New("light source: emission spectrum has wrong sample count")
	}
	if intensity <= 0 {
		return nil, errors.New("light source: intensity must be positive")
	}
	if emission.PPFD() <= 0 {
		return nil, errors.New("light source: emission spectrum has no energy in 400-700nm")
	}
	e := emission.Clone()
	e.NormalizePPFD(intensity)
	return &LightSource{Position: pos, Emission: e, Intensity: intensity, Angular: angular, SigmaDeg: sigmaDeg}, nil
}

// sampleRay returns the origin, unit direction and relative energy weight
// of one ray aimed at target (a jittered point inside a grid cell). Rays
// start at the source height above the target; intensity is a target-plane
// PPFD, so no inverse-square or cosine falloff is applied.
func (l *LightSource) sampleRay(target r3.Vec, startZ Real, rng *rand.Rand) (origin, dir r3.Vec, weight Real) {
	origin = r3.Vec{X: target.X, Y: target.Y, Z: startZ}
	down := r3.Vec{Z: -1}

	switch l.Angular {
	case DiffuseOverhead:
		dir = cosineHemisphere(down, rng)
		return origin, dir, 1
	case GaussianBeam:
		weight = 1.0
		if l.SigmaDeg > 0 {
			toCell := r3.Sub(target, l.Position)
			if n := r3.Norm(toCell); n > 0 {
				cosOff := -toCell.Z / n // angle from straight down
				theta := math.Acos(clamp(cosOff, -1, 1))
				sigma := l.SigmaDeg * math.Pi / 180
				weight = math.Exp(-theta * theta / (2 * sigma * sigma))
			}
		}
		return origin, jitterDir(down, directionJitterRad, rng), weight
	default: // Lambertian, Isotropic
		return origin, jitterDir(down, directionJitterRad, rng), 1
	}
}

// orthonormalBasis builds two unit vectors spanning the plane orthogonal to
// unit n, using a deterministic helper axis.
func orthonormalBasis(n r3.Vec) (u, v r3.Vec) {
	h := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		h = r3.Vec{Y: 1}
	}
	u = r3.Unit(r3.Sub(h, r3.Scale(r3.Dot(h, n), n)))
	v = r3.Cross(n, u)
	return u, v
}

// cosineHemisphere returns a cosine-weighted unit direction on the
// hemisphere around unit n (concentric disk lift).
func cosineHemisphere(n r3.Vec, rng *rand.Rand) r3.Vec {
	u, v := orthonormalBasis(n)
	r := math.Sqrt(rng.Float64())
	phi := 2 * math.Pi * rng.Float64()
	sp, cp := math.Sincos(phi)
	x, y := r*cp, r*sp
	z := math.Sqrt(math.Max(0, 1-x*x-y*y))
	d := r3.Add(r3.Add(r3.Scale(x, u), r3.Scale(y, v)), r3.Scale(z, n))
	return r3.Unit(d)
}

// jitterDir perturbs unit d inside a cone of the given half-angle.
func jitterDir(d r3.Vec, halfAngle Real, rng *rand.Rand) r3.Vec {
	if halfAngle <= 0 {
		return d
	}
	u, v := orthonormalBasis(d)
	theta := halfAngle * math.Sqrt(rng.Float64())
	phi := 2 * math.Pi * rng.Float64()
	st, ct := math.Sincos(theta)
	sp, cp := math.Sincos(phi)
	out := r3.Add(r3.Scale(ct, d), r3.Add(r3.Scale(st*cp, u), r3.Scale(st*sp, v)))
	return r3.Unit(out)
}

// reflectDir mirrors unit i about unit normal n.
func reflectDir(i, n r3.Vec) r3.Vec {
	return r3.Sub(i, r3.Scale(2*r3.Dot(i, n), n))
}
