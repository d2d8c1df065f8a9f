package canopy

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewLightSourceValidation(t *testing.T) {
	if _, err := NewLightSource(r3.Vec{}, make(Spectrum, 10), 100, Lambertian, 0); err == nil {
		t.Fatal("short emission spectrum must be rejected")
	}
	if _, err := NewLightSource(r3.Vec{}, FlatSpectrum(), 0, Lambertian, 0); err == nil {
		t.Fatal("zero intensity must be rejected")
	}
	if _, err := NewLightSource(r3.Vec{}, NewSpectrum(), 100, Lambertian, 0); err == nil {
		t.Fatal("dark emission spectrum must be rejected")
	}
	// energy only outside PAR is dark for PPFD purposes
	if _, err := NewLightSource(r3.Vec{}, NewMonochromeSpectrum(750, 1), 100, Lambertian, 0); err == nil {
		t.Fatal("emission with no PAR energy must be rejected")
	}
}

func TestEmissionNormalizedToIntensity(t *testing.T) {
	l, err := NewLightSource(r3.Vec{X: 5, Y: 5, Z: 4.5}, WarmWhiteLEDSpectrum(), 1000, Lambertian, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Emission.PPFD(); math.Abs(got-1000) > 1e-6 {
		t.Fatalf("emission PPFD=%.6f, want intensity 1000", got)
	}
}

func TestLambertianRaysPointDown(t *testing.T) {
	l, _ := NewLightSource(r3.Vec{X: 5, Y: 5, Z: 4}, FlatSpectrum(), 1000, Lambertian, 0)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		o, d, w := l.sampleRay(r3.Vec{X: 3, Y: 7}, 4, rng)
		if w != 1 {
			t.Fatalf("lambertian weight=%g, want 1", w)
		}
		if o.Z != 4 || o.X != 3 || o.Y != 7 {
			t.Fatalf("ray must start above the target: %+v", o)
		}
		if d.Z > -math.Cos(directionJitterRad)+1e-9 {
			t.Fatalf("direction outside the jitter cone: %+v", d)
		}
	}
}

func TestDiffuseOverheadHemisphere(t *testing.T) {
	l, _ := NewLightSource(r3.Vec{X: 5, Y: 5, Z: 3}, FlatSpectrum(), 1000, DiffuseOverhead, 0)
	rng := rand.New(rand.NewSource(4))
	var sumCos Real
	const n = 5000
	for i := 0; i < n; i++ {
		_, d, _ := l.sampleRay(r3.Vec{X: 2, Y: 2}, 3, rng)
		if d.Z >= 0 {
			t.Fatalf("diffuse overhead ray going up: %+v", d)
		}
		sumCos += -d.Z
	}
	// cosine-weighted hemisphere: E[cosθ] = 2/3
	if mean := sumCos / n; math.Abs(mean-2.0/3) > 0.02 {
		t.Fatalf("mean downward cosine %.3f, want ≈0.667", mean)
	}
}

func TestGaussianBeamWeights(t *testing.T) {
	l, _ := NewLightSource(r3.Vec{X: 5, Y: 5, Z: 4}, FlatSpectrum(), 1000, GaussianBeam, 15)
	rng := rand.New(rand.NewSource(6))
	_, _, onAxis := l.sampleRay(r3.Vec{X: 5, Y: 5}, 4, rng)
	_, _, offAxis := l.sampleRay(r3.Vec{X: 9, Y: 5}, 4, rng)
	if onAxis < offAxis {
		t.Fatalf("beam weight must fall off-axis: on=%g off=%g", onAxis, offAxis)
	}
	if offAxis <= 0 || offAxis >= 1 {
		t.Fatalf("off-axis weight out of (0,1): %g", offAxis)
	}
}

func TestCosineHemisphereStaysAboveNormal(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	n := r3.Unit(r3.Vec{X: 0.3, Y: -0.5, Z: 0.8})
	for i := 0; i < 2000; i++ {
		d := cosineHemisphere(n, rng)
		if math.Abs(r3.Norm(d)-1) > 1e-9 {
			t.Fatalf("non-unit sample |d|=%g", r3.Norm(d))
		}
		if r3.Dot(d, n) < -1e-12 {
			t.Fatalf("sample below hemisphere: %+v", d)
		}
	}
}

func TestReflectDir(t *testing.T) {
	d := reflectDir(r3.Vec{X: 1, Z: -1}, r3.Vec{Z: 1})
	if math.Abs(d.X-1) > 1e-12 || math.Abs(d.Z-1) > 1e-12 {
		t.Fatalf("specular reflection wrong: %+v", d)
	}
}
