package canopy

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestProjectionTable(t *testing.T) {
	cases := []struct {
		kind AngleDistKind
		want Real
	}{
		{Spherical, 0.50},
		{UniformAngles, 0.50},
		{Planophile, 0.88},
		{Erectophile, 0.32},
		{Plagiophile, 0.66},
		{Extremophile, 0.60},
	}
	for _, c := range cases {
		if got := NewAngleDist(c.kind).G(); math.Abs(got-c.want) > 0.02 {
			t.Errorf("G(%s)=%.3f, want %.2f", c.kind, got, c.want)
		}
	}
}

func TestCustomProjection(t *testing.T) {
	d := NewCustomAngleDist(60, 4)
	if got := d.G(); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("G(custom 60°)=%g, want 0.5/cos(60°)=1", got)
	}
}

func TestCustomProjectionClampedNear90(t *testing.T) {
	d := NewCustomAngleDist(90, 4)
	g := d.G()
	if !isFinite(g) || g <= 0 {
		t.Fatalf("G must stay finite near 90°, got %g", g)
	}
	// clamped at 89.9°
	want := 0.5 / math.Cos(89.9*math.Pi/180)
	if math.Abs(g-want) > 1e-6 {
		t.Fatalf("G(90°)=%g, want clamp to %g", g, want)
	}
}

func TestSampleNormalGeometry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, d := range []*AngleDist{
		NewAngleDist(Spherical),
		NewAngleDist(Planophile),
		NewCustomAngleDist(35, 6),
	} {
		for i := 0; i < 2000; i++ {
			v := d.SampleNormal(rng)
			if math.Abs(r3.Norm(v)-1) > 1e-9 {
				t.Fatalf("%s: non-unit normal |v|=%g", d.Kind, r3.Norm(v))
			}
			if v.Z < 0 {
				t.Fatalf("%s: leaf normal below horizon: %+v", d.Kind, v)
			}
		}
	}
}

// KS statistic of sorted samples against a continuous CDF.
func ksD(xs []float64, F func(float64) float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	var d float64
	for i, x := range xs {
		Fi := F(x)
		upper := float64(i+1) / float64(n)
		lower := float64(i) / float64(n)
		if di := math.Max(Fi-lower, upper-Fi); di > d {
			d = di
		}
	}
	return d
}

func TestSphericalZenithDistribution(t *testing.T) {
	d := NewAngleDist(Spherical)
	rng := rand.New(rand.NewSource(12345))

	thetaMax := maxLeafAngleDeg * math.Pi / 180
	norm := 1 - math.Cos(thetaMax)
	F := func(theta float64) float64 {
		if theta <= 0 {
			return 0
		}
		if theta >= thetaMax {
			return 1
		}
		return (1 - math.Cos(theta)) / norm
	}

	const n = 50000
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = d.SampleZenith(rng)
	}
	D := ksD(xs, F)
	crit := 1.95 / math.Sqrt(n) // α≈0.001
	if D > crit {
		t.Fatalf("spherical zenith KS failed: D=%.5f > crit=%.5f", D, crit)
	}
}

func TestErectophileFavorsSteepLeaves(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	mean := func(d *AngleDist) Real {
		var sum Real
		const n = 20000
		for i := 0; i < n; i++ {
			sum += d.SampleZenith(rng)
		}
		return sum / n
	}
	if me, mp := mean(NewAngleDist(Erectophile)), mean(NewAngleDist(Planophile)); me <= mp {
		t.Fatalf("erectophile mean zenith %.3f should exceed planophile %.3f", me, mp)
	}
}
