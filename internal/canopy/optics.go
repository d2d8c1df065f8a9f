package canopy

import (
	"fmt"
	"math"
)

// Pigments carries per-leaf pigment content. Only chlorophyll participates
// in the simulation (it gates fluorescence); the rest is metadata reported
// back to callers.
type Pigments struct {
	Chlorophyll Real `json:"chlorophyll"` // μg/cm^2
	Carotenoid  Real `json:"carotenoid"`  // μg/cm^2
	Water       Real `json:"water"`       // cm
	DryMatter   Real `json:"dryMatter"`   // g/cm^2
}

// LeafOptics holds per-wavelength leaf reflectance, transmittance and
// absorptance. The three are assumed to satisfy R+T+A≈1 per bin; that is
// warned about, not enforced.
type LeafOptics struct {
	Reflectance   Spectrum
	Transmittance Spectrum
	Absorptance   Spectrum
	Pigments      Pigments
}

// NewLeafOptics validates the sample counts of the three spectra. This is
// the tracer's single hard precondition: mismatched arrays fail here with a
// descriptive error before any tracing can start.
func NewLeafOptics(r, t, a Spectrum, p Pigments) (*LeafOptics, error) {
	if len(r) != SpectrumBins || len(t) != SpectrumBins || len(a) != SpectrumBins {
		return nil, fmt.Errorf("leaf optics: spectra must have %d samples (380-780nm, 1nm step); got R=%d T=%d A=%d",
			SpectrumBins, len(r), len(t), len(a))
	}
	worst := 0.0
	for i := 0; i < SpectrumBins; i++ {
		if d := math.Abs(r[i] + t[i] + a[i] - 1); d > worst {
			worst = d
		}
	}
	if worst > 0.05 {
		Warnf("leaf optics: R+T+A deviates from 1 by up to %.3f; energy will not be conserved", worst)
	}
	return &LeafOptics{Reflectance: r, Transmittance: t, Absorptance: a, Pigments: p}, nil
}

// DefaultLeafOptics is a generic healthy green leaf: strong PAR absorption
// with a green bump and a sharp far-red shoulder above 700 nm.
func DefaultLeafOptics() *LeafOptics {
	r := NewSpectrum()
	t := NewSpectrum()
	a := NewSpectrum()
	for i := range a {
		nm := WavelengthNM(i)
		var refl Real
		switch {
		case nm < 500:
			refl = 0.04
		case nm < 600:
			refl = 0.04 + 0.08*math.Exp(-(nm-550)*(nm-550)/(2*35*35))
		case nm < 700:
			refl = 0.04
		default:
			// far-red shoulder
			refl = 0.04 + 0.41*clamp01((nm-700)/40)
		}
		r[i] = refl
		t[i] = refl // symmetric leaf assumption
		a[i] = 1 - 2*refl
	}
	o, err := NewLeafOptics(r, t, a, Pigments{Chlorophyll: 45, Carotenoid: 10, Water: 0.012, DryMatter: 0.005})
	if err != nil {
		panic(err) // lengths are correct by construction
	}
	return o
}

// BlackLeafOptics absorbs everything: R=T=0, A=1. Used by the validation
// suite to isolate the Beer-Lambert term.
func BlackLeafOptics() *LeafOptics {
	o, err := NewLeafOptics(NewSpectrum(), NewSpectrum(), NewFlatSpectrum(1), Pigments{})
	if err != nil {
		panic(err)
	}
	return o
}

// UniformLeafOptics has flat R, T and A=1-R-T at every wavelength.
func UniformLeafOptics(r, t Real, p Pigments) *LeafOptics {
	o, err := NewLeafOptics(NewFlatSpectrum(r), NewFlatSpectrum(t), NewFlatSpectrum(1-r-t), p)
	if err != nil {
		panic(err)
	}
	return o
}
