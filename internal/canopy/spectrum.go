package canopy

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sampled wavelength range: 1 nm bins over the visible/far-red window.
const (
	MinWavelengthNM = 380
	MaxWavelengthNM = 780
	SpectrumBins    = MaxWavelengthNM - MinWavelengthNM + 1

	PARLowNM    = 400
	PARHighNM   = 700
	BlueLowNM   = 400
	BlueHighNM  = 500
	RedLowNM    = 600
	RedHighNM   = 700
	FarRedLowNM = 700
	// Far-red nominally runs to 800 nm; the sampled range ends at 780.
	FarRedHighNM = MaxWavelengthNM
)

// Physical constants (SI).
const (
	planckH   = 6.62607015e-34 // J*s
	lightC    = 2.99792458e8   // m/s
	avogadroN = 6.02214076e23  // 1/mol
)

// Spectrum is a fixed-length sampled spectral function, one value per 1 nm
// bin: wavelength(i) = MinWavelengthNM + i. Values are spectral irradiance
// in W/m^2/nm unless a caller rescales them.
type Spectrum []Real

func NewSpectrum() Spectrum { return make(Spectrum, SpectrumBins) }

// NewFlatSpectrum returns a spectrum with every bin set to v.
func NewFlatSpectrum(v Real) Spectrum {
	s := NewSpectrum()
	for i := range s {
		s[i] = v
	}
	return s
}

// NewMonochromeSpectrum puts all energy in the single bin closest to nm.
func NewMonochromeSpectrum(nm int, v Real) Spectrum {
	s := NewSpectrum()
	if i := nm - MinWavelengthNM; i >= 0 && i < SpectrumBins {
		s[i] = v
	}
	return s
}

// GaussianSpectrum returns weight * exp(-(λ-peak)^2 / 2σ^2) per bin.
func GaussianSpectrum(peakNM, sigmaNM, weight Real) Spectrum {
	s := NewSpectrum()
	inv := 1 / (2 * sigmaNM * sigmaNM)
	for i := range s {
		d := Real(MinWavelengthNM+i) - peakNM
		s[i] = weight * math.Exp(-d*d*inv)
	}
	return s
}

// WavelengthNM returns the wavelength of bin i in nanometers.
func WavelengthNM(i int) Real { return Real(MinWavelengthNM + i) }

func (s Spectrum) Clone() Spectrum {
	c := NewSpectrum()
	copy(c, s)
	return c
}

func (s Spectrum) Scale(f Real) { floats.Scale(f, s) }

// AddScaled adds f*o into s in place.
func (s Spectrum) AddScaled(f Real, o Spectrum) { floats.AddScaled(s, f, o) }

func (s Spectrum) Add(o Spectrum) { floats.Add(s, o) }

// Mul multiplies s element-wise by o in place.
func (s Spectrum) Mul(o Spectrum) { floats.Mul(s, o) }

// Total is the sum over all bins.
func (s Spectrum) Total() Real { return floats.Sum(s) }

// BandIntegral sums bins over [loNM, hiNM] inclusive, clipped to the
// sampled range.
func (s Spectrum) BandIntegral(loNM, hiNM int) Real {
	lo := loNM - MinWavelengthNM
	hi := hiNM - MinWavelengthNM
	if lo < 0 {
		lo = 0
	}
	if hi > SpectrumBins-1 {
		hi = SpectrumBins - 1
	}
	if hi < lo {
		return 0
	}
	return floats.Sum(s[lo : hi+1])
}

// PPFD integrates spectral irradiance strictly over 400-700 nm, converting
// each bin to photon flux via E/(h*c/λ) and then to μmol/m^2/s. The chain
// is exact: 1 W/m^2 at 550 nm yields ≈4.60 μmol/m^2/s.
func (s Spectrum) PPFD() Real {
	var umol Real
	for i := PARLowNM - MinWavelengthNM; i <= PARHighNM-MinWavelengthNM; i++ {
		if s[i] == 0 {
			continue
		}
		lambdaM := WavelengthNM(i) * 1e-9
		photons := s[i] * lambdaM / (planckH * lightC)
		umol += photons * 1e6 / avogadroN
	}
	return umol
}

// NormalizePPFD rescales s so that its PPFD equals target. A spectrum with
// no PAR energy is left untouched.
func (s Spectrum) NormalizePPFD(target Real) {
	p := s.PPFD()
	if p > 0 {
		s.Scale(target / p)
	}
}

// PPFDToDLI converts an instantaneous PPFD to a daily light integral in
// mol/m^2/day for the given photoperiod.
func PPFDToDLI(ppfd, photoperiodHours Real) Real {
	return ppfd * photoperiodHours * 3600 / 1e6
}

// Canned fixture emission shapes. Magnitudes are arbitrary; light sources
// normalize their emission to the configured intensity.

// FlatSpectrum is an equal-energy emission shape.
func FlatSpectrum() Spectrum { return NewFlatSpectrum(1) }

// WarmWhiteLEDSpectrum approximates a 3000K phosphor LED: a blue pump plus
// a broad phosphor hump.
func WarmWhiteLEDSpectrum() Spectrum {
	s := GaussianSpectrum(450, 12, 0.4)
	s.Add(GaussianSpectrum(600, 60, 1.0))
	return s
}

// CoolWhiteLEDSpectrum approximates a 6500K phosphor LED.
func CoolWhiteLEDSpectrum() Spectrum {
	s := GaussianSpectrum(450, 12, 1.0)
	s.Add(GaussianSpectrum(560, 55, 0.8))
	return s
}
