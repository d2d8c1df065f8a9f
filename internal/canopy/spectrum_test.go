package canopy

import (
	"math"
	"testing"
)

func TestPPFDConversion550nm(t *testing.T) {
	got := NewMonochromeSpectrum(550, 1).PPFD()
	want := 4.57
	if math.Abs(got-want) > want*0.01 {
		t.Fatalf("550nm @ 1 W/m^2: PPFD=%.4f, want %.2f ±1%%", got, want)
	}
}

func TestPARBandBounds(t *testing.T) {
	inside := NewMonochromeSpectrum(400, 1)
	inside.Add(NewMonochromeSpectrum(700, 1))
	if inside.PPFD() <= 0 {
		t.Fatal("400nm and 700nm must contribute to PPFD")
	}
	outside := NewMonochromeSpectrum(399, 1)
	outside.Add(NewMonochromeSpectrum(701, 1))
	if p := outside.PPFD(); p != 0 {
		t.Fatalf("399nm/701nm leaked into PPFD: %g", p)
	}
}

func TestBandIntegralClipping(t *testing.T) {
	s := NewFlatSpectrum(1)
	if got := s.BandIntegral(FarRedLowNM, 800); got != 81 {
		t.Fatalf("far-red band should clip to 700-780 (81 bins), got %g", got)
	}
	if got := s.BandIntegral(900, 950); got != 0 {
		t.Fatalf("out-of-range band should be 0, got %g", got)
	}
}

func TestNormalizePPFD(t *testing.T) {
	s := WarmWhiteLEDSpectrum()
	s.NormalizePPFD(750)
	if got := s.PPFD(); math.Abs(got-750) > 1e-6 {
		t.Fatalf("normalized PPFD=%.6f, want 750", got)
	}
}

func TestGaussianSpectrumPeak(t *testing.T) {
	s := GaussianSpectrum(685, 15, 0.7)
	peak := s[685-MinWavelengthNM]
	if math.Abs(peak-0.7) > 1e-12 {
		t.Fatalf("peak bin=%g, want 0.7", peak)
	}
	if s[740-MinWavelengthNM] >= peak {
		t.Fatal("gaussian should fall off away from the peak")
	}
}

func TestPPFDToDLI(t *testing.T) {
	// 500 μmol/m^2/s over a 12h photoperiod is 21.6 mol/m^2/day.
	if got := PPFDToDLI(500, 12); math.Abs(got-21.6) > 1e-9 {
		t.Fatalf("DLI=%g, want 21.6", got)
	}
}

func TestWavelengthIndexing(t *testing.T) {
	if WavelengthNM(0) != MinWavelengthNM || WavelengthNM(SpectrumBins-1) != MaxWavelengthNM {
		t.Fatalf("bin↔wavelength mapping broken: %g..%g", WavelengthNM(0), WavelengthNM(SpectrumBins-1))
	}
}
