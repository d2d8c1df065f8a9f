// Package canopy implements a Monte Carlo radiative-transfer simulator for
// stacked horticultural plant-canopy layers. Rays are traced from light
// sources through an ordered layer stack inside a reflective room, applying
// a modified Beer-Lambert extinction law with forward scattering, leaf-angle
// projection functions, chlorophyll fluorescence re-emission and diffuse
// wall bounces, and accumulating per-layer spectral irradiance that is
// finally reduced to PPFD, band absorption and uniformity statistics.
package canopy

import "math"

type Real = float64

func isFinite(x Real) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) }

func clamp(x, lo, hi Real) Real {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x Real) Real { return clamp(x, 0, 1) }
