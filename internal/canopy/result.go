package canopy

import (
	"math"
	"time"
)

// UniformityStats describes the spread of PPFD across grid cells at one
// layer. CV is range/average, not a true coefficient of variation.
type UniformityStats struct {
	Min Real `json:"min"`
	Max Real `json:"max"`
	Avg Real `json:"avg"`
	CV  Real `json:"cv"`
}

// LayerResult is the per-layer output: light level at the slab, band
// absorption and uniformity.
type LayerResult struct {
	Height    Real `json:"height"`
	Thickness Real `json:"thickness"`
	LAI       Real `json:"lai"`

	PPFD               Real     `json:"ppfd"`
	SpectralIrradiance Spectrum `json:"spectralIrradiance"`

	AbsorbedPAR    Real `json:"absorbedPAR"`
	AbsorbedBlue   Real `json:"absorbedBlue"`
	AbsorbedRed    Real `json:"absorbedRed"`
	AbsorbedFarRed Real `json:"absorbedFarRed"`

	// InterceptedFraction is 1 - transmitted/incident over the PAR band.
	InterceptedFraction Real `json:"interceptedFraction"`

	Uniformity UniformityStats `json:"uniformity"`
}

// ProfilePoint samples the vertical light-penetration profile at one height.
type ProfilePoint struct {
	Height   Real     `json:"height"`
	PPFD     Real     `json:"ppfd"`
	Spectrum Spectrum `json:"spectrum"`
}

// TracingResult is the immutable output of one Trace run.
type TracingResult struct {
	Layers  []LayerResult  `json:"layers"`
	Profile []ProfilePoint `json:"profile"`

	// ScatteredFraction is the share of layer-incident energy delivered by
	// scattered or fluoresced rays rather than direct ones.
	ScatteredFraction Real `json:"scatteredFraction"`

	GridNX    int           `json:"gridNX"`
	GridNY    int           `json:"gridNY"`
	TotalRays int           `json:"totalRays"`
	Elapsed   time.Duration `json:"elapsedNs"`
}

// PPFDAtHeight returns the profile PPFD at the plane nearest to h.
func (r *TracingResult) PPFDAtHeight(h Real) Real {
	if len(r.Profile) == 0 {
		return 0
	}
	best := 0
	bestD := math.Inf(1)
	for i, p := range r.Profile {
		if d := math.Abs(p.Height - h); d < bestD {
			best, bestD = i, d
		}
	}
	return r.Profile[best].PPFD
}

// aggregate reduces the per-cell accumulators, in cell-index order, into
// the final result. Per-cell spectra are already normalized per ray batch,
// so cell averages are plain means.
func aggregate(scene *Scene, accs []*cellAccum, nx, ny int, planes []Real) *TracingResult {
	nCells := Real(len(accs))
	res := &TracingResult{GridNX: nx, GridNY: ny}

	var directE, scatterE Real
	for _, acc := range accs {
		res.TotalRays += acc.rays
		directE += acc.directE
		scatterE += acc.scatterE
	}
	if tot := directE + scatterE; tot > 0 {
		res.ScatteredFraction = scatterE / tot
	}

	for li, layer := range scene.Layers {
		lr := LayerResult{
			Height:             layer.Height,
			Thickness:          layer.Thickness,
			LAI:                layer.LAI,
			SpectralIrradiance: NewSpectrum(),
		}

		minP, maxP := math.Inf(1), math.Inf(-1)
		var sumP, incPAR, transPAR Real
		for _, acc := range accs {
			cellP := acc.incident[li].PPFD()
			sumP += cellP
			minP = math.Min(minP, cellP)
			maxP = math.Max(maxP, cellP)

			lr.SpectralIrradiance.AddScaled(1/nCells, acc.incident[li])
			lr.AbsorbedPAR += acc.absorbed[li].BandIntegral(PARLowNM, PARHighNM) / nCells
			lr.AbsorbedBlue += acc.absorbed[li].BandIntegral(BlueLowNM, BlueHighNM) / nCells
			lr.AbsorbedRed += acc.absorbed[li].BandIntegral(RedLowNM, RedHighNM) / nCells
			lr.AbsorbedFarRed += acc.absorbed[li].BandIntegral(FarRedLowNM, FarRedHighNM) / nCells

			incPAR += acc.incident[li].BandIntegral(PARLowNM, PARHighNM)
			transPAR += acc.transmitted[li].BandIntegral(PARLowNM, PARHighNM)
		}
		lr.PPFD = sumP / nCells
		lr.Uniformity = UniformityStats{Min: minP, Max: maxP, Avg: lr.PPFD}
		if lr.PPFD > 0 {
			lr.Uniformity.CV = (maxP - minP) / lr.PPFD
		}
		if incPAR > 0 {
			lr.InterceptedFraction = 1 - transPAR/incPAR
		}
		res.Layers = append(res.Layers, lr)
	}

	for pi, h := range planes {
		pp := ProfilePoint{Height: h, Spectrum: NewSpectrum()}
		for _, acc := range accs {
			pp.Spectrum.AddScaled(1/nCells, acc.profile[pi])
		}
		pp.PPFD = pp.Spectrum.PPFD()
		res.Profile = append(res.Profile, pp)
	}
	return res
}
