package canopy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// Species selects the vertical leaf-area weighting profile used when a
// layer carries explicit plant placements. An explicit enum keyed lookup,
// not name matching.
type Species int

const (
	SpeciesGeneric Species = iota
	SpeciesCannabis
	SpeciesTomato
	SpeciesCucumber
	SpeciesLeafyGreens
)

func (s Species) String() string {
	switch s {
	case SpeciesCannabis:
		return "cannabis"
	case SpeciesTomato:
		return "tomato"
	case SpeciesCucumber:
		return "cucumber"
	case SpeciesLeafyGreens:
		return "leafygreens"
	}
	return "generic"
}

type GrowthStage int

const (
	StageSeedling GrowthStage = iota
	StageVegetative
	StageFlowering
)

// PlantPlacement is an explicit plant inside a layer; it overrides the
// layer-wide LAI near its position through a Gaussian horizontal kernel and
// a species vertical profile.
type PlantPlacement struct {
	Position r3.Vec // canopy center, world coordinates (Z unused)
	Radius   Real   // horizontal canopy radius, m
	LAI      Real
	Health   Real // 0..1
}

// Layer is one horizontal canopy slab: [Height-Thickness/2,
// Height+Thickness/2] across the whole room footprint.
type Layer struct {
	Height    Real // slab center, m
	Thickness Real // m
	LAI       Real

	Dist   *AngleDist
	Optics *LeafOptics

	PlantDensity Real // plants/m^2, metadata
	Stage        GrowthStage
	Species      Species
	Plants       []PlantPlacement
}

// Soft parameter bounds: values outside are accepted with a warning and no
// correction.
const (
	laiWarnMax        = 20.0
	thicknessWarnMin  = 0.01
	thicknessWarnMax  = 5.0
	plantWeightCutoff = 1e-9
)

// NewLayer validates the layer's optical sample counts (the only fatal
// precondition) and warns about implausible LAI or thickness.
func NewLayer(height, thickness, lai Real, dist *AngleDist, optics *LeafOptics) (*Layer, error) {
	if optics == nil {
		return nil, fmt.Errorf("canopy layer at %.2fm: leaf optics are required", height)
	}
	if len(optics.Reflectance) != SpectrumBins || len(optics.Transmittance) != SpectrumBins || len(optics.Absorptance) != SpectrumBins {
		return nil, fmt.Errorf("canopy layer at %.2fm: optical spectra must have %d samples; got R=%d T=%d A=%d",
			height, SpectrumBins, len(optics.Reflectance), len(optics.Transmittance), len(optics.Absorptance))
	}
	if dist == nil {
		dist = NewAngleDist(Spherical)
	}
	if lai < 0 || lai > laiWarnMax {
		Warnf("canopy layer at %.2fm: LAI %.2f outside [0, %.0f]", height, lai, laiWarnMax)
	}
	if thickness < thicknessWarnMin || thickness > thicknessWarnMax {
		Warnf("canopy layer at %.2fm: thickness %.3fm outside [%.2f, %.1f]m", height, thickness, thicknessWarnMin, thicknessWarnMax)
	}
	return &Layer{Height: height, Thickness: thickness, LAI: lai, Dist: dist, Optics: optics}, nil
}

func (l *Layer) Top() Real    { return l.Height + l.Thickness/2 }
func (l *Layer) Bottom() Real { return l.Height - l.Thickness/2 }

// verticalWeight is the species leaf-area density over relative height
// z ∈ [0,1] inside the plant canopy; every profile integrates to ≈1.
func (l *Layer) verticalWeight(z Real) Real {
	z = clamp01(z)
	switch l.Species {
	case SpeciesCannabis:
		mu := 0.50
		if l.Stage == StageFlowering {
			mu = 0.65 // colas concentrate light capture high in the canopy
		}
		return distuv.Normal{Mu: mu, Sigma: 0.15}.Prob(z)
	case SpeciesTomato:
		const k = 2.0
		return k * math.Exp(k*(z-1)) / (1 - math.Exp(-k))
	case SpeciesCucumber:
		return (1 + 0.2*math.Sin(math.Pi*z)) / (1 + 0.4/math.Pi)
	case SpeciesLeafyGreens:
		const k = 2.0
		return k * math.Exp(-k*z) / (1 - math.Exp(-k))
	default:
		return distuv.Normal{Mu: 0.5, Sigma: 0.2}.Prob(z)
	}
}

// LocalLAI returns the LAI at a point inside the slab. With explicit plant
// placements it is a weighted sum over nearby plants: Gaussian horizontal
// falloff from each plant center times the species vertical profile. Where
// no plant contributes it falls back to the layer-wide LAI.
func (l *Layer) LocalLAI(p r3.Vec) Real {
	if len(l.Plants) == 0 {
		return l.LAI
	}
	relZ := clamp01((p.Z - l.Bottom()) / l.Thickness)
	vw := l.verticalWeight(relZ)

	var sum, wsum Real
	for i := range l.Plants {
		pl := &l.Plants[i]
		if pl.Radius <= 0 {
			continue
		}
		dx := p.X - pl.Position.X
		dy := p.Y - pl.Position.Y
		d2 := (dx*dx + dy*dy) / (pl.Radius * pl.Radius)
		w := math.Exp(-2 * d2)
		if w < plantWeightCutoff {
			continue
		}
		sum += pl.LAI * clamp01(pl.Health) * w * vw
		wsum += w
	}
	if wsum < plantWeightCutoff {
		return l.LAI
	}
	return sum
}
