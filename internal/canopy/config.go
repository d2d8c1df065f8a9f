package canopy

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

type RoomCfg struct {
	Width           Real `json:"width"`
	Depth           Real `json:"depth"`
	Height          Real `json:"height"`
	WallReflectance Real `json:"wallReflectance,omitempty"`
	WallsSpecular   bool `json:"wallsSpecular,omitempty"`
}

type OpticsCfg struct {
	Reflectance   []Real `json:"reflectance,omitempty"`
	Transmittance []Real `json:"transmittance,omitempty"`
	Absorptance   []Real `json:"absorptance,omitempty"`

	Chlorophyll Real `json:"chlorophyll,omitempty"`
	Carotenoid  Real `json:"carotenoid,omitempty"`
	Water       Real `json:"water,omitempty"`
	DryMatter   Real `json:"dryMatter,omitempty"`
}

type PlantCfg struct {
	X      Real `json:"x"`
	Y      Real `json:"y"`
	Radius Real `json:"radius"`
	LAI    Real `json:"lai"`
	Health Real `json:"health,omitempty"` // default 1
}

type LayerCfg struct {
	Height    Real `json:"height"`
	Thickness Real `json:"thickness"`
	LAI       Real `json:"lai"`

	Distribution string `json:"distribution,omitempty"` // default spherical
	MeanAngleDeg Real   `json:"meanAngleDeg,omitempty"` // custom only
	Beta         Real   `json:"beta,omitempty"`         // custom only

	Species      string     `json:"species,omitempty"`
	Stage        string     `json:"stage,omitempty"`
	PlantDensity Real       `json:"plantDensity,omitempty"`
	Plants       []PlantCfg `json:"plants,omitempty"`

	Optics *OpticsCfg `json:"optics,omitempty"` // default green leaf
}

type LightCfg struct {
	X Real `json:"x"`
	Y Real `json:"y"`
	Z Real `json:"z"`

	Spectrum  string `json:"spectrum,omitempty"` // flat | warmwhite | coolwhite
	Bins      []Real `json:"bins,omitempty"`     // explicit 401-sample shape
	Intensity Real   `json:"intensity"`
	Angular   string `json:"angular,omitempty"` // lambertian | isotropic | gaussian | diffuse
	SigmaDeg  Real   `json:"sigmaDeg,omitempty"`
}

// Config is the JSON run description consumed by the CLI. Zero values get
// defaults filled in at load time; Build methods validate the rest.
type Config struct {
	Room   RoomCfg    `json:"room"`
	Layers []LayerCfg `json:"layers"`
	Lights []LightCfg `json:"lights"`

	RaysPerCell          int   `json:"raysPerCell,omitempty"`
	MaxBounces           int   `json:"maxBounces,omitempty"`
	GridResolution       Real  `json:"gridResolution,omitempty"`
	ProfileStep          Real  `json:"profileStep,omitempty"`
	DisableScattering    bool  `json:"disableScattering,omitempty"`
	DisableFluorescence  bool  `json:"disableFluorescence,omitempty"`
	Seed                 int64 `json:"seed,omitempty"`
	Workers              int   `json:"workers,omitempty"`
	ConvergenceThreshold Real  `json:"convergenceThreshold,omitempty"`
}

var distributionNames = map[string]AngleDistKind{
	"":             Spherical,
	"spherical":    Spherical,
	"uniform":      UniformAngles,
	"planophile":   Planophile,
	"erectophile":  Erectophile,
	"plagiophile":  Plagiophile,
	"extremophile": Extremophile,
	"custom":       CustomAngles,
}

var speciesNames = map[string]Species{
	"":            SpeciesGeneric,
	"generic":     SpeciesGeneric,
	"cannabis":    SpeciesCannabis,
	"tomato":      SpeciesTomato,
	"cucumber":    SpeciesCucumber,
	"leafygreens": SpeciesLeafyGreens,
	"lettuce":     SpeciesLeafyGreens,
}

var stageNames = map[string]GrowthStage{
	"":           StageVegetative,
	"seedling":   StageSeedling,
	"vegetative": StageVegetative,
	"flowering":  StageFlowering,
}

var angularNames = map[string]AngularDist{
	"":           Lambertian,
	"lambertian": Lambertian,
	"isotropic":  Isotropic,
	"gaussian":   GaussianBeam,
	"diffuse":    DiffuseOverhead,
}

func (oc *OpticsCfg) Build() (*LeafOptics, error) {
	if oc == nil || (oc.Reflectance == nil && oc.Transmittance == nil && oc.Absorptance == nil) {
		o := DefaultLeafOptics()
		if oc != nil {
			o.Pigments = Pigments{Chlorophyll: oc.Chlorophyll, Carotenoid: oc.Carotenoid, Water: oc.Water, DryMatter: oc.DryMatter}
		}
		return o, nil
	}
	return NewLeafOptics(Spectrum(oc.Reflectance), Spectrum(oc.Transmittance), Spectrum(oc.Absorptance),
		Pigments{Chlorophyll: oc.Chlorophyll, Carotenoid: oc.Carotenoid, Water: oc.Water, DryMatter: oc.DryMatter})
}

func (lc LayerCfg) Build() (*Layer, error) {
	kind, ok := distributionNames[lc.Distribution]
	if !ok {
		return nil, fmt.Errorf("layer at %.2fm: unknown leaf-angle distribution %q", lc.Height, lc.Distribution)
	}
	var dist *AngleDist
	if kind == CustomAngles {
		dist = NewCustomAngleDist(lc.MeanAngleDeg, lc.Beta)
	} else {
		dist = NewAngleDist(kind)
	}

	optics, err := lc.Optics.Build()
	if err != nil {
		return nil, fmt.Errorf("layer at %.2fm: %w", lc.Height, err)
	}
	l, err := NewLayer(lc.Height, lc.Thickness, lc.LAI, dist, optics)
	if err != nil {
		return nil, err
	}

	sp, ok := speciesNames[lc.Species]
	if !ok {
		Warnf("layer at %.2fm: unknown species %q, using generic profile", lc.Height, lc.Species)
		sp = SpeciesGeneric
	}
	st, ok := stageNames[lc.Stage]
	if !ok {
		Warnf("layer at %.2fm: unknown growth stage %q, using vegetative", lc.Height, lc.Stage)
		st = StageVegetative
	}
	l.Species = sp
	l.Stage = st
	l.PlantDensity = lc.PlantDensity
	for _, p := range lc.Plants {
		h := p.Health
		if h == 0 {
			h = 1
		}
		l.Plants = append(l.Plants, PlantPlacement{
			Position: r3.Vec{X: p.X, Y: p.Y},
			Radius:   p.Radius,
			LAI:      p.LAI,
			Health:   h,
		})
	}
	return l, nil
}

func (lc LightCfg) Build() (*LightSource, error) {
	var emission Spectrum
	switch {
	case lc.Bins != nil:
		emission = Spectrum(lc.Bins)
	case lc.Spectrum == "" || lc.Spectrum == "flat":
		emission = FlatSpectrum()
	case lc.Spectrum == "warmwhite":
		emission = WarmWhiteLEDSpectrum()
	case lc.Spectrum == "coolwhite":
		emission = CoolWhiteLEDSpectrum()
	default:
		return nil, fmt.Errorf("light: unknown spectrum %q", lc.Spectrum)
	}
	angular, ok := angularNames[lc.Angular]
	if !ok {
		return nil, fmt.Errorf("light: unknown angular distribution %q", lc.Angular)
	}
	return NewLightSource(r3.Vec{X: lc.X, Y: lc.Y, Z: lc.Z}, emission, lc.Intensity, angular, lc.SigmaDeg)
}

// LoadConfig reads and validates a run description, filling defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Room.Width <= 0 || cfg.Room.Depth <= 0 || cfg.Room.Height <= 0 {
		return nil, fmt.Errorf("config %s: room dimensions must be positive", path)
	}
	if len(cfg.Lights) == 0 {
		return nil, fmt.Errorf("config %s: has no lights", path)
	}
	DebugLog("loaded config %s: room %.1fx%.1fx%.1fm, %d layers, %d lights",
		path, cfg.Room.Width, cfg.Room.Depth, cfg.Room.Height, len(cfg.Layers), len(cfg.Lights))
	return &cfg, nil
}

// BuildScene constructs the runtime scene and trace configuration.
// Configuration errors surface here, before any tracing begins.
func (c *Config) BuildScene() (*Scene, *TraceConfig, error) {
	room := NewRoom(c.Room.Width, c.Room.Depth, c.Room.Height, c.Room.WallReflectance)
	room.WallsDiffuse = !c.Room.WallsSpecular
	scene := NewScene(room)

	for _, lc := range c.Layers {
		l, err := lc.Build()
		if err != nil {
			return nil, nil, err
		}
		scene.AddLayer(l)
	}
	for _, lc := range c.Lights {
		l, err := lc.Build()
		if err != nil {
			return nil, nil, err
		}
		scene.AddLightSource(l)
	}

	tc := DefaultTraceConfig()
	if c.RaysPerCell > 0 {
		tc.RaysPerCell = c.RaysPerCell
	}
	if c.MaxBounces > 0 {
		tc.MaxBounces = c.MaxBounces
	}
	if c.GridResolution > 0 {
		tc.GridResolution = c.GridResolution
	}
	if c.ProfileStep > 0 {
		tc.ProfileStep = c.ProfileStep
	}
	tc.Scattering = !c.DisableScattering
	tc.Fluorescence = !c.DisableFluorescence
	if c.Seed != 0 {
		tc.Seed = c.Seed
	}
	tc.Workers = c.Workers
	tc.ConvergenceThreshold = c.ConvergenceThreshold
	return scene, tc, nil
}
