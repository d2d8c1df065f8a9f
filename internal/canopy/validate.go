package canopy

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/spatial/r3"
)

// CheckResult is one validation outcome: a measured value against a
// closed-form or published expectation.
type CheckResult struct {
	Name string
	Got  Real
	Want Real
	Tol  Real // absolute tolerance
	Pass bool
}

func (c CheckResult) String() string {
	status := "PASS"
	if !c.Pass {
		status = "FAIL"
	}
	return fmt.Sprintf("%-28s %s  got=%.4f want=%.4f tol=%.4f", c.Name, status, c.Got, c.Want, c.Tol)
}

func newCheck(name string, got, want, tol Real) CheckResult {
	return CheckResult{Name: name, Got: got, Want: want, Tol: tol, Pass: math.Abs(got-want) <= tol}
}

// singleLayerScene builds a non-reflective room with one canopy layer and
// one light source, the workhorse arrangement of the closed-form checks.
func singleLayerScene(roomW, roomH Real, layer *Layer, light *LightSource) *Scene {
	s := NewScene(NewRoom(roomW, roomW, roomH, 0))
	s.AddLayer(layer)
	s.AddLightSource(light)
	return s
}

func mustLayer(height, thickness, lai Real, dist *AngleDist, optics *LeafOptics) *Layer {
	l, err := NewLayer(height, thickness, lai, dist, optics)
	if err != nil {
		panic(err)
	}
	return l
}

func mustLight(pos r3.Vec, intensity Real, angular AngularDist) *LightSource {
	l, err := NewLightSource(pos, FlatSpectrum(), intensity, angular, 0)
	if err != nil {
		panic(err)
	}
	return l
}

// CheckPPFDConversion verifies the physical-constant chain: monochromatic
// 550 nm at 1 W/m^2 must convert to ≈4.57 μmol/m^2/s.
func CheckPPFDConversion() CheckResult {
	got := NewMonochromeSpectrum(550, 1).PPFD()
	return newCheck("ppfd_conversion_550nm", got, 4.57, 4.57*0.01)
}

// CheckPARBandBounds verifies PPFD integrates exactly 400-700 nm inclusive.
func CheckPARBandBounds() CheckResult {
	edges := NewMonochromeSpectrum(400, 1)
	edges.Add(NewMonochromeSpectrum(700, 1))
	outside := NewMonochromeSpectrum(399, 1)
	outside.Add(NewMonochromeSpectrum(701, 1))

	ok := 0.0
	if edges.PPFD() > 0 && outside.PPFD() == 0 {
		ok = 1
	}
	return newCheck("par_band_bounds", ok, 1, 0)
}

// CheckGFunctions verifies the projection-coefficient table.
func CheckGFunctions() []CheckResult {
	cases := []struct {
		kind AngleDistKind
		want Real
	}{
		{Spherical, 0.50},
		{Planophile, 0.88},
		{Erectophile, 0.32},
		{Plagiophile, 0.66},
	}
	out := make([]CheckResult, 0, len(cases))
	for _, c := range cases {
		got := NewAngleDist(c.kind).G()
		out = append(out, newCheck("g_"+c.kind.String(), got, c.want, 0.02))
	}
	return out
}

// CheckVerticalWeightIntegral verifies the flowering-cannabis vertical
// leaf-area profile integrates to ≈1 over relative height [0,1].
func CheckVerticalWeightIntegral() CheckResult {
	l := mustLayer(1, 1, 1, NewAngleDist(Spherical), BlackLeafOptics())
	l.Species = SpeciesCannabis
	l.Stage = StageFlowering

	const n = 1000
	sum := 0.0
	for i := 0; i <= n; i++ {
		w := 1.0
		if i == 0 || i == n {
			w = 0.5
		}
		sum += w * l.verticalWeight(Real(i)/n)
	}
	return newCheck("vertical_lai_integral", sum/n, 1.0, 0.1)
}

func beerLambertConfig(seed int64) *TraceConfig {
	cfg := DefaultTraceConfig()
	cfg.RaysPerCell = 64
	cfg.MaxBounces = 0
	cfg.Scattering = false
	cfg.Fluorescence = false
	cfg.GridResolution = 1.0
	cfg.Seed = seed
	return cfg
}

// CheckBeerLambert traces a single black-leaf layer (LAI=3, spherical,
// G=0.5) and compares the below/above transmission ratio to the closed
// form exp(-G*LAI) = exp(-1.5).
func CheckBeerLambert() CheckResult {
	layer := mustLayer(2, 1, 3, NewAngleDist(Spherical), BlackLeafOptics())
	scene := singleLayerScene(10, 5, layer, mustLight(r3.Vec{X: 5, Y: 5, Z: 4.5}, 1000, Lambertian))
	res, err := Trace(scene, beerLambertConfig(42))
	if err != nil {
		return CheckResult{Name: "beer_lambert", Pass: false}
	}
	want := math.Exp(-1.5)
	got := 0.0
	if above := res.PPFDAtHeight(3.0); above > 0 {
		got = res.PPFDAtHeight(1.0) / above
	}
	return newCheck("beer_lambert", got, want, want*0.10)
}

// CheckOverheadScenario is the reference scenario: 10x10x5m room, one
// Lambertian flat-spectrum source of intensity 1000 at (5,5,4.5), one
// fully absorbing layer at 2m with LAI 3. Below-layer PPFD must be ≈223.
func CheckOverheadScenario() CheckResult {
	layer := mustLayer(2, 1, 3, NewAngleDist(Spherical), BlackLeafOptics())
	scene := singleLayerScene(10, 5, layer, mustLight(r3.Vec{X: 5, Y: 5, Z: 4.5}, 1000, Lambertian))
	res, err := Trace(scene, beerLambertConfig(42))
	if err != nil {
		return CheckResult{Name: "overhead_scenario", Pass: false}
	}
	want := 1000 * math.Exp(-1.5)
	return newCheck("overhead_scenario", res.PPFDAtHeight(1.0), want, want*0.10)
}

// CheckMarcelisInterception reproduces the published tomato canopy
// interception: LAI=3.5, spherical leaves, A≈0.90, diffuse overhead light
// intercepts ≈90% of incident PAR (Marcelis et al., 1998).
func CheckMarcelisInterception() CheckResult {
	layer := mustLayer(1.5, 0.5, 3.5, NewAngleDist(Spherical), UniformLeafOptics(0.05, 0.05, Pigments{}))
	layer.Species = SpeciesTomato
	scene := singleLayerScene(40, 3, layer, mustLight(r3.Vec{X: 20, Y: 20, Z: 2.9}, 1000, DiffuseOverhead))

	cfg := beerLambertConfig(7)
	cfg.RaysPerCell = 256
	cfg.GridResolution = 2.0
	res, err := Trace(scene, cfg)
	if err != nil {
		return CheckResult{Name: "marcelis_1998_interception", Pass: false}
	}
	return newCheck("marcelis_1998_interception", res.Layers[0].InterceptedFraction, 0.90, 0.90*0.05)
}

// CheckDeterminism runs the same seeded configuration twice and requires
// bit-identical results.
func CheckDeterminism() CheckResult {
	build := func() (*TracingResult, error) {
		layer := mustLayer(2, 1, 3, NewAngleDist(Spherical), DefaultLeafOptics())
		scene := singleLayerScene(4, 5, layer, mustLight(r3.Vec{X: 2, Y: 2, Z: 4.5}, 500, Lambertian))
		cfg := DefaultTraceConfig()
		cfg.RaysPerCell = 16
		cfg.MaxBounces = 3
		cfg.GridResolution = 1.0
		cfg.Seed = 99
		cfg.Workers = 4
		return Trace(scene, cfg)
	}
	a, errA := build()
	b, errB := build()
	ok := 0.0
	if errA == nil && errB == nil {
		a.Elapsed, b.Elapsed = 0, 0
		if reflect.DeepEqual(a, b) {
			ok = 1
		}
	}
	return newCheck("determinism", ok, 1, 0)
}

// CheckLAIMonotonicity requires transmitted PPFD to strictly decrease as
// LAI increases, all else equal.
func CheckLAIMonotonicity() CheckResult {
	below := func(lai Real) Real {
		layer := mustLayer(2, 1, lai, NewAngleDist(Spherical), BlackLeafOptics())
		scene := singleLayerScene(10, 5, layer, mustLight(r3.Vec{X: 5, Y: 5, Z: 4.5}, 1000, Lambertian))
		res, err := Trace(scene, beerLambertConfig(13))
		if err != nil {
			return -1
		}
		return res.PPFDAtHeight(1.0)
	}
	ok := 0.0
	if p2, p4 := below(2), below(4); p2 > p4 && p4 >= 0 {
		ok = 1
	}
	return newCheck("lai_monotonicity", ok, 1, 0)
}

// RunAll executes the whole validation suite.
func RunAll() []CheckResult {
	out := []CheckResult{
		CheckPPFDConversion(),
		CheckPARBandBounds(),
	}
	out = append(out, CheckGFunctions()...)
	out = append(out,
		CheckVerticalWeightIntegral(),
		CheckBeerLambert(),
		CheckOverheadScenario(),
		CheckMarcelisInterception(),
		CheckDeterminism(),
		CheckLAIMonotonicity(),
	)
	return out
}
