package canopy

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleConfig = `{
  "room": {"width": 10, "depth": 10, "height": 5, "wallReflectance": 0.3},
  "layers": [
    {"height": 2, "thickness": 1, "lai": 3, "distribution": "spherical",
     "species": "cannabis", "stage": "flowering",
     "plants": [{"x": 5, "y": 5, "radius": 0.6, "lai": 4}]}
  ],
  "lights": [
    {"x": 5, "y": 5, "z": 4.5, "intensity": 1000, "spectrum": "warmwhite"}
  ],
  "raysPerCell": 16,
  "maxBounces": 4,
  "gridResolution": 0.5,
  "seed": 7
}`

func TestLoadConfigAndBuildScene(t *testing.T) {
	quietWarnings(t)
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}
	scene, tc, err := cfg.BuildScene()
	if err != nil {
		t.Fatal(err)
	}
	if len(scene.Layers) != 1 || len(scene.Lights) != 1 {
		t.Fatalf("scene has %d layers, %d lights", len(scene.Layers), len(scene.Lights))
	}
	l := scene.Layers[0]
	if l.Species != SpeciesCannabis || l.Stage != StageFlowering {
		t.Fatalf("species/stage not mapped: %v / %v", l.Species, l.Stage)
	}
	if len(l.Plants) != 1 || l.Plants[0].Health != 1 {
		t.Fatal("plant placement not built with default health 1")
	}
	if tc.RaysPerCell != 16 || tc.MaxBounces != 4 || tc.GridResolution != 0.5 || tc.Seed != 7 {
		t.Fatalf("trace config overrides not applied: %+v", tc)
	}
	if !tc.Scattering || !tc.Fluorescence {
		t.Fatal("scattering and fluorescence default to enabled")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	body := `{"room": {"width": 4, "depth": 4, "height": 3},
	  "lights": [{"x": 2, "y": 2, "z": 2.8, "intensity": 500}]}`
	cfg, err := LoadConfig(writeConfig(t, body))
	if err != nil {
		t.Fatal(err)
	}
	_, tc, err := cfg.BuildScene()
	if err != nil {
		t.Fatal(err)
	}
	if tc.RaysPerCell != 64 || tc.MaxBounces != 10 || tc.GridResolution != 0.1 {
		t.Fatalf("defaults not filled: %+v", tc)
	}
}

func TestLoadConfigRejectsNoLights(t *testing.T) {
	body := `{"room": {"width": 4, "depth": 4, "height": 3}, "lights": []}`
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatal("config without lights must be rejected")
	}
}

func TestLoadConfigRejectsBadRoom(t *testing.T) {
	body := `{"room": {"width": 0, "depth": 4, "height": 3},
	  "lights": [{"x": 1, "y": 1, "z": 2, "intensity": 100}]}`
	if _, err := LoadConfig(writeConfig(t, body)); err == nil {
		t.Fatal("degenerate room must be rejected")
	}
}

func TestBuildRejectsUnknownDistribution(t *testing.T) {
	lc := LayerCfg{Height: 2, Thickness: 1, LAI: 3, Distribution: "bogus"}
	if _, err := lc.Build(); err == nil {
		t.Fatal("unknown distribution must fail the build")
	}
}

func TestBuildRejectsBadOpticsLength(t *testing.T) {
	lc := LayerCfg{Height: 2, Thickness: 1, LAI: 3,
		Optics: &OpticsCfg{Reflectance: make([]Real, 3), Transmittance: make([]Real, 3), Absorptance: make([]Real, 3)}}
	if _, err := lc.Build(); err == nil {
		t.Fatal("mismatched optics arrays must fail before tracing")
	}
}

func TestBuildUnknownSpeciesWarnsToGeneric(t *testing.T) {
	quietWarnings(t)
	lc := LayerCfg{Height: 2, Thickness: 1, LAI: 3, Species: "orchid"}
	l, err := lc.Build()
	if err != nil {
		t.Fatalf("unknown species must warn, not fail: %v", err)
	}
	if l.Species != SpeciesGeneric {
		t.Fatalf("unknown species maps to generic, got %v", l.Species)
	}
}

func TestBuildCustomDistribution(t *testing.T) {
	lc := LayerCfg{Height: 2, Thickness: 1, LAI: 3, Distribution: "custom", MeanAngleDeg: 60, Beta: 4}
	l, err := lc.Build()
	if err != nil {
		t.Fatal(err)
	}
	if g := l.Dist.G(); g < 0.99 || g > 1.01 {
		t.Fatalf("custom 60° G=%g, want 1.0", g)
	}
}

func TestBuildLightSpectra(t *testing.T) {
	for _, name := range []string{"", "flat", "warmwhite", "coolwhite"} {
		lc := LightCfg{X: 1, Y: 1, Z: 2, Intensity: 100, Spectrum: name}
		if _, err := lc.Build(); err != nil {
			t.Fatalf("spectrum %q: %v", name, err)
		}
	}
	lc := LightCfg{X: 1, Y: 1, Z: 2, Intensity: 100, Spectrum: "neon"}
	if _, err := lc.Build(); err == nil {
		t.Fatal("unknown spectrum name must fail")
	}
}
