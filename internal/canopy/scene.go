package canopy

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Room is the axis-aligned grow-room box [0,Width]×[0,Depth]×[0,Height]
// with a shared diffuse wall reflectance on all six faces.
type Room struct {
	Width  Real // x extent, m
	Depth  Real // y extent, m
	Height Real // z extent, m

	WallReflectance Spectrum
	WallsDiffuse    bool
}

// NewRoom builds a room with a wavelength-flat wall reflectance.
func NewRoom(width, depth, height, reflectance Real) Room {
	return Room{
		Width:           width,
		Depth:           depth,
		Height:          height,
		WallReflectance: NewFlatSpectrum(clamp01(reflectance)),
		WallsDiffuse:    true,
	}
}

func (r *Room) contains(p r3.Vec) bool {
	return p.X >= 0 && p.X <= r.Width &&
		p.Y >= 0 && p.Y <= r.Depth &&
		p.Z >= 0 && p.Z <= r.Height
}

// Scene owns the room, the ordered canopy stack and the light sources built
// for one tracing run. It is immutable while Trace runs.
type Scene struct {
	Room   Room
	Layers []*Layer // strictly top-to-bottom (descending height)
	Lights []*LightSource
}

func NewScene(room Room) *Scene {
	if len(room.WallReflectance) != SpectrumBins {
		room.WallReflectance = NewSpectrum()
	}
	return &Scene{Room: room}
}

// AddLayer registers a canopy layer, keeps the stack sorted top-to-bottom
// and pre-builds the layer's leaf-angle sampling table, which is treated as
// immutable from here on.
func (s *Scene) AddLayer(l *Layer) {
	l.Dist.buildLUT()
	s.Layers = append(s.Layers, l)
	sort.SliceStable(s.Layers, func(i, j int) bool {
		return s.Layers[i].Height > s.Layers[j].Height
	})
	DebugLog("registered layer h=%.2fm t=%.2fm LAI=%.2f dist=%s species=%s plants=%d",
		l.Height, l.Thickness, l.LAI, l.Dist.Kind, l.Species, len(l.Plants))
}

func (s *Scene) AddLightSource(l *LightSource) {
	s.Lights = append(s.Lights, l)
	DebugLog("registered light at (%.2f, %.2f, %.2f) intensity=%.1f angular=%s",
		l.Position.X, l.Position.Y, l.Position.Z, l.Intensity, l.Angular)
}
