// Package settings is the typed description of one render: the layout, the
// canvas, and every optional per-image adjustment, decoration and effect.
//
// Every optional sub-object defaults to "absent". A decoded Settings is
// normalized once (ranges clamped, rotations wrapped, defaults applied) so
// the render stages never re-validate.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
)

// LayoutKind selects the Layout Resolver algorithm.
type LayoutKind string

const (
	LayoutSingle     LayoutKind = "single"
	LayoutHorizontal LayoutKind = "horizontal"
	LayoutVertical   LayoutKind = "vertical"
	LayoutGrid       LayoutKind = "grid"
	LayoutCollage1   LayoutKind = "collage1"
	LayoutCollage2   LayoutKind = "collage2"
	LayoutOverlay    LayoutKind = "overlay"
	LayoutDiagonal   LayoutKind = "diagonal"
	LayoutCircular   LayoutKind = "circular"
	LayoutStacked    LayoutKind = "stacked"
	LayoutMosaic     LayoutKind = "mosaic"
)

// LayoutKinds lists every supported layout in declaration order.
var LayoutKinds = []LayoutKind{
	LayoutSingle, LayoutHorizontal, LayoutVertical, LayoutGrid, LayoutCollage1,
	LayoutCollage2, LayoutOverlay, LayoutDiagonal, LayoutCircular, LayoutStacked,
	LayoutMosaic,
}

// Valid reports whether k is a known layout.
func (k LayoutKind) Valid() bool {
	for _, known := range LayoutKinds {
		if k == known {
			return true
		}
	}
	return false
}

// OverlayStyle reports whether the layout composites its layers on top of a
// full-canvas base with a blend mode.
func (k LayoutKind) OverlayStyle() bool {
	return k == LayoutOverlay || k == LayoutDiagonal
}

// BlendMode is a pixel-combination function used when compositing two layers.
type BlendMode string

const (
	BlendNormal    BlendMode = "normal"
	BlendMultiply  BlendMode = "multiply"
	BlendScreen    BlendMode = "screen"
	BlendOverlay   BlendMode = "overlay"
	BlendDarken    BlendMode = "darken"
	BlendLighten   BlendMode = "lighten"
	BlendSoftLight BlendMode = "soft-light"
	BlendHardLight BlendMode = "hard-light"
)

// OrDefault returns m, or normal when m is empty or unknown.
func (m BlendMode) OrDefault() BlendMode {
	switch m {
	case BlendNormal, BlendMultiply, BlendScreen, BlendOverlay, BlendDarken,
		BlendLighten, BlendSoftLight, BlendHardLight:
		return m
	}
	return BlendNormal
}

// CanvasSettings describes the output raster.
type CanvasSettings struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	BackgroundColor string `json:"backgroundColor"`

	// Transparent is honoured by export only; it overrides BackgroundColor.
	Transparent bool `json:"transparentBackground,omitempty"`
}

// VisualEffects carries the layout decoration applied to tiled layouts.
type VisualEffects struct {
	Margin       float64 `json:"margin"`
	BorderRadius float64 `json:"borderRadius"`
	BorderWidth  float64 `json:"borderWidth"`
	BorderColor  string  `json:"borderColor"`
}

// Settings is the full render description for one call.
type Settings struct {
	Layout    LayoutKind     `json:"layout"`
	Canvas    CanvasSettings `json:"canvasSettings"`
	BlendMode BlendMode      `json:"blendMode,omitempty"`

	Overlay       *OverlaySettings `json:"overlaySettings,omitempty"`
	VisualEffects *VisualEffects   `json:"visualEffects,omitempty"`
	Filters       *FilterSettings  `json:"filters,omitempty"`

	Transparency map[int]float64        `json:"imageTransparency,omitempty"`
	Transforms   map[int]ImageTransform `json:"imageTransforms,omitempty"`
	Crops        map[int]Crop           `json:"imageCrops,omitempty"`
	Masks        map[int]ImageMask      `json:"imageMasks,omitempty"`

	TextLayers    []TextLayer     `json:"textLayers,omitempty"`
	StickerLayers []StickerLayer  `json:"stickerLayers,omitempty"`
	Drawings      []DrawingStroke `json:"drawingLayers,omitempty"`

	Glitch         *GlitchEffects          `json:"glitchEffects,omitempty"`
	DoubleExposure *DoubleExposureSettings `json:"doubleExposureSettings,omitempty"`
	Shadow         *ShadowSettings         `json:"shadowSettings,omitempty"`
	Bokeh          *BokehSettings          `json:"bokehSettings,omitempty"`
	Duotone        *DuotoneSettings        `json:"duotoneSettings,omitempty"`
	LightLeaks     []LightLeakOverlay      `json:"lightLeaks,omitempty"`
}

// Parse decodes and normalizes a settings JSON document.
func Parse(data []byte) (*Settings, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a settings JSON document from r and normalizes it.
func Decode(r io.Reader) (*Settings, error) {
	var s Settings
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "settings.decode", err)
	}
	if err := s.Normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Normalize validates the mandatory fields and clamps every optional
// parameter into its documented range. Only an invalid canvas or layout is
// an error; everything else is corrected in place.
func (s *Settings) Normalize() error {
	if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
		return &apperrors.RenderContextError{
			Op:  "settings.canvas",
			Err: fmt.Errorf("%w: got %dx%d", apperrors.ErrInvalidCanvas, s.Canvas.Width, s.Canvas.Height),
		}
	}
	if s.Layout == "" {
		s.Layout = LayoutSingle
	}
	if !s.Layout.Valid() {
		return apperrors.New(apperrors.CategoryInput, "settings.layout", fmt.Errorf("unknown layout %q", s.Layout))
	}
	if s.Canvas.BackgroundColor == "" {
		s.Canvas.BackgroundColor = "#FFFFFF"
	}
	s.BlendMode = s.BlendMode.OrDefault()

	if s.Overlay != nil {
		s.Overlay.normalize()
	}
	if s.VisualEffects != nil {
		ve := s.VisualEffects
		ve.Margin = math.Max(0, ve.Margin)
		ve.BorderRadius = math.Max(0, ve.BorderRadius)
		ve.BorderWidth = math.Max(0, ve.BorderWidth)
	}
	if s.Filters != nil {
		s.Filters.normalize()
	}
	for i, v := range s.Transparency {
		s.Transparency[i] = clamp(v, 0, 1)
	}
	for i, t := range s.Transforms {
		t.Rotation = NormalizeDegrees(t.Rotation)
		s.Transforms[i] = t
	}
	for i, m := range s.Masks {
		m.normalize()
		s.Masks[i] = m
	}
	for i := range s.TextLayers {
		s.TextLayers[i].normalize()
	}
	for i := range s.StickerLayers {
		s.StickerLayers[i].normalize()
	}
	for i := range s.Drawings {
		s.Drawings[i].normalize()
	}
	if s.Glitch != nil {
		s.Glitch.normalize()
	}
	if s.DoubleExposure != nil {
		s.DoubleExposure.normalize()
	}
	if s.Shadow != nil {
		s.Shadow.normalize()
	}
	if s.Bokeh != nil {
		s.Bokeh.normalize()
	}
	if s.Duotone != nil {
		s.Duotone.normalize()
	}
	for i := range s.LightLeaks {
		s.LightLeaks[i].normalize()
	}
	return nil
}

// Margin returns the tiled-layout margin in pixels.
func (s *Settings) Margin() float64 {
	if s.VisualEffects == nil {
		return 0
	}
	return s.VisualEffects.Margin
}

// OpacityFor returns the per-image opacity for index i (default 1).
func (s *Settings) OpacityFor(i int) float64 {
	if v, ok := s.Transparency[i]; ok {
		return v
	}
	return 1
}

// NormalizeDegrees wraps any real angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
