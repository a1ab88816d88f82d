package settings

import (
	"encoding/json"
	"math"
)

// RGBSplit shifts red right and blue left by Intensity pixels.
type RGBSplit struct {
	Enabled   bool    `json:"enabled"`
	Intensity float64 `json:"intensity"` // px
}

// Scanlines overlays Count dark horizontal bands.
type Scanlines struct {
	Enabled   bool    `json:"enabled"`
	Count     int     `json:"count"`
	Intensity float64 `json:"intensity"` // percent black opacity
}

// Distortion offsets Frequency horizontal strips by up to Intensity pixels.
type Distortion struct {
	Enabled   bool    `json:"enabled"`
	Intensity float64 `json:"intensity"` // px
	Frequency int     `json:"frequency"` // strip count
}

// Noise adds uniform per-channel noise.
type Noise struct {
	Enabled   bool    `json:"enabled"`
	Intensity float64 `json:"intensity"` // 0..255
}

// ColorShift rotates hue and shifts saturation in HSL space.
type ColorShift struct {
	Enabled         bool    `json:"enabled"`
	HueShift        float64 `json:"hueShift"`        // degrees
	SaturationShift float64 `json:"saturationShift"` // percent
}

// GlitchEffects groups the glitch sub-effects behind a master switch.
type GlitchEffects struct {
	Enabled bool `json:"enabled"`

	// Seed makes the random sub-effects reproducible when non-zero.
	Seed int64 `json:"seed,omitempty"`

	RGBSplit   RGBSplit   `json:"rgbSplit"`
	Scanlines  Scanlines  `json:"scanlines"`
	Distortion Distortion `json:"distortion"`
	Noise      Noise      `json:"noise"`
	ColorShift ColorShift `json:"colorShift"`
}

func (g *GlitchEffects) normalize() {
	g.RGBSplit.Intensity = math.Max(0, g.RGBSplit.Intensity)
	if g.Scanlines.Count < 0 {
		g.Scanlines.Count = 0
	}
	g.Scanlines.Intensity = clamp(g.Scanlines.Intensity, 0, 100)
	g.Distortion.Intensity = math.Max(0, g.Distortion.Intensity)
	if g.Distortion.Frequency < 0 {
		g.Distortion.Frequency = 0
	}
	g.Noise.Intensity = clamp(g.Noise.Intensity, 0, 255)
}

// RGBSplitActive reports whether the RGB split sub-effect runs.
func (g *GlitchEffects) RGBSplitActive() bool { return g != nil && g.Enabled && g.RGBSplit.Enabled }

// ScanlinesActive reports whether the scanlines sub-effect runs.
func (g *GlitchEffects) ScanlinesActive() bool {
	return g != nil && g.Enabled && g.Scanlines.Enabled
}

// DistortionActive reports whether the distortion sub-effect runs.
func (g *GlitchEffects) DistortionActive() bool {
	return g != nil && g.Enabled && g.Distortion.Enabled
}

// NoiseActive reports whether the noise sub-effect runs.
func (g *GlitchEffects) NoiseActive() bool { return g != nil && g.Enabled && g.Noise.Enabled }

// ColorShiftActive reports whether the color shift sub-effect runs.
func (g *GlitchEffects) ColorShiftActive() bool {
	return g != nil && g.Enabled && g.ColorShift.Enabled
}

// Active reports whether any glitch sub-effect runs.
func (g *GlitchEffects) Active() bool {
	return g.RGBSplitActive() || g.ScanlinesActive() || g.DistortionActive() ||
		g.NoiseActive() || g.ColorShiftActive()
}

// DoubleExposureSettings replaces the layout draw with a two-image blend.
type DoubleExposureSettings struct {
	Enabled           bool      `json:"enabled"`
	BaseImageIndex    int       `json:"baseImageIndex"`
	OverlayImageIndex int       `json:"overlayImageIndex"`
	BlendMode         BlendMode `json:"blendMode"`
	Opacity           float64   `json:"opacity"`
	Scale             float64   `json:"scale"`
	OffsetX           float64   `json:"offsetX"`
	OffsetY           float64   `json:"offsetY"`
	Rotation          float64   `json:"rotation"`
	Invert            bool      `json:"invert"`
}

// UnmarshalJSON applies defaults for absent fields.
func (d *DoubleExposureSettings) UnmarshalJSON(b []byte) error {
	type alias DoubleExposureSettings
	a := alias{OverlayImageIndex: 1, BlendMode: BlendScreen, Opacity: 0.5, Scale: 1}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = DoubleExposureSettings(a)
	return nil
}

// Active reports whether double exposure replaces the layout draw.
func (d *DoubleExposureSettings) Active() bool { return d != nil && d.Enabled }

func (d *DoubleExposureSettings) normalize() {
	d.BlendMode = d.BlendMode.OrDefault()
	d.Opacity = clamp(d.Opacity, 0, 1)
	if d.Scale <= 0 {
		d.Scale = 1
	}
	d.Rotation = NormalizeDegrees(d.Rotation)
	if d.BaseImageIndex < 0 {
		d.BaseImageIndex = 0
	}
	if d.OverlayImageIndex < 0 {
		d.OverlayImageIndex = 0
	}
}

// ShadowType selects the shadow synthesis recipe.
type ShadowType string

const (
	ShadowDrop   ShadowType = "drop"
	ShadowInner  ShadowType = "inner"
	ShadowAngle  ShadowType = "angle"
	ShadowCurved ShadowType = "curved"
)

// ShadowSettings synthesizes a shadow behind or around the composited content.
type ShadowSettings struct {
	Enabled  bool       `json:"enabled"`
	Type     ShadowType `json:"type"`
	Blur     float64    `json:"blur"`
	OffsetX  float64    `json:"offsetX"`
	OffsetY  float64    `json:"offsetY"`
	Color    string     `json:"color"`
	Opacity  float64    `json:"opacity"`
	Spread   float64    `json:"spread"`
	Angle    float64    `json:"angle"` // degrees, 0 = right, 90 = down
	Distance float64    `json:"distance"`
	Curve    float64    `json:"curve"`
}

// UnmarshalJSON applies defaults for absent fields.
func (s *ShadowSettings) UnmarshalJSON(b []byte) error {
	type alias ShadowSettings
	a := alias{Type: ShadowDrop, Blur: 10, Color: "#000000", Opacity: 0.5, Angle: 45}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*s = ShadowSettings(a)
	return nil
}

// Active reports whether the shadow stage runs.
func (s *ShadowSettings) Active() bool { return s != nil && s.Enabled && s.Opacity > 0 }

// Offset returns the shadow displacement: explicit offsets when set,
// otherwise Distance along Angle.
func (s *ShadowSettings) Offset() (dx, dy float64) {
	if s.OffsetX != 0 || s.OffsetY != 0 {
		return s.OffsetX, s.OffsetY
	}
	rad := s.Angle * math.Pi / 180
	return s.Distance * math.Cos(rad), s.Distance * math.Sin(rad)
}

func (s *ShadowSettings) normalize() {
	switch s.Type {
	case ShadowDrop, ShadowInner, ShadowAngle, ShadowCurved:
	default:
		s.Type = ShadowDrop
	}
	s.Blur = clamp(s.Blur, 0, 200)
	s.Opacity = clamp(s.Opacity, 0, 1)
	s.Spread = math.Max(0, s.Spread)
	s.Distance = math.Max(0, s.Distance)
	s.Angle = NormalizeDegrees(s.Angle)
}

// BokehShape selects the aperture kernel.
type BokehShape string

const (
	BokehCircle  BokehShape = "circle"
	BokehHexagon BokehShape = "hexagon"
	BokehOctagon BokehShape = "octagon"
)

// BokehQuality trades kernel cost for fidelity.
type BokehQuality string

const (
	QualityLow    BokehQuality = "low"
	QualityMedium BokehQuality = "medium"
	QualityHigh   BokehQuality = "high"
)

// BokehSettings applies depth-of-field blur away from a focal area.
type BokehSettings struct {
	Enabled     bool         `json:"enabled"`
	Intensity   float64      `json:"intensity"`   // 0..100
	FocalPointX float64      `json:"focalPointX"` // percent of width
	FocalPointY float64      `json:"focalPointY"` // percent of height
	FocalSize   float64      `json:"focalSize"`   // percent of the shorter side
	Shape       BokehShape   `json:"shape"`
	Quality     BokehQuality `json:"quality"`
}

// UnmarshalJSON applies defaults for absent fields.
func (b *BokehSettings) UnmarshalJSON(data []byte) error {
	type alias BokehSettings
	a := alias{Intensity: 50, FocalPointX: 50, FocalPointY: 50, FocalSize: 30, Shape: BokehCircle, Quality: QualityMedium}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*b = BokehSettings(a)
	return nil
}

// Active reports whether the bokeh stage runs.
func (b *BokehSettings) Active() bool { return b != nil && b.Enabled && b.Intensity > 0 }

func (b *BokehSettings) normalize() {
	b.Intensity = clamp(b.Intensity, 0, 100)
	b.FocalPointX = clamp(b.FocalPointX, 0, 100)
	b.FocalPointY = clamp(b.FocalPointY, 0, 100)
	b.FocalSize = clamp(b.FocalSize, 0, 100)
	switch b.Shape {
	case BokehCircle, BokehHexagon, BokehOctagon:
	default:
		b.Shape = BokehCircle
	}
	switch b.Quality {
	case QualityLow, QualityMedium, QualityHigh:
	default:
		b.Quality = QualityMedium
	}
}

// DuotoneSettings remaps luminance onto a shadow-to-highlight gradient.
type DuotoneSettings struct {
	Enabled        bool    `json:"enabled"`
	ShadowColor    string  `json:"shadowColor"`
	HighlightColor string  `json:"highlightColor"`
	Intensity      float64 `json:"intensity"` // 0..100
	Contrast       float64 `json:"contrast"`  // -100..100
}

// UnmarshalJSON applies defaults for absent fields.
func (d *DuotoneSettings) UnmarshalJSON(b []byte) error {
	type alias DuotoneSettings
	a := alias{ShadowColor: "#1B1464", HighlightColor: "#F7B733", Intensity: 100}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = DuotoneSettings(a)
	return nil
}

// Active reports whether the duotone stage runs.
func (d *DuotoneSettings) Active() bool { return d != nil && d.Enabled && d.Intensity > 0 }

func (d *DuotoneSettings) normalize() {
	d.Intensity = clamp(d.Intensity, 0, 100)
	d.Contrast = clamp(d.Contrast, -100, 100)
}

// LightLeakOverlay is a decorative overlay asset drawn last.
type LightLeakOverlay struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Enabled   bool      `json:"enabled"`
	Opacity   float64   `json:"opacity"`
	BlendMode BlendMode `json:"blendMode"`
	X         float64   `json:"x"` // px, centre
	Y         float64   `json:"y"` // px, centre
	Scale     float64   `json:"scale"`
	Rotation  float64   `json:"rotation"`

	// positioned is set when the document carried x or y.
	positioned bool
}

// UnmarshalJSON applies defaults for absent fields.
func (l *LightLeakOverlay) UnmarshalJSON(b []byte) error {
	type alias LightLeakOverlay
	a := alias{Enabled: true, Opacity: 0.6, BlendMode: BlendScreen, Scale: 1}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var probe struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	_ = json.Unmarshal(b, &probe)
	*l = LightLeakOverlay(a)
	l.positioned = probe.X != nil || probe.Y != nil
	return nil
}

// Positioned reports whether the overlay carries an explicit centre. Without
// one it is centred on the canvas.
func (l *LightLeakOverlay) Positioned() bool { return l.positioned }

// SetCenter places the overlay centre explicitly.
func (l *LightLeakOverlay) SetCenter(x, y float64) {
	l.X, l.Y = x, y
	l.positioned = true
}

func (l *LightLeakOverlay) normalize() {
	l.Opacity = clamp(l.Opacity, 0, 1)
	switch l.BlendMode {
	case BlendScreen, BlendOverlay, BlendSoftLight, BlendLighten, BlendNormal:
	default:
		l.BlendMode = BlendScreen
	}
	if l.Scale <= 0 {
		l.Scale = 1
	}
	l.Rotation = NormalizeDegrees(l.Rotation)
}
