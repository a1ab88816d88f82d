package settings

import (
	"encoding/json"
	"image"
	"math"
	"strconv"
	"strings"
)

// OverlaySettings places the second layer of an overlay-style layout.
type OverlaySettings struct {
	Opacity  float64 `json:"opacity"`  // 0..1
	X        float64 `json:"x"`        // px offset of the overlay centre from the canvas centre
	Y        float64 `json:"y"`        // px offset of the overlay centre from the canvas centre
	Scale    float64 `json:"scale"`    // 1 = cover the canvas
	Rotation float64 `json:"rotation"` // degrees, clockwise
}

// UnmarshalJSON applies defaults for fields absent from the document.
func (o *OverlaySettings) UnmarshalJSON(b []byte) error {
	type alias OverlaySettings
	a := alias{Opacity: 1, Scale: 1}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*o = OverlaySettings(a)
	return nil
}

func (o *OverlaySettings) normalize() {
	o.Opacity = clamp(o.Opacity, 0, 1)
	if o.Scale <= 0 {
		o.Scale = 1
	}
	o.Rotation = NormalizeDegrees(o.Rotation)
}

// FilterSettings are CSS-filter style sliders. Percentages follow CSS:
// brightness/contrast/saturation 100 is identity, the rest 0 is identity.
type FilterSettings struct {
	Brightness float64 `json:"brightness"` // percent, 0..300
	Contrast   float64 `json:"contrast"`   // percent, 0..300
	Saturation float64 `json:"saturation"` // percent, 0..300
	Blur       float64 `json:"blur"`       // px, 0..50
	HueRotate  float64 `json:"hueRotate"`  // degrees
	Grayscale  float64 `json:"grayscale"`  // percent, 0..100
	Sepia      float64 `json:"sepia"`      // percent, 0..100
	Invert     float64 `json:"invert"`     // percent, 0..100
}

// DefaultFilters returns the identity filter.
func DefaultFilters() FilterSettings {
	return FilterSettings{Brightness: 100, Contrast: 100, Saturation: 100}
}

// UnmarshalJSON applies identity defaults for absent sliders.
func (f *FilterSettings) UnmarshalJSON(b []byte) error {
	type alias FilterSettings
	a := alias(DefaultFilters())
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*f = FilterSettings(a)
	return nil
}

// IsIdentity reports whether applying f would leave an image unchanged.
func (f FilterSettings) IsIdentity() bool {
	return f.Brightness == 100 && f.Contrast == 100 && f.Saturation == 100 && f.Blur == 0 &&
		math.Mod(f.HueRotate, 360) == 0 && f.Grayscale == 0 && f.Sepia == 0 && f.Invert == 0
}

func (f *FilterSettings) normalize() {
	f.Brightness = clamp(f.Brightness, 0, 300)
	f.Contrast = clamp(f.Contrast, 0, 300)
	f.Saturation = clamp(f.Saturation, 0, 300)
	f.Blur = clamp(f.Blur, 0, 50)
	f.HueRotate = NormalizeDegrees(f.HueRotate)
	f.Grayscale = clamp(f.Grayscale, 0, 100)
	f.Sepia = clamp(f.Sepia, 0, 100)
	f.Invert = clamp(f.Invert, 0, 100)
}

// ImageTransform orients one image before placement.
type ImageTransform struct {
	Rotation       float64 `json:"rotation"` // degrees, normalized to [0,360)
	FlipHorizontal bool    `json:"flipHorizontal"`
	FlipVertical   bool    `json:"flipVertical"`
}

// IsIdentity reports whether t leaves the image unchanged.
func (t ImageTransform) IsIdentity() bool {
	return t.Rotation == 0 && !t.FlipHorizontal && !t.FlipVertical
}

// CropUnit selects how Crop coordinates are interpreted.
type CropUnit string

const (
	CropPixels     CropUnit = "px"
	CropNormalized CropUnit = "normalized" // 0..1 of the source size
	CropPercent    CropUnit = "%"          // 0..100 of the source size
)

// Crop selects a sub-rectangle of a source image.
type Crop struct {
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Unit   CropUnit `json:"unit,omitempty"`
}

// Rect resolves the crop against a source of the given bounds. ok is false
// when the crop is degenerate or leaves the source; callers then fall back to
// the full image.
func (c Crop) Rect(bounds image.Rectangle) (r image.Rectangle, ok bool) {
	x, y, w, h := c.X, c.Y, c.Width, c.Height
	switch c.Unit {
	case CropNormalized:
		x, w = x*float64(bounds.Dx()), w*float64(bounds.Dx())
		y, h = y*float64(bounds.Dy()), h*float64(bounds.Dy())
	case CropPercent:
		x, w = x*float64(bounds.Dx())/100, w*float64(bounds.Dx())/100
		y, h = y*float64(bounds.Dy())/100, h*float64(bounds.Dy())/100
	}
	if !(w > 0 && h > 0) || x < 0 || y < 0 {
		return bounds, false
	}
	r = image.Rect(
		bounds.Min.X+int(math.Round(x)),
		bounds.Min.Y+int(math.Round(y)),
		bounds.Min.X+int(math.Round(x+w)),
		bounds.Min.Y+int(math.Round(y+h)),
	)
	if r.Empty() || !r.In(bounds) {
		return bounds, false
	}
	return r, true
}

// MaskShape is a fixed clip shape for an image.
type MaskShape string

const (
	MaskNone     MaskShape = "none"
	MaskCircle   MaskShape = "circle"
	MaskHeart    MaskShape = "heart"
	MaskStar     MaskShape = "star"
	MaskPentagon MaskShape = "pentagon"
	MaskHexagon  MaskShape = "hexagon"
	MaskSquare   MaskShape = "square"
)

// GradientDirection selects the gradient mask geometry.
type GradientDirection string

const (
	GradientHorizontal GradientDirection = "horizontal"
	GradientVertical   GradientDirection = "vertical"
	GradientRadial     GradientDirection = "radial"
	GradientDiagonal   GradientDirection = "diagonal"
)

// ImageMask reduces an image's alpha by a shape, a gradient, or both.
type ImageMask struct {
	Shape             MaskShape         `json:"shape"`
	CustomPath        string            `json:"customPath,omitempty"`
	GradientEnabled   bool              `json:"gradientEnabled"`
	GradientDirection GradientDirection `json:"gradientDirection"`
	GradientStart     float64           `json:"gradientStart"` // opacity percent 0..100
	GradientEnd       float64           `json:"gradientEnd"`   // opacity percent 0..100
	Feather           float64           `json:"feather"`       // px 0..50
	Invert            bool              `json:"invert"`
}

// UnmarshalJSON applies defaults for absent fields.
func (m *ImageMask) UnmarshalJSON(b []byte) error {
	type alias ImageMask
	a := alias{Shape: MaskNone, GradientDirection: GradientHorizontal, GradientStart: 100, GradientEnd: 0}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*m = ImageMask(a)
	return nil
}

// Active reports whether the mask changes alpha at all.
func (m ImageMask) Active() bool {
	return m.HasShape() || m.GradientEnabled || m.Invert
}

// HasShape reports whether a shape or custom path clip applies.
func (m ImageMask) HasShape() bool {
	return (m.Shape != "" && m.Shape != MaskNone) || m.CustomPath != ""
}

func (m *ImageMask) normalize() {
	switch m.Shape {
	case MaskCircle, MaskHeart, MaskStar, MaskPentagon, MaskHexagon, MaskSquare:
	default:
		m.Shape = MaskNone
	}
	switch m.GradientDirection {
	case GradientHorizontal, GradientVertical, GradientRadial, GradientDiagonal:
	default:
		m.GradientDirection = GradientHorizontal
	}
	m.GradientStart = clamp(m.GradientStart, 0, 100)
	m.GradientEnd = clamp(m.GradientEnd, 0, 100)
	m.Feather = clamp(m.Feather, 0, 50)
}

// Point is a 2D position in canvas pixels, or in unit space for custom paths.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParseCustomPath parses a polygon written as "x,y x,y ..." in unit
// coordinates (0..1 of the mask box). An optional leading "M" and trailing
// "Z" are accepted. Fewer than three points yields nil.
func ParseCustomPath(path string) []Point {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(strings.TrimPrefix(path, "M"), "m")
	path = strings.TrimSuffix(strings.TrimSuffix(path, "Z"), "z")
	fields := strings.FieldsFunc(path, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == 'L' || r == 'l'
	})

	points := make([]Point, 0, len(fields))
	for _, f := range fields {
		xy := strings.Split(f, ",")
		if len(xy) != 2 {
			return nil
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if errX != nil || errY != nil {
			return nil
		}
		points = append(points, Point{X: x, Y: y})
	}
	if len(points) < 3 {
		return nil
	}
	return points
}
