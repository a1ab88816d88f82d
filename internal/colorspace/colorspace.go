// Package colorspace provides the RGB/HSL conversions and color parsing used by
// the color-shift, duotone and double-exposure stages.
//
// # Ranges
//
// Unlike the 0-360/0-100 integer HSL reported to users, the functions here
// work on normalized floats:
//   - H: hue as a fraction of a full turn, [0, 1)
//   - S: saturation, [0, 1]
//   - L: lightness, [0, 1]
//
// Conversions are delegated to go-colorful; this package adds the wrapping,
// clamping and 8-bit quantization rules the effects depend on.
package colorspace

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// HSL is a color in normalized HSL space.
type HSL struct {
	H float64 // Hue: [0, 1), fraction of a turn (0=red, 1/3=green, 2/3=blue)
	S float64 // Saturation: [0, 1]
	L float64 // Lightness: [0, 1]
}

// RGBToHSL converts 8-bit RGB to normalized HSL.
func RGBToHSL(r, g, b uint8) HSL {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	return HSL{H: wrapUnit(h / 360), S: s, L: l}
}

// HSLToRGB converts normalized HSL back to 8-bit RGB.
func HSLToRGB(c HSL) (r, g, b uint8) {
	col := colorful.Hsl(wrapUnit(c.H)*360, clampUnit(c.S), clampUnit(c.L))
	return col.Clamped().RGB255()
}

// ShiftHSL adds hueShift degrees to the hue (wrapping into [0,1)) and
// saturationShift percent to the saturation (clamped to [0,1]). Lightness is
// untouched. Zero shifts return the input unchanged.
func ShiftHSL(r, g, b uint8, hueShift, saturationShift float64) (uint8, uint8, uint8) {
	if hueShift == 0 && saturationShift == 0 {
		return r, g, b
	}
	c := RGBToHSL(r, g, b)
	c.H = wrapUnit(c.H + hueShift/360)
	c.S = clampUnit(c.S + saturationShift/100)
	return HSLToRGB(c)
}

// InvertLightness mirrors the lightness of a color (L -> 1-L) while keeping
// its hue and saturation.
func InvertLightness(r, g, b uint8) (uint8, uint8, uint8) {
	c := RGBToHSL(r, g, b)
	c.L = 1 - c.L
	return HSLToRGB(c)
}

// Luminance returns the Rec. 601 luma of an 8-bit color in [0, 1].
func Luminance(r, g, b uint8) float64 {
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
}

// Mix interpolates between two colors in RGB space; t=0 returns a, t=1 returns b.
func Mix(a, b color.NRGBA, t float64) color.NRGBA {
	ca := colorful.Color{R: float64(a.R) / 255, G: float64(a.G) / 255, B: float64(a.B) / 255}
	cb := colorful.Color{R: float64(b.R) / 255, G: float64(b.G) / 255, B: float64(b.B) / 255}
	r, g, bl := ca.BlendRgb(cb, clampUnit(t)).Clamped().RGB255()
	alpha := float64(a.A) + (float64(b.A)-float64(a.A))*clampUnit(t)
	return color.NRGBA{R: r, G: g, B: bl, A: uint8(math.Round(alpha))}
}

// ParseColor parses "#RGB", "#RRGGBB", "#RRGGBBAA", "rgb(r,g,b)",
// "rgba(r,g,b,a)", "transparent" and a few CSS color names into a
// non-premultiplied color. The rgba alpha is in [0,1].
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if named, ok := namedColors[s]; ok {
		return named, nil
	}
	if strings.HasPrefix(s, "rgb") {
		return parseFunctional(s)
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	switch len(s) {
	case 4, 7:
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		r, g, b := c.Clamped().RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
	case 9:
		val, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		return color.NRGBA{
			R: uint8(val >> 24),
			G: uint8(val >> 16),
			B: uint8(val >> 8),
			A: uint8(val),
		}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length %q", s)
	}
}

// parseFunctional parses the CSS rgb() and rgba() forms.
func parseFunctional(s string) (color.NRGBA, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end != len(s)-1 {
		return color.NRGBA{}, fmt.Errorf("invalid color function %q", s)
	}
	name := strings.TrimSpace(s[:open])
	parts := strings.Split(s[open+1:end], ",")
	switch {
	case name == "rgb" && len(parts) == 3, name == "rgba" && len(parts) == 4:
	default:
		return color.NRGBA{}, fmt.Errorf("invalid color function %q", s)
	}

	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || v < 0 || v > 255 {
			return color.NRGBA{}, fmt.Errorf("invalid channel %q in %q", parts[i], s)
		}
		ch[i] = uint8(math.Round(v))
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{}, fmt.Errorf("invalid alpha %q in %q", parts[3], s)
		}
		alpha = uint8(math.Round(a * 255))
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

// ParseColorOr parses s, returning fallback when s is empty or malformed.
func ParseColorOr(s string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

// Hex formats a color as "#RRGGBB" (alpha excluded).
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
}

// WithOpacity scales the alpha of c by opacity in [0,1].
func WithOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * clampUnit(opacity)))
	return c
}

var namedColors = map[string]color.NRGBA{
	"transparent": {},
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"black":       {A: 255},
	"red":         {R: 255, A: 255},
	"green":       {G: 128, A: 255},
	"blue":        {B: 255, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
}

func wrapUnit(v float64) float64 {
	v = math.Mod(v, 1)
	if v < 0 {
		v++
	}
	if v >= 1 {
		v = 0
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
