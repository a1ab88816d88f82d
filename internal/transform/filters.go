package transform

import (
	"image"
	"math"

	"github.com/disintegration/gift"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// matrix is a 3x3 RGB color matrix applied to unpremultiplied channels.
type matrix [3][3]float32

func (m *matrix) apply(r, g, b float32) (float32, float32, float32) {
	return clamp01(m[0][0]*r + m[0][1]*g + m[0][2]*b),
		clamp01(m[1][0]*r + m[1][1]*g + m[1][2]*b),
		clamp01(m[2][0]*r + m[2][1]*g + m[2][2]*b)
}

func saturateMatrix(s float64) *matrix {
	v := float32(s)
	return &matrix{
		{0.213 + 0.787*v, 0.715 - 0.715*v, 0.072 - 0.072*v},
		{0.213 - 0.213*v, 0.715 + 0.285*v, 0.072 - 0.072*v},
		{0.213 - 0.213*v, 0.715 - 0.715*v, 0.072 + 0.928*v},
	}
}

func hueRotateMatrix(deg float64) *matrix {
	rad := deg * math.Pi / 180
	c, s := float32(math.Cos(rad)), float32(math.Sin(rad))
	return &matrix{
		{0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928},
		{0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283},
		{0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072},
	}
}

func grayscaleMatrix(amount float64) *matrix {
	k := float32(1 - amount)
	return &matrix{
		{0.2126 + 0.7874*k, 0.7152 - 0.7152*k, 0.0722 - 0.0722*k},
		{0.2126 - 0.2126*k, 0.7152 + 0.2848*k, 0.0722 - 0.0722*k},
		{0.2126 - 0.2126*k, 0.7152 - 0.7152*k, 0.0722 + 0.9278*k},
	}
}

func sepiaMatrix(amount float64) *matrix {
	k := float32(1 - amount)
	return &matrix{
		{0.393 + 0.607*k, 0.769 - 0.769*k, 0.189 - 0.189*k},
		{0.349 - 0.349*k, 0.686 + 0.314*k, 0.168 - 0.168*k},
		{0.272 - 0.272*k, 0.534 - 0.534*k, 0.131 + 0.869*k},
	}
}

// colorStep is one CSS color filter function.
type colorStep func(r, g, b float32) (float32, float32, float32)

// colorSteps builds the CSS color functions in filter-string order:
// brightness, contrast, saturate, hue-rotate, grayscale, sepia, invert.
// Each step clamps its output, as CSS filter primitives do.
func colorSteps(f *settings.FilterSettings) []colorStep {
	var steps []colorStep
	if f.Brightness != 100 {
		k := float32(f.Brightness / 100)
		steps = append(steps, func(r, g, b float32) (float32, float32, float32) {
			return clamp01(r * k), clamp01(g * k), clamp01(b * k)
		})
	}
	if f.Contrast != 100 {
		k := float32(f.Contrast / 100)
		c := func(v float32) float32 { return clamp01((v-0.5)*k + 0.5) }
		steps = append(steps, func(r, g, b float32) (float32, float32, float32) {
			return c(r), c(g), c(b)
		})
	}
	if f.Saturation != 100 {
		steps = append(steps, saturateMatrix(f.Saturation/100).apply)
	}
	if math.Mod(f.HueRotate, 360) != 0 {
		steps = append(steps, hueRotateMatrix(f.HueRotate).apply)
	}
	if f.Grayscale > 0 {
		steps = append(steps, grayscaleMatrix(f.Grayscale/100).apply)
	}
	if f.Sepia > 0 {
		steps = append(steps, sepiaMatrix(f.Sepia/100).apply)
	}
	if f.Invert > 0 {
		k := float32(f.Invert / 100)
		inv := func(v float32) float32 { return k + v*(1-2*k) }
		steps = append(steps, func(r, g, b float32) (float32, float32, float32) {
			return inv(r), inv(g), inv(b)
		})
	}
	return steps
}

// Filter applies the combined CSS-style filter to img. The color functions
// run as one gift pass followed by the blur, matching the order of a CSS
// filter string ending in blur(). A nil or identity filter returns img.
func Filter(img *image.NRGBA, f *settings.FilterSettings) *image.NRGBA {
	if f == nil || f.IsIdentity() {
		return img
	}

	g := gift.New()
	if steps := colorSteps(f); len(steps) > 0 {
		g.Add(gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, a float32) {
			r, g, b = r0, g0, b0
			for _, step := range steps {
				r, g, b = step(r, g, b)
			}
			return r, g, b, a0
		}))
	}
	if f.Blur > 0 {
		g.Add(gift.GaussianBlur(float32(f.Blur)))
	}

	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
