package transform

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
	"github.com/ironsheep/image-compose-mcp/internal/shapes"
)

// alphaMask holds one coverage value in [0,1] per pixel.
type alphaMask struct {
	w, h int
	v    []float64
}

func newAlphaMask(w, h int, fill float64) *alphaMask {
	m := &alphaMask{w: w, h: h, v: make([]float64, w*h)}
	for i := range m.v {
		m.v[i] = fill
	}
	return m
}

func (m *alphaMask) at(x, y int) float64 { return m.v[y*m.w+x] }

// buildMask computes the alpha mask for a w x h image. The shape clip and
// the gradient multiply; feather blurs the shape edge; invert applies to the
// combined result. It returns nil for an inactive mask.
func buildMask(m *settings.ImageMask, w, h int) *alphaMask {
	if m == nil || w <= 0 || h <= 0 {
		return nil
	}
	if !m.Active() && m.Feather == 0 {
		return nil
	}

	mask := shapeMask(m, w, h)
	if m.GradientEnabled {
		applyGradient(mask, m)
	}
	if m.Invert {
		for i := range mask.v {
			mask.v[i] = 1 - mask.v[i]
		}
	}
	return mask
}

// shapeMask rasterizes the clip shape, or the whole frame when there is
// none. Without a shape, a feather fades the frame edges instead.
func shapeMask(m *settings.ImageMask, w, h int) *alphaMask {
	fw, fh := float64(w), float64(h)
	custom := settings.ParseCustomPath(m.CustomPath)

	var outline func(p shapes.Path)
	switch {
	case custom != nil:
		outline = func(p shapes.Path) { shapes.Polygon(p, custom, 0, 0, fw, fh) }
	case m.Shape != "" && m.Shape != settings.MaskNone:
		outline = func(p shapes.Path) { shapes.Mask(p, m.Shape, fw, fh) }
	case m.Feather > 0:
		inset := math.Min(m.Feather, math.Min(fw, fh)/4)
		outline = func(p shapes.Path) { shapes.Rect(p, inset, inset, fw-2*inset, fh-2*inset) }
	default:
		return newAlphaMask(w, h, 1)
	}

	cov := shapes.Coverage(w, h, outline)
	if m.Feather > 0 {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				gray.Pix[y*gray.Stride+x] = cov.At(x, y)
			}
		}
		blurred := blur.Gaussian(gray, m.Feather)
		mask := newAlphaMask(w, h, 0)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				mask.v[y*w+x] = float64(blurred.Pix[y*blurred.Stride+x*4]) / 255
			}
		}
		return mask
	}

	mask := newAlphaMask(w, h, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mask.v[y*w+x] = float64(cov.At(x, y)) / 255
		}
	}
	return mask
}

// applyGradient multiplies the mask by an opacity ramp from GradientStart
// to GradientEnd percent along the gradient direction.
func applyGradient(mask *alphaMask, m *settings.ImageMask) {
	start, end := m.GradientStart/100, m.GradientEnd/100
	fw, fh := float64(mask.w), float64(mask.h)
	for y := 0; y < mask.h; y++ {
		v := (float64(y) + 0.5) / fh
		for x := 0; x < mask.w; x++ {
			u := (float64(x) + 0.5) / fw
			var t float64
			switch m.GradientDirection {
			case settings.GradientVertical:
				t = v
			case settings.GradientDiagonal:
				t = (u + v) / 2
			case settings.GradientRadial:
				t = math.Min(1, math.Hypot(2*u-1, 2*v-1))
			default:
				t = u
			}
			mask.v[y*mask.w+x] *= start + (end-start)*t
		}
	}
}

// applyAlpha multiplies every pixel's alpha by mask and opacity in place.
func applyAlpha(img *image.NRGBA, mask *alphaMask, opacity float64) {
	if mask == nil && opacity >= 1 {
		return
	}
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			k := opacity
			if mask != nil {
				k *= mask.at(x, y)
			}
			i := x*4 + 3
			row[i] = uint8(math.Round(float64(row[i]) * k))
		}
	}
}
