package effects

import (
	"image"
	"math"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
	"github.com/ironsheep/image-compose-mcp/internal/shapes"
)

// maxBokehRadius is the aperture radius in canvas pixels at intensity 100.
const maxBokehRadius = 24

// bokehScale is the working-resolution divisor per quality tier. Lower
// tiers blur a downscaled copy with a proportionally smaller kernel.
var bokehScale = map[settings.BokehQuality]int{
	settings.QualityLow:    4,
	settings.QualityMedium: 2,
	settings.QualityHigh:   1,
}

// Bokeh blurs the image with an aperture-shaped kernel and blends the blur
// in with distance from the focal point: fully sharp inside the focal
// radius, fully blurred one focal radius further out.
func Bokeh(img *image.NRGBA, b *settings.BokehSettings) *image.NRGBA {
	if !b.Active() {
		return imaging.Clone(img)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := bokehScale[b.Quality]
	if scale == 0 {
		scale = 2
	}
	radius := b.Intensity / 100 * maxBokehRadius / float64(scale)
	if radius < 0.5 {
		return imaging.Clone(img)
	}

	work := image.Image(img)
	if scale > 1 {
		work = imaging.Resize(img, max(1, w/scale), max(1, h/scale), imaging.Linear)
	}
	g := gift.New(gift.Convolution(aperture(b.Shape, radius), true, true, false, 0))
	blurred := image.NewNRGBA(g.Bounds(work.Bounds()))
	g.Draw(blurred, work)
	if scale > 1 {
		blurred = imaging.Resize(blurred, w, h, imaging.Linear)
	}

	short := float64(min(w, h))
	inner := b.FocalSize / 100 * short / 2
	feather := math.Max(inner, short*0.1)
	fx, fy := b.FocalPointX/100*float64(w), b.FocalPointY/100*float64(h)

	out := imaging.Clone(img)
	for y := 0; y < h; y++ {
		row := out.Pix[y*out.Stride:]
		brow := blurred.Pix[y*blurred.Stride:]
		for x := 0; x < w; x++ {
			t := smoothstep(inner, inner+feather, math.Hypot(float64(x)+0.5-fx, float64(y)+0.5-fy))
			if t == 0 {
				continue
			}
			for c := 0; c < 4; c++ {
				i := x*4 + c
				row[i] = uint8(math.Round(float64(row[i]) + (float64(brow[i])-float64(row[i]))*t))
			}
		}
	}
	return out
}

// aperture builds a convolution kernel whose taps trace the aperture shape
// of the given radius. gift normalizes the weights.
func aperture(shape settings.BokehShape, radius float64) []float32 {
	r := int(math.Ceil(radius))
	size := 2*r + 1
	c := float64(size) / 2
	mask := shapes.Coverage(size, size, func(p shapes.Path) {
		switch shape {
		case settings.BokehHexagon:
			shapes.RegularPolygon(p, 6, c, c, radius+0.5)
		case settings.BokehOctagon:
			shapes.RegularPolygon(p, 8, c, c, radius+0.5)
		default:
			shapes.Ellipse(p, c, c, radius+0.5, radius+0.5)
		}
	})
	kernel := make([]float32, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			kernel[y*size+x] = float32(mask.At(x, y)) / 255
		}
	}
	// A degenerate mask must still pass the centre pixel through.
	kernel[r*size+r] = max(kernel[r*size+r], 1)
	return kernel
}

func smoothstep(e0, e1, x float64) float64 {
	if x <= e0 {
		return 0
	}
	if x >= e1 {
		return 1
	}
	t := (x - e0) / (e1 - e0)
	return t * t * (3 - 2*t)
}
