package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/fcolor"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// separable is a W3C separable blend function B(backdrop, source) on
// unpremultiplied channels in [0,1].
type separable func(cb, cs float64) float64

var blendFuncs = map[settings.BlendMode]separable{
	settings.BlendNormal:    func(cb, cs float64) float64 { return cs },
	settings.BlendMultiply:  func(cb, cs float64) float64 { return cb * cs },
	settings.BlendScreen:    screen,
	settings.BlendOverlay:   func(cb, cs float64) float64 { return hardLight(cs, cb) },
	settings.BlendDarken:    math.Min,
	settings.BlendLighten:   math.Max,
	settings.BlendHardLight: hardLight,
	settings.BlendSoftLight: softLight,
}

func screen(cb, cs float64) float64 { return cb + cs - cb*cs }

func hardLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return cb * 2 * cs
	}
	return screen(cb, 2*cs-1)
}

func softLight(cb, cs float64) float64 {
	if cs <= 0.5 {
		return cb - (1-2*cs)*cb*(1-cb)
	}
	var d float64
	if cb <= 0.25 {
		d = ((16*cb-12)*cb + 4) * cb
	} else {
		d = math.Sqrt(cb)
	}
	return cb + (2*cs-1)*(d-cb)
}

// halfStep biases results so bild's truncating store rounds to nearest.
const halfStep = 0.5 / 255

// blendFunc builds the per-pixel bild callback for mode at the given layer
// opacity. bild hands over premultiplied colors and stores the returned
// premultiplied color.
func blendFunc(mode settings.BlendMode, opacity float64) func(bg, fg fcolor.RGBAF64) fcolor.RGBAF64 {
	b, ok := blendFuncs[mode]
	if !ok {
		b = blendFuncs[settings.BlendNormal]
	}
	return func(bg, fg fcolor.RGBAF64) fcolor.RGBAF64 {
		sa := fg.A * opacity
		da := bg.A
		if sa <= 0 {
			out := fcolor.RGBAF64{R: bg.R + halfStep, G: bg.G + halfStep, B: bg.B + halfStep, A: bg.A + halfStep}
			out.Clamp()
			return out
		}
		unpremul := func(c, a float64) float64 {
			if a <= 0 {
				return 0
			}
			return c / a
		}
		mix := func(bc, fc float64) float64 {
			cb, cs := unpremul(bc, da), unpremul(fc, fg.A)
			return sa*(1-da)*cs + sa*da*b(cb, cs) + (1-sa)*da*cb + halfStep
		}
		out := fcolor.RGBAF64{
			R: mix(bg.R, fg.R),
			G: mix(bg.G, fg.G),
			B: mix(bg.B, fg.B),
			A: sa + da*(1-sa) + halfStep,
		}
		out.Clamp()
		return out
	}
}

// Composite draws src onto dst with its top-left at at, using mode and a
// layer opacity in [0,1]. Normal mode is plain source-over; other modes go
// through bild's blend over the overlapping region only.
func Composite(dst *image.NRGBA, src image.Image, at image.Point, mode settings.BlendMode, opacity float64) {
	if opacity <= 0 {
		return
	}
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	sp := sb.Min.Add(r.Min.Sub(at))

	if mode.OrDefault() == settings.BlendNormal {
		var mask image.Image
		if opacity < 1 {
			mask = image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 255))})
		}
		draw.DrawMask(dst, r, src, sp, mask, image.Point{}, draw.Over)
		return
	}

	bg := imaging.Crop(dst, r)
	fg := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(fg, fg.Bounds(), src, sp, draw.Src)
	out := blend.Blend(bg, fg, blendFunc(mode.OrDefault(), opacity))
	draw.Draw(dst, r, out, image.Point{}, draw.Src)
}
