package effects

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-compose-mcp/internal/colorspace"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Glitch runs the enabled glitch sub-effects in order: RGB split,
// scanlines, distortion, noise, color shift. rng drives distortion and
// noise.
func Glitch(img *image.NRGBA, g *settings.GlitchEffects, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	if !g.Active() {
		return out
	}
	if g.RGBSplitActive() {
		out = RGBSplit(out, g.RGBSplit.Intensity)
	}
	if g.ScanlinesActive() {
		out = Scanlines(out, g.Scanlines.Count, g.Scanlines.Intensity)
	}
	if g.DistortionActive() {
		out = Distortion(out, g.Distortion.Frequency, g.Distortion.Intensity, rng)
	}
	if g.NoiseActive() {
		out = Noise(out, g.Noise.Intensity, rng)
	}
	if g.ColorShiftActive() {
		out = ColorShift(out, g.ColorShift.HueShift, g.ColorShift.SaturationShift)
	}
	return out
}

// RGBSplit moves the red channel right and the blue channel left by
// intensity pixels. Green and alpha stay put; channels shifted in from
// beyond the edge repeat the edge column.
func RGBSplit(img *image.NRGBA, intensity float64) *image.NRGBA {
	out := imaging.Clone(img)
	k := int(math.Round(intensity))
	if k <= 0 {
		return out
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < w; x++ {
			rx := max(x-k, 0)
			bx := min(x+k, w-1)
			dst[x*4] = src[rx*4]
			dst[x*4+2] = src[bx*4+2]
		}
	}
	return out
}

// Scanlines darkens count evenly spaced horizontal bands, each half a band
// period tall, with black at intensity percent opacity.
func Scanlines(img *image.NRGBA, count int, intensity float64) *image.NRGBA {
	out := imaging.Clone(img)
	if count <= 0 || intensity <= 0 {
		return out
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	period := float64(h) / float64(count)
	band := image.NewUniform(color.NRGBA{A: 255})
	alpha := image.NewUniform(color.Alpha{A: uint8(math.Round(math.Min(intensity, 100) / 100 * 255))})
	for i := 0; i < count; i++ {
		y0 := int(math.Round(float64(i) * period))
		y1 := int(math.Round(float64(i)*period + period/2))
		if y1 <= y0 {
			y1 = y0 + 1
		}
		r := image.Rect(0, y0, w, y1).Intersect(out.Bounds())
		draw.DrawMask(out, r, band, image.Point{}, alpha, image.Point{}, draw.Over)
	}
	return out
}

// Distortion cuts the image into frequency horizontal strips and redraws
// each shifted sideways by a uniform offset in [-intensity, intensity].
// Uncovered pixels keep their previous content.
func Distortion(img *image.NRGBA, frequency int, intensity float64, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	if frequency <= 0 || intensity <= 0 {
		return out
	}
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	strip := float64(h) / float64(frequency)
	for i := 0; i < frequency; i++ {
		y0 := int(math.Round(float64(i) * strip))
		y1 := int(math.Round(float64(i+1) * strip))
		if y1 <= y0 {
			continue
		}
		dx := int(math.Round((rng.Float64()*2 - 1) * intensity))
		if dx == 0 {
			continue
		}
		r := image.Rect(dx, y0, w+dx, y1).Intersect(out.Bounds())
		draw.Draw(out, r, img, image.Pt(r.Min.X-dx, y0), draw.Over)
	}
	return out
}

// Noise adds independent uniform noise in [-intensity/2, intensity/2] to
// the red, green and blue channels of every pixel.
func Noise(img *image.NRGBA, intensity float64, rng *rand.Rand) *image.NRGBA {
	out := imaging.Clone(img)
	if intensity <= 0 {
		return out
	}
	for i := 0; i+3 < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(out.Pix[i+c]) + (rng.Float64()-0.5)*intensity
			out.Pix[i+c] = uint8(math.Round(math.Max(0, math.Min(255, v))))
		}
	}
	return out
}

// ColorShift rotates every pixel's hue by hueShift degrees and shifts its
// saturation by saturationShift percent, leaving lightness untouched.
func ColorShift(img *image.NRGBA, hueShift, saturationShift float64) *image.NRGBA {
	out := imaging.Clone(img)
	if hueShift == 0 && saturationShift == 0 {
		return out
	}
	for i := 0; i+3 < len(out.Pix); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = colorspace.ShiftHSL(out.Pix[i], out.Pix[i+1], out.Pix[i+2], hueShift, saturationShift)
	}
	return out
}
