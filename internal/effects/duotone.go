package effects

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-compose-mcp/internal/colorspace"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Duotone maps each pixel's luminance onto the shadow-to-highlight
// gradient and mixes the result with the original by intensity percent.
// Contrast in [-100, 100] steepens or flattens the luminance curve around
// mid gray first. Alpha is preserved.
func Duotone(img *image.NRGBA, d *settings.DuotoneSettings) *image.NRGBA {
	out := imaging.Clone(img)
	if d == nil || d.Intensity <= 0 {
		return out
	}
	dark := colorspace.ParseColorOr(d.ShadowColor, color.NRGBA{0x1B, 0x14, 0x64, 255})
	light := colorspace.ParseColorOr(d.HighlightColor, color.NRGBA{0xF7, 0xB7, 0x33, 255})
	dark.A, light.A = 255, 255

	// The gradient only depends on the 8-bit luma, so tabulate it.
	var ramp [256]color.NRGBA
	k := 1 + d.Contrast/100
	for i := range ramp {
		l := (float64(i)/255-0.5)*k + 0.5
		ramp[i] = colorspace.Mix(dark, light, l)
	}

	t := math.Min(d.Intensity, 100) / 100
	for i := 0; i+3 < len(out.Pix); i += 4 {
		px := out.Pix[i : i+4 : i+4]
		l := colorspace.Luminance(px[0], px[1], px[2])
		target := ramp[int(math.Round(l*255))]
		if t < 1 {
			target = colorspace.Mix(color.NRGBA{px[0], px[1], px[2], 255}, target, t)
		}
		px[0], px[1], px[2] = target.R, target.G, target.B
	}
	return out
}
