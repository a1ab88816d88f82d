package effects

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ironsheep/image-compose-mcp/internal/compositor"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// LightLeaks draws each enabled overlay in array order. assets holds the
// decoded image for each entry of leaks; nil entries are skipped. An
// overlay is stretched to the canvas, scaled and rotated about its centre,
// and centred on the canvas unless it carries an explicit position.
func LightLeaks(img *image.NRGBA, leaks []settings.LightLeakOverlay, assets []image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	for i := range leaks {
		l := &leaks[i]
		if !l.Enabled || l.Opacity <= 0 || i >= len(assets) || assets[i] == nil {
			continue
		}
		layer := placeLeak(assets[i], l, b.Dx(), b.Dy())
		compositor.Composite(out, layer, image.Point{}, l.BlendMode, l.Opacity)
	}
	return out
}

func placeLeak(asset image.Image, l *settings.LightLeakOverlay, w, h int) *image.NRGBA {
	sb := asset.Bounds()
	cx, cy := float64(w)/2, float64(h)/2
	if l.Positioned() {
		cx, cy = l.X, l.Y
	}
	sx := float64(w) * l.Scale / float64(sb.Dx())
	sy := float64(h) * l.Scale / float64(sb.Dy())
	sin, cos := math.Sincos(l.Rotation * math.Pi / 180)

	// translate(cx,cy) * rotate * scale * translate(-src centre)
	a, bb := cos*sx, -sin*sy
	d, e := sin*sx, cos*sy
	hw, hh := float64(sb.Min.X)+float64(sb.Dx())/2, float64(sb.Min.Y)+float64(sb.Dy())/2
	s2d := f64.Aff3{
		a, bb, cx - a*hw - bb*hh,
		d, e, cy - d*hw - e*hh,
	}
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Transform(layer, s2d, asset, sb, xdraw.Src, nil)
	return layer
}
