package effects

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/ironsheep/image-compose-mcp/internal/colorspace"
	"github.com/ironsheep/image-compose-mcp/internal/compositor"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
	"github.com/ironsheep/image-compose-mcp/internal/shapes"
)

// Shadow synthesizes a shadow for the composited content.
//
// An inner shadow darkens the content inward from its edges. The other
// types are cast behind the content: when the canvas is fully opaque the
// content is first shrunk onto background so the shadow has room to show.
func Shadow(img *image.NRGBA, s *settings.ShadowSettings, background color.NRGBA) *image.NRGBA {
	if !s.Active() {
		return imaging.Clone(img)
	}
	if s.Type == settings.ShadowInner {
		return innerShadow(img, s)
	}
	return castShadow(img, s, background)
}

func shadowColor(s *settings.ShadowSettings) color.NRGBA {
	return colorspace.ParseColorOr(s.Color, color.NRGBA{A: 255})
}

// alphaOf extracts the alpha channel.
func alphaOf(img *image.NRGBA) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g.Pix[y*g.Stride+x] = img.Pix[y*img.Stride+x*4+3]
		}
	}
	return g
}

func opaque(img *image.NRGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 255 {
			return false
		}
	}
	return true
}

// morph grows (spread > 0) or shrinks (spread < 0) a coverage mask by a
// disk of radius |spread|.
func morph(m *image.Gray, spread float64) *image.Gray {
	k := int(math.Round(math.Abs(spread)))
	if k == 0 {
		return m
	}
	var f gift.Filter
	if spread > 0 {
		f = gift.Maximum(2*k+1, true)
	} else {
		f = gift.Minimum(2*k+1, true)
	}
	g := gift.New(f)
	out := image.NewGray(g.Bounds(m.Bounds()))
	g.Draw(out, m)
	return out
}

// shift moves a mask by (dx, dy); uncovered pixels take fill.
func shift(m *image.Gray, dx, dy float64, fill uint8) *image.Gray {
	out := image.NewGray(m.Bounds())
	if fill != 0 {
		draw.Draw(out, out.Bounds(), image.NewUniform(color.Gray{Y: fill}), image.Point{}, draw.Src)
	}
	off := image.Pt(int(math.Round(dx)), int(math.Round(dy)))
	draw.Draw(out, m.Bounds().Add(off), m, image.Point{}, draw.Src)
	return out
}

// soften blurs a mask. radius follows the CSS shadow-blur convention of
// twice the gaussian deviation.
func soften(m *image.Gray, radius float64) []float64 {
	b := m.Bounds()
	v := make([]float64, b.Dx()*b.Dy())
	if radius <= 0 {
		for i := range v {
			v[i] = float64(m.Pix[i]) / 255
		}
		return v
	}
	blurred := blur.Gaussian(m, radius/2)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v[y*b.Dx()+x] = float64(blurred.Pix[y*blurred.Stride+x*4]) / 255
		}
	}
	return v
}

// paint turns per-pixel coverage into a layer of col at opacity.
func paint(cov []float64, w, h int, col color.NRGBA, opacity float64) *image.NRGBA {
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	scale := float64(col.A) / 255 * opacity
	for i, c := range cov {
		a := c * scale
		if a <= 0 {
			continue
		}
		p := layer.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = col.R, col.G, col.B, uint8(math.Round(math.Min(a, 1)*255))
	}
	return layer
}

// innerShadow darkens the inside of the content where the offset
// silhouette no longer covers it.
func innerShadow(img *image.NRGBA, s *settings.ShadowSettings) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	alpha := alphaOf(img)
	dx, dy := s.Offset()

	// Outside the shifted silhouette is "in shadow"; spread erodes it further.
	hole := morph(shift(alpha, dx, dy, 0), -s.Spread)
	for i := range hole.Pix {
		hole.Pix[i] = 255 - hole.Pix[i]
	}
	cov := soften(hole, s.Blur)
	for i := range cov {
		cov[i] *= float64(alpha.Pix[i]) / 255
	}

	out := imaging.Clone(img)
	compositor.Composite(out, paint(cov, w, h, shadowColor(s), s.Opacity), image.Point{}, settings.BlendNormal, 1)
	// Shadow color must not leak into transparent regions.
	for i, a := range alpha.Pix {
		out.Pix[i*4+3] = a
	}
	return out
}

// castShadow draws the shadow behind the content.
func castShadow(img *image.NRGBA, s *settings.ShadowSettings, background color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dx, dy := s.Offset()

	content := imaging.Clone(img)
	base := image.NewNRGBA(image.Rect(0, 0, w, h))
	if opaque(img) {
		reach := s.Blur + s.Spread + math.Max(math.Abs(dx), math.Abs(dy))
		if s.Type == settings.ShadowCurved {
			reach += math.Abs(s.Curve)
		}
		pad := int(math.Round(math.Min(reach, float64(min(w, h))/4)))
		if pad > 0 {
			card := imaging.Resize(img, w-2*pad, h-2*pad, imaging.Lanczos)
			content = image.NewNRGBA(image.Rect(0, 0, w, h))
			draw.Draw(content, card.Bounds().Add(image.Pt(pad, pad)), card, image.Point{}, draw.Src)
		}
		draw.Draw(base, base.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	}

	var silhouette *image.Gray
	switch s.Type {
	case settings.ShadowCurved:
		silhouette = curvedSilhouette(content, s.Curve)
	case settings.ShadowAngle:
		silhouette = castSilhouette(alphaOf(content), s.Angle)
	default:
		silhouette = alphaOf(content)
	}
	cov := soften(shift(morph(silhouette, s.Spread), dx, dy, 0), s.Blur)

	compositor.Composite(base, paint(cov, w, h, shadowColor(s), s.Opacity), image.Point{}, settings.BlendNormal, 1)
	compositor.Composite(base, content, image.Point{}, settings.BlendNormal, 1)
	return base
}

// curvedSilhouette is the content's bounding box with its lower edge bowed
// upward by curve pixels, so the shadow shows only under the corners.
func curvedSilhouette(content *image.NRGBA, curve float64) *image.Gray {
	b := content.Bounds()
	box := opaqueBounds(content)
	if box.Empty() {
		return image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	x0, y0, x1, y1 := float64(box.Min.X), float64(box.Min.Y), float64(box.Max.X), float64(box.Max.Y)
	third := (x1 - x0) / 3
	mask := shapes.Coverage(b.Dx(), b.Dy(), func(p shapes.Path) {
		p.MoveTo(x0, y0)
		p.LineTo(x1, y0)
		p.LineTo(x1, y1)
		p.CubicTo(x1-third, y1-curve, x0+third, y1-curve, x0, y1)
		p.ClosePath()
	})
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g.Pix[y*g.Stride+x] = mask.At(x, y)
		}
	}
	return g
}

func opaqueBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	r := image.Rectangle{}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if img.Pix[y*img.Stride+x*4+3] == 0 {
				continue
			}
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r
}

// castSilhouette flattens the silhouette onto the ground plane: it is
// squashed vertically about its base and sheared along the light angle.
func castSilhouette(m *image.Gray, angle float64) *image.Gray {
	b := m.Bounds()
	ground := float64(b.Dy())
	const squash = 0.6
	shear := math.Cos(angle*math.Pi/180) * 0.5

	// dst = (x + shear*(ground-y)*squash, ground - (ground-y)*squash)
	s2d := f64.Aff3{
		1, -shear * squash, shear * squash * ground,
		0, squash, ground * (1 - squash),
	}
	out := image.NewGray(b)
	xdraw.BiLinear.Transform(out, s2d, m, b, xdraw.Src, nil)
	return out
}
