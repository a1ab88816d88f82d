// Package compositor draws the transformed source images into the canvas,
// either through the resolved layout or as a two-image double exposure.
//
// Images draw in array order, index 0 furthest back. Every source must be
// present: a missing image fails the whole call with a SourceLoadError.
package compositor

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"

	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
	"github.com/ironsheep/image-compose-mcp/internal/colorspace"
	"github.com/ironsheep/image-compose-mcp/internal/layout"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
	"github.com/ironsheep/image-compose-mcp/internal/shapes"
	"github.com/ironsheep/image-compose-mcp/internal/transform"
)

// Compositor places source images on the canvas.
type Compositor struct {
	Stage  *transform.Stage
	Logger *slog.Logger
}

// New returns a compositor logging recovered problems to logger.
func New(logger *slog.Logger) *Compositor {
	return &Compositor{Stage: &transform.Stage{Logger: logger}, Logger: logger}
}

// checkSources fails on the first missing image.
func checkSources(images []image.Image) error {
	if len(images) == 0 {
		return apperrors.New(apperrors.CategorySource, "compositor", apperrors.ErrNoSources)
	}
	for i, img := range images {
		if img == nil || img.Bounds().Empty() {
			return &apperrors.SourceLoadError{Index: i, Err: apperrors.ErrNilImage}
		}
	}
	return nil
}

// DrawLayout draws every image into its resolved cell.
func (c *Compositor) DrawLayout(canvas *image.NRGBA, images []image.Image, s *settings.Settings) error {
	if err := checkSources(images); err != nil {
		return err
	}
	b := canvas.Bounds()
	cells, err := layout.Resolve(s.Layout, len(images), b.Dx(), b.Dy(), layout.OptionsFrom(s))
	if err != nil {
		return err
	}

	for i, cell := range cells {
		if err := c.drawCell(canvas, images[i], cell, s); err != nil {
			return err
		}
	}
	return nil
}

// pixelRect snaps a cell rectangle to whole pixels.
func pixelRect(r layout.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.MaxX())), int(math.Round(r.MaxY())),
	)
}

func (c *Compositor) drawCell(canvas *image.NRGBA, src image.Image, cell layout.Cell, s *settings.Settings) error {
	rect := pixelRect(cell.Rect)
	if rect.Empty() {
		return nil
	}
	params := transform.ParamsFor(s, cell.Index)

	mode := settings.BlendNormal
	opacity := 1.0
	if cell.Blend {
		mode = s.BlendMode
		if s.Overlay != nil {
			opacity = s.Overlay.Opacity
		}
	}

	var layer *image.NRGBA
	var err error
	if p := cell.Placement; p != nil {
		layer, err = c.placed(src, rect, p, params)
		opacity = p.Opacity
	} else {
		layer, err = c.Stage.Apply(src, rect.Dx(), rect.Dy(), params)
	}
	if err != nil {
		return err
	}

	clipLayer(layer, cell.Clip, rect.Min)
	Composite(canvas, layer, rect.Min, mode, opacity)

	if ve := s.VisualEffects; ve != nil && ve.BorderWidth > 0 && !s.Layout.OverlayStyle() {
		drawBorder(canvas, rect, cell.Clip, ve)
	}
	return nil
}

// placed renders an overlay layer: the image covers the cell scaled by the
// placement, rotated about its centre, and offset; the part outside the cell
// is cut away. The returned layer is cell-sized.
func (c *Compositor) placed(src image.Image, rect image.Rectangle, p *layout.Placement, params transform.Params) (*image.NRGBA, error) {
	w := max(1, int(math.Round(float64(rect.Dx())*p.Scale)))
	h := max(1, int(math.Round(float64(rect.Dy())*p.Scale)))
	img, err := c.Stage.Apply(src, w, h, params)
	if err != nil {
		return nil, err
	}
	return placeInFrame(img, rect.Dx(), rect.Dy(), p.OffsetX, p.OffsetY, p.Rotation), nil
}

// placeInFrame rotates img clockwise by deg and centres it in a w x h frame
// shifted by (dx, dy).
func placeInFrame(img *image.NRGBA, w, h int, dx, dy, deg float64) *image.NRGBA {
	if deg != 0 {
		img = imaging.Rotate(img, -deg, color.Transparent)
	}
	frame := image.NewNRGBA(image.Rect(0, 0, w, h))
	ib := img.Bounds()
	at := image.Pt(
		int(math.Round(float64(w-ib.Dx())/2+dx)),
		int(math.Round(float64(h-ib.Dy())/2+dy)),
	)
	Composite(frame, img, at, settings.BlendNormal, 1)
	return frame
}

// clipLayer zeroes alpha outside the clip shape. Polygon points are canvas
// coordinates and are shifted by origin into layer space.
func clipLayer(layer *image.NRGBA, clip layout.Clip, origin image.Point) {
	if clip.Kind == layout.ClipNone || clip.Kind == "" {
		return
	}
	b := layer.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	mask := shapes.Coverage(b.Dx(), b.Dy(), func(p shapes.Path) { clipOutline(p, clip, origin, w, h) })
	for y := 0; y < b.Dy(); y++ {
		row := layer.Pix[y*layer.Stride:]
		for x := 0; x < b.Dx(); x++ {
			i := x*4 + 3
			row[i] = uint8((uint32(row[i])*uint32(mask.At(x, y)) + 127) / 255)
		}
	}
}

func clipOutline(p shapes.Path, clip layout.Clip, origin image.Point, w, h float64) {
	switch clip.Kind {
	case layout.ClipEllipse:
		shapes.Ellipse(p, w/2, h/2, w/2, h/2)
	case layout.ClipRoundRect:
		shapes.RoundRect(p, 0, 0, w, h, clip.Radius)
	case layout.ClipPolygon:
		pts := make([]settings.Point, len(clip.Points))
		for i, pt := range clip.Points {
			pts[i] = settings.Point{X: pt.X - float64(origin.X), Y: pt.Y - float64(origin.Y)}
		}
		shapes.Polygon(p, pts, 0, 0, 1, 1)
	}
}

// drawBorder strokes the cell outline in the border color.
func drawBorder(canvas *image.NRGBA, rect image.Rectangle, clip layout.Clip, ve *settings.VisualEffects) {
	col := colorspace.ParseColorOr(ve.BorderColor, color.NRGBA{255, 255, 255, 255})
	w, h := rect.Dx(), rect.Dy()

	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.SetColor(col)
	dc.SetLineWidth(ve.BorderWidth)
	dc.SetLineJoin(gg.LineJoinRound)

	// The stroke straddles the outline; inset by half so it stays in the cell.
	half := ve.BorderWidth / 2
	fw, fh := float64(w)-ve.BorderWidth, float64(h)-ve.BorderWidth
	switch clip.Kind {
	case layout.ClipEllipse:
		shapes.Ellipse(dc, float64(w)/2, float64(h)/2, fw/2, fh/2)
	case layout.ClipRoundRect:
		shapes.RoundRect(dc, half, half, fw, fh, math.Max(0, clip.Radius-half))
	default:
		shapes.Rect(dc, half, half, fw, fh)
	}
	if err := dc.Stroke(); err != nil {
		return
	}
	Composite(canvas, dc.Image(), rect.Min, settings.BlendNormal, 1)
}

// DrawDoubleExposure replaces the layout draw: the base image covers the
// canvas and the overlay image, scaled, offset, rotated and optionally
// luminance-inverted, is blended over it.
func (c *Compositor) DrawDoubleExposure(canvas *image.NRGBA, images []image.Image, s *settings.Settings) error {
	if err := checkSources(images); err != nil {
		return err
	}
	de := s.DoubleExposure
	b := canvas.Bounds()
	w, h := b.Dx(), b.Dy()

	bi := c.index(de.BaseImageIndex, len(images), "base")
	base, err := c.Stage.Apply(images[bi], w, h, transform.ParamsFor(s, bi))
	if err != nil {
		return err
	}
	Composite(canvas, base, b.Min, settings.BlendNormal, 1)

	oi := c.index(de.OverlayImageIndex, len(images), "overlay")
	ow := max(1, int(math.Round(float64(w)*de.Scale)))
	oh := max(1, int(math.Round(float64(h)*de.Scale)))
	over, err := c.Stage.Apply(images[oi], ow, oh, transform.ParamsFor(s, oi))
	if err != nil {
		return err
	}
	if de.Invert {
		invertLightness(over)
	}
	layer := placeInFrame(over, w, h, de.OffsetX, de.OffsetY, de.Rotation)
	Composite(canvas, layer, b.Min, de.BlendMode, de.Opacity)
	return nil
}

// index clamps an image index into range, logging the substitution.
func (c *Compositor) index(i, n int, role string) int {
	if i >= 0 && i < n {
		return i
	}
	j := min(max(i, 0), n-1)
	if c.Logger != nil {
		c.Logger.Warn("double exposure index out of range",
			"role", role, "index", i, "images", n, "using", j)
	}
	return j
}

func invertLightness(img *image.NRGBA) {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = colorspace.InvertLightness(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
	}
}
