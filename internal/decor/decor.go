// Package decor renders the decoration layers drawn around the images:
// text, stickers and annotation strokes. Every layer is drawn onto its own
// transparent surface with gg and then laid over the canvas with plain
// source-over, independent of the layout's blend mode.
package decor

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/ironsheep/image-compose-mcp/internal/colorspace"
	"github.com/ironsheep/image-compose-mcp/internal/compositor"
	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
	"github.com/ironsheep/image-compose-mcp/internal/shapes"
)

const (
	lineHeight = 1.2

	// strokeSteps is the number of offset copies used to outline text.
	strokeSteps = 16

	arrowHeadScale = 3
	arrowHeadAngle = math.Pi / 6
)

// Renderer draws decoration layers onto a canvas.
type Renderer struct {
	Fonts  *Fonts
	Logger *slog.Logger
}

// New returns a renderer using fonts, which may be nil for the embedded
// Go fonts only.
func New(fonts *Fonts, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if fonts == nil {
		fonts = NewFonts("", "", logger)
	}
	return &Renderer{Fonts: fonts, Logger: logger}
}

// Draw renders one decoration layer. Image layers are owned by the
// compositor and are ignored here.
func (r *Renderer) Draw(canvas *image.NRGBA, l settings.Layer) error {
	switch l.Kind {
	case settings.LayerTextBehind, settings.LayerTextFront:
		return r.DrawText(canvas, l.Text)
	case settings.LayerSticker:
		return r.DrawSticker(canvas, l.Sticker)
	case settings.LayerStroke:
		return r.DrawStroke(canvas, l.Stroke)
	}
	return nil
}

// surface runs paint on a transparent canvas-sized gg context and returns
// the result.
func surface(canvas *image.NRGBA, paint func(dc *gg.Context) error) (image.Image, error) {
	b := canvas.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	defer dc.Close()
	if err := paint(dc); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func contextError(op string, err error) error {
	return &apperrors.RenderContextError{Op: op, Err: err}
}

// DrawText draws a possibly multi-line text layer. X is the anchor given by
// Align and Y the top of the first line.
func (r *Renderer) DrawText(canvas *image.NRGBA, t *settings.TextLayer) error {
	if t == nil || strings.TrimSpace(t.Text) == "" || t.Opacity <= 0 {
		return nil
	}
	face := r.Fonts.Face(t.FontFamily, t.Bold, t.Italic, t.FontSize)
	if face == nil {
		return contextError("decor.text", fmt.Errorf("no font for family %q", t.FontFamily))
	}
	lines := strings.Split(t.Text, "\n")
	origin := canvas.Bounds().Min

	if t.HasShadow() {
		shadowCol := colorspace.ParseColorOr(t.ShadowColor, color.NRGBA{0, 0, 0, 255})
		shadow, err := surface(canvas, func(dc *gg.Context) error {
			drawLines(dc, face, t, lines, shadowCol, t.ShadowOffset.X, t.ShadowOffset.Y)
			return nil
		})
		if err != nil {
			return err
		}
		if t.ShadowBlur > 0 {
			shadow = blur.Gaussian(shadow, t.ShadowBlur/2)
		}
		compositor.Composite(canvas, shadow, origin, settings.BlendNormal, t.Opacity)
	}

	fill := colorspace.ParseColorOr(t.Color, color.NRGBA{0, 0, 0, 255})
	layer, err := surface(canvas, func(dc *gg.Context) error {
		if t.StrokeWidth > 0 {
			outline := colorspace.ParseColorOr(t.StrokeColor, color.NRGBA{0, 0, 0, 255})
			for i := 0; i < strokeSteps; i++ {
				a := 2 * math.Pi * float64(i) / strokeSteps
				drawLines(dc, face, t, lines, outline, t.StrokeWidth*math.Cos(a), t.StrokeWidth*math.Sin(a))
			}
		}
		drawLines(dc, face, t, lines, fill, 0, 0)
		return nil
	})
	if err != nil {
		return err
	}
	compositor.Composite(canvas, layer, origin, settings.BlendNormal, t.Opacity)
	return nil
}

func drawLines(dc *gg.Context, face text.Face, t *settings.TextLayer, lines []string, col color.Color, dx, dy float64) {
	dc.SetFont(face)
	dc.SetColor(col)
	ascent := face.Metrics().Ascent
	step := t.FontSize * lineHeight
	ax := anchor(t.Align)
	for i, line := range lines {
		w, _ := dc.MeasureString(line)
		dc.DrawString(line, t.X+dx-w*ax, t.Y+dy+ascent+float64(i)*step)
	}
}

func anchor(a settings.TextAlign) float64 {
	switch a {
	case settings.AlignCenter:
		return 0.5
	case settings.AlignRight:
		return 1
	}
	return 0
}

// DrawSticker draws an emoji or shape sticker centred on (X, Y), Size
// pixels across, rotated clockwise by Rotation.
func (r *Renderer) DrawSticker(canvas *image.NRGBA, st *settings.StickerLayer) error {
	if st == nil || st.Opacity <= 0 {
		return nil
	}
	if st.Type == "emoji" {
		if img := r.emoji(st); img != nil {
			if st.Rotation != 0 {
				img = imaging.Rotate(img, -st.Rotation, color.Transparent)
			}
			b := img.Bounds()
			at := image.Pt(int(math.Round(st.X-float64(b.Dx())/2)), int(math.Round(st.Y-float64(b.Dy())/2)))
			compositor.Composite(canvas, img, canvas.Bounds().Min.Add(at), settings.BlendNormal, st.Opacity)
			return nil
		}
		r.Logger.Debug("emoji glyph unavailable, drawing star", "sticker", st.ID, "emoji", st.Emoji)
	}

	col := colorspace.ParseColorOr(st.Color, color.NRGBA{255, 51, 102, 255})
	layer, err := surface(canvas, func(dc *gg.Context) error {
		dc.Push()
		defer dc.Pop()
		dc.RotateAbout(st.Rotation*math.Pi/180, st.X, st.Y)
		dc.SetColor(col)
		stickerShape(dc, st)
		return dc.Fill()
	})
	if err != nil {
		return contextError("decor.sticker", err)
	}
	compositor.Composite(canvas, layer, canvas.Bounds().Min, settings.BlendNormal, st.Opacity)
	return nil
}

func stickerShape(p shapes.Path, st *settings.StickerLayer) {
	half := st.Size / 2
	switch st.Type {
	case "heart":
		shapes.Heart(p, st.X-half, st.Y-half, st.Size)
	case "circle":
		shapes.Ellipse(p, st.X, st.Y, half, half)
	case "sparkle":
		shapes.Sparkle(p, st.X, st.Y, half)
	default:
		shapes.Star(p, st.X, st.Y, half, half*0.45, 5)
	}
}

// emoji renders the sticker glyph into a Size x Size image, or returns nil
// when no configured font carries it.
func (r *Renderer) emoji(st *settings.StickerLayer) *image.NRGBA {
	glyph := strings.TrimSpace(st.Emoji)
	if glyph == "" {
		return nil
	}
	face := r.Fonts.EmojiFace(st.Size * 0.8)
	if face == nil || !face.HasGlyph([]rune(glyph)[0]) {
		return nil
	}
	n := max(1, int(math.Ceil(st.Size)))
	dst := image.NewRGBA(image.Rect(0, 0, n, n))
	w, _ := text.Measure(glyph, face)
	m := face.Metrics()
	baseline := (float64(n) + m.Ascent - m.Descent) / 2
	text.DrawWithEmoji(dst, glyph, face, (float64(n)-w)/2, baseline, color.Black)
	return imaging.Clone(dst)
}

// DrawStroke draws one annotation stroke.
func (r *Renderer) DrawStroke(canvas *image.NRGBA, d *settings.DrawingStroke) error {
	if d == nil || d.EffectiveOpacity() <= 0 {
		return nil
	}
	col := colorspace.ParseColorOr(d.Color, color.NRGBA{255, 0, 0, 255})
	drawn := false
	layer, err := surface(canvas, func(dc *gg.Context) error {
		dc.SetColor(col)
		dc.SetLineWidth(d.EffectiveWidth())
		dc.SetLineCap(gg.LineCapRound)
		dc.SetLineJoin(gg.LineJoinRound)
		if d.Tool == settings.ToolRectangle {
			dc.SetLineJoin(gg.LineJoinMiter)
		}
		if !strokePath(dc, d) {
			return nil
		}
		drawn = true
		return dc.Stroke()
	})
	if err != nil {
		return contextError("decor.stroke", err)
	}
	if !drawn {
		r.Logger.Warn("annotation skipped",
			"error", &apperrors.InvalidGeometryError{Op: "decor.stroke", Detail: fmt.Sprintf("%s stroke %q lacks points", d.Tool, d.ID)})
		return nil
	}
	compositor.Composite(canvas, layer, canvas.Bounds().Min, settings.BlendNormal, d.EffectiveOpacity())
	return nil
}

// strokePath builds the tool's outline. It reports false when the stroke
// has too few points to draw.
func strokePath(p shapes.Path, d *settings.DrawingStroke) bool {
	if d.Tool.Freehand() {
		if len(d.Points) == 0 {
			return false
		}
		p.MoveTo(d.Points[0].X, d.Points[0].Y)
		if len(d.Points) == 1 {
			// A dot: a zero-length segment still gets round caps.
			p.LineTo(d.Points[0].X+0.01, d.Points[0].Y)
		}
		for _, pt := range d.Points[1:] {
			p.LineTo(pt.X, pt.Y)
		}
		return true
	}

	if d.StartPoint == nil || d.EndPoint == nil {
		return false
	}
	s, e := *d.StartPoint, *d.EndPoint
	switch d.Tool {
	case settings.ToolLine:
		p.MoveTo(s.X, s.Y)
		p.LineTo(e.X, e.Y)
	case settings.ToolArrow:
		p.MoveTo(s.X, s.Y)
		p.LineTo(e.X, e.Y)
		head := d.Size * arrowHeadScale
		angle := math.Atan2(e.Y-s.Y, e.X-s.X)
		for _, side := range []float64{-1, 1} {
			a := angle + math.Pi + side*arrowHeadAngle
			p.MoveTo(e.X, e.Y)
			p.LineTo(e.X+head*math.Cos(a), e.Y+head*math.Sin(a))
		}
	case settings.ToolRectangle:
		x, y := math.Min(s.X, e.X), math.Min(s.Y, e.Y)
		shapes.Rect(p, x, y, math.Abs(e.X-s.X), math.Abs(e.Y-s.Y))
	case settings.ToolCircle:
		radius := math.Hypot(e.X-s.X, e.Y-s.Y)
		if radius == 0 {
			return false
		}
		shapes.Ellipse(p, s.X, s.Y, radius, radius)
	default:
		return false
	}
	return true
}
