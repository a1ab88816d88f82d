package engine

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// dividerWidth is the width of the comparison split line in pixels.
const dividerWidth = 2

var dividerColor = color.NRGBA{255, 255, 255, 255}

// PreviewScale returns the factor that fits the canvas inside maxDim on its
// longest side. It never enlarges.
func PreviewScale(c settings.CanvasSettings, maxDim int) float64 {
	longest := max(c.Width, c.Height)
	if maxDim <= 0 || longest <= maxDim {
		return 1
	}
	return float64(maxDim) / float64(longest)
}

// Preview renders at reduced size when the canvas exceeds the configured
// preview dimension. Every pixel measure in the settings scales with the
// canvas, so the preview matches the export.
func (e *Engine) Preview(ctx context.Context, req Request) (*Result, error) {
	if req.Settings != nil {
		req.Settings = req.Settings.Scaled(PreviewScale(req.Settings.Canvas, e.cfg.PreviewMaxDimension))
	}
	return e.Render(ctx, req)
}

// Compare renders the before/after split view at preview size. The left
// part up to position percent of the width shows the sources with layout
// and canvas only; the rest shows the full pipeline.
func (e *Engine) Compare(ctx context.Context, req Request, position float64) (*Result, error) {
	t := &tracker{observer: req.Options.Observer}
	res := &Result{Timings: make(map[string]time.Duration)}

	if req.Settings == nil {
		return e.fail(t, res, e.check(nil, len(req.Sources)))
	}
	after := req.Settings.Scaled(PreviewScale(req.Settings.Canvas, e.cfg.PreviewMaxDimension))
	if err := e.check(after, len(req.Sources)); err != nil {
		return e.fail(t, res, err)
	}
	req.Settings = after

	t.enter(PhaseLoadingSources)
	start := time.Now()
	in, err := e.Load(ctx, req)
	res.Timings[StageLoad] = time.Since(start)
	if err != nil {
		return e.fail(t, res, err)
	}

	before, err := e.run(ctx, t, res, in, after.WithoutEffects(), Options{})
	if err != nil {
		return e.fail(t, res, err)
	}
	full, err := e.run(ctx, t, res, in, after, req.Options)
	if err != nil {
		return e.fail(t, res, err)
	}

	t.enter(PhaseReady)
	res.Image, res.Phase = Split(before, full, position), PhaseReady
	return res, nil
}

// Split joins two equally sized renders at position percent of the width
// and draws the divider line centred on the seam.
func Split(before, after *image.NRGBA, position float64) *image.NRGBA {
	b := after.Bounds()
	if math.IsNaN(position) {
		position = 50
	}
	position = math.Max(0, math.Min(100, position))
	x := b.Min.X + int(math.Round(position/100*float64(b.Dx())))

	out := imaging.Clone(after)
	if left := image.Rect(b.Min.X, b.Min.Y, x, b.Max.Y); !left.Empty() {
		out = imaging.Paste(out, imaging.Crop(before, left), left.Min)
	}
	line := image.Rect(x-dividerWidth/2, b.Min.Y, x-dividerWidth/2+dividerWidth, b.Max.Y).Intersect(b)
	draw.Draw(out, line, image.NewUniform(dividerColor), image.Point{}, draw.Src)
	return out
}
