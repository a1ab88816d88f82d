// Package engine is the composition orchestrator. It runs one render call
// through the canonical stage order:
//
//	clear canvas -> text(behind) -> layout | double-exposure -> text(front)
//	  -> stickers -> annotations -> glitch -> shadow -> bokeh -> duotone
//	  -> light leaks
//
// Preview, comparison and export all go through the same stage list, so
// what a preview shows is what an export writes.
//
// A render is all-or-nothing: a source that fails to load, or a drawing
// surface that cannot be created, fails the whole call and no image is
// returned. The engine keeps no state between calls.
package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/ironsheep/image-compose-mcp/internal/colorspace"
	"github.com/ironsheep/image-compose-mcp/internal/compositor"
	"github.com/ironsheep/image-compose-mcp/internal/config"
	"github.com/ironsheep/image-compose-mcp/internal/decor"
	"github.com/ironsheep/image-compose-mcp/internal/effects"
	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
	"github.com/ironsheep/image-compose-mcp/internal/imaging"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Stage names that are not decoration layers or effects.
const (
	StageLoad           = "load"
	StageClear          = "clear"
	StageLayout         = "layout"
	StageDoubleExposure = "double-exposure"
)

// Options tune a single render.
type Options struct {
	// Transparent clears the canvas to transparent instead of the
	// background color. Only the export call site sets it.
	Transparent bool

	// Rand drives unseeded glitch randomness. Nil uses a fresh source.
	Rand *rand.Rand

	// Observer receives phase transitions.
	Observer Observer
}

// Request is everything one render call needs.
type Request struct {
	Sources  []imaging.Source
	Settings *settings.Settings

	// Assets resolves light-leak URLs. Builtin gradients and plain file
	// paths work without it.
	Assets imaging.AssetLoader

	Options Options
}

// Input is the decoded material of a render: the source images and the
// light-leak assets parallel to the settings' overlays.
type Input struct {
	Images []image.Image
	Leaks  []image.Image
}

// Result is a completed render.
type Result struct {
	Image   *image.NRGBA
	Phase   Phase
	Stages  []string
	Timings map[string]time.Duration
}

// Engine renders settings and source images into a flattened raster.
// An Engine is safe for concurrent renders; each call owns its canvas.
type Engine struct {
	cfg        config.Config
	logger     *slog.Logger
	compositor *compositor.Compositor
	decor      *decor.Renderer
	hooks      []Hook
}

// New builds an engine from cfg. Stage timings are logged at debug level.
func New(cfg config.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	fonts := decor.NewFonts(cfg.FontDir, cfg.EmojiFontPath, logger)
	return &Engine{
		cfg:        cfg,
		logger:     logger,
		compositor: compositor.New(logger),
		decor:      decor.New(fonts, logger),
		hooks:      []Hook{NewLoggingHook(logger)},
	}
}

// AddHook registers a stage observer. Not safe to call during renders.
func (e *Engine) AddHook(h Hook) *Engine {
	e.hooks = append(e.hooks, h)
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() config.Config { return e.cfg }

// Decor returns the decoration renderer, sharing the engine's fonts.
func (e *Engine) Decor() *decor.Renderer { return e.decor }

// Close releases loaded fonts.
func (e *Engine) Close() error {
	return e.decor.Fonts.Close()
}

// Render loads the sources and runs the full pipeline.
func (e *Engine) Render(ctx context.Context, req Request) (*Result, error) {
	t := &tracker{observer: req.Options.Observer}
	res := &Result{Timings: make(map[string]time.Duration)}

	if err := e.check(req.Settings, len(req.Sources)); err != nil {
		return e.fail(t, res, err)
	}

	t.enter(PhaseLoadingSources)
	start := time.Now()
	in, err := e.Load(ctx, req)
	res.Timings[StageLoad] = time.Since(start)
	if err != nil {
		return e.fail(t, res, err)
	}
	return e.finish(ctx, t, res, in, req.Settings, req.Options)
}

// Compose runs the pipeline on already decoded input.
func (e *Engine) Compose(ctx context.Context, in *Input, s *settings.Settings, opts Options) (*Result, error) {
	t := &tracker{observer: opts.Observer}
	res := &Result{Timings: make(map[string]time.Duration)}
	if in == nil {
		return e.fail(t, res, apperrors.New(apperrors.CategorySource, "engine.compose", apperrors.ErrNoSources))
	}
	if err := e.check(s, len(in.Images)); err != nil {
		return e.fail(t, res, err)
	}
	return e.finish(ctx, t, res, in, s, opts)
}

func (e *Engine) finish(ctx context.Context, t *tracker, res *Result, in *Input, s *settings.Settings, opts Options) (*Result, error) {
	canvas, err := e.run(ctx, t, res, in, s, opts)
	if err != nil {
		return e.fail(t, res, err)
	}
	t.enter(PhaseReady)
	res.Image, res.Phase = canvas, PhaseReady
	return res, nil
}

func (e *Engine) fail(t *tracker, res *Result, err error) (*Result, error) {
	t.enter(PhaseFailed)
	res.Phase = PhaseFailed
	res.Image = nil
	e.logger.Warn("render failed", "error", err)
	return res, err
}

// check rejects settings the engine cannot render at all.
func (e *Engine) check(s *settings.Settings, sources int) error {
	if s == nil {
		return apperrors.New(apperrors.CategoryInput, "engine.settings", fmt.Errorf("settings are required"))
	}
	w, h := s.Canvas.Width, s.Canvas.Height
	if w <= 0 || h <= 0 {
		return &apperrors.RenderContextError{
			Op:  "engine.canvas",
			Err: fmt.Errorf("%w: got %dx%d", apperrors.ErrInvalidCanvas, w, h),
		}
	}
	if e.cfg.MaxCanvasPixels > 0 && w*h > e.cfg.MaxCanvasPixels {
		return &apperrors.RenderContextError{
			Op:  "engine.canvas",
			Err: fmt.Errorf("%w: %dx%d > %d pixels", apperrors.ErrCanvasTooLarge, w, h, e.cfg.MaxCanvasPixels),
		}
	}
	if e.cfg.MaxSources > 0 && sources > e.cfg.MaxSources {
		return apperrors.New(apperrors.CategoryInput, "engine.sources",
			fmt.Errorf("%w: %d > %d", apperrors.ErrTooManySources, sources, e.cfg.MaxSources))
	}
	return nil
}

// Load decodes every source and every active light-leak asset. Any failure
// fails the whole load.
func (e *Engine) Load(ctx context.Context, req Request) (*Input, error) {
	images, err := imaging.LoadAll(ctx, req.Sources, e.cfg.DecodeTimeout.Duration)
	if err != nil {
		return nil, err
	}
	leaks, err := e.loadLeaks(ctx, req.Settings, req.Assets)
	if err != nil {
		return nil, err
	}
	return &Input{Images: images, Leaks: leaks}, nil
}

func (e *Engine) loadLeaks(ctx context.Context, s *settings.Settings, loader imaging.AssetLoader) ([]image.Image, error) {
	if s == nil || len(s.LightLeaks) == 0 {
		return nil, nil
	}
	leaks := make([]image.Image, len(s.LightLeaks))
	for i, l := range s.LightLeaks {
		if !l.Enabled || l.Opacity <= 0 {
			continue
		}
		img, err := imaging.LoadAsset(ctx, loader, l.URL, e.cfg.DecodeTimeout.Duration)
		if err != nil {
			return nil, &apperrors.SourceLoadError{Index: -1, Asset: l.URL, Err: err}
		}
		leaks[i] = img
	}
	return leaks, nil
}

// stage is one step of the canonical order. run may draw into the canvas
// in place or return a new buffer.
type stage struct {
	name  string
	phase Phase
	run   func(canvas *image.NRGBA) (*image.NRGBA, error)
}

// background is the canvas fill: the settings color, or transparent.
func background(s *settings.Settings, transparent bool) color.NRGBA {
	if transparent {
		return color.NRGBA{}
	}
	return colorspace.ParseColorOr(s.Canvas.BackgroundColor, color.NRGBA{255, 255, 255, 255})
}

// stages lists the canonical order for s.
func (e *Engine) stages(in *Input, s *settings.Settings, opts Options) []stage {
	bg := background(s, opts.Transparent)
	list := []stage{{name: StageClear, phase: PhaseComposing, run: func(c *image.NRGBA) (*image.NRGBA, error) {
		draw.Draw(c, c.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
		return c, nil
	}}}

	for _, l := range s.Layers() {
		if l.Kind == settings.LayerImages {
			if s.DoubleExposure.Active() {
				list = append(list, stage{name: StageDoubleExposure, phase: PhaseComposing, run: func(c *image.NRGBA) (*image.NRGBA, error) {
					return c, e.compositor.DrawDoubleExposure(c, in.Images, s)
				}})
				continue
			}
			list = append(list, stage{name: StageLayout, phase: PhaseComposing, run: func(c *image.NRGBA) (*image.NRGBA, error) {
				return c, e.compositor.DrawLayout(c, in.Images, s)
			}})
			continue
		}
		list = append(list, stage{name: l.Kind.String(), phase: PhaseComposing, run: func(c *image.NRGBA) (*image.NRGBA, error) {
			return c, e.decor.Draw(c, l)
		}})
	}

	env := effects.Env{Rand: opts.Rand, Background: bg, Leaks: in.Leaks}
	for _, step := range effects.Pipeline(s, env) {
		list = append(list, stage{name: step.Name, phase: PhasePostProcessing, run: step.Apply})
	}
	return list
}

// run executes every stage on a fresh canvas.
func (e *Engine) run(ctx context.Context, t *tracker, res *Result, in *Input, s *settings.Settings, opts Options) (*image.NRGBA, error) {
	canvas := image.NewNRGBA(image.Rect(0, 0, s.Canvas.Width, s.Canvas.Height))
	for _, st := range e.stages(in, s, opts) {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryContext, "engine."+st.name, err)
		}
		t.enter(st.phase)

		for _, h := range e.hooks {
			h.BeforeStage(ctx, st.name, canvas)
		}
		start := time.Now()
		next, err := st.run(canvas)
		elapsed := time.Since(start)
		for _, h := range e.hooks {
			h.AfterStage(ctx, st.name, elapsed, err)
		}

		res.Stages = append(res.Stages, st.name)
		res.Timings[st.name] += elapsed
		if err != nil {
			return nil, err
		}
		if next != nil {
			canvas = next
		}
	}
	return canvas, nil
}
