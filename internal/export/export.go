// Package export is the export call site: it renders through the engine,
// stamps the free-tier watermark as the last step, and encodes the result.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-compose-mcp/internal/colorspace"
	"github.com/ironsheep/image-compose-mcp/internal/decor"
	"github.com/ironsheep/image-compose-mcp/internal/engine"
	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Format is an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts "png", "jpeg" and "jpg" in any case. Empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", apperrors.New(apperrors.CategoryInput, "export.format",
		fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, s))
}

// MIMEType returns the media type of the format.
func (f Format) MIMEType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Options select the encoding and the caller's tier.
type Options struct {
	Format Format

	// Quality is the JPEG quality (1-100); 0 uses the exporter default.
	Quality int

	// Transparent renders without the background fill. PNG keeps the
	// alpha; JPEG flattens onto white. The settings' transparentBackground
	// flag has the same effect.
	Transparent bool

	// Premium callers get no watermark.
	Premium bool
}

// Output is one encoded export.
type Output struct {
	Data    []byte
	Format  Format
	Width   int
	Height  int
	Quality int

	// Stamped reports whether the watermark was drawn.
	Stamped bool

	Result *engine.Result
}

// MIMEType returns the media type of the encoded data.
func (o *Output) MIMEType() string { return o.Format.MIMEType() }

// Exporter renders and encodes exports.
type Exporter struct {
	Engine    *engine.Engine
	Text      *decor.Renderer
	Watermark string
	Quality   int
	Logger    *slog.Logger
}

// New returns an exporter using the engine's configuration for the
// watermark text and default JPEG quality. The watermark is drawn with the
// engine's decoration renderer, so closing the engine releases its fonts.
func New(e *engine.Engine, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := e.Config()
	return &Exporter{
		Engine:    e,
		Text:      e.Decor(),
		Watermark: cfg.WatermarkText,
		Quality:   cfg.JPEGQuality,
		Logger:    logger,
	}
}

// Export renders req and encodes the result.
func (x *Exporter) Export(ctx context.Context, req engine.Request, opts Options) (*Output, error) {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	quality := opts.Quality
	if quality == 0 {
		quality = x.Quality
	}
	if quality < 1 || quality > 100 {
		return nil, apperrors.New(apperrors.CategoryInput, "export.quality",
			fmt.Errorf("jpeg quality must be between 1 and 100, got %d", quality))
	}

	transparent := opts.Transparent || (req.Settings != nil && req.Settings.Canvas.Transparent)
	req.Options.Transparent = transparent

	res, err := x.Engine.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	img := res.Image
	out := &Output{Format: format, Result: res, Quality: quality}

	if !opts.Premium && x.Watermark != "" {
		if err := x.Stamp(img, x.Watermark); err != nil {
			return nil, err
		}
		out.Stamped = true
	}
	if format == FormatJPEG {
		img = Flatten(img, background(req.Settings, transparent))
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return nil, err
	}
	b := img.Bounds()
	out.Data, out.Width, out.Height = buf.Bytes(), b.Dx(), b.Dy()
	x.Logger.Debug("export encoded",
		"format", format,
		"bytes", len(out.Data),
		"width", out.Width,
		"height", out.Height,
		"watermark", out.Stamped,
	)
	return out, nil
}

// Stamp draws the watermark in the bottom-right corner, sized to the
// shorter canvas side.
func (x *Exporter) Stamp(img *image.NRGBA, text string) error {
	b := img.Bounds()
	short := float64(min(b.Dx(), b.Dy()))
	size := math.Max(10, math.Round(short*0.04))
	pad := math.Max(4, math.Round(size*0.6))
	layer := &settings.TextLayer{
		Text:         text,
		X:            float64(b.Dx()) - pad,
		Y:            float64(b.Dy()) - pad - size*1.2,
		FontSize:     size,
		Color:        "#FFFFFF",
		Align:        settings.AlignRight,
		Opacity:      0.7,
		ShadowBlur:   2,
		ShadowOffset: settings.Point{X: 1, Y: 1},
		ShadowColor:  "#000000",
	}
	return x.Text.DrawText(img, layer)
}

// background is the fill for formats without alpha.
func background(s *settings.Settings, transparent bool) color.NRGBA {
	white := color.NRGBA{255, 255, 255, 255}
	if s == nil || transparent {
		return white
	}
	return colorspace.ParseColorOr(s.Canvas.BackgroundColor, white)
}

// Flatten composites img over an opaque bg.
func Flatten(img image.Image, bg color.NRGBA) *image.NRGBA {
	bg.A = 255
	b := img.Bounds()
	base := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(base, img, image.Point{}, 1)
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	var err error
	switch format {
	case FormatJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG, "":
		err = imaging.Encode(w, img, imaging.PNG)
	default:
		err = fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, format)
	}
	return apperrors.Wrap(apperrors.CategoryEncode, "export.encode", err)
}
