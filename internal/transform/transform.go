// Package transform prepares one source image for placement: crop, cover
// fit, rotation and flip, CSS-style filters, mask and opacity, in that
// order. The source image is never modified.
package transform

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Params collects the per-image adjustments for one image index.
type Params struct {
	Crop        *settings.Crop
	Orientation settings.ImageTransform
	Filters     *settings.FilterSettings
	Mask        *settings.ImageMask

	// Opacity multiplies the final alpha; 1 leaves it unchanged.
	Opacity float64
}

// ParamsFor gathers the adjustments the settings carry for image i.
func ParamsFor(s *settings.Settings, i int) Params {
	p := Params{
		Orientation: s.Transforms[i],
		Filters:     s.Filters,
		Opacity:     s.OpacityFor(i),
	}
	if c, ok := s.Crops[i]; ok {
		p.Crop = &c
	}
	if m, ok := s.Masks[i]; ok {
		p.Mask = &m
	}
	return p
}

// Stage runs the per-image transform. Recovered geometry problems are
// logged at warn level and never fail the render.
type Stage struct {
	Logger *slog.Logger
}

// Apply returns a width x height image of src, ready to draw at its cell.
// The image covers the frame before masking; rotation turns it about the
// frame centre without exposing corners.
func (s *Stage) Apply(src image.Image, width, height int, p Params) (*image.NRGBA, error) {
	if src == nil {
		return nil, apperrors.ErrNilImage
	}
	if width <= 0 || height <= 0 {
		return nil, &apperrors.InvalidGeometryError{Op: "transform.apply", Detail: fmt.Sprintf("frame %dx%d", width, height)}
	}

	img := s.crop(src, p.Crop)
	out := orient(img, width, height, p.Orientation)
	out = Filter(out, p.Filters)
	applyAlpha(out, buildMask(p.Mask, width, height), p.Opacity)
	return out, nil
}

// crop cuts the crop rectangle out of src, falling back to the whole image
// when the rectangle is degenerate or leaves the source.
func (s *Stage) crop(src image.Image, c *settings.Crop) image.Image {
	if c == nil {
		return src
	}
	r, ok := c.Rect(src.Bounds())
	if !ok {
		s.warn(&apperrors.InvalidGeometryError{
			Op:     "transform.crop",
			Detail: fmt.Sprintf("crop %+v outside %v, using full image", *c, src.Bounds()),
		})
		return src
	}
	return imaging.Crop(src, r)
}

func (s *Stage) warn(err error) {
	if s != nil && s.Logger != nil {
		s.Logger.Warn("recovered geometry", "error", err)
	}
}

// orient cover-fits img to the frame and applies rotation then flip. For a
// rotated frame the image first covers the rotated bounding box so the
// turned result still fills width x height.
func orient(img image.Image, width, height int, t settings.ImageTransform) *image.NRGBA {
	deg := settings.NormalizeDegrees(t.Rotation)
	if deg == 0 {
		out := imaging.Fill(img, width, height, imaging.Center, imaging.Linear)
		return flip(out, t)
	}

	rad := deg * math.Pi / 180
	cos, sin := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	fw, fh := float64(width), float64(height)
	boxW := int(math.Ceil(fw*cos + fh*sin - 1e-9))
	boxH := int(math.Ceil(fw*sin + fh*cos - 1e-9))

	fitted := imaging.Fill(img, max(1, boxW), max(1, boxH), imaging.Center, imaging.Linear)
	// imaging rotates counter-clockwise; settings rotate clockwise.
	rotated := imaging.Rotate(fitted, -deg, color.Transparent)
	return flip(imaging.CropCenter(rotated, width, height), t)
}

func flip(img *image.NRGBA, t settings.ImageTransform) *image.NRGBA {
	if t.FlipHorizontal {
		img = imaging.FlipH(img)
	}
	if t.FlipVertical {
		img = imaging.FlipV(img)
	}
	return img
}

// Fit cover-fits img to width x height without any other adjustment.
func Fit(img image.Image, width, height int) *image.NRGBA {
	return imaging.Fill(img, max(1, width), max(1, height), imaging.Center, imaging.Linear)
}
