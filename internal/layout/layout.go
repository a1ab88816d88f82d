// Package layout resolves a layout kind and an image count into destination
// cells on the canvas.
//
// Every layout returns exactly one cell per image, with every rectangle
// inside the canvas. Tiled layouts (horizontal, vertical, grid, collage1,
// collage2, mosaic) never overlap. Overlay-style layouts (overlay, diagonal)
// stack full-canvas cells and mark every layer above the base for blending.
// Circular and stacked cells may overlap; later cells draw on top.
//
// When a layout has more images than its template holds, the largest cells
// are subdivided rather than failing.
package layout

import (
	"fmt"
	"math"

	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the rectangle centre.
func (r Rect) Center() (float64, float64) { return r.X + r.Width/2, r.Y + r.Height/2 }

// Area returns Width*Height.
func (r Rect) Area() float64 { return r.Width * r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return !(r.Width > 0 && r.Height > 0) }

// Inset shrinks r by d on every side, never below one pixel per axis.
func (r Rect) Inset(d float64) Rect {
	if d <= 0 {
		return r
	}
	dx := math.Min(d, math.Max(0, (r.Width-1)/2))
	dy := math.Min(d, math.Max(0, (r.Height-1)/2))
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width - 2*dx, Height: r.Height - 2*dy}
}

// Overlaps reports whether r and o share interior area.
func (r Rect) Overlaps(o Rect) bool {
	const eps = 1e-6
	return r.X < o.MaxX()-eps && o.X < r.MaxX()-eps && r.Y < o.MaxY()-eps && o.Y < r.MaxY()-eps
}

// ClipKind selects the clip geometry of a cell.
type ClipKind string

const (
	ClipNone      ClipKind = "none"
	ClipPolygon   ClipKind = "polygon"
	ClipEllipse   ClipKind = "ellipse"
	ClipRoundRect ClipKind = "round-rect"
)

// Clip restricts where a cell's image paints. Polygon points are absolute
// canvas coordinates; ellipse and round-rect clips are inscribed in the
// cell's rectangle.
type Clip struct {
	Kind   ClipKind         `json:"kind"`
	Points []settings.Point `json:"points,omitempty"`
	Radius float64          `json:"radius,omitempty"`
}

// Placement positions an overlay layer inside its cell: the image covers the
// cell scaled by Scale, its centre moved by the offset, rotated clockwise.
type Placement struct {
	Scale    float64 `json:"scale"`
	OffsetX  float64 `json:"offsetX"`
	OffsetY  float64 `json:"offsetY"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

// Cell is the resolved destination of one image.
type Cell struct {
	Index     int        `json:"index"`
	Rect      Rect       `json:"rect"`
	Clip      Clip       `json:"clip"`
	Placement *Placement `json:"placement,omitempty"`

	// Blend is set for layers composited with the layout's blend mode
	// instead of plain source-over.
	Blend bool `json:"blend"`
}

// Options carries the settings the resolver reads besides the layout kind.
type Options struct {
	Margin       float64
	BorderRadius float64
	Overlay      *settings.OverlaySettings
}

// OptionsFrom extracts resolver options from render settings.
func OptionsFrom(s *settings.Settings) Options {
	o := Options{Margin: s.Margin(), Overlay: s.Overlay}
	if s.VisualEffects != nil {
		o.BorderRadius = s.VisualEffects.BorderRadius
	}
	return o
}

// Resolve computes n cells for the layout on a width x height canvas.
func Resolve(kind settings.LayoutKind, n, width, height int, opts Options) ([]Cell, error) {
	if n < 1 {
		return nil, &apperrors.InvalidGeometryError{Op: "layout.resolve", Detail: fmt.Sprintf("image count %d", n)}
	}
	if width <= 0 || height <= 0 {
		return nil, &apperrors.InvalidGeometryError{Op: "layout.resolve", Detail: fmt.Sprintf("canvas %dx%d", width, height)}
	}
	canvas := Rect{Width: float64(width), Height: float64(height)}

	var cells []Cell
	switch kind {
	case settings.LayoutSingle, "":
		if n == 1 {
			cells = []Cell{{Rect: canvas}}
		} else {
			cells = tiled(gridRects(canvas, n), opts)
		}
	case settings.LayoutHorizontal:
		cells = tiled(splitRow(canvas, equalWeights(n)), opts)
	case settings.LayoutVertical:
		cells = tiled(splitColumn(canvas, equalWeights(n)), opts)
	case settings.LayoutGrid:
		cells = tiled(gridRects(canvas, n), opts)
	case settings.LayoutCollage1:
		cells = tiled(fromTemplate(canvas, n, collage1), opts)
	case settings.LayoutCollage2:
		cells = tiled(fromTemplate(canvas, n, collage2), opts)
	case settings.LayoutMosaic:
		cells = tiled(mosaicRects(canvas, n), opts)
	case settings.LayoutOverlay:
		cells = overlayCells(canvas, n, opts.Overlay)
	case settings.LayoutDiagonal:
		cells = diagonalCells(canvas, n)
	case settings.LayoutCircular:
		cells = circularCells(canvas.Inset(opts.Margin), n)
	case settings.LayoutStacked:
		cells = stackedCells(canvas.Inset(opts.Margin), n)
	default:
		return nil, apperrors.New(apperrors.CategoryInput, "layout.resolve", fmt.Errorf("unknown layout %q", kind))
	}

	for i := range cells {
		cells[i].Index = i
		if cells[i].Clip.Kind == "" {
			cells[i].Clip.Kind = ClipNone
		}
	}
	return cells, nil
}

// tiled turns tile rectangles into cells, applying the margin inset and the
// rounded-corner clip.
func tiled(rects []Rect, opts Options) []Cell {
	cells := make([]Cell, len(rects))
	for i, r := range rects {
		cells[i].Rect = r.Inset(opts.Margin)
		if opts.BorderRadius > 0 {
			cells[i].Clip = Clip{Kind: ClipRoundRect, Radius: opts.BorderRadius}
		}
	}
	return cells
}
