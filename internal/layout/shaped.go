package layout

import (
	"math"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// overlayCells stacks every image on the full canvas. Layers above the base
// take the overlay placement and blend with the layout's blend mode.
func overlayCells(canvas Rect, n int, o *settings.OverlaySettings) []Cell {
	p := Placement{Scale: 1, Opacity: 1}
	if o != nil {
		p = Placement{Scale: o.Scale, OffsetX: o.X, OffsetY: o.Y, Rotation: o.Rotation, Opacity: o.Opacity}
	}
	cells := make([]Cell, n)
	for i := range cells {
		cells[i].Rect = canvas
		if i > 0 {
			pl := p
			cells[i].Placement = &pl
			cells[i].Blend = true
		}
	}
	return cells
}

// diagonalCells keeps a full-canvas base and clips each later layer to a
// diagonal band running from the top-right to the bottom-left. Two images
// split the canvas into triangles.
func diagonalCells(canvas Rect, n int) []Cell {
	cells := make([]Cell, n)
	for i := range cells {
		cells[i].Rect = canvas
		if i == 0 {
			continue
		}
		u0 := 2 * float64(i) / float64(n)
		u1 := 2 * float64(i+1) / float64(n)
		cells[i].Clip = Clip{Kind: ClipPolygon, Points: diagonalBand(canvas, u0, u1)}
		cells[i].Blend = true
	}
	return cells
}

// diagonalBand returns the part of r where u0 <= x/W + y/H <= u1.
func diagonalBand(r Rect, u0, u1 float64) []settings.Point {
	poly := []settings.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	poly = clipHalfPlane(poly, func(p settings.Point) float64 { return p.X + p.Y - u0 })
	poly = clipHalfPlane(poly, func(p settings.Point) float64 { return u1 - p.X - p.Y })
	for i := range poly {
		poly[i] = settings.Point{X: r.X + poly[i].X*r.Width, Y: r.Y + poly[i].Y*r.Height}
	}
	return poly
}

// clipHalfPlane keeps the part of a convex polygon where side(p) >= 0
// (Sutherland-Hodgman against one edge).
func clipHalfPlane(poly []settings.Point, side func(settings.Point) float64) []settings.Point {
	var out []settings.Point
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		sa, sb := side(a), side(b)
		if sa >= 0 {
			out = append(out, a)
		}
		if (sa > 0 && sb < 0) || (sa < 0 && sb > 0) {
			t := sa / (sa - sb)
			out = append(out, settings.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)})
		}
	}
	return out
}

// circularCells places circular cells on a ring inscribed in r; neighbours
// touch. A single image gets one centred circle.
func circularCells(r Rect, n int) []Cell {
	d := math.Min(r.Width, r.Height)
	cx, cy := r.Center()
	cells := make([]Cell, n)
	if n == 1 {
		cells[0] = Cell{
			Rect: Rect{X: cx - d/2, Y: cy - d/2, Width: d, Height: d},
			Clip: Clip{Kind: ClipEllipse},
		}
		return cells
	}

	sin := math.Sin(math.Pi / float64(n))
	size := d * sin / (1 + sin)
	ring := (d - size) / 2
	for i := range cells {
		angle := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		x := cx + ring*math.Cos(angle) - size/2
		y := cy + ring*math.Sin(angle) - size/2
		cells[i] = Cell{
			Rect: clampRect(Rect{X: x, Y: y, Width: size, Height: size}, r),
			Clip: Clip{Kind: ClipEllipse},
		}
	}
	return cells
}

// stackedCells cascades equally sized cards from the top-left corner; each
// card is offset down and right from the previous one.
func stackedCells(r Rect, n int) []Cell {
	cells := make([]Cell, n)
	if n == 1 {
		cells[0].Rect = r
		return cells
	}
	steps := float64(n - 1)
	dx := math.Min(r.Width*0.06, r.Width*0.5/steps)
	dy := math.Min(r.Height*0.06, r.Height*0.5/steps)
	w, h := r.Width-steps*dx, r.Height-steps*dy
	for i := range cells {
		cells[i].Rect = Rect{X: r.X + float64(i)*dx, Y: r.Y + float64(i)*dy, Width: w, Height: h}
	}
	return cells
}

// clampRect moves and shrinks r so it lies inside bounds. It absorbs
// floating-point drift at the edges.
func clampRect(r, bounds Rect) Rect {
	x0 := math.Max(r.X, bounds.X)
	y0 := math.Max(r.Y, bounds.Y)
	x1 := math.Min(r.MaxX(), bounds.MaxX())
	y1 := math.Min(r.MaxY(), bounds.MaxY())
	return Rect{X: x0, Y: y0, Width: math.Max(0, x1-x0), Height: math.Max(0, y1-y0)}
}
