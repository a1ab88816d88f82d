// Package shapes emits the vector outlines shared by image masks, cell clips
// and sticker decorations. Outlines are written into any path builder;
// *gg.Context satisfies Path.
package shapes

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Path receives path construction commands.
type Path interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	CubicTo(c1x, c1y, c2x, c2y, x, y float64)
	ClosePath()
}

var _ Path = (*gg.Context)(nil)

// Heart outlines a heart filling the size x size box at (x, y).
func Heart(p Path, x, y, size float64) {
	pt := func(u, v float64) (float64, float64) { return x + u*size, y + v*size }

	p.MoveTo(pt(0.5, 0.3))
	c1x, c1y := pt(0.5, 0.27)
	c2x, c2y := pt(0.45, 0.12)
	ex, ey := pt(0.25, 0.12)
	p.CubicTo(c1x, c1y, c2x, c2y, ex, ey)
	c1x, c1y = pt(0.05, 0.12)
	c2x, c2y = pt(0, 0.3)
	ex, ey = pt(0, 0.4)
	p.CubicTo(c1x, c1y, c2x, c2y, ex, ey)
	c1x, c1y = pt(0, 0.6)
	c2x, c2y = pt(0.2, 0.75)
	ex, ey = pt(0.5, 0.95)
	p.CubicTo(c1x, c1y, c2x, c2y, ex, ey)
	c1x, c1y = pt(0.8, 0.75)
	c2x, c2y = pt(1, 0.6)
	ex, ey = pt(1, 0.4)
	p.CubicTo(c1x, c1y, c2x, c2y, ex, ey)
	c1x, c1y = pt(1, 0.3)
	c2x, c2y = pt(0.95, 0.12)
	ex, ey = pt(0.75, 0.12)
	p.CubicTo(c1x, c1y, c2x, c2y, ex, ey)
	c1x, c1y = pt(0.55, 0.12)
	c2x, c2y = pt(0.5, 0.27)
	ex, ey = pt(0.5, 0.3)
	p.CubicTo(c1x, c1y, c2x, c2y, ex, ey)
	p.ClosePath()
}

// Star outlines a star with the given number of points, first point up.
func Star(p Path, cx, cy, outer, inner float64, points int) {
	if points < 2 {
		points = 5
	}
	step := math.Pi / float64(points)
	for i := 0; i < 2*points; i++ {
		r := outer
		if i%2 == 1 {
			r = inner
		}
		a := -math.Pi/2 + float64(i)*step
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	p.ClosePath()
}

// RegularPolygon outlines an n-gon inscribed in radius r, first vertex up.
func RegularPolygon(p Path, n int, cx, cy, r float64) {
	for i := 0; i < n; i++ {
		a := -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			p.MoveTo(x, y)
		} else {
			p.LineTo(x, y)
		}
	}
	p.ClosePath()
}

// Sparkle outlines a four-pointed twinkle with concave sides.
func Sparkle(p Path, cx, cy, r float64) {
	k := r * 0.15
	p.MoveTo(cx, cy-r)
	p.CubicTo(cx+k, cy-k, cx+k, cy-k, cx+r, cy)
	p.CubicTo(cx+k, cy+k, cx+k, cy+k, cx, cy+r)
	p.CubicTo(cx-k, cy+k, cx-k, cy+k, cx-r, cy)
	p.CubicTo(cx-k, cy-k, cx-k, cy-k, cx, cy-r)
	p.ClosePath()
}

// Polygon outlines pts mapped through (x + u*w, y + v*h). Fewer than three
// points emit nothing.
func Polygon(p Path, pts []settings.Point, x, y, w, h float64) {
	if len(pts) < 3 {
		return
	}
	for i, pt := range pts {
		px, py := x+pt.X*w, y+pt.Y*h
		if i == 0 {
			p.MoveTo(px, py)
		} else {
			p.LineTo(px, py)
		}
	}
	p.ClosePath()
}

// Mask names an image mask shape. It returns false for MaskNone.
func Mask(p Path, shape settings.MaskShape, w, h float64) bool {
	s := math.Min(w, h)
	cx, cy, r := w/2, h/2, s/2
	switch shape {
	case settings.MaskCircle:
		Ellipse(p, cx, cy, r, r)
	case settings.MaskSquare:
		Rect(p, cx-r, cy-r, s, s)
	case settings.MaskHeart:
		Heart(p, cx-r, cy-r, s)
	case settings.MaskStar:
		Star(p, cx, cy, r, r*0.4, 5)
	case settings.MaskPentagon:
		RegularPolygon(p, 5, cx, cy, r)
	case settings.MaskHexagon:
		RegularPolygon(p, 6, cx, cy, r)
	default:
		return false
	}
	return true
}

// Rect outlines an axis-aligned rectangle.
func Rect(p Path, x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.ClosePath()
}

// kappa is the cubic control distance approximating a quarter circle.
const kappa = 0.5522847498

// Ellipse outlines an axis-aligned ellipse from four cubic arcs.
func Ellipse(p Path, cx, cy, rx, ry float64) {
	ox, oy := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.CubicTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.CubicTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.CubicTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	p.ClosePath()
}

// RoundRect outlines a rectangle with corner radius r, clamped to half the
// shorter side.
func RoundRect(p Path, x, y, w, h, r float64) {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		Rect(p, x, y, w, h)
		return
	}
	o := r * (1 - kappa)
	p.MoveTo(x+r, y)
	p.LineTo(x+w-r, y)
	p.CubicTo(x+w-o, y, x+w, y+o, x+w, y+r)
	p.LineTo(x+w, y+h-r)
	p.CubicTo(x+w, y+h-o, x+w-o, y+h, x+w-r, y+h)
	p.LineTo(x+r, y+h)
	p.CubicTo(x+o, y+h, x, y+h-o, x, y+h-r)
	p.LineTo(x, y+r)
	p.CubicTo(x, y+o, x+o, y, x+r, y)
	p.ClosePath()
}

// Coverage rasterizes the path built by outline on a w x h surface and
// returns its coverage mask.
func Coverage(w, h int, outline func(p Path)) *gg.Mask {
	dc := gg.NewContext(w, h)
	defer dc.Close()
	outline(dc)
	return dc.AsMask()
}
