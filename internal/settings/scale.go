package settings

import "math"

// Clone returns a deep copy of s. Render stages may then adjust the copy
// without touching the caller's settings.
func (s *Settings) Clone() *Settings {
	c := *s
	c.Overlay = clonePtr(s.Overlay)
	c.VisualEffects = clonePtr(s.VisualEffects)
	c.Filters = clonePtr(s.Filters)
	c.Glitch = clonePtr(s.Glitch)
	c.DoubleExposure = clonePtr(s.DoubleExposure)
	c.Shadow = clonePtr(s.Shadow)
	c.Bokeh = clonePtr(s.Bokeh)
	c.Duotone = clonePtr(s.Duotone)

	c.Transparency = cloneMap(s.Transparency)
	c.Transforms = cloneMap(s.Transforms)
	c.Crops = cloneMap(s.Crops)
	c.Masks = cloneMap(s.Masks)

	c.TextLayers = append([]TextLayer(nil), s.TextLayers...)
	c.StickerLayers = append([]StickerLayer(nil), s.StickerLayers...)
	c.LightLeaks = append([]LightLeakOverlay(nil), s.LightLeaks...)
	c.Drawings = make([]DrawingStroke, len(s.Drawings))
	for i, d := range s.Drawings {
		d.Points = append([]Point(nil), d.Points...)
		d.StartPoint = clonePtr(d.StartPoint)
		d.EndPoint = clonePtr(d.EndPoint)
		c.Drawings[i] = d
	}
	if s.Drawings == nil {
		c.Drawings = nil
	}
	return &c
}

// WithoutEffects returns the "before" settings used by the comparison view:
// the same layout, canvas and placement, with every per-image adjustment,
// decoration and post-process effect removed.
func (s *Settings) WithoutEffects() *Settings {
	return &Settings{
		Layout:        s.Layout,
		Canvas:        s.Canvas,
		BlendMode:     s.BlendMode,
		Overlay:       clonePtr(s.Overlay),
		VisualEffects: clonePtr(s.VisualEffects),
		Crops:         cloneMap(s.Crops),
	}
}

// Scaled returns a copy of s for a canvas scaled by factor. Every parameter
// measured in canvas pixels scales with it so a downscaled preview matches
// the full-size export. Crops are in source pixels and stay unchanged.
func (s *Settings) Scaled(factor float64) *Settings {
	c := s.Clone()
	if factor <= 0 || factor == 1 {
		return c
	}
	px := func(v float64) float64 { return v * factor }

	c.Canvas.Width = max(1, int(math.Round(float64(s.Canvas.Width)*factor)))
	c.Canvas.Height = max(1, int(math.Round(float64(s.Canvas.Height)*factor)))

	if ve := c.VisualEffects; ve != nil {
		ve.Margin, ve.BorderRadius, ve.BorderWidth = px(ve.Margin), px(ve.BorderRadius), px(ve.BorderWidth)
	}
	if o := c.Overlay; o != nil {
		o.X, o.Y = px(o.X), px(o.Y)
	}
	if f := c.Filters; f != nil {
		f.Blur = px(f.Blur)
	}
	for i, m := range c.Masks {
		m.Feather = px(m.Feather)
		c.Masks[i] = m
	}
	for i := range c.TextLayers {
		t := &c.TextLayers[i]
		t.X, t.Y, t.FontSize = px(t.X), px(t.Y), px(t.FontSize)
		t.StrokeWidth, t.ShadowBlur = px(t.StrokeWidth), px(t.ShadowBlur)
		t.ShadowOffset = Point{px(t.ShadowOffset.X), px(t.ShadowOffset.Y)}
	}
	for i := range c.StickerLayers {
		st := &c.StickerLayers[i]
		st.X, st.Y, st.Size = px(st.X), px(st.Y), px(st.Size)
	}
	for i := range c.Drawings {
		d := &c.Drawings[i]
		d.Size = px(d.Size)
		for j := range d.Points {
			d.Points[j] = Point{px(d.Points[j].X), px(d.Points[j].Y)}
		}
		if d.StartPoint != nil {
			*d.StartPoint = Point{px(d.StartPoint.X), px(d.StartPoint.Y)}
		}
		if d.EndPoint != nil {
			*d.EndPoint = Point{px(d.EndPoint.X), px(d.EndPoint.Y)}
		}
	}
	if g := c.Glitch; g != nil {
		g.RGBSplit.Intensity = px(g.RGBSplit.Intensity)
		g.Distortion.Intensity = px(g.Distortion.Intensity)
	}
	if de := c.DoubleExposure; de != nil {
		de.OffsetX, de.OffsetY = px(de.OffsetX), px(de.OffsetY)
	}
	if sh := c.Shadow; sh != nil {
		sh.Blur, sh.Spread, sh.Distance = px(sh.Blur), px(sh.Spread), px(sh.Distance)
		sh.OffsetX, sh.OffsetY, sh.Curve = px(sh.OffsetX), px(sh.OffsetY), px(sh.Curve)
	}
	for i := range c.LightLeaks {
		l := &c.LightLeaks[i]
		if l.positioned {
			l.X, l.Y = px(l.X), px(l.Y)
		}
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
