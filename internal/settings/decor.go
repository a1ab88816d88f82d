package settings

import (
	"encoding/json"
	"math"
	"sort"
)

// TextAlign is the horizontal anchor of a text layer at its position.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// TextLayer is a run of text drawn either behind or in front of the images.
type TextLayer struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	FontSize     float64   `json:"fontSize"`
	FontFamily   string    `json:"fontFamily"`
	Color        string    `json:"color"`
	Align        TextAlign `json:"align"`
	Bold         bool      `json:"bold"`
	Italic       bool      `json:"italic"`
	Opacity      float64   `json:"opacity"`
	StrokeWidth  float64   `json:"strokeWidth"`
	StrokeColor  string    `json:"strokeColor"`
	ShadowBlur   float64   `json:"shadowBlur"`
	ShadowOffset Point     `json:"shadowOffset"`
	ShadowColor  string    `json:"shadowColor"`
	BehindImages bool      `json:"behindImages"`
}

// UnmarshalJSON applies defaults for absent fields.
func (t *TextLayer) UnmarshalJSON(b []byte) error {
	type alias TextLayer
	a := alias{FontSize: 32, Color: "#000000", Align: AlignLeft, Opacity: 1}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*t = TextLayer(a)
	return nil
}

func (t *TextLayer) normalize() {
	if t.FontSize <= 0 {
		t.FontSize = 32
	}
	switch t.Align {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		t.Align = AlignLeft
	}
	t.Opacity = clamp(t.Opacity, 0, 1)
	t.StrokeWidth = math.Max(0, t.StrokeWidth)
	t.ShadowBlur = math.Max(0, t.ShadowBlur)
}

// HasShadow reports whether the text casts a shadow.
func (t *TextLayer) HasShadow() bool {
	return t.ShadowColor != "" && (t.ShadowBlur > 0 || t.ShadowOffset.X != 0 || t.ShadowOffset.Y != 0)
}

// StickerLayer is an emoji or vector shape sticker.
type StickerLayer struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"` // "emoji", "heart", "star", "circle", "sparkle"
	Emoji    string  `json:"emoji"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
	Color    string  `json:"color"`
	ZIndex   int     `json:"zIndex"`
}

// UnmarshalJSON applies defaults for absent fields.
func (s *StickerLayer) UnmarshalJSON(b []byte) error {
	type alias StickerLayer
	a := alias{Type: "emoji", Size: 64, Opacity: 1, Color: "#FF3366"}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*s = StickerLayer(a)
	return nil
}

func (s *StickerLayer) normalize() {
	if s.Size <= 0 {
		s.Size = 64
	}
	if s.Type == "" {
		s.Type = "emoji"
	}
	s.Opacity = clamp(s.Opacity, 0, 1)
	s.Rotation = NormalizeDegrees(s.Rotation)
}

// DrawingTool is the kind of an annotation stroke.
type DrawingTool string

const (
	ToolPen         DrawingTool = "pen"
	ToolLine        DrawingTool = "line"
	ToolArrow       DrawingTool = "arrow"
	ToolRectangle   DrawingTool = "rectangle"
	ToolCircle      DrawingTool = "circle"
	ToolHighlighter DrawingTool = "highlighter"
)

// Freehand reports whether the tool draws through a point sequence.
func (t DrawingTool) Freehand() bool {
	return t == ToolPen || t == ToolHighlighter
}

// DrawingStroke is one freehand or shape annotation.
type DrawingStroke struct {
	ID         string      `json:"id"`
	Tool       DrawingTool `json:"tool"`
	Color      string      `json:"color"`
	Size       float64     `json:"size"`
	Opacity    float64     `json:"opacity"`
	Points     []Point     `json:"points,omitempty"`
	StartPoint *Point      `json:"startPoint,omitempty"`
	EndPoint   *Point      `json:"endPoint,omitempty"`
}

// UnmarshalJSON applies defaults for absent fields.
func (d *DrawingStroke) UnmarshalJSON(b []byte) error {
	type alias DrawingStroke
	a := alias{Tool: ToolPen, Color: "#FF0000", Size: 4, Opacity: 1}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = DrawingStroke(a)
	return nil
}

func (d *DrawingStroke) normalize() {
	if d.Size <= 0 {
		d.Size = 1
	}
	d.Opacity = clamp(d.Opacity, 0, 1)
}

// EffectiveWidth is the stroke width after tool scaling.
func (d *DrawingStroke) EffectiveWidth() float64 {
	if d.Tool == ToolHighlighter {
		return d.Size * 1.5
	}
	return d.Size
}

// EffectiveOpacity is the stroke opacity after tool scaling.
func (d *DrawingStroke) EffectiveOpacity() float64 {
	if d.Tool == ToolHighlighter {
		return d.Opacity * 0.4
	}
	return d.Opacity
}

// LayerKind discriminates the entries of the ordered layer list.
type LayerKind int

const (
	LayerTextBehind LayerKind = iota
	LayerImages
	LayerTextFront
	LayerSticker
	LayerStroke
)

func (k LayerKind) String() string {
	switch k {
	case LayerTextBehind:
		return "text(behind)"
	case LayerImages:
		return "images"
	case LayerTextFront:
		return "text(front)"
	case LayerSticker:
		return "sticker"
	case LayerStroke:
		return "annotation"
	}
	return "unknown"
}

// Layer is one entry of the back-to-front paint order. Exactly one payload
// field is set, matching Kind; LayerImages carries none.
type Layer struct {
	Kind    LayerKind
	Text    *TextLayer
	Sticker *StickerLayer
	Stroke  *DrawingStroke
}

// Layers builds the single ordered paint list for the settings:
//
//	text(behind) -> images -> text(front) -> stickers by zIndex -> strokes
//
// Text and strokes keep array order; stickers sort stably by zIndex so ties
// keep array order. The images entry is always present exactly once.
func (s *Settings) Layers() []Layer {
	layers := make([]Layer, 0, len(s.TextLayers)+len(s.StickerLayers)+len(s.Drawings)+1)

	for i := range s.TextLayers {
		if s.TextLayers[i].BehindImages {
			layers = append(layers, Layer{Kind: LayerTextBehind, Text: &s.TextLayers[i]})
		}
	}
	layers = append(layers, Layer{Kind: LayerImages})
	for i := range s.TextLayers {
		if !s.TextLayers[i].BehindImages {
			layers = append(layers, Layer{Kind: LayerTextFront, Text: &s.TextLayers[i]})
		}
	}

	stickers := make([]*StickerLayer, len(s.StickerLayers))
	for i := range s.StickerLayers {
		stickers[i] = &s.StickerLayers[i]
	}
	sort.SliceStable(stickers, func(i, j int) bool {
		return stickers[i].ZIndex < stickers[j].ZIndex
	})
	for _, st := range stickers {
		layers = append(layers, Layer{Kind: LayerSticker, Sticker: st})
	}

	for i := range s.Drawings {
		layers = append(layers, Layer{Kind: LayerStroke, Stroke: &s.Drawings[i]})
	}
	return layers
}
