package decor

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/gobold"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

func createInMemoryImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var white = color.NRGBA{255, 255, 255, 255}

// changed counts pixels in r that differ from c.
func changed(img *image.NRGBA, r image.Rectangle, c color.NRGBA) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.NRGBAAt(x, y) != c {
				n++
			}
		}
	}
	return n
}

func TestDrawStroke_Rectangle(t *testing.T) {
	r := New(nil, nil)
	canvas := createInMemoryImage(80, 60, white)
	stroke := &settings.DrawingStroke{
		Tool:       settings.ToolRectangle,
		Color:      "#000000",
		Size:       2,
		Opacity:    1,
		StartPoint: &settings.Point{X: 50, Y: 40},
		EndPoint:   &settings.Point{X: 10, Y: 10},
	}
	if err := r.DrawStroke(canvas, stroke); err != nil {
		t.Fatal(err)
	}
	// Edges of the 40x30 box at (10,10).
	for _, p := range []image.Point{{30, 10}, {10, 25}, {50, 25}, {30, 40}} {
		if c := canvas.NRGBAAt(p.X, p.Y); c.R > 64 {
			t.Errorf("edge %v not stroked: %v", p, c)
		}
	}
	// Interior and exterior untouched.
	for _, p := range []image.Point{{30, 25}, {5, 5}, {55, 45}} {
		if c := canvas.NRGBAAt(p.X, p.Y); c != white {
			t.Errorf("%v should be untouched, got %v", p, c)
		}
	}
}

func TestDrawStroke_Tools(t *testing.T) {
	start, end := &settings.Point{X: 10, Y: 30}, &settings.Point{X: 70, Y: 30}
	tests := []struct {
		name   string
		stroke settings.DrawingStroke
		hit    image.Point
	}{
		{"pen", settings.DrawingStroke{Tool: settings.ToolPen, Points: []settings.Point{{X: 10, Y: 10}, {X: 40, Y: 10}, {X: 40, Y: 50}}}, image.Pt(40, 30)},
		{"highlighter", settings.DrawingStroke{Tool: settings.ToolHighlighter, Points: []settings.Point{{X: 10, Y: 10}, {X: 70, Y: 10}}}, image.Pt(40, 10)},
		{"line", settings.DrawingStroke{Tool: settings.ToolLine, StartPoint: start, EndPoint: end}, image.Pt(40, 30)},
		{"arrow head", settings.DrawingStroke{Tool: settings.ToolArrow, StartPoint: start, EndPoint: end}, image.Pt(60, 25)},
		{"circle", settings.DrawingStroke{Tool: settings.ToolCircle, StartPoint: &settings.Point{X: 40, Y: 30}, EndPoint: &settings.Point{X: 60, Y: 30}}, image.Pt(40, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canvas := createInMemoryImage(80, 60, white)
			s := tt.stroke
			s.Color, s.Size, s.Opacity = "#0000FF", 4, 1
			if err := New(nil, nil).DrawStroke(canvas, &s); err != nil {
				t.Fatal(err)
			}
			if c := canvas.NRGBAAt(tt.hit.X, tt.hit.Y); c == white {
				t.Errorf("expected ink at %v", tt.hit)
			}
		})
	}
}

func TestDrawStroke_HighlighterIsTranslucent(t *testing.T) {
	canvas := createInMemoryImage(40, 20, white)
	s := &settings.DrawingStroke{Tool: settings.ToolHighlighter, Color: "#000000", Size: 8, Opacity: 1,
		Points: []settings.Point{{X: 0, Y: 10}, {X: 40, Y: 10}}}
	if err := New(nil, nil).DrawStroke(canvas, s); err != nil {
		t.Fatal(err)
	}
	c := canvas.NRGBAAt(20, 10)
	if c.R < 140 || c.R > 165 {
		t.Errorf("highlighter at 40%% opacity over white should be ~153, got %v", c)
	}
}

func TestDrawStroke_MissingPoints(t *testing.T) {
	canvas := createInMemoryImage(20, 20, white)
	for _, s := range []*settings.DrawingStroke{
		{Tool: settings.ToolPen, Size: 2, Opacity: 1},
		{Tool: settings.ToolLine, Size: 2, Opacity: 1, StartPoint: &settings.Point{X: 1, Y: 1}},
		{Tool: settings.ToolCircle, Size: 2, Opacity: 1, StartPoint: &settings.Point{X: 5, Y: 5}, EndPoint: &settings.Point{X: 5, Y: 5}},
	} {
		if err := New(nil, nil).DrawStroke(canvas, s); err != nil {
			t.Errorf("%s: degenerate stroke must be skipped, got %v", s.Tool, err)
		}
	}
	if n := changed(canvas, canvas.Bounds(), white); n != 0 {
		t.Errorf("%d pixels changed by skipped strokes", n)
	}
}

func TestDrawText(t *testing.T) {
	canvas := createInMemoryImage(200, 80, white)
	layer := &settings.TextLayer{Text: "Hello\nWorld", X: 10, Y: 10, FontSize: 24, Color: "#000000", Align: settings.AlignLeft, Opacity: 1}
	if err := New(nil, nil).DrawText(canvas, layer); err != nil {
		t.Fatal(err)
	}
	if changed(canvas, image.Rect(10, 10, 90, 38), white) == 0 {
		t.Error("first line drew nothing")
	}
	if changed(canvas, image.Rect(10, 38, 90, 70), white) == 0 {
		t.Error("second line drew nothing")
	}
	if changed(canvas, image.Rect(0, 0, 200, 8), white) != 0 {
		t.Error("text should start below its y position")
	}
}

func TestDrawText_Align(t *testing.T) {
	draw := func(align settings.TextAlign) *image.NRGBA {
		canvas := createInMemoryImage(200, 50, white)
		layer := &settings.TextLayer{Text: "Hi", X: 100, Y: 5, FontSize: 30, Color: "#000000", Align: align, Opacity: 1}
		if err := New(nil, nil).DrawText(canvas, layer); err != nil {
			t.Fatal(err)
		}
		return canvas
	}
	left, right := draw(settings.AlignLeft), draw(settings.AlignRight)
	if changed(left, image.Rect(0, 0, 98, 50), white) != 0 {
		t.Error("left-aligned text should sit right of x")
	}
	if changed(right, image.Rect(102, 0, 200, 50), white) != 0 {
		t.Error("right-aligned text should sit left of x")
	}
	if changed(draw(settings.AlignCenter), image.Rect(0, 0, 100, 50), white) == 0 {
		t.Error("centred text should straddle x")
	}
}

func TestDrawText_StrokeAndShadow(t *testing.T) {
	plain := createInMemoryImage(120, 60, white)
	fancy := createInMemoryImage(120, 60, white)
	base := settings.TextLayer{Text: "A", X: 40, Y: 10, FontSize: 32, Color: "#FFFF00", Align: settings.AlignLeft, Opacity: 1}
	withEffects := base
	withEffects.StrokeWidth = 2
	withEffects.StrokeColor = "#000000"
	withEffects.ShadowColor = "#FF0000"
	withEffects.ShadowOffset = settings.Point{X: 6, Y: 6}

	r := New(nil, nil)
	if err := r.DrawText(plain, &base); err != nil {
		t.Fatal(err)
	}
	if err := r.DrawText(fancy, &withEffects); err != nil {
		t.Fatal(err)
	}
	if changed(fancy, fancy.Bounds(), white) <= changed(plain, plain.Bounds(), white) {
		t.Error("stroke and shadow should cover more pixels than plain text")
	}
}

func TestDrawText_Skips(t *testing.T) {
	canvas := createInMemoryImage(20, 20, white)
	r := New(nil, nil)
	for _, l := range []*settings.TextLayer{nil, {Text: "  ", FontSize: 10, Opacity: 1}, {Text: "x", FontSize: 10, Opacity: 0}} {
		if err := r.DrawText(canvas, l); err != nil {
			t.Fatal(err)
		}
	}
	if changed(canvas, canvas.Bounds(), white) != 0 {
		t.Error("skipped text layers changed the canvas")
	}
}

func TestDrawSticker_Shapes(t *testing.T) {
	for _, kind := range []string{"heart", "star", "circle", "sparkle"} {
		t.Run(kind, func(t *testing.T) {
			canvas := createInMemoryImage(100, 100, white)
			st := &settings.StickerLayer{Type: kind, X: 50, Y: 50, Size: 60, Opacity: 1, Color: "#FF0000"}
			if err := New(nil, nil).DrawSticker(canvas, st); err != nil {
				t.Fatal(err)
			}
			if c := canvas.NRGBAAt(50, 55); c != (color.NRGBA{255, 0, 0, 255}) {
				t.Errorf("centre: got %v", c)
			}
			if c := canvas.NRGBAAt(2, 2); c != white {
				t.Errorf("corner: got %v", c)
			}
		})
	}
}

func TestDrawSticker_EmojiFallsBackToShape(t *testing.T) {
	canvas := createInMemoryImage(100, 100, white)
	st := &settings.StickerLayer{Type: "emoji", Emoji: "😀", X: 50, Y: 50, Size: 60, Opacity: 1, Color: "#00FF00"}
	if err := New(nil, nil).DrawSticker(canvas, st); err != nil {
		t.Fatal(err)
	}
	if c := canvas.NRGBAAt(50, 50); c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("without an emoji font the sticker should draw as a star, got %v", c)
	}
}

func TestFonts_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Poster.ttf"), gobold.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := NewFonts(dir, "", nil)
	defer f.Close()

	if f.Face("Poster", false, false, 20) == nil {
		t.Fatal("family from the directory should resolve")
	}
	if f.Face("Unknown Family", true, true, 20) == nil {
		t.Fatal("unknown family should fall back to the embedded fonts")
	}
	if len(f.files) != 1 {
		t.Errorf("only font files should be indexed, got %v", f.files)
	}
	if f.EmojiFace(20) != nil {
		t.Error("no emoji font configured")
	}
}

func TestFonts_MissingEmojiFont(t *testing.T) {
	f := NewFonts("", filepath.Join(t.TempDir(), "missing.ttf"), nil)
	if f.EmojiFace(20) != nil {
		t.Error("unreadable emoji font should yield nil")
	}
	if !f.emojiFailed {
		t.Error("failed emoji font should not be retried")
	}
}

func TestFonts_EmojiFaceConcurrent(t *testing.T) {
	f := NewFonts("", filepath.Join(t.TempDir(), "missing.ttf"), nil)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if f.EmojiFace(20) != nil {
				t.Error("unreadable emoji font should yield nil")
			}
		}()
	}
	close(start)
	wg.Wait()
}

func TestDraw_Dispatch(t *testing.T) {
	s := &settings.Settings{
		StickerLayers: []settings.StickerLayer{{Type: "circle", X: 10, Y: 10, Size: 10, Opacity: 1, Color: "#000000"}},
	}
	canvas := createInMemoryImage(20, 20, white)
	r := New(nil, nil)
	for _, l := range s.Layers() {
		if err := r.Draw(canvas, l); err != nil {
			t.Fatal(err)
		}
	}
	if c := canvas.NRGBAAt(10, 10); c.R != 0 {
		t.Errorf("sticker layer not drawn, got %v", c)
	}
}
