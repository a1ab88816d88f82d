package compositor

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

func createSolidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func near(a, b uint8, tol int) bool {
	d := int(a) - int(b)
	return d <= tol && d >= -tol
}

func nearColor(a, b color.NRGBA, tol int) bool {
	return near(a.R, b.R, tol) && near(a.G, b.G, tol) && near(a.B, b.B, tol) && near(a.A, b.A, tol)
}

func mustParse(t *testing.T, doc string) *settings.Settings {
	t.Helper()
	s, err := settings.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
)

func TestDrawLayout_SingleCoversCanvas(t *testing.T) {
	s := mustParse(t, `{"layout":"single","canvasSettings":{"width":80,"height":60,"backgroundColor":"#FFFFFF"}}`)
	canvas := createSolidImage(80, 60, white)
	src := createSolidImage(40, 40, red)

	if err := New(nil).DrawLayout(canvas, []image.Image{src}, s); err != nil {
		t.Fatalf("DrawLayout: %v", err)
	}
	for y := 0; y < 60; y++ {
		for x := 0; x < 80; x++ {
			if c := canvas.NRGBAAt(x, y); c != red {
				t.Fatalf("pixel (%d,%d) = %v, background visible", x, y, c)
			}
		}
	}
}

func TestDrawLayout_OverlayHalfOpacity(t *testing.T) {
	s := mustParse(t, `{"layout":"overlay","blendMode":"normal",
		"canvasSettings":{"width":50,"height":50},
		"overlaySettings":{"opacity":0.5}}`)
	canvas := createSolidImage(50, 50, white)
	base := createSolidImage(50, 50, color.NRGBA{200, 40, 0, 255})
	over := createSolidImage(50, 50, color.NRGBA{0, 100, 220, 255})

	if err := New(nil).DrawLayout(canvas, []image.Image{base, over}, s); err != nil {
		t.Fatalf("DrawLayout: %v", err)
	}
	want := color.NRGBA{100, 70, 110, 255}
	for _, p := range []image.Point{{0, 0}, {25, 25}, {49, 49}} {
		if got := canvas.NRGBAAt(p.X, p.Y); !nearColor(got, want, 2) {
			t.Errorf("at %v: got %v, want %v", p, got, want)
		}
	}
}

func TestDrawLayout_ZOrder(t *testing.T) {
	s := mustParse(t, `{"layout":"stacked","canvasSettings":{"width":100,"height":100}}`)
	canvas := createSolidImage(100, 100, white)
	if err := New(nil).DrawLayout(canvas, []image.Image{createSolidImage(10, 10, red), createSolidImage(10, 10, blue)}, s); err != nil {
		t.Fatalf("DrawLayout: %v", err)
	}
	// The centre is covered by both cascaded cards; the later one wins.
	if c := canvas.NRGBAAt(50, 50); c != blue {
		t.Errorf("centre: got %v, want the later image", c)
	}
}

func TestDrawLayout_HorizontalWithBorder(t *testing.T) {
	s := mustParse(t, `{"layout":"horizontal","canvasSettings":{"width":100,"height":50},
		"visualEffects":{"margin":0,"borderWidth":4,"borderColor":"#000000"}}`)
	canvas := createSolidImage(100, 50, white)
	if err := New(nil).DrawLayout(canvas, []image.Image{createSolidImage(10, 10, red), createSolidImage(10, 10, blue)}, s); err != nil {
		t.Fatalf("DrawLayout: %v", err)
	}
	if c := canvas.NRGBAAt(25, 25); c != red {
		t.Errorf("left cell centre: got %v", c)
	}
	if c := canvas.NRGBAAt(75, 25); c != blue {
		t.Errorf("right cell centre: got %v", c)
	}
	if c := canvas.NRGBAAt(25, 1); c.R > 10 {
		t.Errorf("border should be black at top edge, got %v", c)
	}
}

func TestDrawLayout_CircularClip(t *testing.T) {
	s := mustParse(t, `{"layout":"circular","canvasSettings":{"width":100,"height":100}}`)
	canvas := createSolidImage(100, 100, white)
	if err := New(nil).DrawLayout(canvas, []image.Image{createSolidImage(10, 10, red)}, s); err != nil {
		t.Fatalf("DrawLayout: %v", err)
	}
	if c := canvas.NRGBAAt(1, 1); c != white {
		t.Errorf("corner outside the circle should stay background, got %v", c)
	}
}

func TestDrawLayout_MissingImage(t *testing.T) {
	s := mustParse(t, `{"layout":"grid","canvasSettings":{"width":40,"height":40}}`)
	canvas := createSolidImage(40, 40, white)
	before := append([]uint8(nil), canvas.Pix...)

	err := New(nil).DrawLayout(canvas, []image.Image{createSolidImage(4, 4, red), nil}, s)
	if err == nil {
		t.Fatal("expected an error for the missing image")
	}
	var le *apperrors.SourceLoadError
	if !errors.As(err, &le) || le.Index != 1 {
		t.Fatalf("want SourceLoadError for index 1, got %v", err)
	}
	if !strings.Contains(err.Error(), "Image 2 failed to load") {
		t.Errorf("message: %q", err.Error())
	}
	for i := range before {
		if before[i] != canvas.Pix[i] {
			t.Fatal("a failed draw must not touch the canvas")
		}
	}
}

func TestDrawLayout_NoImages(t *testing.T) {
	s := mustParse(t, `{"layout":"grid","canvasSettings":{"width":40,"height":40}}`)
	err := New(nil).DrawLayout(createSolidImage(40, 40, white), nil, s)
	if !errors.Is(err, apperrors.ErrNoSources) {
		t.Errorf("got %v, want ErrNoSources", err)
	}
}

func TestDrawDoubleExposure(t *testing.T) {
	s := mustParse(t, `{"layout":"grid","canvasSettings":{"width":40,"height":40},
		"doubleExposureSettings":{"enabled":true,"blendMode":"normal","opacity":1}}`)
	canvas := createSolidImage(40, 40, white)
	imgs := []image.Image{createSolidImage(8, 8, red), createSolidImage(8, 8, blue)}
	if err := New(nil).DrawDoubleExposure(canvas, imgs, s); err != nil {
		t.Fatal(err)
	}
	if c := canvas.NRGBAAt(20, 20); c != blue {
		t.Errorf("opaque overlay should cover the base, got %v", c)
	}

	s.DoubleExposure.BlendMode = settings.BlendScreen
	s.DoubleExposure.Opacity = 1
	canvas = createSolidImage(40, 40, white)
	if err := New(nil).DrawDoubleExposure(canvas, imgs, s); err != nil {
		t.Fatal(err)
	}
	if c := canvas.NRGBAAt(20, 20); !nearColor(c, color.NRGBA{255, 0, 255, 255}, 1) {
		t.Errorf("screen of red and blue: got %v", c)
	}
}

func TestDrawDoubleExposure_Invert(t *testing.T) {
	s := mustParse(t, `{"layout":"grid","canvasSettings":{"width":20,"height":20},
		"doubleExposureSettings":{"enabled":true,"blendMode":"normal","opacity":1,"invert":true}}`)
	canvas := createSolidImage(20, 20, white)
	imgs := []image.Image{createSolidImage(4, 4, red), createSolidImage(4, 4, color.NRGBA{0, 0, 0, 255})}
	if err := New(nil).DrawDoubleExposure(canvas, imgs, s); err != nil {
		t.Fatal(err)
	}
	if c := canvas.NRGBAAt(10, 10); !nearColor(c, white, 1) {
		t.Errorf("inverted black overlay should read white, got %v", c)
	}
}

func TestDrawDoubleExposure_IndexOutOfRange(t *testing.T) {
	s := mustParse(t, `{"layout":"single","canvasSettings":{"width":20,"height":20},
		"doubleExposureSettings":{"enabled":true,"overlayImageIndex":5,"blendMode":"normal","opacity":1}}`)
	canvas := createSolidImage(20, 20, white)
	if err := New(nil).DrawDoubleExposure(canvas, []image.Image{createSolidImage(4, 4, red)}, s); err != nil {
		t.Fatalf("out-of-range index should clamp, got %v", err)
	}
	if c := canvas.NRGBAAt(10, 10); c != red {
		t.Errorf("got %v", c)
	}
}
