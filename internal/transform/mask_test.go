package transform

import (
	"math"
	"testing"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

func TestBuildMask_Inactive(t *testing.T) {
	if buildMask(nil, 10, 10) != nil {
		t.Error("nil mask should build nothing")
	}
	m := &settings.ImageMask{Shape: settings.MaskNone}
	if buildMask(m, 10, 10) != nil {
		t.Error("shape none without gradient should build nothing")
	}
}

func TestBuildMask_Circle(t *testing.T) {
	m := buildMask(&settings.ImageMask{Shape: settings.MaskCircle}, 100, 100)
	if m.at(50, 50) < 0.99 {
		t.Errorf("centre: got %v", m.at(50, 50))
	}
	if m.at(1, 1) != 0 {
		t.Errorf("corner: got %v", m.at(1, 1))
	}
}

func TestBuildMask_Invert(t *testing.T) {
	m := buildMask(&settings.ImageMask{Shape: settings.MaskCircle, Invert: true}, 100, 100)
	if m.at(50, 50) > 0.01 {
		t.Errorf("inverted centre: got %v", m.at(50, 50))
	}
	if m.at(1, 1) != 1 {
		t.Errorf("inverted corner: got %v", m.at(1, 1))
	}
}

func TestBuildMask_Gradients(t *testing.T) {
	tests := []struct {
		dir        settings.GradientDirection
		x0, y0     int // expected near GradientStart
		x1, y1     int // expected near GradientEnd
		wantStart  float64
		wantFinish float64
	}{
		{settings.GradientHorizontal, 0, 50, 99, 50, 1, 0},
		{settings.GradientVertical, 50, 0, 50, 99, 1, 0},
		{settings.GradientDiagonal, 0, 0, 99, 99, 1, 0},
		{settings.GradientRadial, 50, 50, 99, 50, 1, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			m := buildMask(&settings.ImageMask{
				Shape:             settings.MaskNone,
				GradientEnabled:   true,
				GradientDirection: tt.dir,
				GradientStart:     100,
				GradientEnd:       0,
			}, 100, 100)
			if got := m.at(tt.x0, tt.y0); math.Abs(got-tt.wantStart) > 0.02 {
				t.Errorf("start: got %v, want %v", got, tt.wantStart)
			}
			if got := m.at(tt.x1, tt.y1); math.Abs(got-tt.wantFinish) > 0.02 {
				t.Errorf("end: got %v, want %v", got, tt.wantFinish)
			}
		})
	}
}

func TestBuildMask_ShapeTimesGradient(t *testing.T) {
	m := buildMask(&settings.ImageMask{
		Shape:             settings.MaskSquare,
		GradientEnabled:   true,
		GradientDirection: settings.GradientHorizontal,
		GradientStart:     100,
		GradientEnd:       0,
	}, 200, 100)
	// Square mask spans x 50..150; outside it stays zero whatever the gradient.
	if m.at(10, 50) != 0 {
		t.Errorf("outside shape: got %v", m.at(10, 50))
	}
	mid := m.at(100, 50)
	if math.Abs(mid-0.5) > 0.02 {
		t.Errorf("centre should be half the ramp, got %v", mid)
	}
}

func TestBuildMask_Feather(t *testing.T) {
	// Square spans x 50..150 in a 200x100 frame.
	hard := buildMask(&settings.ImageMask{Shape: settings.MaskSquare}, 200, 100)
	soft := buildMask(&settings.ImageMask{Shape: settings.MaskSquare, Feather: 6}, 200, 100)
	if !(soft.at(51, 50) < hard.at(51, 50)) {
		t.Errorf("feather should soften the edge: hard %v soft %v", hard.at(51, 50), soft.at(51, 50))
	}
	if soft.at(100, 50) < 0.99 {
		t.Errorf("feather should keep the interior opaque, got %v", soft.at(100, 50))
	}
}

func TestBuildMask_FeatherWithoutShape(t *testing.T) {
	m := buildMask(&settings.ImageMask{Shape: settings.MaskNone, Feather: 5}, 60, 60)
	if m == nil {
		t.Fatal("feather alone should build a mask")
	}
	if !(m.at(0, 30) < 0.5 && m.at(30, 30) > 0.99) {
		t.Errorf("edges should fade: edge %v centre %v", m.at(0, 30), m.at(30, 30))
	}
}

func TestBuildMask_CustomPath(t *testing.T) {
	m := buildMask(&settings.ImageMask{CustomPath: "0,0 1,0 0,1"}, 100, 100)
	if m.at(10, 10) < 0.99 {
		t.Errorf("inside triangle: got %v", m.at(10, 10))
	}
	if m.at(90, 90) != 0 {
		t.Errorf("outside triangle: got %v", m.at(90, 90))
	}
}
