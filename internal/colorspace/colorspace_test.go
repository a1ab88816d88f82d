package colorspace

import (
	"image/color"
	"math"
	"testing"
)

func TestRGBToHSL(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    HSL
	}{
		{"red", 255, 0, 0, HSL{H: 0, S: 1, L: 0.5}},
		{"green", 0, 255, 0, HSL{H: 1.0 / 3, S: 1, L: 0.5}},
		{"blue", 0, 0, 255, HSL{H: 2.0 / 3, S: 1, L: 0.5}},
		{"white", 255, 255, 255, HSL{H: 0, S: 0, L: 1}},
		{"black", 0, 0, 0, HSL{H: 0, S: 0, L: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RGBToHSL(tt.r, tt.g, tt.b)
			if math.Abs(got.H-tt.want.H) > 1e-6 || math.Abs(got.S-tt.want.S) > 1e-6 || math.Abs(got.L-tt.want.L) > 1e-6 {
				t.Errorf("RGBToHSL(%d,%d,%d): got %+v, want %+v", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestHSLRoundTrip(t *testing.T) {
	colors := [][3]uint8{
		{255, 128, 64},
		{12, 200, 99},
		{0, 0, 0},
		{255, 255, 255},
		{30, 30, 200},
	}
	for _, c := range colors {
		r, g, b := HSLToRGB(RGBToHSL(c[0], c[1], c[2]))
		if absDiff(r, c[0]) > 1 || absDiff(g, c[1]) > 1 || absDiff(b, c[2]) > 1 {
			t.Errorf("round trip %v: got (%d,%d,%d)", c, r, g, b)
		}
	}
}

func TestShiftHSL_Identity(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 51 {
			for b := 0; b < 256; b += 85 {
				nr, ng, nb := ShiftHSL(uint8(r), uint8(g), uint8(b), 0, 0)
				if int(nr) != r || int(ng) != g || int(nb) != b {
					t.Fatalf("ShiftHSL zero shift changed (%d,%d,%d) to (%d,%d,%d)", r, g, b, nr, ng, nb)
				}
			}
		}
	}
}

func TestShiftHSL_Hue(t *testing.T) {
	r, g, b := ShiftHSL(255, 0, 0, 120, 0)
	if r != 0 || g != 255 || b != 0 {
		t.Errorf("red +120deg: got (%d,%d,%d), want (0,255,0)", r, g, b)
	}

	r, g, b = ShiftHSL(255, 0, 0, 360, 0)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("red +360deg should wrap to red, got (%d,%d,%d)", r, g, b)
	}

	r, g, b = ShiftHSL(255, 0, 0, -120, 0)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("red -120deg: got (%d,%d,%d), want (0,0,255)", r, g, b)
	}
}

func TestShiftHSL_SaturationClamped(t *testing.T) {
	r, g, b := ShiftHSL(200, 100, 100, 0, -200)
	if r != g || g != b {
		t.Errorf("full desaturation should give gray, got (%d,%d,%d)", r, g, b)
	}
	c := RGBToHSL(r, g, b)
	if math.Abs(c.L-RGBToHSL(200, 100, 100).L) > 0.01 {
		t.Errorf("lightness changed by saturation shift")
	}
}

func TestInvertLightness(t *testing.T) {
	r, g, b := InvertLightness(0, 0, 0)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("black inverted: got (%d,%d,%d), want white", r, g, b)
	}
	r, g, b = InvertLightness(255, 0, 0)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("mid-lightness red should stay red, got (%d,%d,%d)", r, g, b)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}},
		{"#00ff00", color.NRGBA{0, 255, 0, 255}},
		{"#fff", color.NRGBA{255, 255, 255, 255}},
		{"0000FF", color.NRGBA{0, 0, 255, 255}},
		{"#FF000080", color.NRGBA{255, 0, 0, 128}},
		{"transparent", color.NRGBA{}},
		{"White", color.NRGBA{255, 255, 255, 255}},
		{"rgb(255, 0, 0)", color.NRGBA{255, 0, 0, 255}},
		{"RGBA(0,0,0,0.5)", color.NRGBA{0, 0, 0, 128}},
		{"rgba(10, 20, 30, 1)", color.NRGBA{10, 20, 30, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if err != nil {
				t.Fatalf("ParseColor(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{"", "#12", "#GGGGGG", "#1234567890", "rgb(1,2)", "rgba(0,0,0,2)", "rgb(300,0,0)", "rgb(1,2,3"} {
		if _, err := ParseColor(in); err == nil {
			t.Errorf("ParseColor(%q) should fail", in)
		}
	}
	fallback := color.NRGBA{1, 2, 3, 255}
	if got := ParseColorOr("nope", fallback); got != fallback {
		t.Errorf("ParseColorOr: got %v, want fallback", got)
	}
}

func TestMix(t *testing.T) {
	a := color.NRGBA{0, 0, 0, 255}
	b := color.NRGBA{255, 255, 255, 255}
	if got := Mix(a, b, 0); got != a {
		t.Errorf("Mix t=0: got %v", got)
	}
	if got := Mix(a, b, 1); got != b {
		t.Errorf("Mix t=1: got %v", got)
	}
	mid := Mix(a, b, 0.5)
	if absDiff(mid.R, 128) > 1 {
		t.Errorf("Mix t=0.5: got %v", mid)
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.RGBA{255, 128, 64, 255}); got != "#FF8040" {
		t.Errorf("Hex: got %s, want #FF8040", got)
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
