package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// AssetLoader resolves a light-leak asset URL to an image.
type AssetLoader interface {
	LoadAsset(ctx context.Context, url string) (image.Image, error)
}

// BuiltinPrefix marks asset URLs synthesized in memory.
const BuiltinPrefix = "builtin:"

// builtinSize is the edge length of synthesized light-leak gradients.
const builtinSize = 512

// BuiltinLeaks lists the names accepted after "builtin:".
var BuiltinLeaks = []string{"warm", "cool", "rainbow", "sunset"}

// Assets resolves builtin gradients, base64 data URLs and file paths. File
// assets go through Cache when it is set.
type Assets struct {
	Cache *ImageCache
}

// LoadAsset implements AssetLoader.
func (a *Assets) LoadAsset(ctx context.Context, raw string) (image.Image, error) {
	switch {
	case strings.HasPrefix(raw, BuiltinPrefix):
		return Builtin(strings.TrimPrefix(raw, BuiltinPrefix))
	case strings.HasPrefix(raw, "data:"):
		return decodeDataURL(raw)
	case strings.HasPrefix(raw, "file://"):
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid asset url: %w", err)
		}
		return a.loadFile(u.Path)
	case strings.Contains(raw, "://"):
		return nil, fmt.Errorf("unsupported asset scheme in %q", raw)
	}
	return a.loadFile(raw)
}

func (a *Assets) loadFile(path string) (image.Image, error) {
	if a.Cache != nil {
		return a.Cache.Load(path)
	}
	return NewImageCache().Load(path)
}

// decodeDataURL accepts "data:<mime>;base64,<payload>".
func decodeDataURL(raw string) (image.Image, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("data url must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return decode(bytes.NewReader(data))
}

// Builtin synthesizes a named light-leak gradient.
func Builtin(name string) (image.Image, error) {
	switch name {
	case "warm":
		return radialLeak(colorful.Color{R: 1, G: 0.55, B: 0.2}, 0.25, 0.3), nil
	case "cool":
		return radialLeak(colorful.Color{R: 0.3, G: 0.6, B: 1}, 0.75, 0.25), nil
	case "rainbow":
		return rainbowLeak(), nil
	case "sunset":
		return sunsetLeak(), nil
	}
	return nil, fmt.Errorf("unknown builtin light leak %q", name)
}

// radialLeak is a soft glow of c centred at (cx, cy) in unit coordinates,
// fading to transparent.
func radialLeak(c colorful.Color, cx, cy float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, builtinSize, builtinSize))
	r, g, b := c.RGB255()
	for y := 0; y < builtinSize; y++ {
		for x := 0; x < builtinSize; x++ {
			dx := (float64(x)+0.5)/builtinSize - cx
			dy := (float64(y)+0.5)/builtinSize - cy
			d := math.Hypot(dx, dy) / 0.8
			a := math.Max(0, 1-d)
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, uint8(math.Round(255 * a * a))})
		}
	}
	return img
}

// rainbowLeak sweeps the hue diagonally with a band of alpha through the
// middle.
func rainbowLeak() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, builtinSize, builtinSize))
	for y := 0; y < builtinSize; y++ {
		for x := 0; x < builtinSize; x++ {
			t := (float64(x) + float64(y)) / (2 * builtinSize)
			c := colorful.Hsv(t*300, 0.7, 1)
			r, g, b := c.Clamped().RGB255()
			a := math.Sin(t * math.Pi)
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, uint8(math.Round(200 * a))})
		}
	}
	return img
}

// sunsetLeak blends from magenta at the top to orange at the bottom, fading
// toward the centre.
func sunsetLeak() *image.NRGBA {
	top := colorful.Color{R: 0.95, G: 0.3, B: 0.55}
	bottom := colorful.Color{R: 1, G: 0.65, B: 0.2}
	img := image.NewNRGBA(image.Rect(0, 0, builtinSize, builtinSize))
	for y := 0; y < builtinSize; y++ {
		t := (float64(y) + 0.5) / builtinSize
		r, g, b := top.BlendRgb(bottom, t).Clamped().RGB255()
		a := uint8(math.Round(220 * math.Abs(2*t-1)))
		for x := 0; x < builtinSize; x++ {
			img.SetNRGBA(x, y, color.NRGBA{r, g, b, a})
		}
	}
	return img
}

type assetSource struct {
	loader AssetLoader
	url    string
}

func (a assetSource) Decode(ctx context.Context) (image.Image, error) {
	return a.loader.LoadAsset(ctx, a.url)
}

// LoadAsset resolves one asset URL, bounded by timeout (zero means no
// limit). Builtin gradients never reach the loader, which may be nil.
func LoadAsset(ctx context.Context, loader AssetLoader, url string, timeout time.Duration) (image.Image, error) {
	if strings.HasPrefix(url, BuiltinPrefix) {
		return Builtin(strings.TrimPrefix(url, BuiltinPrefix))
	}
	if loader == nil {
		loader = &Assets{}
	}
	img, err := decodeWithTimeout(ctx, assetSource{loader, url}, timeout)
	if err != nil {
		return nil, err
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("asset %q decoded to an empty image", url)
	}
	return img, nil
}
