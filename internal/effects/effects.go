// Package effects holds the whole-canvas post-process stages: glitch,
// shadow, bokeh, duotone and light leaks. Each stage is a pure function
// from one pixel buffer to a new one; Pipeline lists the active stages in
// their fixed order.
package effects

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// Step is one named post-process stage. Apply never modifies its input.
type Step struct {
	Name  string
	Apply func(img *image.NRGBA) (*image.NRGBA, error)
}

// Env carries what stages need besides the settings.
type Env struct {
	// Rand drives the unseeded glitch sub-effects. A fresh source is used
	// when nil.
	Rand *rand.Rand

	// Background is the canvas fill; zero when the canvas is transparent.
	Background color.NRGBA

	// Leaks holds the decoded light-leak assets, parallel to the settings.
	Leaks []image.Image
}

// Stage names in pipeline order.
const (
	StepGlitch     = "glitch"
	StepShadow     = "shadow"
	StepBokeh      = "bokeh"
	StepDuotone    = "duotone"
	StepLightLeaks = "light-leaks"
)

// Order is the fixed post-process order.
var Order = []string{StepGlitch, StepShadow, StepBokeh, StepDuotone, StepLightLeaks}

// Pipeline returns the active stages for s in the fixed order.
func Pipeline(s *settings.Settings, env Env) []Step {
	steps := make([]Step, 0, len(Order))
	if s.Glitch.Active() {
		g := s.Glitch
		rng := glitchRand(g, env.Rand)
		steps = append(steps, Step{Name: StepGlitch, Apply: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Glitch(img, g, rng), nil
		}})
	}
	if s.Shadow.Active() {
		sh := s.Shadow
		steps = append(steps, Step{Name: StepShadow, Apply: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Shadow(img, sh, env.Background), nil
		}})
	}
	if s.Bokeh.Active() {
		bk := s.Bokeh
		steps = append(steps, Step{Name: StepBokeh, Apply: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Bokeh(img, bk), nil
		}})
	}
	if s.Duotone.Active() {
		dt := s.Duotone
		steps = append(steps, Step{Name: StepDuotone, Apply: func(img *image.NRGBA) (*image.NRGBA, error) {
			return Duotone(img, dt), nil
		}})
	}
	if hasLeaks(s.LightLeaks) {
		leaks, assets := s.LightLeaks, env.Leaks
		steps = append(steps, Step{Name: StepLightLeaks, Apply: func(img *image.NRGBA) (*image.NRGBA, error) {
			return LightLeaks(img, leaks, assets), nil
		}})
	}
	return steps
}

func hasLeaks(leaks []settings.LightLeakOverlay) bool {
	for _, l := range leaks {
		if l.Enabled && l.Opacity > 0 {
			return true
		}
	}
	return false
}

// glitchRand seeds from the settings when a seed is given, so a glitch
// style can be reproduced; otherwise every call draws fresh randomness.
func glitchRand(g *settings.GlitchEffects, fallback *rand.Rand) *rand.Rand {
	if g.Seed != 0 {
		return rand.New(rand.NewPCG(uint64(g.Seed), uint64(g.Seed)>>1|1))
	}
	if fallback != nil {
		return fallback
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
