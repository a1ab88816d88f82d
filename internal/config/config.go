// Package config holds engine and server configuration.
//
// All fields have safe defaults so callers can start with Default() and
// override only what they need. A JSON file and environment variables may
// layer on top of the defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables recognised by FromEnv.
const (
	EnvLogLevel      = "COMPOSE_MCP_LOG_LEVEL"
	EnvFontDir       = "COMPOSE_MCP_FONT_DIR"
	EnvEmojiFont     = "COMPOSE_MCP_EMOJI_FONT"
	EnvDecodeTimeout = "COMPOSE_MCP_DECODE_TIMEOUT"
)

// Duration is a time.Duration that decodes from JSON strings like "10s".
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts a Go duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d.Duration = v
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("invalid duration: %s", string(b))
	}
	d.Duration = time.Duration(ms * float64(time.Millisecond))
	return nil
}

// MarshalJSON encodes the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Config is the top-level configuration struct.
type Config struct {
	// DecodeTimeout bounds each source image and asset decode.
	DecodeTimeout Duration `json:"decode_timeout"`

	// JPEGQuality is used by export when the request does not set one (1-100).
	JPEGQuality int `json:"jpeg_quality"`

	// MaxCanvasPixels rejects canvases larger than width*height.
	MaxCanvasPixels int `json:"max_canvas_pixels"`

	// MaxSources is the largest number of source images per render.
	MaxSources int `json:"max_sources"`

	// FontDir optionally holds .ttf/.otf files, keyed by file name without
	// extension, used for text layer font families.
	FontDir string `json:"font_dir"`

	// EmojiFontPath optionally points at a font with emoji glyphs for stickers.
	EmojiFontPath string `json:"emoji_font_path"`

	// WatermarkText is stamped on exports for non-premium callers.
	WatermarkText string `json:"watermark_text"`

	// PreviewMaxDimension caps the longest side of preview renders. 0 disables.
	PreviewMaxDimension int `json:"preview_max_dimension"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `json:"log_level"`
}

// Default returns a Config populated with production defaults.
func Default() Config {
	return Config{
		DecodeTimeout:       Duration{10 * time.Second},
		JPEGQuality:         92,
		MaxCanvasPixels:     64 * 1024 * 1024,
		MaxSources:          8,
		WatermarkText:       "FixMyImage - Free Version",
		PreviewMaxDimension: 1024,
		LogLevel:            "info",
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.DecodeTimeout.Duration <= 0 {
		return errors.New("config: decode_timeout must be positive")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New("config: jpeg_quality must be between 1 and 100")
	}
	if c.MaxCanvasPixels <= 0 {
		return errors.New("config: max_canvas_pixels must be positive")
	}
	if c.MaxSources < 1 {
		return errors.New("config: max_sources must be at least 1")
	}
	if c.PreviewMaxDimension < 0 {
		return errors.New("config: preview_max_dimension must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Load reads a JSON configuration file on top of the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// FromEnv applies environment variable overrides to c.
func FromEnv(c Config) Config {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvFontDir); v != "" {
		c.FontDir = v
	}
	if v := os.Getenv(EnvEmojiFont); v != "" {
		c.EmojiFontPath = v
	}
	if v := os.Getenv(EnvDecodeTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DecodeTimeout = Duration{d}
		} else if ms, err := strconv.Atoi(v); err == nil {
			c.DecodeTimeout = Duration{time.Duration(ms) * time.Millisecond}
		}
	}
	return c
}
