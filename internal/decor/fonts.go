package decor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts resolves font families to faces. Families are looked up in an
// optional directory of .ttf/.otf files keyed by lower-case file name
// ("Lobster-Bold.ttf" serves family "lobster" in bold); anything else falls
// back to the embedded Go fonts. Parsed sources are cached and shared.
type Fonts struct {
	dir       string
	emojiPath string
	logger    *slog.Logger

	mu      sync.Mutex
	files   map[string]string
	sources map[string]*text.FontSource
	emoji   *text.FontSource
	// emojiFailed is set once the emoji font could not be read.
	emojiFailed bool
	scanned     bool
}

// NewFonts creates a font registry. dir and emojiPath may be empty.
func NewFonts(dir, emojiPath string, logger *slog.Logger) *Fonts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fonts{
		dir:       dir,
		emojiPath: emojiPath,
		logger:    logger,
		sources:   make(map[string]*text.FontSource),
	}
}

// Face returns a face for family at size. It never fails: unknown families
// and unreadable files fall back to the embedded fonts.
func (f *Fonts) Face(family string, bold, italic bool, size float64) text.Face {
	f.mu.Lock()
	defer f.mu.Unlock()

	style := styleSuffix(bold, italic)
	key := strings.ToLower(strings.TrimSpace(family))
	if key != "" {
		f.scan()
		for _, name := range []string{key + style, key} {
			if path, ok := f.files[name]; ok {
				if src := f.load("file:"+name, func() (*text.FontSource, error) {
					return text.NewFontSourceFromFile(path)
				}); src != nil {
					return src.Face(size)
				}
			}
		}
	}

	data := embedded(key, bold, italic)
	src := f.load(fmt.Sprintf("go:%s%s", monoKey(key), style), func() (*text.FontSource, error) {
		return text.NewFontSource(data)
	})
	if src == nil {
		return nil
	}
	return src.Face(size)
}

// EmojiFace returns a face from the configured emoji font, or nil.
func (f *Fonts) EmojiFace(size float64) text.Face {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emojiPath == "" || f.emojiFailed {
		return nil
	}
	if f.emoji == nil {
		src, err := text.NewFontSourceFromFile(f.emojiPath)
		if err != nil {
			f.logger.Warn("emoji font unavailable", "path", f.emojiPath, "error", err)
			f.emojiFailed = true
			return nil
		}
		f.emoji = src
	}
	return f.emoji.Face(size)
}

// Close releases every parsed font source.
func (f *Fonts) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var first error
	for key, src := range f.sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
		delete(f.sources, key)
	}
	if f.emoji != nil {
		if err := f.emoji.Close(); err != nil && first == nil {
			first = err
		}
		f.emoji = nil
	}
	return first
}

func (f *Fonts) load(key string, open func() (*text.FontSource, error)) *text.FontSource {
	if src, ok := f.sources[key]; ok {
		return src
	}
	src, err := open()
	if err != nil {
		f.logger.Warn("font load failed, using fallback", "font", key, "error", err)
		return nil
	}
	f.sources[key] = src
	return src
}

// scan indexes the font directory once.
func (f *Fonts) scan() {
	if f.scanned {
		return
	}
	f.scanned = true
	f.files = make(map[string]string)
	if f.dir == "" {
		return
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		f.logger.Warn("font directory unreadable", "dir", f.dir, "error", err)
		return
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".ttf" && ext != ".otf") {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		f.files[name] = filepath.Join(f.dir, e.Name())
	}
}

func styleSuffix(bold, italic bool) string {
	switch {
	case bold && italic:
		return "-bolditalic"
	case bold:
		return "-bold"
	case italic:
		return "-italic"
	}
	return ""
}

func monoKey(family string) string {
	if isMono(family) {
		return "mono"
	}
	return "sans"
}

func isMono(family string) bool {
	return family == "monospace" || family == "mono" || strings.Contains(family, "courier")
}

// embedded picks the Go font closest to the requested family and style.
func embedded(family string, bold, italic bool) []byte {
	if isMono(family) {
		return gomono.TTF
	}
	switch {
	case bold && italic:
		return gobolditalic.TTF
	case bold:
		return gobold.TTF
	case italic:
		return goitalic.TTF
	}
	return goregular.TTF
}
