// Package errors defines the error taxonomy shared by the composition engine
// and the MCP server.
//
// Fatal classes (source load, render context) abort a whole render call and
// surface a single descriptive error. Recoverable geometry problems are
// normalized inside the engine and never reach callers.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies errors for targeted handling.
type Category string

const (
	CategorySource   Category = "source"
	CategoryContext  Category = "context"
	CategoryGeometry Category = "geometry"
	CategoryEncode   Category = "encode"
	CategoryInput    Category = "input"
	CategoryConfig   Category = "config"
)

// ProcessingError is the structured error type used for non-render failures
// (encoding, input validation, configuration).
type ProcessingError struct {
	Category Category
	Op       string
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Wrap wraps err with context. Returns nil when err is nil.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// SourceLoadError reports a source image or light-leak asset that failed to
// decode or timed out. It is fatal for the render call.
type SourceLoadError struct {
	// Index is the 0-based source image index, or -1 for an asset.
	Index int
	// Asset is the light-leak asset URL when Index is -1.
	Asset string
	Err   error
}

func (e *SourceLoadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("Light leak asset %q failed to load: %v", e.Asset, e.Err)
	}
	return fmt.Sprintf("Image %d failed to load: %v", e.Index+1, e.Err)
}

func (e *SourceLoadError) Unwrap() error { return e.Err }

// RenderContextError reports that a drawing surface could not be created.
type RenderContextError struct {
	Op  string
	Err error
}

func (e *RenderContextError) Error() string {
	return fmt.Sprintf("render context unavailable (%s): %v", e.Op, e.Err)
}

func (e *RenderContextError) Unwrap() error { return e.Err }

// InvalidGeometryError describes a geometry problem that was recovered by
// substituting a safe default.
type InvalidGeometryError struct {
	Op     string
	Detail string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry in %s: %s", e.Op, e.Detail)
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category == cat
	}
	var se *SourceLoadError
	if errors.As(err, &se) {
		return cat == CategorySource
	}
	var ce *RenderContextError
	if errors.As(err, &ce) {
		return cat == CategoryContext
	}
	var ge *InvalidGeometryError
	if errors.As(err, &ge) {
		return cat == CategoryGeometry
	}
	return false
}

// IsFatal reports whether err aborts a render call.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsCategory(err, CategoryGeometry)
}

// Sentinel errors for common failure modes.
var (
	ErrNoSources         = errors.New("no source images")
	ErrTooManySources    = errors.New("too many source images")
	ErrInvalidCanvas     = errors.New("canvas width and height must be positive")
	ErrCanvasTooLarge    = errors.New("canvas exceeds the configured pixel limit")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrNilImage          = errors.New("decoded image is nil")
)
