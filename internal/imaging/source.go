package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	apperrors "github.com/ironsheep/image-compose-mcp/internal/errors"
)

// Source yields one decoded source image for a render.
type Source interface {
	Decode(ctx context.Context) (image.Image, error)
}

// FileSource decodes an image file through a shared cache.
type FileSource struct {
	Cache *ImageCache
	Path  string
}

// Decode implements Source.
func (s FileSource) Decode(ctx context.Context) (image.Image, error) {
	if s.Cache == nil {
		return nil, fmt.Errorf("no image cache for %s", s.Path)
	}
	return s.Cache.Load(s.Path)
}

func (s FileSource) String() string { return s.Path }

// BytesSource decodes an encoded image held in memory.
type BytesSource []byte

// Decode implements Source.
func (s BytesSource) Decode(ctx context.Context) (image.Image, error) {
	return decode(bytes.NewReader(s))
}

// Decoded wraps an image the caller already decoded. A nil image reports a
// load failure, the same as an undecodable file.
type Decoded struct {
	Image image.Image
}

// Decode implements Source.
func (s Decoded) Decode(ctx context.Context) (image.Image, error) {
	if s.Image == nil {
		return nil, apperrors.ErrNilImage
	}
	return s.Image, nil
}

// LoadAll decodes every source concurrently, each bounded by timeout (zero
// means no limit). It returns either all images or the failure of the
// lowest-indexed source that did not load; there is no partial result.
func LoadAll(ctx context.Context, sources []Source, timeout time.Duration) ([]image.Image, error) {
	if len(sources) == 0 {
		return nil, apperrors.New(apperrors.CategorySource, "imaging.load", apperrors.ErrNoSources)
	}

	images := make([]image.Image, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			images[i], errs[i] = decodeWithTimeout(ctx, src, timeout)
		}(i, src)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &apperrors.SourceLoadError{Index: i, Err: err}
		}
		if images[i] == nil || images[i].Bounds().Empty() {
			return nil, &apperrors.SourceLoadError{Index: i, Err: apperrors.ErrNilImage}
		}
	}
	return images, nil
}

// decodeWithTimeout runs the decode in its own goroutine so a stuck decoder
// cannot hold the render past its deadline.
func decodeWithTimeout(ctx context.Context, src Source, timeout time.Duration) (image.Image, error) {
	if src == nil {
		return nil, apperrors.ErrNilImage
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := src.Decode(ctx)
		done <- result{img, err}
	}()

	select {
	case r := <-done:
		return r.img, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("decode timed out: %w", ctx.Err())
	}
}
