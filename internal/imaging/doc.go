// Package imaging loads the source bitmaps and overlay assets a render needs.
//
// Sources are decoded before any pixel work starts. Every decode runs under
// a deadline; a source that fails or times out aborts the render with a
// SourceLoadError naming its 1-based index.
//
// # Sources
//
// A Source yields one decoded image:
//   - FileSource decodes a file through an ImageCache
//   - BytesSource decodes an in-memory encoded image
//   - Decoded wraps an image the caller already holds
//
// PNG, JPEG, GIF and WebP are supported. EXIF orientation is applied on
// decode.
//
// # Assets
//
// Light-leak overlays are resolved by an AssetLoader. The Assets loader
// understands "builtin:<name>" gradients, "data:" URLs and file paths; it
// never touches the network.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Decoded images are shared between
// renders and must be treated as read-only.
package imaging
