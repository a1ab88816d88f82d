package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// callTool runs a tools/call request and decodes the text content into out.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) *MCPError {
	t.Helper()
	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode tool result: %v", err)
		}
	}
	return nil
}

func decodeBase64PNG(t *testing.T, data string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	return img
}

func rgb(c color.Color) [3]uint32 {
	r, g, b, _ := c.RGBA()
	return [3]uint32{r >> 8, g >> 8, b >> 8}
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var info struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Format string `json:"format"`
	}
	if err := callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}, &info); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if info.Width != 100 || info.Height != 80 || info.Format != "png" {
		t.Errorf("info = %+v", info)
	}
}

func TestHandleToolsCall_ImageDimensions(t *testing.T) {
	s := newTestServer(t)
	imgPath := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var dims struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := callTool(t, s, "image_dimensions", map[string]interface{}{"path": imgPath}, &dims); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dims.Width != 200 || dims.Height != 150 {
		t.Errorf("dims = %+v", dims)
	}
}

func TestHandleToolsCall_ImageLoadMissing(t *testing.T) {
	s := newTestServer(t)
	err := callTool(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"}, nil)
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if err.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", err.Code)
	}
}

func TestHandleToolsCall_ComposeLayout(t *testing.T) {
	s := newTestServer(t)
	var res LayoutResult
	args := map[string]interface{}{"layout": "horizontal", "count": 2, "width": 200, "height": 100, "margin": 10}
	if err := callTool(t, s, "compose_layout", args, &res); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(res.Cells) != 2 {
		t.Fatalf("cells = %d", len(res.Cells))
	}
	first := res.Cells[0].Rect
	if first.X != 10 || first.Y != 10 || first.Width != 80 || first.Height != 80 {
		t.Errorf("first cell = %+v", first)
	}
}

func TestHandleToolsCall_ComposeLayoutInvalid(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown layout", map[string]interface{}{"layout": "spiral", "count": 2, "width": 10, "height": 10}},
		{"no images", map[string]interface{}{"layout": "grid", "count": 0, "width": 10, "height": 10}},
		{"empty canvas", map[string]interface{}{"layout": "grid", "count": 2, "width": 0, "height": 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := callTool(t, s, "compose_layout", tt.args, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestHandleToolsCall_ComposePreview(t *testing.T) {
	s := newTestServer(t)
	left := createTestImageFile(t, 40, 40, color.RGBA{255, 0, 0, 255})
	right := createTestImageFile(t, 40, 40, color.RGBA{0, 0, 255, 255})

	var res RenderResult
	args := map[string]interface{}{
		"images": []string{left, right},
		"settings": json.RawMessage(`{"layout":"horizontal",
			"canvasSettings":{"width":100,"height":50,"backgroundColor":"#FFFFFF"}}`),
	}
	if err := callTool(t, s, "compose_preview", args, &res); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Width != 100 || res.Height != 50 || res.MimeType != "image/png" {
		t.Errorf("result = %dx%d %s", res.Width, res.Height, res.MimeType)
	}
	img := decodeBase64PNG(t, res.ImageBase64)
	if got := rgb(img.At(25, 25)); got != [3]uint32{255, 0, 0} {
		t.Errorf("left = %v", got)
	}
	if got := rgb(img.At(75, 25)); got != [3]uint32{0, 0, 255} {
		t.Errorf("right = %v", got)
	}
	if len(res.Stages) == 0 {
		t.Error("stages missing")
	}
}

func TestHandleToolsCall_ComposePreviewErrors(t *testing.T) {
	s := newTestServer(t)
	good := createTestImageFile(t, 10, 10, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name    string
		args    map[string]interface{}
		message string
	}{
		{
			"missing settings",
			map[string]interface{}{"images": []string{good}},
			"settings are required",
		},
		{
			"bad canvas",
			map[string]interface{}{"images": []string{good}, "settings": json.RawMessage(`{"canvasSettings":{"width":0,"height":10}}`)},
			"canvas",
		},
		{
			"second image missing",
			map[string]interface{}{
				"images":   []string{good, "/nonexistent/b.png"},
				"settings": json.RawMessage(`{"layout":"grid","canvasSettings":{"width":20,"height":20}}`),
			},
			"Image 2 failed to load",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := callTool(t, s, "compose_preview", tt.args, nil)
			if err == nil {
				t.Fatal("expected an error")
			}
			data, _ := err.Data.(string)
			if !strings.Contains(data, tt.message) {
				t.Errorf("error data %q should contain %q", data, tt.message)
			}
		})
	}
}

func TestHandleToolsCall_ComposeCompare(t *testing.T) {
	s := newTestServer(t)
	src := createTestImageFile(t, 20, 20, color.RGBA{255, 0, 0, 255})

	var res RenderResult
	args := map[string]interface{}{
		"images": []string{src},
		"settings": json.RawMessage(`{"layout":"single","canvasSettings":{"width":100,"height":40},
			"duotoneSettings":{"enabled":true,"shadowColor":"#000000","highlightColor":"#00FF00"}}`),
		"position": 30,
	}
	if err := callTool(t, s, "compose_compare", args, &res); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	img := decodeBase64PNG(t, res.ImageBase64)
	if got := rgb(img.At(10, 20)); got != [3]uint32{255, 0, 0} {
		t.Errorf("before side = %v", got)
	}
	if got := rgb(img.At(80, 20)); got == [3]uint32{255, 0, 0} {
		t.Error("after side should differ from the source")
	}
	if got := rgb(img.At(30, 20)); got != [3]uint32{255, 255, 255} {
		t.Errorf("divider = %v", got)
	}
}

func TestHandleToolsCall_ComposeExport(t *testing.T) {
	s := newTestServer(t)
	src := createTestImageFile(t, 20, 20, color.RGBA{0, 128, 255, 255})
	doc := json.RawMessage(`{"layout":"single","canvasSettings":{"width":120,"height":80}}`)

	t.Run("inline png", func(t *testing.T) {
		var res ExportResult
		args := map[string]interface{}{"images": []string{src}, "settings": doc}
		if err := callTool(t, s, "compose_export", args, &res); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !res.Watermarked || res.Format != "png" || res.ImageBase64 == "" {
			t.Errorf("result = %+v", res)
		}
		decodeBase64PNG(t, res.ImageBase64)
	})

	t.Run("jpeg to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.jpg")
		var res ExportResult
		args := map[string]interface{}{
			"images": []string{src}, "settings": doc,
			"format": "jpeg", "quality": 80, "premium": true, "output_path": path,
		}
		if err := callTool(t, s, "compose_export", args, &res); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if res.Watermarked || res.ImageBase64 != "" || res.OutputPath != path {
			t.Errorf("result = %+v", res)
		}
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("export not written: %v", err)
		}
		defer f.Close()
		img, err := jpeg.Decode(f)
		if err != nil {
			t.Fatalf("invalid jpeg: %v", err)
		}
		if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
			t.Errorf("bounds = %v", b)
		}
		info, _ := os.Stat(path)
		if int(info.Size()) != res.SizeBytes {
			t.Errorf("size_bytes = %d, file = %d", res.SizeBytes, info.Size())
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, args := range []map[string]interface{}{
			{"images": []string{src}, "settings": doc, "format": "tiff"},
			{"images": []string{src}, "settings": doc, "output_path": "relative/out.png"},
		} {
			if err := callTool(t, s, "compose_export", args, nil); err == nil {
				t.Errorf("expected an error for %v", args)
			}
		}
	})
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	err := callTool(t, s, "image_ocr_full", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("Expected error for unknown tool")
	}
	if err.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", err.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name": 12}`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}
