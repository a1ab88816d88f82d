package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/image-compose-mcp/internal/engine"
	"github.com/ironsheep/image-compose-mcp/internal/export"
	"github.com/ironsheep/image-compose-mcp/internal/imaging"
	"github.com/ironsheep/image-compose-mcp/internal/layout"
	"github.com/ironsheep/image-compose-mcp/internal/settings"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "compose_preview").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Source Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Layout
	case "compose_layout":
		return s.handleComposeLayout(args)

	// Rendering
	case "compose_preview":
		return s.handleComposePreview(ctx, args)
	case "compose_compare":
		return s.handleComposeCompare(ctx, args)
	case "compose_export":
		return s.handleComposeExport(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Source Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Layout Handler ===

type composeLayoutArgs struct {
	Layout       settings.LayoutKind `json:"layout"`
	Count        int                 `json:"count"`
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	Margin       float64             `json:"margin"`
	BorderRadius float64             `json:"border_radius"`
}

// LayoutResult lists the resolved cells of a layout.
type LayoutResult struct {
	Layout settings.LayoutKind `json:"layout"`
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
	Cells  []layout.Cell       `json:"cells"`
}

func (s *Server) handleComposeLayout(args json.RawMessage) (interface{}, error) {
	var a composeLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cells, err := layout.Resolve(a.Layout, a.Count, a.Width, a.Height, layout.Options{
		Margin:       a.Margin,
		BorderRadius: a.BorderRadius,
	})
	if err != nil {
		return nil, err
	}
	return &LayoutResult{Layout: a.Layout, Width: a.Width, Height: a.Height, Cells: cells}, nil
}

// === Rendering Handlers ===

type renderArgs struct {
	Images   []string        `json:"images"`
	Settings json.RawMessage `json:"settings"`
}

// request decodes the settings and binds the image paths to the cache.
func (s *Server) request(a renderArgs) (engine.Request, error) {
	if len(a.Settings) == 0 {
		return engine.Request{}, errors.New("settings are required")
	}
	st, err := settings.Parse(a.Settings)
	if err != nil {
		return engine.Request{}, err
	}
	sources := make([]imaging.Source, len(a.Images))
	for i, path := range a.Images {
		sources[i] = imaging.FileSource{Cache: s.cache, Path: path}
	}
	return engine.Request{Sources: sources, Settings: st, Assets: s.assets}, nil
}

// RenderResult is a rendered image returned inline.
type RenderResult struct {
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	ImageBase64 string           `json:"image_base64"`
	MimeType    string           `json:"mime_type"`
	Stages      []string         `json:"stages"`
	TimingsMs   map[string]int64 `json:"timings_ms"`
}

func renderResult(res *engine.Result) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := export.Encode(&buf, res.Image, export.FormatPNG, 0); err != nil {
		return nil, err
	}
	b := res.Image.Bounds()
	return &RenderResult{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    export.FormatPNG.MIMEType(),
		Stages:      res.Stages,
		TimingsMs:   timingsMs(res),
	}, nil
}

func timingsMs(res *engine.Result) map[string]int64 {
	out := make(map[string]int64, len(res.Timings))
	for k, d := range res.Timings {
		out[k] = d.Milliseconds()
	}
	return out
}

func (s *Server) handleComposePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	req, err := s.request(a)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Preview(ctx, req)
	if err != nil {
		return nil, err
	}
	return renderResult(res)
}

type composeCompareArgs struct {
	renderArgs
	Position *float64 `json:"position"`
}

func (s *Server) handleComposeCompare(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a composeCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	position := 50.0
	if a.Position != nil {
		position = *a.Position
	}
	req, err := s.request(a.renderArgs)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.Compare(ctx, req, position)
	if err != nil {
		return nil, err
	}
	return renderResult(res)
}

type composeExportArgs struct {
	renderArgs
	Format      string `json:"format"`
	Quality     int    `json:"quality"`
	Transparent bool   `json:"transparent"`
	Premium     bool   `json:"premium"`
	OutputPath  string `json:"output_path"`
}

// ExportResult describes an encoded export. ImageBase64 is empty when the
// file was written to OutputPath.
type ExportResult struct {
	Format      string           `json:"format"`
	MimeType    string           `json:"mime_type"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	SizeBytes   int              `json:"size_bytes"`
	Watermarked bool             `json:"watermarked"`
	ImageBase64 string           `json:"image_base64,omitempty"`
	OutputPath  string           `json:"output_path,omitempty"`
	TimingsMs   map[string]int64 `json:"timings_ms"`
}

func (s *Server) handleComposeExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a composeExportArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	format, err := export.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	req, err := s.request(a.renderArgs)
	if err != nil {
		return nil, err
	}
	out, err := s.exporter.Export(ctx, req, export.Options{
		Format:      format,
		Quality:     a.Quality,
		Transparent: a.Transparent,
		Premium:     a.Premium,
	})
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		Format:      string(out.Format),
		MimeType:    out.MIMEType(),
		Width:       out.Width,
		Height:      out.Height,
		SizeBytes:   len(out.Data),
		Watermarked: out.Stamped,
		TimingsMs:   timingsMs(out.Result),
	}
	if a.OutputPath == "" {
		result.ImageBase64 = base64.StdEncoding.EncodeToString(out.Data)
		return result, nil
	}
	if !filepath.IsAbs(a.OutputPath) {
		return nil, fmt.Errorf("output_path must be absolute: %s", a.OutputPath)
	}
	if err := os.WriteFile(a.OutputPath, out.Data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	result.OutputPath = a.OutputPath
	return result, nil
}
