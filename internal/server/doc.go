// Package server implements the MCP (Model Context Protocol) server for the
// image composition engine.
//
// This package provides a JSON-RPC 2.0 server that exposes the three render
// call sites (preview, before/after comparison and export) through the MCP
// protocol, so an MCP client can lay out photos, decorate them and apply
// effects from a single settings document.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Source Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Layout:
//   - compose_layout: Resolve a layout into cell rectangles and clips
//
// Rendering:
//   - compose_preview: Render at preview size, returned as base64 PNG
//   - compose_compare: Before/after split view at a divider position
//   - compose_export: Full-size PNG or JPEG, watermarked unless premium
//
// The settings argument is the project settings document with camelCase
// keys, for example:
//
//	{
//	  "layout": "grid",
//	  "canvasSettings": {"width": 1080, "height": 1080, "backgroundColor": "#FFFFFF"},
//	  "visualEffects": {"margin": 12, "borderRadius": 16},
//	  "textLayers": [{"text": "Summer", "x": 540, "y": 40, "fontSize": 72, "align": "center"}],
//	  "duotoneSettings": {"enabled": true, "intensity": 60}
//	}
//
// # Image Caching
//
// Source images are decoded once and cached by path for the lifetime of
// the server process, so repeated previews of the same project only pay for
// the render.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, e.g. "Image 2 failed to load: ..."
//
// A render either completes or fails as a whole; no partial image is ever
// returned.
//
// # Usage
//
//	srv := server.New(config.Default(), logger, version)
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    logger.Error("server error", "error", err)
//	}
package server
