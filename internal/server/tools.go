package server

import "github.com/ironsheep/image-compose-mcp/internal/settings"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func layoutNames() []string {
	names := make([]string, len(settings.LayoutKinds))
	for i, k := range settings.LayoutKinds {
		names[i] = string(k)
	}
	return names
}

// renderProperties are the arguments shared by every compose tool.
func renderProperties() map[string]interface{} {
	return map[string]interface{}{
		"images": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Absolute paths of the source images, back to front",
		},
		"settings": map[string]interface{}{
			"type":        "object",
			"description": "Project settings: layout, canvasSettings, and optional overlaySettings, visualEffects, filters, imageTransparency, imageTransforms, imageCrops, imageMasks, textLayers, stickerLayers, drawingLayers, glitchEffects, doubleExposureSettings, shadowSettings, bokehSettings, duotoneSettings, lightLeaks",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Source Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for later compose calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Layout
		{
			Name:        "compose_layout",
			Description: "Resolve a layout into per-image rectangles and clip shapes without rendering.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"layout": map[string]interface{}{
						"type":        "string",
						"enum":        layoutNames(),
						"description": "Layout algorithm",
					},
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of images",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Canvas height in pixels",
					},
					"margin": map[string]interface{}{
						"type":        "number",
						"description": "Inset of each tile in pixels. Default 0",
						"default":     0,
					},
					"border_radius": map[string]interface{}{
						"type":        "number",
						"description": "Rounded-corner radius of each tile in pixels. Default 0",
						"default":     0,
					},
				},
				"required": []string{"layout", "count", "width", "height"},
			},
		},

		// Rendering
		{
			Name:        "compose_preview",
			Description: "Render the composition and return it as base64-encoded PNG. Large canvases are downscaled to the preview size.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": renderProperties(),
				"required":   []string{"images", "settings"},
			},
		},
		{
			Name:        "compose_compare",
			Description: "Render a before/after split view: the left side shows the plain layout, the right side the full set of effects.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(renderProperties(), map[string]interface{}{
					"position": map[string]interface{}{
						"type":        "number",
						"description": "Divider position in percent of the width (0-100). Default 50",
						"default":     50,
					},
				}),
				"required": []string{"images", "settings"},
			},
		},
		{
			Name:        "compose_export",
			Description: "Render the composition at full size and encode it as PNG or JPEG. Free exports carry a watermark.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(renderProperties(), map[string]interface{}{
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"png", "jpeg"},
						"description": "Output format. Default png",
						"default":     "png",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality 1-100. Default from configuration",
					},
					"transparent": map[string]interface{}{
						"type":        "boolean",
						"description": "Leave the background transparent (PNG). Default false",
						"default":     false,
					},
					"premium": map[string]interface{}{
						"type":        "boolean",
						"description": "Skip the watermark. Default false",
						"default":     false,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Write the file here instead of returning base64 data",
					},
				}),
				"required": []string{"images", "settings"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
