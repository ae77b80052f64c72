package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the screenshot file",
}

var boxSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"x1": map[string]interface{}{"type": "integer"},
		"y1": map[string]interface{}{"type": "integer"},
		"x2": map[string]interface{}{"type": "integer"},
		"y2": map[string]interface{}{"type": "integer"},
	},
	"required": []string{"x1", "y1", "x2", "y2"},
}

// configProperty describes the per-call settings override. Keys match the
// YAML configuration file; omitted keys keep the server's settings.
var configProperty = map[string]interface{}{
	"type":        "object",
	"description": "Optional settings overriding the server configuration for this call (blur_kernel, canny_low, canny_high, morph_kernel, dilate_iterations, min_area, max_area, min_width, min_height, min_aspect, max_aspect, merge_boxes, overlap_threshold, merge_text_lines, merge_paragraphs, alignment_tolerance, min_grid_boxes, min_group_size, weights)",
	"properties": map[string]interface{}{
		"blur_kernel":         map[string]interface{}{"type": "integer", "description": "Gaussian kernel size, positive and odd (default 5)"},
		"canny_low":           map[string]interface{}{"type": "integer", "description": "Canny low threshold (default 50)"},
		"canny_high":          map[string]interface{}{"type": "integer", "description": "Canny high threshold (default 150)"},
		"min_area":            map[string]interface{}{"type": "integer", "description": "Minimum box area in px² (default 100)"},
		"merge_boxes":         map[string]interface{}{"type": "boolean", "description": "Merge boxes whose IoU reaches overlap_threshold (default false)"},
		"overlap_threshold":   map[string]interface{}{"type": "number", "description": "IoU merge threshold in (0,1] (default 0.5)"},
		"alignment_tolerance": map[string]interface{}{"type": "number", "description": "Alignment tolerance in pixels (default 10)"},
		"weights": map[string]interface{}{
			"type":        "object",
			"description": "Score weights: alignment, grid, consistency, small_groups, overlap",
		},
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load a screenshot and return its dimensions and format. The file is always re-read, replacing any cached copy, and stays cached for later calls on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Return the Canny edge map the element detector works from, as a base64 PNG. Useful for tuning thresholds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"blur_kernel": map[string]interface{}{
						"type":        "integer",
						"description": "Gaussian blur kernel size, positive and odd (default 5)",
						"default":     5,
					},
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Low threshold for Canny edge detection (default 50)",
						"default":     50,
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "High threshold for Canny edge detection (default 150)",
						"default":     150,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "layout_detect_elements",
			Description: "Detect rectangular UI elements in a screenshot and return their bounding boxes (x2/y2 exclusive).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "layout_analyze",
			Description: "Detect elements in a screenshot and score how well they are organized: alignment groups, grid patterns, and a 0-1 organization score with its breakdown.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "layout_score_boxes",
			Description: "Score a box list produced elsewhere (for example by a neural detector) without looking at pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"boxes": map[string]interface{}{
						"type":        "array",
						"items":       boxSchema,
						"description": "Element boxes; x2 and y2 are exclusive",
					},
					"width":  map[string]interface{}{"type": "integer", "description": "Optional frame width; give together with height"},
					"height": map[string]interface{}{"type": "integer", "description": "Optional frame height; give together with width"},
					"config": configProperty,
				},
				"required": []string{"boxes"},
			},
		},
		{
			Name:        "layout_visualize",
			Description: "Analyze a screenshot and return it annotated with element boxes, alignment lines and grid patterns as a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"config": configProperty,
					"stages": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the 2x2 stage panel (original, edges, enhanced, result) instead of the annotated image",
					},
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Optional bound on the returned image's width and height",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "layout_crop_element",
			Description: "Cut one element out of a screenshot as a base64 PNG, either a detected element by index or an explicit box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Index into the boxes reported by layout_detect_elements with the same config",
					},
					"box": boxSchema,
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added on every side before cropping (default 0)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Zoom factor up to 8 (default 1)",
					},
					"config": configProperty,
				},
				"required": []string{"path"},
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
