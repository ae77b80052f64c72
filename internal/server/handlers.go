package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/wjojarth123/uicheck/internal/config"
	"github.com/wjojarth123/uicheck/internal/geometry"
	"github.com/wjojarth123/uicheck/internal/imaging"
	"github.com/wjojarth123/uicheck/internal/pipeline"
	"github.com/wjojarth123/uicheck/internal/visualize"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "layout_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// paramsError marks arguments that could not be decoded or an unknown
// tool. It is reported with the invalid-params code.
type paramsError struct{ err error }

func (e *paramsError) Error() string { return e.err.Error() }
func (e *paramsError) Unwrap() error { return e.err }

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = []byte("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &paramsError{fmt.Errorf("invalid arguments: %w", err)}
	}
	return nil
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Undecodable arguments and unknown tools return code -32602. Tool
// execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		var pe *paramsError
		if errors.As(err, &pe) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, codeToolFailure, "Tool execution failed", err.Error())
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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Merges any per-call settings over the server configuration
//  3. Loads images from cache as needed
//  4. Runs the imaging or pipeline function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	case "layout_detect_elements":
		return s.handleDetectElements(args)
	case "layout_analyze":
		return s.handleAnalyze(args)
	case "layout_score_boxes":
		return s.handleScoreBoxes(args)
	case "layout_visualize":
		return s.handleVisualize(args)
	case "layout_crop_element":
		return s.handleCropElement(args)

	default:
		return nil, &paramsError{fmt.Errorf("unknown tool: %s", name)}
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// settings returns the server configuration with raw merged over it.
func (s *Server) settings(raw json.RawMessage) (config.Config, error) {
	cfg := s.cfg
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return cfg, &paramsError{fmt.Errorf("invalid config: %w", err)}
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s *Server) newPipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	return pipeline.New(cfg, pipeline.WithLogger(s.logger), pipeline.WithDebug(s.debug))
}

// analyzePath loads path from the cache and runs the pipeline on it.
func (s *Server) analyzePath(path string, raw json.RawMessage, render bool) (*pipeline.Result, error) {
	cfg, err := s.settings(raw)
	if err != nil {
		return nil, err
	}
	cfg.Visualize = render
	p, err := s.newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return p.Analyze(img)
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	// An explicit load always re-reads the file so recaptured screenshots
	// replace the cached pixels.
	s.cache.Evict(a.Path)
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	BlurKernel    int    `json:"blur_kernel"`
	ThresholdLow  *int   `json:"threshold_low"`
	ThresholdHigh *int   `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.BlurKernel == 0 {
		a.BlurKernel = s.cfg.BlurKernel
	}
	low, high := s.cfg.CannyLow, s.cfg.CannyHigh
	if a.ThresholdLow != nil {
		low = *a.ThresholdLow
	}
	if a.ThresholdHigh != nil {
		high = *a.ThresholdHigh
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.BlurKernel, low, high)
}

// === Layout Handlers ===

type layoutArgs struct {
	Path   string          `json:"path"`
	Config json.RawMessage `json:"config"`
}

// DetectElementsResult lists the boxes found in a screenshot.
type DetectElementsResult struct {
	Width     int                      `json:"width"`
	Height    int                      `json:"height"`
	Count     int                      `json:"count"`
	Boxes     []geometry.Box           `json:"boxes"`
	Detection *pipeline.DetectionStats `json:"detection,omitempty"`
}

func (s *Server) handleDetectElements(args json.RawMessage) (interface{}, error) {
	var a layoutArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.analyzePath(a.Path, a.Config, false)
	if err != nil {
		return nil, err
	}
	rep := res.Report(a.Path)
	return &DetectElementsResult{
		Width:     rep.Width,
		Height:    rep.Height,
		Count:     len(rep.Boxes),
		Boxes:     rep.Boxes,
		Detection: rep.Detection,
	}, nil
}

func (s *Server) handleAnalyze(args json.RawMessage) (interface{}, error) {
	var a layoutArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.analyzePath(a.Path, a.Config, false)
	if err != nil {
		return nil, err
	}
	return res.Report(a.Path), nil
}

type scoreBoxesArgs struct {
	Boxes  []geometry.Box  `json:"boxes"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Config json.RawMessage `json:"config"`
}

func (s *Server) handleScoreBoxes(args json.RawMessage) (interface{}, error) {
	var a scoreBoxesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width < 0 || a.Height < 0 || (a.Width == 0) != (a.Height == 0) {
		return nil, &paramsError{fmt.Errorf("width and height must be given together and be positive, got %dx%d", a.Width, a.Height)}
	}
	cfg, err := s.settings(a.Config)
	if err != nil {
		return nil, err
	}
	p, err := s.newPipeline(cfg)
	if err != nil {
		return nil, err
	}
	res, err := p.AnalyzeBoxes(a.Boxes, image.Rect(0, 0, a.Width, a.Height))
	if err != nil {
		return nil, err
	}
	return res.Report(""), nil
}

type visualizeArgs struct {
	Path    string          `json:"path"`
	Config  json.RawMessage `json:"config"`
	Stages  bool            `json:"stages"`
	MaxSize int             `json:"max_size"`
}

// VisualizeResult carries an annotated screenshot. When rendering fails
// the score is still reported and RenderError says why the image is missing.
type VisualizeResult struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Score       float64 `json:"score"`
	Boxes       int     `json:"boxes"`
	ImageBase64 string  `json:"image_base64,omitempty"`
	MimeType    string  `json:"mime_type,omitempty"`
	RenderError string  `json:"render_error,omitempty"`
}

func (s *Server) handleVisualize(args json.RawMessage) (interface{}, error) {
	var a visualizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	res, err := s.analyzePath(a.Path, a.Config, true)
	if err != nil {
		return nil, err
	}

	out := &VisualizeResult{Score: res.Score(), Boxes: len(res.Boxes)}
	img := res.Annotated
	if a.Stages {
		img = res.Stages
	}
	if res.RenderErr != nil || img == nil {
		if res.RenderErr != nil {
			out.RenderError = res.RenderErr.Error()
		}
		return out, nil
	}

	if a.MaxSize > 0 {
		thumb, err := visualize.Thumbnail(img, a.MaxSize, a.MaxSize)
		if err != nil {
			out.RenderError = err.Error()
			return out, nil
		}
		img = thumb
	}
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		out.RenderError = err.Error()
		return out, nil
	}
	out.Width, out.Height = img.Bounds().Dx(), img.Bounds().Dy()
	out.ImageBase64 = encoded
	out.MimeType = "image/png"
	return out, nil
}

type cropElementArgs struct {
	Path    string          `json:"path"`
	Index   *int            `json:"index"`
	Box     *geometry.Box   `json:"box"`
	Padding int             `json:"padding"`
	Scale   float64         `json:"scale"`
	Config  json.RawMessage `json:"config"`
}

func (s *Server) handleCropElement(args json.RawMessage) (interface{}, error) {
	var a cropElementArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if (a.Index == nil) == (a.Box == nil) {
		return nil, &paramsError{errors.New("exactly one of index and box is required")}
	}

	var box geometry.Box
	if a.Box != nil {
		box = *a.Box
	} else {
		res, err := s.analyzePath(a.Path, a.Config, false)
		if err != nil {
			return nil, err
		}
		if *a.Index < 0 || *a.Index >= len(res.Boxes) {
			return nil, fmt.Errorf("element index %d out of range (%d elements)", *a.Index, len(res.Boxes))
		}
		box = res.Boxes[*a.Index]
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.CropBox(img, box, a.Padding, a.Scale)
}
