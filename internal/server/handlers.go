package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/area-estimator-mcp/internal/config"
	"github.com/ironsheep/area-estimator-mcp/internal/detection"
	"github.com/ironsheep/area-estimator-mcp/internal/imaging"
	"github.com/ironsheep/area-estimator-mcp/internal/montecarlo"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "area_estimate").
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
		s.logger.Info("tool failed", "tool", params.Name, "error", err)
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
//
// Each tool handler:
//  1. Starts from the documented defaults and unmarshals arguments over them
//  2. Validates the resulting settings before touching the image
//  3. Loads the image from cache, decoded to the channels the policy reads
//  4. Calls the detection or montecarlo function and returns its result
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "area_estimate":
		return s.handleAreaEstimate(ctx, args)
	case "area_detect_region":
		return s.handleAreaDetectRegion(args)
	case "area_classify_pixel":
		return s.handleAreaClassifyPixel(args)
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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

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

type areaEstimateArgs struct {
	Path string `json:"path"`
	config.Settings
}

func (s *Server) handleAreaEstimate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a := areaEstimateArgs{Settings: config.DefaultSettings()}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg, err := a.Settings.RunConfig()
	if err != nil {
		return nil, err
	}
	cfg.Progress = func(p montecarlo.Progress) {
		s.logger.Debug("estimate progress", "path", a.Path, "done", p.Done, "total", p.Total)
	}

	src, scale, err := s.cache.LoadRaster(a.Path, cfg.SourceChannels(), a.MaxDimension)
	if err != nil {
		return nil, err
	}
	cfg.Scale = scale
	return montecarlo.Run(ctx, src, cfg)
}

type areaDetectRegionArgs struct {
	Path         string                     `json:"path"`
	Policy       detection.PolicySpec       `json:"policy"`
	Padding      int                        `json:"padding"`
	Binarize     *detection.BinarizeOptions `json:"binarize,omitempty"`
	MaxDimension int                        `json:"max_dimension,omitempty"`
}

// DetectRegionResult describes the sampling rectangle region reduction
// would choose for an image.
type DetectRegionResult struct {
	ImageWidth  int                   `json:"image_width"`
	ImageHeight int                   `json:"image_height"`
	Shape       detection.ShapeBounds `json:"shape"`
	Region      imaging.Region        `json:"region"`
	Policy      string                `json:"policy"`

	// Scale is set when the image was downscaled before detection. Shape
	// and Region are always in original-image coordinates.
	Scale *imaging.Scale `json:"scale,omitempty"`

	// RegionFraction is the padded region's share of the full frame. A
	// reference area measured for the full frame scales by this factor.
	RegionFraction float64 `json:"region_fraction"`
}

func (s *Server) handleAreaDetectRegion(args json.RawMessage) (interface{}, error) {
	a := areaDetectRegionArgs{Padding: config.DefaultSettings().Padding}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var policy detection.Policy = detection.BinaryMask{}
	if a.Binarize == nil || a.Policy.Type != "" {
		p, err := a.Policy.Policy()
		if err != nil {
			return nil, err
		}
		policy = p
	}
	if _, ok := policy.(detection.BinaryMask); a.Binarize != nil && !ok {
		return nil, fmt.Errorf("%w: binarized input needs the binary_mask policy", detection.ErrInvalidPolicyParameters)
	}
	if a.Padding < 0 {
		return nil, fmt.Errorf("%w: %d is negative", detection.ErrInvalidPadding, a.Padding)
	}

	src, scale, err := s.cache.LoadRaster(a.Path, policy.Channels(), a.MaxDimension)
	if err != nil {
		return nil, err
	}
	if policy, err = detection.ResolvePolicy(policy, src); err != nil {
		return nil, err
	}
	if a.Binarize != nil {
		if src, err = detection.Binarize(src, *a.Binarize); err != nil {
			return nil, err
		}
	}

	bounds, err := detection.FindShapeBounds(src, policy)
	if err != nil {
		return nil, err
	}
	region, err := detection.PadRegion(bounds.Box, a.Padding, src.Width, src.Height)
	if err != nil {
		return nil, err
	}

	res := &DetectRegionResult{
		ImageWidth:     src.Width,
		ImageHeight:    src.Height,
		Shape:          *bounds,
		Region:         region,
		Policy:         policy.String(),
		RegionFraction: float64(region.Area()) / float64(src.Width*src.Height),
	}
	if !scale.Identity() {
		res.ImageWidth, res.ImageHeight = scale.SourceWidth, scale.SourceHeight
		res.Shape.Box = scale.Region(bounds.Box)
		res.Region = scale.Region(region)
		res.Scale = &scale
	}
	return res, nil
}

type areaClassifyPixelArgs struct {
	Path   string               `json:"path"`
	X      int                  `json:"x"`
	Y      int                  `json:"y"`
	Policy detection.PolicySpec `json:"policy"`
}

// ClassifyPixelResult is the verdict of a policy on one pixel.
type ClassifyPixelResult struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Values []int  `json:"values"`
	Inside bool   `json:"inside"`
	Policy string `json:"policy"`
}

func (s *Server) handleAreaClassifyPixel(args json.RawMessage) (interface{}, error) {
	var a areaClassifyPixelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	policy, err := a.Policy.Policy()
	if err != nil {
		return nil, err
	}
	src, _, err := s.cache.LoadRaster(a.Path, policy.Channels(), 0)
	if err != nil {
		return nil, err
	}
	if policy, err = detection.ResolvePolicy(policy, src); err != nil {
		return nil, err
	}
	if a.X < 0 || a.Y < 0 || a.X >= src.Width || a.Y >= src.Height {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", a.X, a.Y, src.Width, src.Height)
	}

	px := src.Pixel(a.X, a.Y)
	values := make([]int, len(px))
	for i, v := range px {
		values[i] = int(v)
	}
	return &ClassifyPixelResult{
		X:      a.X,
		Y:      a.Y,
		Values: values,
		Inside: detection.Classify(policy, px),
		Policy: policy.String(),
	}, nil
}
