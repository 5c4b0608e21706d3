package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file (PNG, JPEG, GIF, BMP, TIFF or WebP)",
	}
}

// policySchema describes detection.PolicySpec.
func policySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "How a pixel is classified as part of the shape. Comparisons are strict: a pixel equal to the threshold is outside.",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"threshold", "channel_sum", "near_white", "background_distance", "binary_mask"},
				"description": "threshold: gray < t. channel_sum: R+G+B < t. near_white: inside unless all channels > channel_threshold. background_distance: Lab distance from background > tolerance. binary_mask: for binarized input. Default threshold.",
				"default":     "threshold",
			},
			"threshold": map[string]interface{}{
				"type":        "integer",
				"description": "Threshold for threshold (0-255, default 128) or channel_sum (0-765, default 384)",
			},
			"invert": map[string]interface{}{
				"type":        "boolean",
				"description": "Light shape on dark background: use > instead of < for threshold and channel_sum",
				"default":     false,
			},
			"channel_threshold": map[string]interface{}{
				"type":        "integer",
				"description": "Per-channel bound for near_white (0-255, default 240)",
			},
			"background": map[string]interface{}{
				"type":        "string",
				"description": "Backdrop colour #RRGGBB for background_distance, or auto to take it from the image border (default #ffffff)",
			},
			"tolerance": map[string]interface{}{
				"type":        "number",
				"description": "L*a*b* distance bound for background_distance (0-3, default 0.1)",
			},
		},
	}
}

func binarizeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Binarize with an 11x11 Gaussian adaptive threshold and a 3x3 opening/closing before sampling. Requires policy binary_mask or no policy.",
		"properties": map[string]interface{}{
			"invert": map[string]interface{}{
				"type":        "boolean",
				"description": "Shape is lighter than its surroundings",
				"default":     false,
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and whether it is grayscale.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "area_estimate",
			Description: "Estimate the area of the shape in an image by Monte Carlo sampling: random points are classified as inside or outside and the inside fraction scales the reference area. Returns the estimate, inside count, standard error, sampled region, a capped display subsample and a convergence curve.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"reference_area": map[string]interface{}{
						"type":        "number",
						"description": "Physical area of the sampled rectangle (> 0). With auto_bbox this must describe the cropped region. Default 100",
						"default":     100,
					},
					"samples": map[string]interface{}{
						"type":        "integer",
						"description": "Number of random samples (>= 1). Default 5000",
						"default":     5000,
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed; 0 draws a fresh seed, any other value is reproducible. Default 0",
						"default":     0,
					},
					"policy": policySchema(),
					"auto_bbox": map[string]interface{}{
						"type":        "boolean",
						"description": "Crop to the bounding box of shape pixels before sampling. Default true",
						"default":     true,
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the bounding box (>= 0). Default 5",
						"default":     5,
					},
					"display_limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum display samples returned (>= 0). Default 2000",
						"default":     2000,
					},
					"binarize": binarizeSchema(),
					"convergence": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"prefix", "resample", "none"},
						"description": "prefix: partial estimates from prefixes of the main run. resample: a fresh experiment per checkpoint (noisier). Default prefix",
						"default":     "prefix",
					},
					"checkpoints": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "integer"},
						"description": "Checkpoint sample counts. Default 100, 500, 1000, 2000, 5000, 10000, 20000, 50000, 100000 (those <= samples)",
					},
					"log_checkpoints": map[string]interface{}{
						"type":        "integer",
						"description": "Use log-spaced checkpoints with this many per decade, ending at samples. Exclusive with checkpoints",
					},
					"chunk_size": map[string]interface{}{
						"type":        "integer",
						"description": "Samples drawn per chunk; bounds memory. Default 100000",
					},
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale images larger than this on either side. Default 0 (full size)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "area_detect_region",
			Description: "Find the bounding box of shape pixels and the padded sampling region auto_bbox would use, with the region's share of the full frame.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty(),
					"policy": policySchema(),
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels added around the bounding box (>= 0). Default 5",
						"default":     5,
					},
					"binarize": binarizeSchema(),
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Downscale images larger than this on either side. Default 0 (full size)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "area_classify_pixel",
			Description: "Classify a single pixel with a policy and return its channel values. Use it to tune thresholds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
					"policy": policySchema(),
				},
				"required": []string{"path", "x", "y"},
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
