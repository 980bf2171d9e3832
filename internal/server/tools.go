package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// imageProperties are the two ways every image tool accepts its input.
func imageProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Base64-encoded image, optionally as a data: URL. Used when path is empty.",
		},
	}
}

func integer(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

func withProps(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image detection
		{
			Name:        "regions_detect",
			Description: "Detect regions of interest in an image: OCR text blocks merged with visual shapes, boxes and illustrations. Returns regions in reading order with counts and the image size, plus file metadata as source when a path is given. Data that is not a decodable image yields zero regions and a 0x0 image size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(imageProperties(), map[string]interface{}{
					"detect_visual": map[string]interface{}{
						"type":        "boolean",
						"description": "Also run visual detection. When false only text regions are returned. Default true",
						"default":     true,
					},
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the image with region outlines and ids drawn on it as annotated_base64. Default false",
						"default":     false,
					},
				}),
			},
		},
		{
			Name:        "regions_detect_visual",
			Description: "Detect visual regions only (shapes, boxes, colored artwork, illustrations) without OCR.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": imageProperties(),
			},
		},
		{
			Name:        "regions_refine_box",
			Description: "Tighten a rough bounding box to the foreground content inside it. Returns the input box unchanged when the area holds too little structure.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(imageProperties(), map[string]interface{}{
					"x":      integer("Left edge X coordinate (0-based)"),
					"y":      integer("Top edge Y coordinate (0-based)"),
					"width":  integer("Box width in pixels"),
					"height": integer("Box height in pixels"),
				}),
				"required": []string{"x", "y", "width", "height"},
			},
		},
		{
			Name:        "regions_crop",
			Description: "Crop a region of interest and return it as base64-encoded PNG, optionally with the OCR text inside it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(imageProperties(), map[string]interface{}{
					"x":      integer("Left edge X coordinate (0-based)"),
					"y":      integer("Top edge Y coordinate (0-based)"),
					"width":  integer("Crop width in pixels"),
					"height": integer("Crop height in pixels"),
					"ocr": map[string]interface{}{
						"type":        "boolean",
						"description": "Run OCR on the cropped area. Default false",
						"default":     false,
					},
				}),
				"required": []string{"x", "y", "width", "height"},
			},
		},

		// Mask geometry
		{
			Name:        "regions_mask_geometry",
			Description: "Convert a binary mask image (non-zero = foreground) into a bounding box and a simplified polygon of its largest blob.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mask_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the mask image",
					},
					"mask_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded mask image. Used when mask_path is empty.",
					},
					"preset": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"fine", "coarse"},
						"description": "Polygon simplification preset. Default fine",
						"default":     "fine",
					},
				},
			},
		},

		// Segmentation models
		{
			Name:        "regions_segment_refine",
			Description: "Segment the object under a point or inside a box with the configured segmentation model and return its outline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(imageProperties(), map[string]interface{}{
					"point": map[string]interface{}{
						"type":        "object",
						"description": "Prompt point {x, y}",
						"properties": map[string]interface{}{
							"x": integer("X coordinate"),
							"y": integer("Y coordinate"),
						},
					},
					"bbox": map[string]interface{}{
						"type":        "object",
						"description": "Prompt box {x, y, width, height}",
						"properties": map[string]interface{}{
							"x":      integer("Left edge X coordinate"),
							"y":      integer("Top edge Y coordinate"),
							"width":  integer("Box width"),
							"height": integer("Box height"),
						},
					},
				}),
			},
		},
		{
			Name:        "regions_segment_instances",
			Description: "Find every garment instance with the configured instance segmentation model. Returns boxes, confidences and polygons sorted by confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProps(imageProperties(), map[string]interface{}{
					"max_masks": integer("Maximum number of instances to return. Default 20"),
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum instance confidence in [0,1]. Default 0.25",
					},
				}),
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
