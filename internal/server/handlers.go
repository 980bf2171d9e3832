package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/image-regions/internal/apperrors"
	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/detection"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/logger"
	"github.com/ironsheep/image-regions/internal/region"
	"github.com/ironsheep/image-regions/internal/segmentation"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "regions_detect").
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
// Tool errors map to a JSON-RPC code by category: -32602 for invalid
// arguments, -32001 for an unavailable model and -32000 otherwise.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, apperrors.CodeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		err = categorize(err)
		logger.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("tool call failed")
		return s.errorResponse(req.ID, apperrors.Code(err), "Tool execution failed", err.Error())
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
	// Image detection
	case "regions_detect":
		return s.handleDetect(args)
	case "regions_detect_visual":
		return s.handleDetectVisual(args)
	case "regions_refine_box":
		return s.handleRefineBox(args)
	case "regions_crop":
		return s.handleCrop(args)

	// Mask geometry
	case "regions_mask_geometry":
		return s.handleMaskGeometry(args)

	// Segmentation models
	case "regions_segment_refine":
		return s.handleSegmentRefine(ctx, args)
	case "regions_segment_instances":
		return s.handleSegmentInstances(ctx, args)

	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown tool: %s", name), nil)
	}
}

// categorize wraps a plain error in the AppError category its cause implies.
func categorize(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, region.ErrOutOfBounds),
		errors.Is(err, region.ErrNonPositiveDimension),
		errors.Is(err, segmentation.ErrEmptyPrompt),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return apperrors.NewValidationError("invalid arguments", err)
	case errors.Is(err, segmentation.ErrNoEndpoint):
		return apperrors.NewUnavailableError("segmentation model unavailable", err)
	default:
		return apperrors.NewProcessingError("processing failed", err)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// imageArgs selects the input image: a cached file path or inline base64.
type imageArgs struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) loadImage(a imageArgs) (*imaging.ImageBuffer, error) {
	switch {
	case a.Path != "":
		buf, err := s.cache.Load(a.Path)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{"path": a.Path, "cached": s.cache.Len()}).Debug("image loaded")
		return buf, nil
	case a.ImageBase64 != "":
		buf, err := imaging.DecodeBase64(a.ImageBase64)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid image_base64", err)
		}
		return buf, nil
	default:
		return nil, apperrors.NewValidationError("provide path or image_base64", nil)
	}
}

// === Image Detection Handlers ===

type detectArgs struct {
	imageArgs
	DetectVisual *bool `json:"detect_visual"`
	Annotate     bool  `json:"annotate"`
}

type detectResult struct {
	region.Result
	Source          *imaging.ImageInfo `json:"source,omitempty"`
	AnnotatedBase64 string             `json:"annotated_base64,omitempty"`
}

// handleDetect runs region detection. Bytes that do not decode as an image
// give an empty result with zero image size, whichever way they arrived.
func (s *Server) handleDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	visual := a.DetectVisual == nil || *a.DetectVisual

	if a.Path == "" && a.ImageBase64 != "" && !a.Annotate {
		raw, err := imaging.DecodeBase64Payload(a.ImageBase64)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid image_base64", err)
		}
		if visual {
			return detectResult{Result: s.detector.DetectAllFromBytes(raw)}, nil
		}
		return detectResult{Result: s.detector.DetectTextFromBytes(raw)}, nil
	}

	buf, err := s.loadImage(a.imageArgs)
	if errors.Is(err, imaging.ErrUndecodable) {
		logger.WithError(err).Warn("image decode failed")
		return detectResult{Result: region.NewResult(nil, 0, 0)}, nil
	}
	if err != nil {
		return nil, err
	}

	res := detectResult{Result: s.detector.Detect(buf, visual)}
	if a.Path != "" {
		if res.Source, err = imaging.LoadImageInfo(s.cache, a.Path); err != nil {
			return nil, err
		}
	}
	if a.Annotate {
		if res.AnnotatedBase64, err = imaging.EncodePNGBase64(imaging.Annotate(buf.Image(), res.Regions)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Server) handleDetectVisual(args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.loadImage(a)
	if err != nil {
		return nil, err
	}
	return region.NewResult(s.detector.DetectVisualRegions(buf), buf.Width(), buf.Height()), nil
}

type boxArgs struct {
	imageArgs
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type refineBoxResult struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	Changed  bool `json:"changed"`
	Original struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"original"`
}

func (s *Server) handleRefineBox(args json.RawMessage) (interface{}, error) {
	var a boxArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.loadImage(a.imageArgs)
	if err != nil {
		return nil, err
	}
	refined, err := detection.RefineBox(buf.Gray(), a.X, a.Y, a.Width, a.Height, s.cfg.Detection.Refine)
	if err != nil {
		return nil, err
	}

	res := refineBoxResult{
		X:      refined.Min.X,
		Y:      refined.Min.Y,
		Width:  refined.Dx(),
		Height: refined.Dy(),
	}
	res.Original.X, res.Original.Y, res.Original.Width, res.Original.Height = a.X, a.Y, a.Width, a.Height
	res.Changed = res.X != a.X || res.Y != a.Y || res.Width != a.Width || res.Height != a.Height
	return res, nil
}

type cropArgs struct {
	boxArgs
	OCR bool `json:"ocr"`
}

type cropResult struct {
	*imaging.CropResult
	Text string `json:"text,omitempty"`
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a cropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.loadImage(a.imageArgs)
	if err != nil {
		return nil, err
	}
	crop, err := imaging.Crop(buf, a.X, a.Y, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	res := cropResult{CropResult: crop}
	if !a.OCR {
		return res, nil
	}

	if s.words == nil {
		return nil, apperrors.NewUnavailableError("OCR is not configured", nil)
	}
	roi, err := imaging.CropROI(buf, a.X, a.Y, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	words, err := s.words.Words(roi.Image())
	if err != nil {
		return nil, apperrors.NewProcessingError("OCR failed", err)
	}
	text := make([]string, 0, len(words))
	for _, w := range words {
		if t := strings.TrimSpace(w.Text); t != "" {
			text = append(text, t)
		}
	}
	res.Text = strings.Join(text, " ")
	return res, nil
}

// === Mask Geometry Handler ===

type maskArgs struct {
	MaskPath   string `json:"mask_path"`
	MaskBase64 string `json:"mask_base64"`
	Preset     string `json:"preset"`
}

func (s *Server) preset(name string) (config.PolygonPreset, error) {
	switch name {
	case "", "fine":
		return s.cfg.Segmentation.Fine, nil
	case "coarse":
		return s.cfg.Segmentation.Coarse, nil
	default:
		return config.PolygonPreset{}, apperrors.NewValidationError(fmt.Sprintf("unknown preset %q", name), nil)
	}
}

func (s *Server) handleMaskGeometry(args json.RawMessage) (interface{}, error) {
	var a maskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	preset, err := s.preset(a.Preset)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch {
	case a.MaskPath != "":
		if data, err = os.ReadFile(a.MaskPath); err != nil {
			return nil, fmt.Errorf("failed to read mask: %w", err)
		}
	case a.MaskBase64 != "":
		if data, err = imaging.DecodeBase64Payload(a.MaskBase64); err != nil {
			return nil, apperrors.NewValidationError("invalid mask_base64", err)
		}
	default:
		return nil, apperrors.NewValidationError("provide mask_path or mask_base64", nil)
	}

	mask, err := segmentation.DecodeMask(data)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid mask image", err)
	}
	var regions []region.Region
	if r, ok := segmentation.FromMask(mask, mask.Bounds(), preset); ok {
		r.ID = "mask_0"
		r.Type = region.TypeMask
		regions = append(regions, r)
	}
	return segmentation.NewResult(regions, mask.Bounds()), nil
}

// === Segmentation Model Handlers ===

type segmentRefineArgs struct {
	imageArgs
	segmentation.Prompt
}

func (s *Server) handleSegmentRefine(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentRefineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	buf, err := s.loadImage(a.imageArgs)
	if err != nil {
		return nil, err
	}
	return segmentation.RefineMask(ctx, s.refiner, buf.Image(), a.Prompt, s.cfg.Segmentation)
}

type segmentInstancesArgs struct {
	imageArgs
	MaxMasks      int     `json:"max_masks"`
	MinConfidence float64 `json:"min_confidence"`
}

func (s *Server) handleSegmentInstances(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a segmentInstancesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		return nil, apperrors.NewValidationError("min_confidence must be in [0,1]", nil)
	}
	buf, err := s.loadImage(a.imageArgs)
	if err != nil {
		return nil, err
	}
	opts := segmentation.InstanceOptions{MaxMasks: a.MaxMasks, MinConfidence: a.MinConfidence}
	return segmentation.SegmentInstances(ctx, s.instances, buf.Image(), opts, s.cfg.Segmentation)
}
