package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/image-regions/internal/config"
	"github.com/ironsheep/image-regions/internal/imaging"
	"github.com/ironsheep/image-regions/internal/logger"
	"github.com/ironsheep/image-regions/internal/ocr"
	"github.com/ironsheep/image-regions/internal/pipeline"
	"github.com/ironsheep/image-regions/internal/segmentation"
)

// Name and Version identify the server during the initialize handshake.
var (
	Name    = "image-regions"
	Version = "0.1.0"
)

// Server handles MCP protocol communication
type Server struct {
	cfg       *config.Config
	cache     *imaging.ImageCache
	words     ocr.WordSource
	detector  *pipeline.Detector
	refiner   *segmentation.Handle[segmentation.RefineModel]
	instances *segmentation.Handle[segmentation.InstanceModel]

	in  io.Reader
	out io.Writer
}

// Option customizes a Server.
type Option func(*Server)

// WithWordSource replaces the Tesseract engine used for text regions.
func WithWordSource(ws ocr.WordSource) Option {
	return func(s *Server) { s.words = ws }
}

// WithRefineModel replaces the remote prompt-driven segmentation model.
func WithRefineModel(h *segmentation.Handle[segmentation.RefineModel]) Option {
	return func(s *Server) { s.refiner = h }
}

// WithInstanceModel replaces the remote instance segmentation model.
func WithInstanceModel(h *segmentation.Handle[segmentation.InstanceModel]) Option {
	return func(s *Server) { s.instances = h }
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) { s.in, s.out = in, out }
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server for cfg. Unless overridden, text regions come from
// Tesseract and both segmentation front ends share one lazily created
// remote model client.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:   cfg,
		cache: imaging.NewImageCache(),
		words: ocr.NewEngine(cfg.OCR),
		in:    os.Stdin,
		out:   os.Stdout,
	}

	remote := segmentation.NewHandle(func() (*segmentation.RemoteModel, error) {
		return segmentation.NewRemoteModel(cfg.Segmentation)
	})
	s.refiner = segmentation.NewHandle(func() (segmentation.RefineModel, error) {
		m, err := remote.Get()
		if err != nil {
			return nil, err
		}
		return m, nil
	})
	s.instances = segmentation.NewHandle(func() (segmentation.InstanceModel, error) {
		m, err := remote.Get()
		if err != nil {
			return nil, err
		}
		return m, nil
	})

	for _, opt := range opts {
		opt(s)
	}
	s.detector = pipeline.NewDetector(cfg, s.words)
	return s
}

// Run reads requests from the input until EOF or until ctx is cancelled
// between requests, writing one response per line.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// Base64 images make for long lines.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			logger.WithError(err).Warn("failed to parse request")
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				logger.WithError(err).Error("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": Version,
			},
		},
	}
}
