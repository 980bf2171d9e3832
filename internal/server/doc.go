// Package server implements the MCP (Model Context Protocol) server that
// exposes region detection as tools.
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
// Image detection:
//   - regions_detect: text and visual regions merged, or text only
//   - regions_detect_visual: visual regions only
//   - regions_refine_box: tighten a rough box to its content
//   - regions_crop: extract a validated region, optionally with OCR text
//
// Mask geometry:
//   - regions_mask_geometry: mask image to bounding box and polygon
//
// Segmentation models (need IMAGE_REGIONS_SEGMENT_URL):
//   - regions_segment_refine: best mask for a point or box prompt
//   - regions_segment_instances: one region per detected garment
//
// Image tools take either path, which goes through an in-memory cache that
// lives as long as the server, or image_base64. regions_detect answers data
// that does not decode as an image with an empty result rather than an error.
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors whose code reflects the
// category of the failure:
//   - -32602: invalid arguments (bad JSON, out-of-bounds box, empty prompt)
//   - -32001: a model or OCR engine that is not configured
//   - -32000: any other processing failure
//
// The data field carries the underlying error string.
package server
