package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/ironsheep/canny-live/internal/canny"
	"github.com/ironsheep/canny-live/internal/imaging"
)

// errInvalidArgs marks argument problems, reported as CodeInvalidParams.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "edge_detect").
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
// Malformed or missing arguments return code -32602; other tool failures
// return code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool call failed")
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, CodeToolFailed, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool call done")

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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "edge_detect":
		return s.handleEdgeDetect(args)
	case "edge_tuning":
		return s.handleEdgeTuning()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating absent arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	return nil
}

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type edgeDetectArgs struct {
	Path    string   `json:"path"`
	Low     *float64 `json:"low"`
	High    *float64 `json:"high"`
	Scale   float64  `json:"scale"`
	Overlay string   `json:"overlay"`
}

func (s *Server) handleEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a edgeDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("%w: path is required", errInvalidArgs)
	}

	p := s.defaults
	if a.Low != nil {
		p.Low = *a.Low
	}
	if a.High != nil {
		p.High = *a.High
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidArgs, err)
	}
	if a.Scale == 0 {
		a.Scale = 1
	}
	if !lo.Contains(s.scales, a.Scale) {
		return nil, fmt.Errorf("%w: scale %g not in %v", errInvalidArgs, a.Scale, s.scales)
	}
	if a.Overlay != "" {
		if _, err := imaging.ParseTint(a.Overlay); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidArgs, err)
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, imaging.EdgeOptions{
		Params:  p,
		Tuning:  s.tuning,
		Scale:   a.Scale,
		Overlay: a.Overlay,
	})
}

// EdgeTuningResult reports the constants the server detects with.
type EdgeTuningResult struct {
	Weak     uint8        `json:"weak"`
	Strong   uint8        `json:"strong"`
	Bins     [4]float64   `json:"bins"`
	Scales   []float64    `json:"scales"`
	Defaults canny.Params `json:"defaults"`
}

func (s *Server) handleEdgeTuning() (interface{}, error) {
	return &EdgeTuningResult{
		Weak:     s.tuning.Weak,
		Strong:   s.tuning.Strong,
		Bins:     s.tuning.Bins,
		Scales:   append([]float64(nil), s.scales...),
		Defaults: s.defaults,
	}, nil
}
