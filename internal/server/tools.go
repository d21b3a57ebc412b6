package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, alpha and file size.",
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
			Name: "edge_detect",
			Description: "Run Canny edge detection on an image and return a black and white edge mask " +
				"(or the source with edges painted in an overlay colour) as base64-encoded PNG. " +
				"Thresholds are gradient magnitudes in luminance units; a hard black to white step " +
				"is several hundred.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"low": map[string]interface{}{
						"type":        "number",
						"description": "Weak edge threshold (>= 0). Defaults to the server setting",
						"minimum":     0,
					},
					"high": map[string]interface{}{
						"type":        "number",
						"description": "Strong edge threshold (>= low). Defaults to the server setting",
						"minimum":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Downscale factor applied before detection; the mask is scaled back. One of the values reported by edge_tuning. Default 1.0",
						"default":     1.0,
					},
					"overlay": map[string]interface{}{
						"type":        "string",
						"description": "Optional hex colour (e.g. #00FF00). Paints edges over the source image instead of returning the plain mask",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "edge_tuning",
			Description: "Report the detector tuning: weak and strong sentinels, direction bin boundaries, allowed downscale factors and default thresholds.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
