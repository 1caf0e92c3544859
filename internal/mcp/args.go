package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// args is a decoded tool argument object. Missing or mistyped keys read as
// the caller's default.
type args map[string]any

func parseArgs(raw json.RawMessage) args {
	if len(raw) == 0 {
		return args{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return args{}
	}
	return m
}

func (a args) getString(key, def string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return def
}

// getInt truncates: JSON numbers decode as float64.
func (a args) getInt(key string, def int) int {
	if f, ok := a[key].(float64); ok {
		return int(f)
	}
	return def
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return textResult(string(data)), nil
}

func errorResult(format string, a ...any) *mcp.CallToolResult {
	var r mcp.CallToolResult
	r.SetError(fmt.Errorf(format, a...))
	return &r
}
