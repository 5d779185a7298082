// Package toolutil provides shared helpers for go_ytsubs MCP tools.
package toolutil

import "github.com/modelcontextprotocol/go-sdk/mcp"

// NormLang normalises a language field: empty string → "auto".
func NormLang(lang string) string {
	if lang == "" {
		return "auto"
	}
	return lang
}

// TextResult wraps text in a tool result.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// ErrorResult is a tool-level failure: the client sees the text with isError
// set and the session stays open.
func ErrorResult(text string) *mcp.CallToolResult {
	res := TextResult(text)
	res.IsError = true
	return res
}
