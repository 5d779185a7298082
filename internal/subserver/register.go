// Package subserver exposes the subtitle tools over MCP.
package subserver

import "github.com/modelcontextprotocol/go-sdk/mcp"

// RegisterTools registers fetch_youtube_subtitles and subtitle_history on the given MCP server.
func RegisterTools(server *mcp.Server, deps Deps) {
	registerFetchSubtitles(server, deps)
	registerSubtitleHistory(server, deps)
}
