package subserver

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
	"github.com/anatolykoptev/go_ytsubs/internal/engine/sources"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var errHistoryDisabled = errors.New("fetch history is disabled: set HISTORY_DB or DATABASE_URL")

func registerSubtitleHistory(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "subtitle_history",
		Description: "List recent fetch_youtube_subtitles calls, newest first: video ID, format, language, subtitle count, success and error. Optionally filter by video URL or ID.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.HistoryInput) (*mcp.CallToolResult, engine.HistoryOutput, error) {
		if deps.History == nil {
			return nil, engine.HistoryOutput{}, errHistoryDisabled
		}

		videoID := strings.TrimSpace(input.VideoID)
		if videoID != "" {
			if id, err := sources.ResolveVideoID(videoID); err == nil {
				videoID = id
			}
		}

		items, total, err := deps.History.Recent(ctx, videoID, input.Limit)
		if err != nil {
			return nil, engine.HistoryOutput{}, err
		}
		return nil, engine.HistoryOutput{Entries: items, Total: total}, nil
	})
}
