package subserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
	"github.com/anatolykoptev/go_ytsubs/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxSummaryTitleRunes = 200

const failureHints = `**Possible reasons**:
- Video has no available subtitles
- Video is private or restricted
- Specified language code does not exist
- Network connection issue

**Tips**:
- Try without specifying language code (auto-detect)
- Verify the video URL is correct
- Check if the video has public subtitles`

func registerFetchSubtitles(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_youtube_subtitles",
		Title:       "Fetch YouTube Subtitles",
		Description: "Fetch subtitles of a YouTube video by URL or video ID and return them as SRT, VTT, plain text, or JSON with timestamps. Optionally request a caption language; otherwise the best available track is used.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engine.SubtitleInput) (*mcp.CallToolResult, engine.SubtitleOutput, error) {
		out, err := FetchSubtitles(ctx, deps, input)
		if err != nil {
			slog.Warn("fetch_youtube_subtitles failed",
				slog.String("reference", input.Reference), slog.Any("error", err))
			return toolutil.ErrorResult(failureText(err)), engine.SubtitleOutput{}, nil
		}
		return toolutil.TextResult(summary(out)), out, nil
	})
}

// summary renders the human-readable result block.
func summary(out engine.SubtitleOutput) string {
	title := out.Title
	if title == "" {
		title = "N/A"
	}
	return fmt.Sprintf(`# YouTube Subtitle Extraction Result

**Video ID**: %s
**Video Title**: %s
**Format**: %s
**Language**: %s
**Subtitle Count**: %d

---

%s`,
		out.VideoID,
		engine.TruncateRunes(title, maxSummaryTitleRunes, "..."),
		out.Format,
		out.Language,
		out.SubtitleCount,
		out.Content,
	)
}

func failureText(err error) string {
	return "Failed to fetch subtitles: " + err.Error() + "\n\n" + failureHints
}
