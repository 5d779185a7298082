package subserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
	"github.com/anatolykoptev/go_ytsubs/internal/engine/history"
)

// connect starts a server with the subtitle tools and returns a connected client session.
func connect(t *testing.T, deps Deps) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "go_ytsubs", Version: "test"}, nil)
	RegisterTools(server, deps)

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content[0] is %T", res.Content[0])
	return tc.Text
}

func TestToolListing(t *testing.T) {
	cs := connect(t, Deps{Provider: &fakeProvider{}})
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := map[string]*mcp.Tool{}
	for _, tool := range res.Tools {
		names[tool.Name] = tool
	}
	require.Contains(t, names, "fetch_youtube_subtitles")
	require.Contains(t, names, "subtitle_history")
	assert.Equal(t, "Fetch YouTube Subtitles", names["fetch_youtube_subtitles"].Title)
	assert.True(t, names["fetch_youtube_subtitles"].Annotations.ReadOnlyHint)
}

func TestToolFetchSubtitlesSuccess(t *testing.T) {
	p := &fakeProvider{
		info:       &engine.VideoInfo{VideoID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up"},
		transcript: sampleTranscript(),
	}
	cs := connect(t, Deps{Provider: p})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "fetch_youtube_subtitles",
		Arguments: map[string]any{
			"reference": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"format":    "TXT",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := textOf(t, res)
	assert.True(t, strings.HasPrefix(text, "# YouTube Subtitle Extraction Result"))
	assert.Contains(t, text, "**Video ID**: dQw4w9WgXcQ")
	assert.Contains(t, text, "**Video Title**: Never Gonna Give You Up")
	assert.Contains(t, text, "**Format**: TXT")
	assert.Contains(t, text, "**Language**: English")
	assert.Contains(t, text, "**Subtitle Count**: 2")
	assert.True(t, strings.HasSuffix(text, "---\n\nHello\nWorld"))

	sc, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content is %T", res.StructuredContent)
	assert.Equal(t, true, sc["success"])
	assert.Equal(t, "dQw4w9WgXcQ", sc["videoId"])
	assert.Equal(t, float64(2), sc["subtitleCount"])
}

func TestToolFetchSubtitlesFailureKeepsSession(t *testing.T) {
	cs := connect(t, Deps{Provider: &fakeProvider{transcript: sampleTranscript()}})
	ctx := context.Background()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "fetch_youtube_subtitles",
		Arguments: map[string]any{"reference": "dQw4w9WgXcQ", "format": "docx"},
	})
	require.NoError(t, err, "failures are tool results, not protocol errors")
	require.True(t, res.IsError)
	text := textOf(t, res)
	assert.Contains(t, text, "Failed to fetch subtitles: unsupported format: docx")
	assert.Contains(t, text, "**Possible reasons**")
	assert.Contains(t, text, "**Tips**")

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "fetch_youtube_subtitles",
		Arguments: map[string]any{"reference": "dQw4w9WgXcQ"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textOf(t, res), "**Video Title**: N/A")
}

func TestToolSubtitleHistory(t *testing.T) {
	store, err := history.OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	cs := connect(t, Deps{Provider: &fakeProvider{transcript: sampleTranscript()}, History: store})
	ctx := context.Background()

	for _, ref := range []string{"dQw4w9WgXcQ", "abc12345678", "https://youtu.be/dQw4w9WgXcQ"} {
		_, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      "fetch_youtube_subtitles",
			Arguments: map[string]any{"reference": ref},
		})
		require.NoError(t, err)
	}

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "subtitle_history",
		Arguments: map[string]any{"video_id": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	sc, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), sc["total"])
	entries, ok := sc["entries"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestToolSubtitleHistoryDisabled(t *testing.T) {
	cs := connect(t, Deps{Provider: &fakeProvider{}})
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "subtitle_history",
		Arguments: map[string]any{},
	})
	if err == nil {
		require.True(t, res.IsError)
		assert.Contains(t, textOf(t, res), "history is disabled")
	}
}
