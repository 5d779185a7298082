package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	SubtitleRequests       atomic.Int64
	SubtitleErrors         atomic.Int64
	FormatSRT              atomic.Int64
	FormatVTT              atomic.Int64
	FormatTXT              atomic.Int64
	FormatJSON             atomic.Int64
	YouTubeInfoRequests    atomic.Int64
	YouTubePageScrapes     atomic.Int64
	YouTubePlayerFallbacks atomic.Int64
	YouTubeTimedText       atomic.Int64
	YouTubeEngagementPanel atomic.Int64
	HistoryWrites          atomic.Int64
	HistoryErrors          atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"subtitle_requests", "subtitle_errors",
	"format_srt", "format_vtt", "format_txt", "format_json",
	"youtube_info_requests", "youtube_page_scrapes", "youtube_player_fallbacks",
	"youtube_timedtext_fetches", "youtube_engagement_panel_fetches",
	"history_writes", "history_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"subtitle_requests":                metrics.SubtitleRequests.Load(),
		"subtitle_errors":                  metrics.SubtitleErrors.Load(),
		"format_srt":                       metrics.FormatSRT.Load(),
		"format_vtt":                       metrics.FormatVTT.Load(),
		"format_txt":                       metrics.FormatTXT.Load(),
		"format_json":                      metrics.FormatJSON.Load(),
		"youtube_info_requests":            metrics.YouTubeInfoRequests.Load(),
		"youtube_page_scrapes":             metrics.YouTubePageScrapes.Load(),
		"youtube_player_fallbacks":         metrics.YouTubePlayerFallbacks.Load(),
		"youtube_timedtext_fetches":        metrics.YouTubeTimedText.Load(),
		"youtube_engagement_panel_fetches": metrics.YouTubeEngagementPanel.Load(),
		"history_writes":                   metrics.HistoryWrites.Load(),
		"history_errors":                   metrics.HistoryErrors.Load(),
		"cache_hits":                       hits,
		"cache_misses":                     misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for the tool layer.
func IncrSubtitleRequests() { metrics.SubtitleRequests.Add(1) }
func IncrSubtitleErrors()   { metrics.SubtitleErrors.Add(1) }
func IncrHistoryWrites()    { metrics.HistoryWrites.Add(1) }
func IncrHistoryErrors()    { metrics.HistoryErrors.Add(1) }

// IncrFormat counts a successful conversion by canonical format tag.
func IncrFormat(tag string) {
	switch tag {
	case "SRT":
		metrics.FormatSRT.Add(1)
	case "VTT":
		metrics.FormatVTT.Add(1)
	case "TXT":
		metrics.FormatTXT.Add(1)
	case "JSON":
		metrics.FormatJSON.Add(1)
	}
}

// Incrementors for sources/ sub-package.
func IncrYouTubeInfo()            { metrics.YouTubeInfoRequests.Add(1) }
func IncrYouTubePageScrape()      { metrics.YouTubePageScrapes.Add(1) }
func IncrYouTubePlayerFallback()  { metrics.YouTubePlayerFallbacks.Add(1) }
func IncrYouTubeTimedText()       { metrics.YouTubeTimedText.Add(1) }
func IncrYouTubeEngagementPanel() { metrics.YouTubeEngagementPanel.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
