package subserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
	"github.com/anatolykoptev/go_ytsubs/internal/engine/history"
	"github.com/anatolykoptev/go_ytsubs/internal/engine/sources"
	"github.com/anatolykoptev/go_ytsubs/internal/engine/subtitles"
	"github.com/anatolykoptev/go_ytsubs/internal/toolutil"
)

const historyWriteTimeout = 5 * time.Second

// Deps carries the collaborators of the subtitle tools.
type Deps struct {
	Provider engine.CaptionProvider
	History  history.Store // nil disables fetch history
}

// cachedTranscript is what the transcript cache stores per (video, language hint).
type cachedTranscript struct {
	Title      string               `json:"title"`
	Transcript engine.RawTranscript `json:"transcript"`
}

// FetchSubtitles resolves the reference, fetches the transcript and renders it
// in the requested format. Every outcome is recorded in the fetch history.
func FetchSubtitles(ctx context.Context, deps Deps, input engine.SubtitleInput) (engine.SubtitleOutput, error) {
	engine.IncrSubtitleRequests()

	out, err := fetchSubtitles(ctx, deps, input)

	item := engine.HistoryItem{
		VideoID:  strings.TrimSpace(input.Reference),
		Format:   formatTag(input.Format),
		Language: strings.TrimSpace(input.Language),
	}
	if err != nil {
		engine.IncrSubtitleErrors()
		item.Error = err.Error()
	} else {
		item.VideoID = out.VideoID
		item.Language = out.Language
		item.SubtitleCount = out.SubtitleCount
		item.Success = true
	}
	deps.record(ctx, item)

	if err != nil {
		return engine.SubtitleOutput{}, err
	}
	return out, nil
}

func fetchSubtitles(ctx context.Context, deps Deps, input engine.SubtitleInput) (engine.SubtitleOutput, error) {
	tag := formatTag(input.Format)
	format, err := subtitles.ParseFormat(tag)
	if err != nil {
		return engine.SubtitleOutput{}, err
	}

	videoID, err := sources.ResolveVideoID(input.Reference)
	if err != nil {
		return engine.SubtitleOutput{}, err
	}

	lang := strings.TrimSpace(input.Language)

	var ct cachedTranscript
	err = engine.TrackOperation(ctx, "fetch_transcript", func(ctx context.Context) error {
		var loadErr error
		ct, loadErr = loadTranscript(ctx, deps.Provider, videoID, lang)
		return loadErr
	})
	if err != nil {
		return engine.SubtitleOutput{}, err
	}

	segments := toSegments(ct.Transcript.Segments)
	content, err := subtitles.Render(segments, format)
	if err != nil {
		return engine.SubtitleOutput{}, fmt.Errorf("render %s: %w", format, err)
	}
	engine.IncrFormat(string(format))

	return engine.SubtitleOutput{
		Success:       true,
		VideoID:       videoID,
		Title:         ct.Title,
		Format:        tag,
		Language:      reportedLanguage(ct.Transcript.SelectedLanguage, lang),
		SubtitleCount: len(segments),
		Content:       content,
	}, nil
}

// loadTranscript returns the video title and raw transcript, from cache when possible.
func loadTranscript(ctx context.Context, provider engine.CaptionProvider, videoID, lang string) (cachedTranscript, error) {
	cacheKey := engine.CacheKey("transcript", videoID, lang)
	if ct, ok := engine.CacheLoadJSON[cachedTranscript](ctx, cacheKey); ok {
		slog.Debug("transcript cache hit", slog.String("id", videoID), slog.String("lang", lang))
		return ct, nil
	}

	info, err := provider.FetchInfo(ctx, videoID)
	if err != nil {
		return cachedTranscript{}, err
	}

	tr, err := provider.FetchTranscript(ctx, info, lang)
	if err != nil {
		return cachedTranscript{}, &engine.NoSubtitlesError{
			VideoID: videoID,
			Reason:  missingReason(info, lang),
			Err:     err,
		}
	}
	if tr == nil {
		return cachedTranscript{}, &engine.NoSubtitlesError{VideoID: videoID}
	}
	if len(tr.Segments) == 0 {
		return cachedTranscript{}, &engine.NoSubtitlesError{VideoID: videoID, Reason: "no subtitle segments found"}
	}

	ct := cachedTranscript{Title: info.Title, Transcript: *tr}
	engine.CacheStoreJSON(ctx, cacheKey, ct)
	return ct, nil
}

// missingReason names the advertised caption languages when a hinted language
// is not among them.
func missingReason(info *engine.VideoInfo, lang string) string {
	langs := info.Languages()
	if lang == "" || len(langs) == 0 {
		return ""
	}
	for _, l := range langs {
		if strings.EqualFold(l, lang) {
			return ""
		}
	}
	return fmt.Sprintf("no subtitle data found for language %q (available: %s)", lang, strings.Join(langs, ", "))
}

// formatTag returns the caller's format tag, or the default when none was given.
func formatTag(format string) string {
	if tag := strings.TrimSpace(format); tag != "" {
		return tag
	}
	return string(subtitles.DefaultFormat)
}

// reportedLanguage prefers the provider's label, then the caller's hint.
func reportedLanguage(selected, hint string) string {
	if s := strings.TrimSpace(selected); s != "" {
		return s
	}
	return toolutil.NormLang(hint)
}

func (d Deps) record(ctx context.Context, item engine.HistoryItem) {
	if d.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := d.History.Record(ctx, item); err != nil {
		engine.IncrHistoryErrors()
		slog.Warn("history record failed", slog.String("id", item.VideoID), slog.Any("error", err))
		return
	}
	engine.IncrHistoryWrites()
}
