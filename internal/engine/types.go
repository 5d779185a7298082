package engine

// --- Core subtitle types ---

// TranscriptSegment is one caption unit after the provider adapter has applied
// defaults. OffsetMs is never negative and DurationMs is never negative.
type TranscriptSegment struct {
	Text       string
	OffsetMs   int64
	DurationMs int64
}

// EndMs returns the segment end time in milliseconds.
func (s TranscriptSegment) EndMs() int64 { return s.OffsetMs + s.DurationMs }

// --- Provider types ---

// CaptionTrack describes one caption track advertised by the player response.
type CaptionTrack struct {
	BaseURL      string `json:"base_url"`
	LanguageCode string `json:"language_code"`
	Name         string `json:"name,omitempty"` // e.g. "English (auto-generated)"
	Kind         string `json:"kind,omitempty"` // "asr" = auto-generated
}

// VideoInfo is the metadata returned by a CaptionProvider for one video.
type VideoInfo struct {
	VideoID          string         `json:"video_id"`
	Title            string         `json:"title"`
	Tracks           []CaptionTrack `json:"tracks,omitempty"`
	TranscriptParams string         `json:"transcript_params,omitempty"` // engagement panel token, if seen
	PlayabilityNote  string         `json:"playability_note,omitempty"`
}

// Languages returns the language codes of all advertised caption tracks.
func (v *VideoInfo) Languages() []string {
	if v == nil {
		return nil
	}
	langs := make([]string, 0, len(v.Tracks))
	for _, t := range v.Tracks {
		langs = append(langs, t.LanguageCode)
	}
	return langs
}

// RawSegment is a caption unit as the provider decoded it. Any field may be
// absent upstream; absence is nil, not zero.
type RawSegment struct {
	Text    *string `json:"text,omitempty"`
	StartMs *int64  `json:"start_ms,omitempty"`
	EndMs   *int64  `json:"end_ms,omitempty"`
}

// RawTranscript is the provider's transcript for one video.
type RawTranscript struct {
	Segments         []RawSegment `json:"segments"`
	SelectedLanguage string       `json:"selected_language,omitempty"` // human label, e.g. "English"
}

// --- Tool I/O types ---

// SubtitleInput is the input for the fetch_youtube_subtitles tool.
type SubtitleInput struct {
	Reference string `json:"reference" jsonschema:"YouTube video URL or video ID. Supported formats: https://www.youtube.com/watch?v=xxx, https://youtu.be/xxx, https://www.youtube.com/embed/xxx, or direct video ID"`
	Format    string `json:"format,omitempty" jsonschema:"Output format: SRT (subtitle file with sequence numbers), VTT (WebVTT), TXT (plain text only), JSON (structured with timestamps). Default: JSON"`
	Language  string `json:"language,omitempty" jsonschema:"Subtitle language code (optional), e.g. zh-Hans, zh-Hant, en. Auto-detected if not specified"`
}

// SubtitleOutput is the structured output for fetch_youtube_subtitles.
type SubtitleOutput struct {
	Success       bool   `json:"success"`
	VideoID       string `json:"videoId"`
	Title         string `json:"title,omitempty"`
	Format        string `json:"format"`
	Language      string `json:"language"`
	SubtitleCount int    `json:"subtitleCount"`
	Content       string `json:"content"`
}

// HistoryInput is the input for the subtitle_history tool.
type HistoryInput struct {
	VideoID string `json:"video_id,omitempty" jsonschema:"Only list fetches of this video ID or URL"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Max entries (default: 20, max: 100)"`
}

// HistoryItem is one recorded subtitle fetch.
type HistoryItem struct {
	ID            int64  `json:"id"`
	VideoID       string `json:"video_id"`
	Format        string `json:"format"`
	Language      string `json:"language"`
	SubtitleCount int    `json:"subtitle_count"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// HistoryOutput is the structured output for subtitle_history.
type HistoryOutput struct {
	Entries []HistoryItem `json:"entries"`
	Total   int           `json:"total"`
}
