package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

// YouTube caption provider.
// Info:       scrape watch page ytInitialPlayerResponse (works from any IP)
//             fallback ANDROID Innertube /player
// Transcript: caption track timedtext XML
//             fallback engagement panel /next → /get_transcript (works from datacenter IPs)

// ytInitialPlayerResponseMarker marks the start of the player response JSON in watch page HTML.
const ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "

// getTranscriptRE extracts the continuation token from watch page HTML or a raw /next response.
var getTranscriptRE = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

// Innertube implements engine.CaptionProvider against YouTube's web endpoints.
type Innertube struct {
	baseURL string
	client  *http.Client
	browser *engine.BrowserClient
	limiter *rate.Limiter
	hl, gl  string
	langs   []string
}

// NewInnertube builds a provider from engine.Cfg. Call after engine.Init.
func NewInnertube() *Innertube {
	c := engine.Cfg
	limit := rate.Inf
	if c.RateLimit > 0 {
		limit = rate.Limit(c.RateLimit)
	}
	burst := c.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return &Innertube{
		baseURL: strings.TrimSuffix(c.YouTubeBaseURL, "/"),
		client:  c.HTTPClient,
		browser: c.BrowserClient,
		limiter: rate.NewLimiter(limit, burst),
		hl:      c.YouTubeHL,
		gl:      c.YouTubeGL,
		langs:   c.PreferredLangs,
	}
}

// FetchInfo returns title, caption tracks and (when present) the transcript
// panel token for videoID.
func (y *Innertube) FetchInfo(ctx context.Context, videoID string) (*engine.VideoInfo, error) {
	engine.IncrYouTubeInfo()
	ctx, cancel := y.withTimeout(ctx)
	defer cancel()

	info, scrapeErr := y.infoFromWatchPage(ctx, videoID)
	if scrapeErr == nil {
		return info, nil
	}
	slog.Warn("youtube: page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("err", scrapeErr))

	engine.IncrYouTubePlayerFallback()
	info, playerErr := y.infoFromPlayer(ctx, videoID)
	if playerErr != nil {
		return nil, fmt.Errorf("video info %s: %w", videoID, errors.Join(scrapeErr, playerErr))
	}
	return info, nil
}

// FetchTranscript returns the caption segments of the best track for lang,
// falling back to the preferred languages from config.
func (y *Innertube) FetchTranscript(ctx context.Context, info *engine.VideoInfo, lang string) (*engine.RawTranscript, error) {
	if info == nil {
		return nil, errors.New("nil video info")
	}
	ctx, cancel := y.withTimeout(ctx)
	defer cancel()

	var errs []error
	if len(info.Tracks) > 0 {
		track, ok := pickBestTrack(info.Tracks, preferredLangs(lang, y.langs))
		if ok {
			tr, err := y.fetchTimedText(ctx, track)
			if err == nil {
				return tr, nil
			}
			errs = append(errs, err)
		} else {
			errs = append(errs, errors.New("all caption tracks require PoToken"))
		}
		slog.Warn("youtube: caption track failed, trying engagement panel",
			slog.String("id", info.VideoID), slog.Any("err", errors.Join(errs...)))
	}

	tr, err := y.fetchViaEngagementPanel(ctx, info)
	if err != nil {
		errs = append(errs, err)
		return nil, errors.Join(errs...)
	}
	return tr, nil
}

func (y *Innertube) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t := engine.Cfg.FetchTimeout; t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}

// infoFromWatchPage scrapes the watch page HTML for ytInitialPlayerResponse.
func (y *Innertube) infoFromWatchPage(ctx context.Context, videoID string) (*engine.VideoInfo, error) {
	engine.IncrYouTubePageScrape()
	watchURL := y.baseURL + "/watch?" + url.Values{"v": {videoID}, "hl": {y.hl}}.Encode()

	body, err := y.fetchWatchPage(ctx, watchURL)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := strings.Index(string(body), ytInitialPlayerResponseMarker)
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(jsonData, &playerResp); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	info, err := videoInfoFrom(videoID, playerResp)
	if err != nil {
		return nil, err
	}
	if token, err := extractTranscriptToken(body); err == nil {
		info.TranscriptParams = token
	}
	return info, nil
}

func (y *Innertube) fetchWatchPage(ctx context.Context, watchURL string) ([]byte, error) {
	if y.browser == nil {
		return y.do(ctx, http.MethodGet, watchURL, nil, map[string]string{
			"User-Agent":      engine.RandomUserAgent(),
			"Accept-Language": y.hl + ";q=0.9,en;q=0.8",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		}, maxWatchPageBytes)
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	headers := engine.ChromeHeaders()
	headers["accept-language"] = y.hl + ";q=0.9,en;q=0.8"
	data, _, status, err := y.browser.Do(http.MethodGet, watchURL, headers, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", status)
	}
	return data, nil
}

// infoFromPlayer uses the ANDROID Innertube /player endpoint.
// Works from non-blocked (residential/cloud) IP addresses.
func (y *Innertube) infoFromPlayer(ctx context.Context, videoID string) (*engine.VideoInfo, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                y.hl,
				Gl:                y.gl,
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	data, err := y.do(ctx, http.MethodPost, y.baseURL+ytPlayerPath+"?prettyPrint=false", reqBody, map[string]string{
		"Content-Type":             "application/json",
		"User-Agent":               ytAndroidUA,
		"X-Youtube-Client-Name":    "3",
		"X-Youtube-Client-Version": ytAndroidVersion,
	}, maxInnertubeBytes)
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(data, &playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return videoInfoFrom(videoID, playerResp)
}

// videoInfoFrom maps a player response to VideoInfo. A response with neither
// video details nor captions means the video is unavailable.
func videoInfoFrom(videoID string, resp innertubePlayerResp) (*engine.VideoInfo, error) {
	reason := ""
	if resp.PlayabilityStatus != nil {
		reason = resp.PlayabilityStatus.Reason
		if reason == "" && resp.PlayabilityStatus.Status != "OK" {
			reason = resp.PlayabilityStatus.Status
		}
	}
	if resp.VideoDetails == nil && resp.Captions == nil {
		if reason != "" {
			return nil, fmt.Errorf("video unavailable: %s", reason)
		}
		return nil, errors.New("video unavailable: empty player response")
	}

	info := &engine.VideoInfo{VideoID: videoID, PlayabilityNote: reason}
	if resp.VideoDetails != nil {
		info.Title = resp.VideoDetails.Title
	}
	if resp.Captions != nil {
		for _, t := range resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks {
			info.Tracks = append(info.Tracks, engine.CaptionTrack{
				BaseURL:      t.BaseURL,
				LanguageCode: t.LanguageCode,
				Name:         t.Name.String(),
				Kind:         t.Kind,
			})
		}
	}
	return info, nil
}

// fetchTimedText fetches and parses a caption track's timedtext XML.
func (y *Innertube) fetchTimedText(ctx context.Context, track engine.CaptionTrack) (*engine.RawTranscript, error) {
	engine.IncrYouTubeTimedText()
	trackURL := track.BaseURL
	if strings.HasPrefix(trackURL, "/") {
		trackURL = y.baseURL + trackURL
	}

	body, err := y.do(ctx, http.MethodGet, trackURL, nil, map[string]string{
		"User-Agent": engine.UserAgentBot,
	}, maxTimedTextBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}

	segs, err := parseTimedText(body)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty caption track %s", track.LanguageCode)
	}
	label := track.Name
	if label == "" {
		label = track.LanguageCode
	}
	return &engine.RawTranscript{Segments: segs, SelectedLanguage: label}, nil
}

// fetchViaEngagementPanel fetches a transcript via:
//  1. the panel token from the watch page, or POST /next when it was not seen
//  2. POST /get_transcript with the token → JSON segments
//
// This approach works from datacenter IPs where /player returns LOGIN_REQUIRED.
func (y *Innertube) fetchViaEngagementPanel(ctx context.Context, info *engine.VideoInfo) (*engine.RawTranscript, error) {
	engine.IncrYouTubeEngagementPanel()
	visitorData := generateVisitorData()

	token := info.TranscriptParams
	if token == "" {
		nextData, err := y.postInnerTubeWEB(ctx, ytNextPath, map[string]any{
			"videoId": info.VideoID,
			"context": y.webContext(visitorData),
		}, visitorData)
		if err != nil {
			return nil, fmt.Errorf("/next: %w", err)
		}
		token, err = extractTranscriptToken(nextData)
		if err != nil {
			return nil, fmt.Errorf("token: %w", err)
		}
	}

	transcriptData, err := y.postInnerTubeWEB(ctx, ytGetTranscriptPath, map[string]any{
		"params":  token,
		"context": y.webContext(visitorData),
	}, visitorData)
	if err != nil {
		return nil, fmt.Errorf("/get_transcript: %w", err)
	}

	var transcriptResp ytGetTranscriptResp
	if err := json.Unmarshal(transcriptData, &transcriptResp); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	tr := parseTranscriptPanel(transcriptResp)
	if len(tr.Segments) == 0 {
		return nil, errors.New("empty transcript segments")
	}
	return tr, nil
}

func extractTranscriptToken(data []byte) (string, error) {
	if m := getTranscriptRE.FindSubmatch(data); len(m) >= 2 {
		// The params value in the /next JSON response is URL-encoded.
		// /get_transcript expects the decoded (raw base64) form.
		decoded, err := url.QueryUnescape(string(m[1]))
		if err != nil {
			return string(m[1]), nil
		}
		return decoded, nil
	}
	return "", errors.New("getTranscriptEndpoint not found in engagement panels")
}

// parseTranscriptPanel extracts timed segments and the selected language label
// from a /get_transcript response. Section headers carry no segment renderer
// and are skipped.
func parseTranscriptPanel(resp ytGetTranscriptResp) *engine.RawTranscript {
	tr := &engine.RawTranscript{}
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		panel := action.UpdateEngagementPanelAction.Content.TranscriptRenderer.Content.TranscriptSearchPanelRenderer
		for _, seg := range panel.Body.TranscriptSegmentListRenderer.InitialSegments {
			r := seg.TranscriptSegmentRenderer
			if r == nil {
				continue
			}
			var raw engine.RawSegment
			if r.Snippet != nil {
				text := strings.TrimSpace(r.Snippet.String())
				raw.Text = &text
			}
			raw.StartMs = parseMsPtr(r.StartMs)
			raw.EndMs = parseMsPtr(r.EndMs)
			tr.Segments = append(tr.Segments, raw)
		}
		for _, item := range panel.Footer.TranscriptFooterRenderer.LanguageMenu.SortFilterSubMenuRenderer.SubMenuItems {
			if item.Selected && item.Title != "" {
				tr.SelectedLanguage = item.Title
			}
		}
	}
	return tr
}

func parseMsPtr(s *string) *int64 {
	if s == nil {
		return nil
	}
	ms, err := strconv.ParseInt(*s, 10, 64)
	if err != nil {
		return nil
	}
	return &ms
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// preferredLangs puts the caller's hint ahead of the configured defaults.
func preferredLangs(hint string, defaults []string) []string {
	langs := make([]string, 0, len(defaults)+1)
	if hint = strings.TrimSpace(hint); hint != "" {
		langs = append(langs, hint)
	}
	for _, l := range defaults {
		if l != "" && !strings.EqualFold(l, hint) {
			langs = append(langs, l)
		}
	}
	return langs
}

// langMatches reports whether a track language satisfies a requested one.
// "zh" matches "zh-Hans"; comparison ignores case.
func langMatches(code, want string) bool {
	code, want = strings.ToLower(code), strings.ToLower(want)
	return code == want || strings.HasPrefix(code, want+"-")
}

// pickBestTrack selects the best usable caption track for the given language preferences.
// Skips tracks that require PoToken; those only work in a browser.
func pickBestTrack(tracks []engine.CaptionTrack, langs []string) (engine.CaptionTrack, bool) {
	usable := make([]engine.CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return engine.CaptionTrack{}, false
	}
	// 1. Manual track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if langMatches(t.LanguageCode, lang) && t.Kind != "asr" {
				return t, true
			}
		}
	}
	// 2. Auto-generated track in preferred language
	for _, lang := range langs {
		for _, t := range usable {
			if langMatches(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	// 3. Any English track
	for _, t := range usable {
		if langMatches(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}
