package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	YouTubeBaseURL       string   // Innertube + watch page host; overridden in tests
	YouTubeHL            string   // Innertube interface language
	YouTubeGL            string   // Innertube region
	PreferredLangs       []string // caption language order used after the caller's hint
	RateLimit            float64  // outbound YouTube requests per second (0 = unlimited)
	RateBurst            int
	FetchTimeout         time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	BrowserClient        *BrowserClient // nil = watch page scraped with HTTPClient
}

// DefaultYouTubeBaseURL is the production origin for watch pages and Innertube.
const DefaultYouTubeBaseURL = "https://www.youtube.com"

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, subtitles).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.YouTubeBaseURL == "" {
		c.YouTubeBaseURL = DefaultYouTubeBaseURL
	}
	if c.YouTubeHL == "" {
		c.YouTubeHL = "en"
	}
	if c.YouTubeGL == "" {
		c.YouTubeGL = "US"
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	cfg = c
	Cfg = &cfg
}
