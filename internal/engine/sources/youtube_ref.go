package sources

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

// videoIDShapeRE matches a bare YouTube video ID: 11 chars of [A-Za-z0-9_-].
var videoIDShapeRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// pathIDPrefixes are path prefixes whose next segment is the video ID.
// "/embed/" is the player form; the rest are newer share forms.
var pathIDPrefixes = []string{"/embed/", "/shorts/", "/live/", "/v/"}

// IsVideoID reports whether s has the shape of a YouTube video ID.
func IsVideoID(s string) bool {
	return videoIDShapeRE.MatchString(s)
}

// ResolveVideoID normalizes a video reference into its canonical 11-char ID.
// Shapes are tried in order, first match wins:
//  1. watch URL : youtube.com/watch?v=ID
//  2. short link: youtu.be/ID
//  3. embed URL : youtube.com/embed/ID (also /shorts/, /live/, /v/)
//  4. bare ID   : ID
//
// Existence of the video is not checked.
func ResolveVideoID(reference string) (string, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", &engine.InvalidReferenceError{Reference: reference}
	}

	if u := parseVideoURL(ref); u != nil {
		if id, ok := idFromURL(u); ok {
			return id, nil
		}
		// A parsed URL on a YouTube host that yields no ID is malformed.
		if isYouTubeHost(u.Hostname()) {
			return "", &engine.InvalidReferenceError{Reference: reference}
		}
	}

	if IsVideoID(ref) {
		return ref, nil
	}
	return "", &engine.InvalidReferenceError{Reference: reference}
}

// parseVideoURL parses ref as a URL, accepting scheme-less YouTube links
// such as "youtu.be/ID". Returns nil when ref is not URL-like.
func parseVideoURL(ref string) *url.URL {
	if !strings.Contains(ref, "/") && !strings.Contains(ref, "?") {
		return nil
	}
	raw := ref
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

func idFromURL(u *url.URL) (string, bool) {
	host := strings.ToLower(u.Hostname())

	// 1. watch page
	if strings.Contains(host, "youtube.com") && strings.TrimSuffix(u.Path, "/") == "/watch" {
		id := u.Query().Get("v")
		return id, IsVideoID(id)
	}

	// 2. short link
	if host == "youtu.be" || host == "www.youtu.be" {
		id, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		return id, IsVideoID(id)
	}

	// 3. embed player and path-style share links
	if isYouTubeHost(host) {
		for _, prefix := range pathIDPrefixes {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				id, _, _ := strings.Cut(rest, "/")
				return id, IsVideoID(id)
			}
		}
	}
	return "", false
}

func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	return host == "youtu.be" || host == "www.youtu.be" ||
		host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") ||
		host == "youtube-nocookie.com" || strings.HasSuffix(host, ".youtube-nocookie.com")
}
