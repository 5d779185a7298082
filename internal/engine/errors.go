package engine

import (
	"fmt"
	"strings"
)

// InvalidReferenceError is returned when a video reference matches none of the
// recognized URL shapes and is not a bare video ID.
type InvalidReferenceError struct {
	Reference string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid YouTube reference %q: expected a watch, youtu.be or embed URL, or an 11-character video ID", e.Reference)
}

// UnsupportedFormatError is returned for a subtitle format tag outside SRT, VTT, TXT, JSON.
type UnsupportedFormatError struct {
	Format    string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s. Supported formats: %s", e.Format, strings.Join(e.Supported, ", "))
}

// NoSubtitlesError reports that a video has no usable transcript: captions are
// missing, the video is private or restricted, or the requested language is absent.
type NoSubtitlesError struct {
	VideoID string
	Reason  string
	Err     error
}

func (e *NoSubtitlesError) Error() string {
	msg := "no subtitle data found"
	if e.Reason != "" {
		msg = e.Reason
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *NoSubtitlesError) Unwrap() error { return e.Err }
