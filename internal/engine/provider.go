package engine

import "context"

// CaptionProvider retrieves video metadata and caption segments from the
// video platform. Implementations must be safe for concurrent use.
type CaptionProvider interface {
	FetchInfo(ctx context.Context, videoID string) (*VideoInfo, error)
	FetchTranscript(ctx context.Context, info *VideoInfo, lang string) (*RawTranscript, error)
}
