package sources

import "github.com/anatolykoptev/go_ytsubs/internal/engine"

// YouTube implementation is split across four files by responsibility:
//   youtube_ref.go       : video reference → canonical 11-char ID
//   youtube_innertube.go : Innertube API types, constants, and low-level HTTP primitives
//   youtube_transcript.go: caption provider (watch page + player info, timedtext + engagement panel transcript)
//   youtube_timedtext.go : caption XML decoding

var _ engine.CaptionProvider = (*Innertube)(nil)
