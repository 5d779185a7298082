package subserver

import (
	"log/slog"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

// toSegments converts provider segments into formatter input. Absent text
// becomes "", absent offsets become 0, and duration is end minus start.
// A segment that ends before it starts gets duration 0.
func toSegments(raw []engine.RawSegment) []engine.TranscriptSegment {
	segs := make([]engine.TranscriptSegment, 0, len(raw))
	for i, r := range raw {
		var (
			text       string
			start, end int64
		)
		if r.Text != nil {
			text = *r.Text
		}
		if r.StartMs != nil && *r.StartMs > 0 {
			start = *r.StartMs
		}
		if r.EndMs != nil {
			end = *r.EndMs
		}

		dur := end - start
		if dur < 0 {
			slog.Debug("caption segment ends before it starts",
				slog.Int("index", i), slog.Int64("start_ms", start), slog.Int64("end_ms", end))
			dur = 0
		}
		segs = append(segs, engine.TranscriptSegment{Text: text, OffsetMs: start, DurationMs: dur})
	}
	return segs
}
