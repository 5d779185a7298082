// Package subtitles serializes transcript segments into SRT, WebVTT, plain text
// and JSON. All functions are pure and safe for concurrent use.
package subtitles

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

// Format is a canonical subtitle format tag.
type Format string

const (
	SRT  Format = "SRT"
	VTT  Format = "VTT"
	TXT  Format = "TXT"
	JSON Format = "JSON"
)

// DefaultFormat is used when the caller leaves the format empty.
const DefaultFormat = JSON

var converters = map[Format]func([]engine.TranscriptSegment) (string, error){
	SRT:  toSRT,
	VTT:  toVTT,
	TXT:  toTXT,
	JSON: toJSON,
}

// Formats returns the supported tags in display order.
func Formats() []string {
	return []string{string(SRT), string(VTT), string(TXT), string(JSON)}
}

// ParseFormat maps a tag to its canonical Format, ignoring case and
// surrounding whitespace.
func ParseFormat(tag string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(tag)))
	if _, ok := converters[f]; !ok {
		return "", &engine.UnsupportedFormatError{Format: tag, Supported: Formats()}
	}
	return f, nil
}

// Render converts segments with the given canonical format.
func Render(segments []engine.TranscriptSegment, f Format) (string, error) {
	conv, ok := converters[f]
	if !ok {
		return "", &engine.UnsupportedFormatError{Format: string(f), Supported: Formats()}
	}
	return conv(segments)
}

// Convert converts segments to the format named by tag (case-insensitive).
func Convert(segments []engine.TranscriptSegment, tag string) (string, error) {
	f, err := ParseFormat(tag)
	if err != nil {
		return "", err
	}
	return Render(segments, f)
}

// Timecode renders ms as HH:MM:SS<sep>mmm. Hours are never truncated, so a
// 100-hour offset renders as "100:00:00,000". Negative input clamps to zero.
func Timecode(ms int64, sep byte) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, seconds, sep, millis)
}

func toSRT(segments []engine.TranscriptSegment) (string, error) {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", Timecode(seg.OffsetMs, ','), Timecode(seg.EndMs(), ','))
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func toVTT(segments []engine.TranscriptSegment) (string, error) {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n", Timecode(seg.OffsetMs, '.'), Timecode(seg.EndMs(), '.'))
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func toTXT(segments []engine.TranscriptSegment) (string, error) {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = seg.Text
	}
	return strings.Join(lines, "\n"), nil
}

// jsonCue is the wire shape of one JSON-format entry.
type jsonCue struct {
	Text     string `json:"text"`
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Duration int64  `json:"duration"`
}

func toJSON(segments []engine.TranscriptSegment) (string, error) {
	cues := make([]jsonCue, len(segments))
	for i, seg := range segments {
		cues[i] = jsonCue{
			Text:     seg.Text,
			Start:    seg.OffsetMs,
			End:      seg.EndMs(),
			Duration: seg.DurationMs,
		}
	}
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cues); err != nil {
		return "", fmt.Errorf("encode json cues: %w", err)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
