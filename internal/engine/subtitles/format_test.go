package subtitles

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

var sample = []engine.TranscriptSegment{
	{Text: "Hello", OffsetMs: 0, DurationMs: 1500},
	{Text: "world", OffsetMs: 1500, DurationMs: 2250},
	{Text: "", OffsetMs: 3_723_004, DurationMs: 0},
	{Text: "bye", OffsetMs: 3_725_000, DurationMs: 61_001},
}

func TestTimecode(t *testing.T) {
	tests := []struct {
		ms   int64
		sep  byte
		want string
	}{
		{0, ',', "00:00:00,000"},
		{1500, ',', "00:00:01,500"},
		{1500, '.', "00:00:01.500"},
		{59_999, '.', "00:00:59.999"},
		{60_000, ',', "00:01:00,000"},
		{3_723_004, ',', "01:02:03,004"},
		{360_000_000, ',', "100:00:00,000"},
		{-5, ',', "00:00:00,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Timecode(tt.ms, tt.sep))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, tag := range []string{"srt", "SRT", "Srt", " srt "} {
		f, err := ParseFormat(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, SRT, f)
	}

	_, err := ParseFormat("ass")
	var ufe *engine.UnsupportedFormatError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, "ass", ufe.Format)
	assert.Contains(t, err.Error(), "SRT, VTT, TXT, JSON")

	_, err = ParseFormat("")
	assert.Error(t, err)
}

func TestConvertSRTScenario(t *testing.T) {
	out, err := Convert([]engine.TranscriptSegment{{Text: "Hello", OffsetMs: 0, DurationMs: 1500}}, "SRT")
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,500\nHello", out)
}

func TestConvertVTTScenario(t *testing.T) {
	out, err := Convert([]engine.TranscriptSegment{{Text: "Hello", OffsetMs: 0, DurationMs: 1500}}, "VTT")
	require.NoError(t, err)
	assert.Equal(t, "WEBVTT\n\n00:00:00.000 --> 00:00:01.500\nHello", out)
}

var srtTimeRe = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2,}):(\d{2}):(\d{2}),(\d{3})$`)

func parseCode(parts []string) int64 {
	n := make([]int64, 4)
	for i, p := range parts {
		n[i], _ = strconv.ParseInt(p, 10, 64)
	}
	return n[0]*3_600_000 + n[1]*60_000 + n[2]*1000 + n[3]
}

func TestSRTBlocks(t *testing.T) {
	timed := []engine.TranscriptSegment{sample[0], sample[1], sample[3]}
	out, err := Convert(timed, "srt")
	require.NoError(t, err)
	assert.False(t, strings.HasSuffix(out, "\n"), "output must be trimmed")

	blocks := strings.Split(out, "\n\n")
	require.Len(t, blocks, len(timed))
	for i, block := range blocks {
		lines := strings.Split(block, "\n")
		require.GreaterOrEqual(t, len(lines), 2, "block %d", i)
		assert.Equal(t, strconv.Itoa(i+1), lines[0])

		m := srtTimeRe.FindStringSubmatch(lines[1])
		require.NotNil(t, m, "bad time line %q", lines[1])
		start, end := parseCode(m[1:5]), parseCode(m[5:9])
		assert.Equal(t, timed[i].OffsetMs, start)
		assert.Equal(t, timed[i].DurationMs, end-start)
	}
}

func TestVTTHeaderAndNoIndexes(t *testing.T) {
	out, err := Convert(sample, "vtt")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "WEBVTT\n\n"))

	numeric := regexp.MustCompile(`^\d+$`)
	for _, line := range strings.Split(out, "\n") {
		assert.False(t, numeric.MatchString(line), "unexpected index line %q", line)
	}
	assert.Contains(t, out, "01:02:05.000 --> 01:03:06.001\nbye")
}

func TestTXT(t *testing.T) {
	out, err := Convert(sample, "TXT")
	require.NoError(t, err)
	assert.Equal(t, "Hello\nworld\n\nbye", out)
	assert.NotContains(t, out, "-->")
}

func TestJSONRoundTrip(t *testing.T) {
	out, err := Convert(sample, "Json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[\n  {\n    \"text\": \"Hello\""), out)

	var cues []struct {
		Text     string `json:"text"`
		Start    int64  `json:"start"`
		End      int64  `json:"end"`
		Duration int64  `json:"duration"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cues))
	require.Len(t, cues, len(sample))
	for i, c := range cues {
		assert.Equal(t, sample[i].Text, c.Text)
		assert.Equal(t, sample[i].OffsetMs, c.Start)
		assert.Equal(t, sample[i].DurationMs, c.Duration)
		assert.Equal(t, c.Start+c.Duration, c.End)
	}
}

func TestJSONKeepsMarkup(t *testing.T) {
	out, err := Convert([]engine.TranscriptSegment{{Text: "<i>a & b</i>", DurationMs: 10}}, "JSON")
	require.NoError(t, err)
	assert.Contains(t, out, `"text": "<i>a & b</i>"`)
}

func TestCaseInsensitiveAndIdempotent(t *testing.T) {
	for _, tag := range Formats() {
		upper, err := Convert(sample, tag)
		require.NoError(t, err)
		lower, err := Convert(sample, strings.ToLower(tag))
		require.NoError(t, err)
		again, err := Convert(sample, tag)
		require.NoError(t, err)
		assert.Equal(t, upper, lower, tag)
		assert.Equal(t, upper, again, tag)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(sample, Format("srt"))
	var ufe *engine.UnsupportedFormatError
	assert.True(t, errors.As(err, &ufe))
}
