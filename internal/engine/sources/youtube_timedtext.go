package sources

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

// Timedtext XML comes in two shapes:
//   srv1 (default): <transcript><text start="1.2" dur="3.4">…</text></transcript>  (seconds)
//   srv3 (fmt=srv3): <timedtext format="3"><body><p t="1200" d="3400">…</p></body></timedtext>  (ms)

type ytTimedText struct {
	Lines []ytLine `xml:"text"`
	Body  struct {
		Paras []ytPara `xml:"p"`
	} `xml:"body"`
}

type ytLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

type ytPara struct {
	T     string `xml:"t,attr"`
	D     string `xml:"d,attr"`
	Text  string `xml:",chardata"`
	Spans []struct {
		Text string `xml:",chardata"`
	} `xml:"s"`
}

// parseTimedText decodes caption XML into raw segments. Absent or malformed
// timing attributes stay nil so the adapter applies its defaults.
func parseTimedText(body []byte) ([]engine.RawSegment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	if len(tt.Lines) > 0 {
		segs := make([]engine.RawSegment, 0, len(tt.Lines))
		for _, line := range tt.Lines {
			text := cleanCaption(line.Text)
			start := secondsToMs(line.Start)
			segs = append(segs, engine.RawSegment{
				Text:    &text,
				StartMs: start,
				EndMs:   addMs(start, secondsToMs(line.Dur)),
			})
		}
		return segs, nil
	}

	segs := make([]engine.RawSegment, 0, len(tt.Body.Paras))
	for _, p := range tt.Body.Paras {
		var sb strings.Builder
		sb.WriteString(p.Text)
		for _, s := range p.Spans {
			sb.WriteString(s.Text)
		}
		text := cleanCaption(sb.String())
		if text == "" {
			continue // srv3 emits empty <p> elements as line-break markers
		}
		start := parseMs(p.T)
		segs = append(segs, engine.RawSegment{
			Text:    &text,
			StartMs: start,
			EndMs:   addMs(start, parseMs(p.D)),
		})
	}
	return segs, nil
}

// cleanCaption decodes the second layer of HTML entities YouTube applies to
// caption text and strips inline markup such as <font>.
func cleanCaption(s string) string {
	return engine.CleanHTML(html.UnescapeString(s))
}

func secondsToMs(s string) *int64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	ms := int64(math.Round(f * 1000))
	return &ms
}

func parseMs(s string) *int64 {
	if s == "" {
		return nil
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &ms
}

func addMs(start, dur *int64) *int64 {
	if start == nil || dur == nil {
		return nil
	}
	end := *start + *dur
	return &end
}
