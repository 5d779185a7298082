package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFormatMetrics(t *testing.T) {
	IncrSubtitleRequests()
	IncrFormat("VTT")
	IncrFormat("vtt") // non-canonical tags are ignored

	out := FormatMetrics()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(metricKeys) {
		t.Fatalf("got %d lines, want %d", len(lines), len(metricKeys))
	}
	for i, k := range metricKeys {
		if !strings.HasPrefix(lines[i], k+" ") {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], k)
		}
	}

	m := GetMetrics()
	if m["subtitle_requests"] < 1 {
		t.Errorf("subtitle_requests = %d, want >= 1", m["subtitle_requests"])
	}
	if m["format_vtt"] != 1 {
		t.Errorf("format_vtt = %d, want 1", m["format_vtt"])
	}
}

func TestTrackOperationPassesError(t *testing.T) {
	want := errors.New("boom")
	got := TrackOperation(context.Background(), "test", func(context.Context) error { return want })
	if !errors.Is(got, want) {
		t.Errorf("TrackOperation() = %v, want %v", got, want)
	}
}
