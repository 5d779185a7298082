package subserver

import (
	"context"
	"sync"

	"github.com/anatolykoptev/go_ytsubs/internal/engine"
)

// fakeProvider is an in-memory CaptionProvider.
type fakeProvider struct {
	info          *engine.VideoInfo
	infoErr       error
	transcript    *engine.RawTranscript
	transcriptErr error

	mu        sync.Mutex
	infoCalls int
	langs     []string
}

func (f *fakeProvider) FetchInfo(_ context.Context, videoID string) (*engine.VideoInfo, error) {
	f.mu.Lock()
	f.infoCalls++
	f.mu.Unlock()
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if f.info != nil {
		return f.info, nil
	}
	return &engine.VideoInfo{VideoID: videoID}, nil
}

func (f *fakeProvider) FetchTranscript(_ context.Context, _ *engine.VideoInfo, lang string) (*engine.RawTranscript, error) {
	f.mu.Lock()
	f.langs = append(f.langs, lang)
	f.mu.Unlock()
	return f.transcript, f.transcriptErr
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.infoCalls
}

func strPtr(s string) *string { return &s }
func msPtr(ms int64) *int64   { return &ms }

func seg(text string, start, end int64) engine.RawSegment {
	return engine.RawSegment{Text: strPtr(text), StartMs: msPtr(start), EndMs: msPtr(end)}
}

func sampleTranscript() *engine.RawTranscript {
	return &engine.RawTranscript{
		Segments: []engine.RawSegment{
			seg("Hello", 0, 1500),
			seg("World", 1500, 3000),
		},
		SelectedLanguage: "English",
	}
}
