package services

import (
	"context"
	"errors"
	"testing"

	youtube "google.golang.org/api/youtube/v3"

	"learnhub-platform/models"
)

func TestAcquirePrefersCaptions(t *testing.T) {
	captions := &fakeCaptions{text: "from captions"}
	asr := &fakeASR{text: "from asr"}
	ts := NewTranscriptService(captions, asr, "en")

	transcript, err := ts.Acquire(context.Background(), testLesson())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if transcript.Text != "from captions" || transcript.Source != models.TranscriptSourceCaptions {
		t.Errorf("got %q from %q, want captions", transcript.Text, transcript.Source)
	}
	if asr.calls != 0 {
		t.Error("ASR must not run when captions succeed")
	}
	if transcript.Language != "en" {
		t.Errorf("language = %q, want en", transcript.Language)
	}
}

func TestAcquireFallsBackToASR(t *testing.T) {
	cases := []struct {
		name     string
		captions *fakeCaptions
	}{
		{"captions unavailable", &fakeCaptions{err: ErrNotAvailable}},
		{"captions failing", &fakeCaptions{err: errBackend}},
		{"captions empty", &fakeCaptions{text: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			asr := &fakeASR{text: "from asr"}
			ts := NewTranscriptService(tc.captions, asr, "en")

			transcript, err := ts.Acquire(context.Background(), testLesson())
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			if transcript.Source != models.TranscriptSourceASR {
				t.Errorf("source = %q, want asr", transcript.Source)
			}
		})
	}
}

func TestAcquireNotAvailable(t *testing.T) {
	cases := []struct {
		name string
		ts   *TranscriptService
	}{
		{"no backends", NewTranscriptService(nil, nil, "en")},
		{"both failing", NewTranscriptService(&fakeCaptions{err: errBackend}, &fakeASR{err: errBackend}, "en")},
		{"both empty", NewTranscriptService(&fakeCaptions{text: ""}, &fakeASR{text: ""}, "en")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.ts.Acquire(context.Background(), testLesson())
			if !errors.Is(err, ErrNotAvailable) {
				t.Fatalf("expected ErrNotAvailable, got %v", err)
			}
		})
	}
}

func TestPickCaptionTrack(t *testing.T) {
	tracks := []*youtube.Caption{
		{Id: "track-fr", Snippet: &youtube.CaptionSnippet{Language: "fr"}},
		{Id: "track-en-us", Snippet: &youtube.CaptionSnippet{Language: "en-US"}},
		{Id: "track-en", Snippet: &youtube.CaptionSnippet{Language: "en"}},
	}

	if got := pickCaptionTrack(tracks, "en"); got != "track-en" {
		t.Errorf("exact match: got %q, want track-en", got)
	}
	if got := pickCaptionTrack(tracks[:2], "en"); got != "track-en-us" {
		t.Errorf("prefix match: got %q, want track-en-us", got)
	}
	if got := pickCaptionTrack(tracks, "de"); got != "" {
		t.Errorf("no match: got %q, want empty", got)
	}
	if got := pickCaptionTrack(nil, "en"); got != "" {
		t.Errorf("no tracks: got %q, want empty", got)
	}
	if got := pickCaptionTrack([]*youtube.Caption{{Id: "bare"}}, "en"); got != "" {
		t.Errorf("track without snippet: got %q, want empty", got)
	}
}

func TestParseSubtitleTextSRT(t *testing.T) {
	raw := "1\n00:00:00,000 --> 00:00:03,500\nHello and welcome\n\n" +
		"2\n00:00:03,500 --> 00:00:07,000\nto this <b>course</b> on Go\n"

	got := ParseSubtitleText(raw)
	want := "Hello and welcome to this course on Go"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseSubtitleTextVTT(t *testing.T) {
	raw := "WEBVTT\n\n00:00.000 --> 00:03.500\n<c.colorCCCCCC>Hello</c> there\n\n" +
		"00:03.500 --> 00:07.000\ngeneral   Kenobi\n"

	got := ParseSubtitleText(raw)
	want := "Hello there general Kenobi"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseSubtitleTextEmpty(t *testing.T) {
	if got := ParseSubtitleText(""); got != "" {
		t.Errorf("empty payload: got %q", got)
	}
	onlyTiming := "1\n00:00:00,000 --> 00:00:03,500\n\n"
	if got := ParseSubtitleText(onlyTiming); got != "" {
		t.Errorf("timing-only payload: got %q", got)
	}
}
