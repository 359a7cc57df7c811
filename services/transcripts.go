package services

import (
	"context"
	"errors"
	"time"

	"learnhub-platform/internal/logger"
	"learnhub-platform/models"
)

// CaptionSource fetches a provider-hosted caption track for a video.
// Returns ErrNotAvailable when the video has no usable track.
type CaptionSource interface {
	Fetch(ctx context.Context, videoID, language string) (string, error)
}

// SpeechToText produces a transcript from a video's audio.
type SpeechToText interface {
	Transcribe(ctx context.Context, videoID string) (string, error)
}

// TranscriptService obtains a transcript for a lesson, trying the cheap
// source before the expensive one. Either backend may be nil when
// unconfigured.
type TranscriptService struct {
	captions CaptionSource
	asr      SpeechToText
	language string
}

func NewTranscriptService(captions CaptionSource, asr SpeechToText, language string) *TranscriptService {
	if language == "" {
		language = "en"
	}
	return &TranscriptService{captions: captions, asr: asr, language: language}
}

// Acquire tries captions first, then ASR. Both failing or unconfigured
// yields ErrNotAvailable; the caller treats that as a soft skip, not a
// fatal error.
func (ts *TranscriptService) Acquire(ctx context.Context, lesson *models.Lesson) (*models.Transcript, error) {
	if ts.captions != nil {
		text, err := ts.captions.Fetch(ctx, lesson.VideoID, ts.language)
		if err == nil && text != "" {
			return ts.newTranscript(lesson, text, models.TranscriptSourceCaptions), nil
		}
		if err != nil && !errors.Is(err, ErrNotAvailable) {
			logger.Warn("Caption fetch failed, falling back to ASR",
				"lesson_id", lesson.ID.Hex(), "video_id", lesson.VideoID, "error", err)
		}
	}

	if ts.asr != nil {
		text, err := ts.asr.Transcribe(ctx, lesson.VideoID)
		if err == nil && text != "" {
			return ts.newTranscript(lesson, text, models.TranscriptSourceASR), nil
		}
		if err != nil {
			logger.Warn("ASR transcription failed",
				"lesson_id", lesson.ID.Hex(), "video_id", lesson.VideoID, "error", err)
		}
	}

	return nil, ErrNotAvailable
}

func (ts *TranscriptService) newTranscript(lesson *models.Lesson, text, source string) *models.Transcript {
	now := time.Now()
	return &models.Transcript{
		LessonID:  lesson.ID,
		Text:      text,
		Source:    source,
		Language:  ts.language,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
