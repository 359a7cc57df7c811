package services

import (
	"fmt"
	"strings"

	"learnhub-platform/models"
)

// Speaking rate used to estimate a video's length when the real duration
// is unknown. Timestamps derived from it are approximations; callers with
// per-caption timing should supply the real duration instead.
const assumedWordsPerMinute = 150

// Chunker splits transcripts into overlapping word windows sized for
// embedding and citation.
type Chunker struct {
	chunkWords   int
	overlapWords int
}

// NewChunker creates a chunker. The step between windows is
// chunkWords-overlapWords, so the overlap must be strictly smaller.
func NewChunker(chunkWords, overlapWords int) (*Chunker, error) {
	if chunkWords <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkWords)
	}
	if overlapWords < 0 || overlapWords >= chunkWords {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", overlapWords, chunkWords)
	}
	return &Chunker{chunkWords: chunkWords, overlapWords: overlapWords}, nil
}

// Chunk slides a window of chunkWords words over the transcript, advancing
// by chunkWords-overlapWords each step. Start/end times are linearly
// interpolated over videoSeconds; when videoSeconds is zero the duration is
// estimated from the word count at a fixed speaking rate. A transcript
// shorter than one window yields a single chunk covering the whole text.
func (c *Chunker) Chunk(text string, videoSeconds int) ([]models.Chunk, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	duration := videoSeconds
	if duration <= 0 {
		duration = len(words) * 60 / assumedWordsPerMinute
	}

	step := c.chunkWords - c.overlapWords
	chunks := make([]models.Chunk, 0, (len(words)+step-1)/step)

	for start, ordinal := 0, 0; start < len(words); start, ordinal = start+step, ordinal+1 {
		end := start + c.chunkWords
		if end > len(words) {
			end = len(words)
		}

		chunkText := strings.Join(words[start:end], " ")
		chunks = append(chunks, models.Chunk{
			Ordinal:    ordinal,
			Text:       chunkText,
			StartTime:  interpolate(start, len(words), duration),
			EndTime:    interpolate(end, len(words), duration),
			TokenCount: len(chunkText) / 4, // ~4 chars per token
		})

		if end == len(words) {
			break
		}
	}

	return chunks, nil
}

func interpolate(wordIndex, totalWords, duration int) int {
	return wordIndex * duration / totalWords
}
