package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"learnhub-platform/internal/ai"
	"learnhub-platform/internal/logger"
	"learnhub-platform/internal/telemetry"
	"learnhub-platform/models"
)

// IngestionService runs the acquire -> chunk -> embed -> persist pipeline
// for a lesson. Ingestion is idempotent: a lesson with a transcript is
// never re-processed.
type IngestionService struct {
	store       Store
	transcripts *TranscriptService
	chunker     *Chunker
	embedder    ai.EmbeddingProvider
	metrics     *telemetry.Metrics

	// Batch behavior across lessons
	concurrency int
	delay       time.Duration
}

func NewIngestionService(store Store, transcripts *TranscriptService, chunker *Chunker, embedder ai.EmbeddingProvider, metrics *telemetry.Metrics, concurrency int, delay time.Duration) *IngestionService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestionService{
		store:       store,
		transcripts: transcripts,
		chunker:     chunker,
		embedder:    embedder,
		metrics:     metrics,
		concurrency: concurrency,
		delay:       delay,
	}
}

// Ingest processes one lesson. A missing transcript source is a soft skip;
// an unconfigured or failing embedding backend aborts before anything is
// persisted, so a transcript never ends up with a partial chunk set. Only
// persistence failures propagate.
func (is *IngestionService) Ingest(ctx context.Context, lesson *models.Lesson) error {
	started := time.Now()

	if _, err := is.store.GetTranscript(ctx, lesson.ID); err == nil {
		logger.Debug("Lesson already ingested", "lesson_id", lesson.ID.Hex())
		is.metrics.RecordSkip(ctx, "already_ingested")
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check existing transcript: %w", err)
	}

	if is.embedder == nil {
		// Acquisition can be expensive (audio download, subprocess); bail
		// before it when the result could not be made searchable anyway.
		logger.Warn("No embedding backend configured, skipping ingestion", "lesson_id", lesson.ID.Hex())
		is.metrics.RecordSkip(ctx, "embeddings_unavailable")
		return nil
	}

	transcript, err := is.transcripts.Acquire(ctx, lesson)
	if err != nil {
		if errors.Is(err, ErrNotAvailable) {
			logger.Info("No transcript available, skipping lesson",
				"lesson_id", lesson.ID.Hex(), "video_id", lesson.VideoID)
			is.metrics.RecordSkip(ctx, "no_transcript")
			return nil
		}
		return fmt.Errorf("acquire transcript: %w", err)
	}

	chunks, err := is.chunker.Chunk(transcript.Text, 0)
	if err != nil {
		return fmt.Errorf("chunk transcript: %w", err)
	}
	if len(chunks) == 0 {
		logger.Info("Transcript empty after chunking, skipping lesson", "lesson_id", lesson.ID.Hex())
		is.metrics.RecordSkip(ctx, "empty_transcript")
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := is.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		// Nothing has been persisted yet: search assumes every stored
		// chunk is searchable, so abort rather than write vectorless rows.
		logger.Error("Embedding failed, aborting ingestion",
			"lesson_id", lesson.ID.Hex(), "chunks", len(chunks), "error", err)
		is.metrics.RecordSkip(ctx, "embedding_failed")
		return nil
	}
	if len(vectors) != len(chunks) {
		logger.Error("Embedding count mismatch, aborting ingestion",
			"lesson_id", lesson.ID.Hex(), "want", len(chunks), "got", len(vectors))
		is.metrics.RecordSkip(ctx, "embedding_failed")
		return nil
	}

	if err := is.store.CreateTranscript(ctx, transcript); err != nil {
		return fmt.Errorf("persist transcript: %w", err)
	}

	for i := range chunks {
		chunks[i].LessonID = lesson.ID
		chunks[i].TranscriptID = transcript.ID
		chunks[i].Embedding = vectors[i]
	}
	if err := is.store.CreateChunks(ctx, chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	logger.Info("Lesson ingested",
		"lesson_id", lesson.ID.Hex(), "source", transcript.Source, "chunks", len(chunks))
	is.metrics.RecordIngestion(ctx, len(chunks), time.Since(started).Seconds())
	return nil
}

// IngestCourse processes lessons as a background batch. Lessons are
// independent, so a bounded number run in parallel; a short delay spaces
// out starts to stay under third-party rate limits. Per-lesson failures
// are logged and never abort the batch.
func (is *IngestionService) IngestCourse(ctx context.Context, lessons []models.Lesson) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(is.concurrency)

	cancelled := false
	for i := range lessons {
		lesson := lessons[i]
		if i > 0 && is.delay > 0 {
			select {
			case <-time.After(is.delay):
			case <-ctx.Done():
				// Stop scheduling new lessons but keep waiting below so
				// in-flight ingestions drain before we return.
				cancelled = true
			}
			if cancelled {
				break
			}
		}
		g.Go(func() error {
			if err := is.Ingest(ctx, &lesson); err != nil {
				logger.Error("Lesson ingestion failed", "lesson_id", lesson.ID.Hex(), "error", err)
			}
			return nil
		})
	}

	_ = g.Wait()
}
