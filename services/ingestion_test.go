package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnhub-platform/internal/ai"
	"learnhub-platform/models"
)

func newTestIngestion(t *testing.T, store Store, captions CaptionSource, asr SpeechToText, embedder *fakeEmbedder) *IngestionService {
	t.Helper()
	chunker, err := NewChunker(5, 2)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	transcripts := NewTranscriptService(captions, asr, "en")
	var emb ai.EmbeddingProvider
	if embedder != nil {
		emb = embedder
	}
	return NewIngestionService(store, transcripts, chunker, emb, nil, 1, 0)
}

func testLesson() *models.Lesson {
	return &models.Lesson{
		ID:      primitive.NewObjectID(),
		VideoID: "dQw4w9WgXcQ",
		Title:   "Lesson 1",
	}
}

func TestIngestPersistsTranscriptAndChunks(t *testing.T) {
	store := newFakeStore()
	captions := &fakeCaptions{text: strings.Repeat("word ", 12)}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	is := newTestIngestion(t, store, captions, nil, embedder)
	lesson := testLesson()

	if err := is.Ingest(context.Background(), lesson); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	transcript, err := store.GetTranscript(context.Background(), lesson.ID)
	if err != nil {
		t.Fatalf("transcript not persisted: %v", err)
	}
	if transcript.Source != models.TranscriptSourceCaptions {
		t.Errorf("source = %q, want captions", transcript.Source)
	}

	// 12 words, window 5, step 3: starts at 0, 3, 6, 9
	if len(store.chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(store.chunks))
	}
	for i, c := range store.chunks {
		if c.LessonID != lesson.ID {
			t.Errorf("chunk %d lesson_id not set", i)
		}
		if c.TranscriptID != transcript.ID {
			t.Errorf("chunk %d transcript_id not set", i)
		}
		if len(c.Embedding) == 0 {
			t.Errorf("chunk %d has no embedding", i)
		}
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	store := newFakeStore()
	captions := &fakeCaptions{text: strings.Repeat("word ", 12)}
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	is := newTestIngestion(t, store, captions, nil, embedder)
	lesson := testLesson()

	if err := is.Ingest(context.Background(), lesson); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	persisted := len(store.chunks)

	if err := is.Ingest(context.Background(), lesson); err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if captions.calls != 1 {
		t.Errorf("second run must not re-fetch captions, got %d calls", captions.calls)
	}
	if embedder.calls != 1 {
		t.Errorf("second run must not re-embed, got %d calls", embedder.calls)
	}
	if len(store.chunks) != persisted {
		t.Errorf("second run changed chunk count: %d -> %d", persisted, len(store.chunks))
	}
}

func TestIngestSkipsWhenNoTranscriptSource(t *testing.T) {
	store := newFakeStore()
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	is := newTestIngestion(t, store, nil, nil, embedder)
	lesson := testLesson()

	if err := is.Ingest(context.Background(), lesson); err != nil {
		t.Fatalf("unavailable transcript must be a soft skip, got: %v", err)
	}
	if len(store.chunks) != 0 || len(store.transcripts) != 0 {
		t.Error("nothing should be persisted on a skip")
	}
}

func TestIngestSkipsBeforeAcquisitionWithoutEmbedder(t *testing.T) {
	store := newFakeStore()
	captions := &fakeCaptions{text: "never fetched"}
	is := newTestIngestion(t, store, captions, nil, nil)
	lesson := testLesson()

	if err := is.Ingest(context.Background(), lesson); err != nil {
		t.Fatalf("missing embedder must be a soft skip, got: %v", err)
	}
	if captions.calls != 0 {
		t.Error("transcript must not be acquired when it cannot be embedded")
	}
}

func TestIngestPersistsNothingOnEmbeddingFailure(t *testing.T) {
	store := newFakeStore()
	captions := &fakeCaptions{text: strings.Repeat("word ", 12)}
	embedder := &fakeEmbedder{err: errBackend}
	is := newTestIngestion(t, store, captions, nil, embedder)
	lesson := testLesson()

	if err := is.Ingest(context.Background(), lesson); err != nil {
		t.Fatalf("embedding failure must not propagate, got: %v", err)
	}
	if len(store.transcripts) != 0 {
		t.Error("transcript must not be persisted when embedding fails")
	}
	if len(store.chunks) != 0 {
		t.Error("chunks must not be persisted when embedding fails")
	}
}

func TestIngestPersistsNothingOnEmbeddingCountMismatch(t *testing.T) {
	store := newFakeStore()
	captions := &fakeCaptions{text: strings.Repeat("word ", 12)}
	embedder := &fakeEmbedder{vector: []float32{0.1}, short: true}
	is := newTestIngestion(t, store, captions, nil, embedder)
	lesson := testLesson()

	if err := is.Ingest(context.Background(), lesson); err != nil {
		t.Fatalf("count mismatch must not propagate, got: %v", err)
	}
	if len(store.transcripts) != 0 || len(store.chunks) != 0 {
		t.Error("nothing should be persisted on a vector count mismatch")
	}
}

func TestIngestPropagatesPersistenceErrors(t *testing.T) {
	store := newFakeStore()
	store.transcriptErr = errBackend
	captions := &fakeCaptions{text: strings.Repeat("word ", 12)}
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	is := newTestIngestion(t, store, captions, nil, embedder)

	if err := is.Ingest(context.Background(), testLesson()); err == nil {
		t.Fatal("transcript persistence failure must propagate")
	}

	store.transcriptErr = nil
	store.chunksErr = errBackend
	if err := is.Ingest(context.Background(), testLesson()); err == nil {
		t.Fatal("chunk persistence failure must propagate")
	}
}

func TestIngestCourseDrainsInFlightOnCancel(t *testing.T) {
	store := newFakeStore()
	gate := &gatedCaptions{release: make(chan struct{}), text: strings.Repeat("word ", 12)}
	embedder := &fakeEmbedder{vector: []float32{0.1}}

	chunker, err := NewChunker(5, 2)
	if err != nil {
		t.Fatalf("NewChunker: %v", err)
	}
	transcripts := NewTranscriptService(gate, nil, "en")
	is := NewIngestionService(store, transcripts, chunker, embedder, nil, 1, 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	lessons := []models.Lesson{*testLesson(), *testLesson()}

	done := make(chan struct{})
	go func() {
		is.IngestCourse(ctx, lessons)
		close(done)
	}()

	// First lesson is blocked in acquisition; the loop is sitting in the
	// inter-lesson delay when the context is cancelled.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
		t.Fatal("IngestCourse returned while a lesson was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("IngestCourse did not return after in-flight lesson finished")
	}

	if gate.calls != 1 {
		t.Errorf("second lesson must not start after cancellation, got %d acquisitions", gate.calls)
	}
}

func TestIngestCourseSurvivesPerLessonFailures(t *testing.T) {
	store := newFakeStore()
	store.transcriptErr = errBackend
	captions := &fakeCaptions{text: strings.Repeat("word ", 12)}
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	is := newTestIngestion(t, store, captions, nil, embedder)

	lessons := []models.Lesson{*testLesson(), *testLesson(), *testLesson()}
	// Must not panic or abort; every lesson is attempted
	is.IngestCourse(context.Background(), lessons)

	if captions.calls != len(lessons) {
		t.Errorf("expected %d acquisition attempts, got %d", len(lessons), captions.calls)
	}
}
