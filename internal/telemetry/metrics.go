package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the assistant pipeline metrics
type Metrics struct {
	LessonsIngested   metric.Int64Counter
	LessonsSkipped    metric.Int64Counter
	ChunksEmbedded    metric.Int64Counter
	IngestionDuration metric.Float64Histogram
	QuestionsAnswered metric.Int64Counter
	AnswerDuration    metric.Float64Histogram
}

// InitMetrics initializes all pipeline metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("learnhub-platform")

	lessonsIngested, err := meter.Int64Counter(
		"ingestion.lessons.total",
		metric.WithDescription("Lessons ingested into the knowledge base"),
	)
	if err != nil {
		return nil, err
	}

	lessonsSkipped, err := meter.Int64Counter(
		"ingestion.lessons.skipped",
		metric.WithDescription("Lessons skipped (already ingested or no transcript)"),
	)
	if err != nil {
		return nil, err
	}

	chunksEmbedded, err := meter.Int64Counter(
		"ingestion.chunks.embedded",
		metric.WithDescription("Transcript chunks embedded and persisted"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"ingestion.duration",
		metric.WithDescription("Per-lesson ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	questionsAnswered, err := meter.Int64Counter(
		"assistant.questions.total",
		metric.WithDescription("Learner questions answered"),
	)
	if err != nil {
		return nil, err
	}

	answerDuration, err := meter.Float64Histogram(
		"assistant.answer.duration",
		metric.WithDescription("Question-to-answer latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		LessonsIngested:   lessonsIngested,
		LessonsSkipped:    lessonsSkipped,
		ChunksEmbedded:    chunksEmbedded,
		IngestionDuration: ingestionDuration,
		QuestionsAnswered: questionsAnswered,
		AnswerDuration:    answerDuration,
	}, nil
}

// RecordIngestion records one completed lesson ingestion
func (m *Metrics) RecordIngestion(ctx context.Context, chunks int, seconds float64) {
	if m == nil {
		return
	}
	m.LessonsIngested.Add(ctx, 1)
	m.ChunksEmbedded.Add(ctx, int64(chunks))
	m.IngestionDuration.Record(ctx, seconds)
}

// RecordSkip records a lesson that ingestion passed over
func (m *Metrics) RecordSkip(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.LessonsSkipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordAnswer records one answered question
func (m *Metrics) RecordAnswer(ctx context.Context, seconds float64, cached bool) {
	if m == nil {
		return
	}
	m.QuestionsAnswered.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cached", cached)))
	m.AnswerDuration.Record(ctx, seconds)
}
