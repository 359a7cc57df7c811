package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnhub-platform/internal/logger"
	"learnhub-platform/services"
	"learnhub-platform/utils"
)

const (
	TaskIngestLesson = "lesson:ingest"
	TaskIngestCourse = "course:ingest"
)

type LessonIngestPayload struct {
	LessonID string `json:"lesson_id"`
}

type CourseIngestPayload struct {
	CourseID string `json:"course_id"`
}

// NewLessonIngestTask enqueues ingestion of one lesson. Ingest is
// idempotent, so retries after partial failures are safe.
func NewLessonIngestTask(lessonID string) (*asynq.Task, error) {
	payload, err := json.Marshal(LessonIngestPayload{LessonID: lessonID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestLesson,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(utils.IngestTimeout),
		asynq.Queue("default"),
	), nil
}

// NewCourseIngestTask enqueues batch ingestion of a whole course.
func NewCourseIngestTask(courseID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CourseIngestPayload{CourseID: courseID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestCourse,
		payload,
		asynq.MaxRetry(2),
		asynq.Timeout(2*time.Hour),
		asynq.Queue("low"),
	), nil
}

// TaskProcessor handles background tasks for the assistant pipeline.
type TaskProcessor struct {
	store     services.Store
	ingestion *services.IngestionService
}

func NewTaskProcessor(store services.Store, ingestion *services.IngestionService) *TaskProcessor {
	return &TaskProcessor{store: store, ingestion: ingestion}
}

func (p *TaskProcessor) ProcessLessonIngest(ctx context.Context, t *asynq.Task) error {
	var payload LessonIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	lessonID, err := primitive.ObjectIDFromHex(payload.LessonID)
	if err != nil {
		return fmt.Errorf("invalid lesson id %q: %w", payload.LessonID, asynq.SkipRetry)
	}

	lesson, err := p.store.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.Warn("Lesson vanished before ingestion", "lesson_id", payload.LessonID)
			return fmt.Errorf("lesson not found: %w", asynq.SkipRetry)
		}
		return err
	}

	logger.Info("Processing lesson ingestion", "lesson_id", payload.LessonID, "video_id", lesson.VideoID)
	return p.ingestion.Ingest(ctx, lesson)
}

// ProcessCourseIngest ingests every lesson of a course as one batch.
// Per-lesson failures are contained inside IngestCourse, so the task only
// retries on upstream listing errors.
func (p *TaskProcessor) ProcessCourseIngest(ctx context.Context, t *asynq.Task) error {
	var payload CourseIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	courseID, err := primitive.ObjectIDFromHex(payload.CourseID)
	if err != nil {
		return fmt.Errorf("invalid course id %q: %w", payload.CourseID, asynq.SkipRetry)
	}

	lessons, err := p.store.ListLessonsByCourse(ctx, courseID)
	if err != nil {
		return err
	}

	logger.Info("Processing course ingestion", "course_id", payload.CourseID, "lessons", len(lessons))
	p.ingestion.IngestCourse(ctx, lessons)
	return nil
}
