package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnhub-platform/models"
)

// ErrNotAvailable means no transcript could be obtained for a lesson right
// now. It is soft: ingestion skips the lesson and a later run may succeed
// once a caption track appears or an ASR backend is configured.
var ErrNotAvailable = errors.New("transcript not available")

// ErrNotFound is returned by the store for missing documents.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the pipeline consumes. The relational
// world of courses, enrollments and payments lives elsewhere; this covers
// only what ingestion and retrieval touch.
type Store interface {
	GetLesson(ctx context.Context, lessonID primitive.ObjectID) (*models.Lesson, error)
	ListLessonsByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Lesson, error)
	GetCourseContext(ctx context.Context, courseID primitive.ObjectID) (*models.CourseContext, error)

	// GetTranscript returns ErrNotFound when the lesson has no transcript.
	GetTranscript(ctx context.Context, lessonID primitive.ObjectID) (*models.Transcript, error)
	CreateTranscript(ctx context.Context, t *models.Transcript) error

	CreateChunks(ctx context.Context, chunks []models.Chunk) error
	GetChunksByLesson(ctx context.Context, lessonID primitive.ObjectID) ([]models.Chunk, error)
	GetChunksByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Chunk, error)
}
