package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"learnhub-platform/models"
	"learnhub-platform/services"
)

// MongoStore implements services.Store over the platform's MongoDB
// collections.
type MongoStore struct {
	lessons     *mongo.Collection
	courses     *mongo.Collection
	transcripts *mongo.Collection
	chunks      *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	db := client.Database(dbName)
	return &MongoStore{
		lessons:     db.Collection("lessons"),
		courses:     db.Collection("courses"),
		transcripts: db.Collection("transcripts"),
		chunks:      db.Collection("lesson_chunks"),
	}
}

func (s *MongoStore) GetLesson(ctx context.Context, lessonID primitive.ObjectID) (*models.Lesson, error) {
	var lesson models.Lesson
	err := s.lessons.FindOne(ctx, bson.M{"_id": lessonID}).Decode(&lesson)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("find lesson %s: %w", lessonID.Hex(), err)
	}
	return &lesson, nil
}

func (s *MongoStore) ListLessonsByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Lesson, error) {
	cursor, err := s.lessons.Find(ctx,
		bson.M{"course_id": courseID},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list lessons for course %s: %w", courseID.Hex(), err)
	}
	defer cursor.Close(ctx)

	lessons := make([]models.Lesson, 0)
	if err := cursor.All(ctx, &lessons); err != nil {
		return nil, fmt.Errorf("decode lessons: %w", err)
	}
	return lessons, nil
}

func (s *MongoStore) GetCourseContext(ctx context.Context, courseID primitive.ObjectID) (*models.CourseContext, error) {
	var course models.CourseContext
	err := s.courses.FindOne(ctx, bson.M{"_id": courseID}).Decode(&course)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("find course %s: %w", courseID.Hex(), err)
	}
	return &course, nil
}

func (s *MongoStore) GetTranscript(ctx context.Context, lessonID primitive.ObjectID) (*models.Transcript, error) {
	var t models.Transcript
	err := s.transcripts.FindOne(ctx, bson.M{"lesson_id": lessonID}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("find transcript for lesson %s: %w", lessonID.Hex(), err)
	}
	return &t, nil
}

func (s *MongoStore) CreateTranscript(ctx context.Context, t *models.Transcript) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if _, err := s.transcripts.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert transcript for lesson %s: %w", t.LessonID.Hex(), err)
	}
	return nil
}

func (s *MongoStore) CreateChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]interface{}, len(chunks))
	for i := range chunks {
		if chunks[i].ID.IsZero() {
			chunks[i].ID = primitive.NewObjectID()
		}
		docs[i] = chunks[i]
	}

	if _, err := s.chunks.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %d chunks: %w", len(chunks), err)
	}
	return nil
}

func (s *MongoStore) GetChunksByLesson(ctx context.Context, lessonID primitive.ObjectID) ([]models.Chunk, error) {
	return s.findChunks(ctx, bson.M{"lesson_id": lessonID})
}

// GetChunksByCourse loads every chunk of every lesson in the course, the
// coarse scope used when a question is not tied to one lesson.
func (s *MongoStore) GetChunksByCourse(ctx context.Context, courseID primitive.ObjectID) ([]models.Chunk, error) {
	lessons, err := s.ListLessonsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return []models.Chunk{}, nil
	}

	ids := make([]primitive.ObjectID, len(lessons))
	for i, l := range lessons {
		ids[i] = l.ID
	}
	return s.findChunks(ctx, bson.M{"lesson_id": bson.M{"$in": ids}})
}

func (s *MongoStore) findChunks(ctx context.Context, filter bson.M) ([]models.Chunk, error) {
	cursor, err := s.chunks.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "lesson_id", Value: 1}, {Key: "ordinal", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find chunks: %w", err)
	}
	defer cursor.Close(ctx)

	chunks := make([]models.Chunk, 0)
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	return chunks, nil
}

// ListLessonsWithoutTranscript returns lessons the ingestion sweep still
// needs to process.
func (s *MongoStore) ListLessonsWithoutTranscript(ctx context.Context, limit int64) ([]models.Lesson, error) {
	cursor, err := s.transcripts.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"lesson_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	var done []struct {
		LessonID primitive.ObjectID `bson:"lesson_id"`
	}
	if err := cursor.All(ctx, &done); err != nil {
		return nil, fmt.Errorf("decode transcript refs: %w", err)
	}

	doneIDs := make([]primitive.ObjectID, len(done))
	for i, d := range done {
		doneIDs[i] = d.LessonID
	}

	filter := bson.M{}
	if len(doneIDs) > 0 {
		filter["_id"] = bson.M{"$nin": doneIDs}
	}

	lessonCursor, err := s.lessons.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending lessons: %w", err)
	}
	defer lessonCursor.Close(ctx)

	lessons := make([]models.Lesson, 0)
	if err := lessonCursor.All(ctx, &lessons); err != nil {
		return nil, fmt.Errorf("decode pending lessons: %w", err)
	}
	return lessons, nil
}
