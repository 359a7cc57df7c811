package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chunk is a contiguous, time-bounded slice of a lesson transcript, the
// unit of retrieval. Ordinals are 0-based and gap-free within a transcript;
// StartTime <= EndTime always holds. Chunks are written once during
// ingestion and read-only afterwards.
type Chunk struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	LessonID     primitive.ObjectID `json:"lesson_id" bson:"lesson_id"`
	TranscriptID primitive.ObjectID `json:"transcript_id" bson:"transcript_id"`
	Ordinal      int                `json:"ordinal" bson:"ordinal"`
	Text         string             `json:"text" bson:"text"`
	StartTime    int                `json:"start_time" bson:"start_time"`
	EndTime      int                `json:"end_time" bson:"end_time"`
	TokenCount   int                `json:"token_count" bson:"token_count"`
	Embedding    []float32          `json:"embedding,omitempty" bson:"embedding,omitempty"`
}
