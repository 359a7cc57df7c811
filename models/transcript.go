package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transcript sources, in acquisition priority order.
const (
	TranscriptSourceCaptions = "captions"
	TranscriptSourceASR      = "asr"
)

// Transcript is the raw text obtained for a lesson's video. At most one
// transcript exists per lesson; ingestion is a no-op when one is present.
type Transcript struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	LessonID  primitive.ObjectID `json:"lesson_id" bson:"lesson_id"`
	Text      string             `json:"text" bson:"text"`
	Source    string             `json:"source" bson:"source"`
	Language  string             `json:"language" bson:"language"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
