package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lesson is a single video lesson inside a course. Owned by the
// course-content subsystem; the assistant pipeline only reads it.
type Lesson struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CourseID  primitive.ObjectID `json:"course_id" bson:"course_id"`
	VideoID   string             `json:"video_id" bson:"video_id"`
	Title     string             `json:"title" bson:"title"`
	Position  int                `json:"position" bson:"position"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// CourseContext carries the course metadata the assistant includes in its
// system instruction. The full Course document lives with the marketplace
// subsystem; the pipeline never needs more than this.
type CourseContext struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
}
