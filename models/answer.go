package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Source points a learner back into the video a piece of context came from.
// Sources are derived from the retrieved chunks, never parsed out of the
// model's prose, so they stay accurate even when the model paraphrases.
type Source struct {
	LessonID  primitive.ObjectID `json:"lesson_id"`
	Timestamp int                `json:"timestamp"`
	Snippet   string             `json:"snippet"`
}

// Answer is the assistant's reply to one question. It is ephemeral: the
// pipeline does not persist answers.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}
