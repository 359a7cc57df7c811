package utils

import (
	"context"
	"time"
)

const (
	// DefaultTimeout is the default timeout for most database operations
	DefaultTimeout = 10 * time.Second

	// IngestTimeout bounds a full lesson ingestion (download, subprocess,
	// embedding calls); per the integration pattern, timeouts wrap the
	// whole call rather than cancelling individual stages.
	IngestTimeout = 15 * time.Minute

	// AnswerTimeout bounds one retrieval + generation round trip
	AnswerTimeout = 60 * time.Second
)

// WithTimeout creates a context with default timeout
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, DefaultTimeout)
}

// WithAnswerTimeout creates a context bounding one assistant answer
func WithAnswerTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, AnswerTimeout)
}
