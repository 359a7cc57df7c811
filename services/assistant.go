package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"learnhub-platform/internal/ai"
	"learnhub-platform/internal/logger"
	"learnhub-platform/internal/telemetry"
	"learnhub-platform/models"
)

// Fixed assistant responses. Each degraded state has its own message so
// callers and fixtures can tell them apart.
const (
	MsgNotConfigured = "The course assistant is not configured yet. Please contact the site administrator."
	MsgNoContext     = "I couldn't find anything about that in this course's lessons. The course may not be processed yet, or the topic may not be covered."
	MsgGenerateError = "Sorry, I wasn't able to generate an answer right now. Please try again in a moment."
)

const maxSnippetLen = 200

// answerCacheStore is what the assistant needs from the answer cache.
type answerCacheStore interface {
	Get(ctx context.Context, scope Scope, question string) (*models.Answer, bool)
	Set(ctx context.Context, scope Scope, question string, answer *models.Answer)
}

// AssistantService turns a learner question plus retrieved chunks into a
// grounded, cited answer.
type AssistantService struct {
	answers ai.AnswerProvider
	search  *SearchService
	store   Store
	cache   answerCacheStore
	metrics *telemetry.Metrics
}

func NewAssistantService(answers ai.AnswerProvider, search *SearchService, store Store, cache answerCacheStore, metrics *telemetry.Metrics) *AssistantService {
	return &AssistantService{answers: answers, search: search, store: store, cache: cache, metrics: metrics}
}

// Answer produces the assistant's reply from already-retrieved context.
// It never returns an error: backend failures are logged and converted to
// an apology while keeping the sources computed from the retrieval step,
// so the UI can still show what was looked at.
func (as *AssistantService) Answer(ctx context.Context, question, courseTitle, courseDescription string, contextChunks []models.Chunk) models.Answer {
	if as.answers == nil {
		return models.Answer{Text: MsgNotConfigured, Sources: []models.Source{}}
	}
	if len(contextChunks) == 0 {
		return models.Answer{Text: MsgNoContext, Sources: []models.Source{}}
	}

	// Sources come from retrieval, not from the model's prose. Building
	// them before the call keeps citations accurate even when generation
	// fails or paraphrases.
	sources := buildSources(contextChunks)

	system := buildSystemInstruction(courseTitle, courseDescription, contextChunks)
	text, err := as.answers.GenerateAnswer(ctx, system, question)
	if err != nil {
		logger.Error("Answer generation failed", "provider", as.answers.Name(), "error", err)
		return models.Answer{Text: MsgGenerateError, Sources: sources}
	}

	return models.Answer{Text: strings.TrimSpace(text), Sources: sources}
}

// Ask is the call the HTTP layer consumes: cache lookup, retrieval, then
// synthesis.
func (as *AssistantService) Ask(ctx context.Context, question string, scope Scope) (models.Answer, error) {
	started := time.Now()

	if as.cache != nil {
		if cached, ok := as.cache.Get(ctx, scope, question); ok {
			as.metrics.RecordAnswer(ctx, time.Since(started).Seconds(), true)
			return *cached, nil
		}
	}

	course, err := as.store.GetCourseContext(ctx, scope.CourseID)
	if err != nil {
		return models.Answer{}, fmt.Errorf("load course context: %w", err)
	}

	chunks, err := as.search.Search(ctx, question, scope)
	if err != nil {
		// An unconfigured embedding backend means nothing can be
		// retrieved; answer from an empty context like any other
		// retrieval trouble, which stays invisible to the learner.
		if !errors.Is(err, ai.ErrProviderUnavailable) {
			logger.Error("Chunk retrieval failed", "course_id", scope.CourseID.Hex(), "error", err)
		}
		chunks = nil
	}

	answer := as.Answer(ctx, question, course.Title, course.Description, chunks)
	if as.cache != nil && cacheable(answer) {
		as.cache.Set(ctx, scope, question, &answer)
	}
	as.metrics.RecordAnswer(ctx, time.Since(started).Seconds(), false)
	return answer, nil
}

// cacheable reports whether an answer should enter the cache. Answers
// produced by a missing or failing backend stay out of it: the backend can
// be configured or recover well inside the cache TTL, and a cached apology
// would keep being served anyway.
func cacheable(a models.Answer) bool {
	return a.Text != MsgNotConfigured && a.Text != MsgGenerateError
}

func buildSources(chunks []models.Chunk) []models.Source {
	sources := make([]models.Source, len(chunks))
	for i, c := range chunks {
		sources[i] = models.Source{
			LessonID:  c.LessonID,
			Timestamp: c.StartTime,
			Snippet:   snippet(c.Text),
		}
	}
	return sources
}

func snippet(text string) string {
	if len(text) <= maxSnippetLen {
		return text
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := maxSnippetLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func buildSystemInstruction(courseTitle, courseDescription string, chunks []models.Chunk) string {
	var sb strings.Builder
	sb.WriteString("You are a course assistant for the course \"")
	sb.WriteString(courseTitle)
	sb.WriteString("\".\n")
	if courseDescription != "" {
		sb.WriteString("Course description: ")
		sb.WriteString(courseDescription)
		sb.WriteString("\n")
	}
	sb.WriteString("Answer the learner's question using ONLY the lesson excerpts below. ")
	sb.WriteString("If the excerpts do not contain enough information, say so explicitly instead of guessing.\n\n")
	sb.WriteString("Lesson excerpts:\n")
	for _, c := range chunks {
		sb.WriteString(fmt.Sprintf("[%s] %s\n", FormatTimestamp(c.StartTime), c.Text))
	}
	return sb.String()
}

// FormatTimestamp renders seconds as MM:SS for prompt context and UI
// citations.
func FormatTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
