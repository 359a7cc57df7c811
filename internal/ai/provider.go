package ai

import (
	"context"
	"errors"

	"learnhub-platform/internal/config"
)

// ErrProviderUnavailable signals that no backend is configured for the
// requested capability. Callers degrade instead of surfacing this to users:
// ingestion aborts without persisting, the assistant returns its canned
// not-configured message.
var ErrProviderUnavailable = errors.New("ai provider not configured")

// EmbeddingProvider turns text into fixed-size vectors. Implementations
// must return one vector per input, in input order.
type EmbeddingProvider interface {
	Name() string
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// AnswerProvider produces a natural-language answer from a system
// instruction and the learner's question.
type AnswerProvider interface {
	Name() string
	GenerateAnswer(ctx context.Context, system, question string) (string, error)
}

// Providers holds the backends selected at startup. A nil field means that
// capability is unconfigured.
type Providers struct {
	Embeddings EmbeddingProvider
	Answers    AnswerProvider
}

// SelectProviders picks one embedding and one answer backend from key
// presence in the configuration. Selection happens once at process start;
// services receive the result and never re-check the environment.
func SelectProviders(cfg *config.Config) (*Providers, error) {
	p := &Providers{}

	var gemini *GeminiClient
	if cfg.GeminiAPIKey != "" {
		var err error
		gemini, err = NewGeminiClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	var openAI *OpenAIClient
	if cfg.OpenAIAPIKey != "" {
		openAI = NewOpenAIClient(cfg)
	}

	switch cfg.EmbeddingsProvider {
	case "openai":
		if openAI != nil {
			p.Embeddings = openAI
		}
	default: // "google"
		if gemini != nil {
			p.Embeddings = gemini
		} else if openAI != nil {
			p.Embeddings = openAI
		}
	}

	switch cfg.AnswersProvider {
	case "openai":
		if openAI != nil {
			p.Answers = openAI
		}
	default: // "google"
		if gemini != nil {
			p.Answers = gemini
		} else if openAI != nil {
			p.Answers = openAI
		}
	}

	return p, nil
}

// Close releases provider connections.
func (p *Providers) Close() {
	if c, ok := p.Embeddings.(*GeminiClient); ok {
		c.Close()
		return
	}
	if c, ok := p.Answers.(*GeminiClient); ok {
		c.Close()
	}
}
