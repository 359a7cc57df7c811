package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"learnhub-platform/internal/ai"
	"learnhub-platform/models"
)

// Scope restricts the candidate set of a search. LessonID wins when both
// are set; the caller supplies at least a course.
type Scope struct {
	LessonID primitive.ObjectID
	CourseID primitive.ObjectID
}

// SearchService retrieves the chunks most relevant to a question. Chunk
// counts per course are small, so exact cosine similarity over every
// candidate is computed in-process; no approximate index is needed at this
// scale.
type SearchService struct {
	store    Store
	embedder ai.EmbeddingProvider
	topK     int
	minScore float64
}

func NewSearchService(store Store, embedder ai.EmbeddingProvider, topK int, minScore float64) *SearchService {
	if topK <= 0 {
		topK = 5
	}
	return &SearchService{store: store, embedder: embedder, topK: topK, minScore: minScore}
}

// Search embeds the question and ranks the scoped chunks against it.
// Returns ai.ErrProviderUnavailable when no embedding backend is
// configured; an empty result is not an error.
func (ss *SearchService) Search(ctx context.Context, question string, scope Scope) ([]models.Chunk, error) {
	if ss.embedder == nil {
		return nil, ai.ErrProviderUnavailable
	}

	vectors, err := ss.embedder.EmbedBatch(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed question: expected 1 vector, got %d", len(vectors))
	}

	var candidates []models.Chunk
	if !scope.LessonID.IsZero() {
		candidates, err = ss.store.GetChunksByLesson(ctx, scope.LessonID)
	} else {
		candidates, err = ss.store.GetChunksByCourse(ctx, scope.CourseID)
	}
	if err != nil {
		return nil, fmt.Errorf("load candidate chunks: %w", err)
	}

	return rankChunks(vectors[0], candidates, ss.topK, ss.minScore), nil
}

// rankChunks scores every candidate against the query vector and returns
// the top k above minScore, best first. Ties break by ascending ordinal so
// results are reproducible.
func rankChunks(query []float32, candidates []models.Chunk, k int, minScore float64) []models.Chunk {
	type scored struct {
		chunk models.Chunk
		score float64
	}

	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(query, c.Embedding)
		if score < minScore {
			continue
		}
		ranked = append(ranked, scored{chunk: c, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].chunk.Ordinal < ranked[j].chunk.Ordinal
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	result := make([]models.Chunk, len(ranked))
	for i, r := range ranked {
		result[i] = r.chunk
	}
	return result
}

// cosineSimilarity computes full cosine rather than a plain dot product;
// provider vectors are not guaranteed to be L2-normalized.
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
