package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"learnhub-platform/internal/logger"
	"learnhub-platform/models"
)

// AnswerCache keeps recent question/answer pairs in Redis so repeated
// questions inside one course skip retrieval and generation. Cache failures
// are logged and treated as misses.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAnswerCache(rdb *redis.Client, ttl time.Duration) *AnswerCache {
	return &AnswerCache{rdb: rdb, ttl: ttl}
}

func (ac *AnswerCache) Get(ctx context.Context, scope Scope, question string) (*models.Answer, bool) {
	if ac == nil || ac.rdb == nil {
		return nil, false
	}

	raw, err := ac.rdb.Get(ctx, cacheKey(scope, question)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Answer cache read failed", "error", err)
		}
		return nil, false
	}

	var answer models.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		logger.Warn("Answer cache decode failed", "error", err)
		return nil, false
	}
	return &answer, true
}

func (ac *AnswerCache) Set(ctx context.Context, scope Scope, question string, answer *models.Answer) {
	if ac == nil || ac.rdb == nil {
		return
	}

	raw, err := json.Marshal(answer)
	if err != nil {
		return
	}
	if err := ac.rdb.Set(ctx, cacheKey(scope, question), raw, ac.ttl).Err(); err != nil {
		logger.Warn("Answer cache write failed", "error", err)
	}
}

func cacheKey(scope Scope, question string) string {
	h := sha256.Sum256([]byte(scope.CourseID.Hex() + "|" + scope.LessonID.Hex() + "|" + strings.ToLower(strings.TrimSpace(question))))
	return "assistant:answer:" + hex.EncodeToString(h[:])
}
