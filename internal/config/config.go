package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	DBName      string
	Port        string
	GinMode     string
	CORSOrigins []string

	// Redis Configuration (answer cache + task queue)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// AI providers. Presence of an API key is what activates a backend;
	// with no keys set, every stage degrades to its placeholder behavior.
	GeminiAPIKey          string
	GeminiModel           string
	GoogleEmbeddingsModel string
	GeminiTier            string
	OpenAIAPIKey          string
	OpenAIChatModel       string
	OpenAIEmbeddingsModel string
	EmbeddingsProvider    string // "google" (default), "openai"
	AnswersProvider       string // "google" (default), "openai"

	// Transcript acquisition
	YouTubeAPIKey   string
	CaptionLanguage string
	YtdlpPath       string
	WhisperScript   string
	AudioWorkDir    string

	// Chunking
	ChunkSizeWords    int
	ChunkOverlapWords int

	// Retrieval
	SearchTopK     int
	SearchMinScore float64

	// Ingestion batch behavior
	IngestConcurrency int
	IngestDelay       time.Duration
	IngestSweepCron   string

	// Answer cache
	AnswerCacheTTL time.Duration

	// Telemetry
	OTLPEndpoint string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/learnhub"),
		DBName:      getEnv("DB_NAME", "learnhub"),
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTier:            getEnv("GEMINI_TIER", "free"),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingsModel: getEnv("OPENAI_EMBEDDINGS_MODEL", "text-embedding-3-small"),
		EmbeddingsProvider:    getEnv("EMBEDDINGS_PROVIDER", "google"),
		AnswersProvider:       getEnv("ANSWERS_PROVIDER", "google"),

		YouTubeAPIKey:   getEnv("YOUTUBE_API_KEY", ""),
		CaptionLanguage: getEnv("CAPTION_LANGUAGE", "en"),
		YtdlpPath:       getEnv("YTDLP_PATH", "yt-dlp"),
		WhisperScript:   getEnv("WHISPER_SCRIPT", ""),
		AudioWorkDir:    getEnv("AUDIO_WORK_DIR", os.TempDir()),

		ChunkSizeWords:    getEnvInt("CHUNK_SIZE_WORDS", 500),
		ChunkOverlapWords: getEnvInt("CHUNK_OVERLAP_WORDS", 100),

		SearchTopK:     getEnvInt("SEARCH_TOP_K", 5),
		SearchMinScore: getEnvFloat64("SEARCH_MIN_SCORE", 0.3),

		IngestConcurrency: getEnvInt("INGEST_CONCURRENCY", 2),
		IngestDelay:       getEnvDuration("INGEST_DELAY", 2*time.Second),
		IngestSweepCron:   getEnv("INGEST_SWEEP_CRON", "*/30 * * * *"),

		AnswerCacheTTL: getEnvDuration("ANSWER_CACHE_TTL", 15*time.Minute),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	if cfg.ChunkOverlapWords >= cfg.ChunkSizeWords {
		return nil, fmt.Errorf("CHUNK_OVERLAP_WORDS (%d) must be smaller than CHUNK_SIZE_WORDS (%d)",
			cfg.ChunkOverlapWords, cfg.ChunkSizeWords)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
