package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/hibiken/asynq"

	"learnhub-platform/internal/ai"
	"learnhub-platform/internal/config"
	"learnhub-platform/internal/database"
	"learnhub-platform/internal/logger"
	"learnhub-platform/internal/queue"
	"learnhub-platform/internal/telemetry"
	"learnhub-platform/services"
)

// The worker runs lesson ingestion off the request path: an asynq server
// consumes lesson:ingest tasks, and a gocron sweep periodically enqueues
// lessons that still have no transcript.
const sweepBatchSize = 50

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics initialization failed", "error", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	providers, err := ai.SelectProviders(cfg)
	if err != nil {
		log.Fatal("Failed to initialize AI providers:", err)
	}
	defer providers.Close()

	store := database.NewMongoStore(mongoClient, cfg.DBName)

	var captions services.CaptionSource
	if cfg.YouTubeAPIKey != "" {
		captions, err = services.NewYouTubeCaptionSource(context.Background(), cfg.YouTubeAPIKey)
		if err != nil {
			log.Fatal("Failed to initialize YouTube caption source:", err)
		}
	}

	var asr services.SpeechToText
	if cfg.WhisperScript != "" {
		asr = services.NewWhisperASR(cfg.YtdlpPath, cfg.WhisperScript, cfg.AudioWorkDir)
	}

	transcripts := services.NewTranscriptService(captions, asr, cfg.CaptionLanguage)
	chunker, err := services.NewChunker(cfg.ChunkSizeWords, cfg.ChunkOverlapWords)
	if err != nil {
		log.Fatal("Invalid chunking configuration:", err)
	}

	ingestion := services.NewIngestionService(
		store, transcripts, chunker, providers.Embeddings, metrics,
		cfg.IngestConcurrency, cfg.IngestDelay,
	)

	redisOpts, err := config.RedisOptions(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration:", err)
	}
	redisOpt := asynq.RedisClientOpt{
		Addr:      redisOpts.Addr,
		Password:  redisOpts.Password,
		DB:        redisOpts.DB,
		TLSConfig: redisOpts.TLSConfig,
	}

	// Lesson ingestion is I/O-bound but rate-limited upstream, so keep
	// concurrency low.
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.IngestConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(store, ingestion)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestLesson, processor.ProcessLessonIngest)
	mux.HandleFunc(queue.TaskIngestCourse, processor.ProcessCourseIngest)

	// Periodic sweep: enqueue lessons that still lack a transcript so a
	// lesson published before any backend was configured gets picked up
	// later without manual retriggering.
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Cron(cfg.IngestSweepCron).Do(func() {
		sweepPendingLessons(store, asynqClient)
	})
	if err != nil {
		log.Fatal("Failed to schedule ingestion sweep:", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	logger.Info("Starting ingestion worker",
		"concurrency", cfg.IngestConcurrency,
		"sweep_cron", cfg.IngestSweepCron,
		"redis", cfg.RedisURL)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}

func sweepPendingLessons(store *database.MongoStore, client *asynq.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lessons, err := store.ListLessonsWithoutTranscript(ctx, sweepBatchSize)
	if err != nil {
		logger.Error("Ingestion sweep failed", "error", err)
		return
	}
	if len(lessons) == 0 {
		return
	}

	enqueued := 0
	for _, lesson := range lessons {
		task, err := queue.NewLessonIngestTask(lesson.ID.Hex())
		if err != nil {
			continue
		}
		if _, err := client.EnqueueContext(ctx, task, asynq.Unique(time.Hour)); err != nil {
			logger.Warn("Failed to enqueue lesson", "lesson_id", lesson.ID.Hex(), "error", err)
			continue
		}
		enqueued++
	}

	logger.Info("Ingestion sweep complete", "pending", len(lessons), "enqueued", enqueued)
}
