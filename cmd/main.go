package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"learnhub-platform/internal/ai"
	"learnhub-platform/internal/config"
	"learnhub-platform/internal/database"
	"learnhub-platform/internal/logger"
	"learnhub-platform/internal/telemetry"
	"learnhub-platform/middleware"
	"learnhub-platform/routes"
	"learnhub-platform/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("learnhub-platform", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("Tracer initialization failed, continuing without tracing", "error", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics initialization failed", "error", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, answer caching disabled", "error", err)
		redisClient = nil
	}

	// Select AI backends once at startup; missing keys degrade gracefully
	providers, err := ai.SelectProviders(cfg)
	if err != nil {
		log.Fatal("Failed to initialize AI providers:", err)
	}
	defer providers.Close()
	logger.Info("AI providers selected",
		"embeddings", providerName(providers.Embeddings),
		"answers", answerName(providers.Answers))

	store := database.NewMongoStore(mongoClient, cfg.DBName)
	searchService := services.NewSearchService(store, providers.Embeddings, cfg.SearchTopK, cfg.SearchMinScore)
	answerCache := services.NewAnswerCache(redisClient, cfg.AnswerCacheTTL)
	assistant := services.NewAssistantService(providers.Answers, searchService, store, answerCache, metrics)

	redisOpts, err := config.RedisOptions(cfg)
	if err != nil {
		log.Fatal("Invalid Redis configuration:", err)
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:      redisOpts.Addr,
		Password:  redisOpts.Password,
		DB:        redisOpts.DB,
		TLSConfig: redisOpts.TLSConfig,
	})
	defer asynqClient.Close()

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupAssistantRoutes(router, store, assistant, asynqClient)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

func providerName(p ai.EmbeddingProvider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

func answerName(p ai.AnswerProvider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}
