package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/samriddhidvd/TechM-AI-Assistant/docs/swagger"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/api"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/assembler"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/chatbot"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/config"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/db"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/drive"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/extract"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/handlers"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/ingest"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/llm"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/resolver"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/services"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/tasks"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/tasks/rate"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/vector"
)

// 🚀 Main function
// @title TechM AI Assistant API
// @version 1.0
// @description Role-gated document question answering over synced drive files.
// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	mainLogger := logger.New("techm-assistant")

	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		mainLogger.Info("No .env file found, skipping environment variable loading")
	} else {
		mainLogger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			mainLogger.Warn("Failed to close database connection: %v", err)
		}
	}()

	dbInstance := db.GetDB()

	if err := db.SeedDefaultAdmin(dbInstance, cfg); err != nil {
		mainLogger.Warn("Failed to seed default admin: %v", err)
	}

	// Stores.
	userStore := store.NewUserStore(dbInstance)
	resourceStore := store.NewResourceStore(dbInstance)
	permissionStore := store.NewPermissionStore(dbInstance)
	chatStore := store.NewChatStore(dbInstance)

	// Task client also owns the shared redis connection.
	taskClient := tasks.NewTaskClient(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	defer taskClient.Close()
	rdb := taskClient.GetRedis()

	// Vector index.
	var index vector.Index
	if cfg.Chroma.URL != "" {
		index = vector.NewChromaIndex(cfg.Chroma.URL, cfg.Chroma.Collection)
	}

	// Core question pipeline.
	accessResolver := resolver.New(userStore, resourceStore)
	contextAssembler := assembler.New(index)
	groqClient := llm.NewGroqClient(cfg.Groq.APIKey)
	engine := chatbot.NewEngine(
		accessResolver,
		contextAssembler,
		resourceStore,
		chatStore,
		groqClient,
		cfg.Groq,
		cfg.Context,
	)

	// Ingestion pipeline.
	tokenSource := drive.NewTokenSource(cfg.Drive, rdb)
	driveClient := drive.NewClient(tokenSource, cfg.Drive.DownloadTimeout)

	var archiver ingest.Archiver
	if cfg.Storage.S3.BucketName != "" {
		s3Archiver, err := services.NewS3Archiver(cfg.Storage.S3)
		if err != nil {
			mainLogger.Warn("S3 archiver disabled: %v", err)
		} else {
			archiver = s3Archiver
		}
	}

	pipeline := ingest.New(
		driveClient,
		extract.New(),
		resourceStore,
		permissionStore,
		userStore,
		index,
		archiver,
	)

	// Background task processing.
	taskHandler := tasks.NewTaskHandler(pipeline, rdb)
	taskServer := tasks.NewServer(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		taskHandler,
	)
	if err := taskServer.Start(); err != nil {
		log.Fatalf("Failed to start task server: %v", err)
	}

	taskScheduler := tasks.NewScheduler(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Sync,
	)
	go func() {
		if err := taskScheduler.Start(); err != nil {
			mainLogger.Error("Task scheduler error", err)
		}
	}()

	// Chat rate limiting.
	chatLimiter := rate.NewChatRateLimiter(rdb, rate.RateLimit{
		Window:  time.Minute,
		MaxHits: cfg.Chat.RateLimitPerMin,
	})

	// API server.
	apiServer := api.NewServer(cfg, dbInstance, api.Handlers{
		Auth:       handlers.NewAuthHandler(userStore),
		Chat:       handlers.NewChatHandler(engine, chatStore, chatLimiter, cfg.Chat.HistoryLimit),
		Resource:   handlers.NewResourceHandler(resourceStore, accessResolver, pipeline, taskClient, index),
		Permission: handlers.NewPermissionHandler(permissionStore, userStore, resourceStore),
	})

	go func() {
		swagger.SwaggerInfo.Title = "TechM AI Assistant API"
		swagger.SwaggerInfo.Description = "Role-gated document question answering"
		swagger.SwaggerInfo.Version = "1.0"
		swagger.SwaggerInfo.Host = cfg.Server.PublicURL
		swagger.SwaggerInfo.Schemes = []string{"http", "https"}

		mainLogger.Success("API server starting")
		if err := apiServer.Start(); err != nil {
			mainLogger.Error("API server error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	taskScheduler.Stop()
	taskServer.Shutdown()

	if err := apiServer.Shutdown(ctx); err != nil {
		mainLogger.Error("Failed to shutdown API server", err)
	}

	mainLogger.Info("Servers shutdown gracefully")
}
