package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"palm-rag/internal/config"
	miniodb "palm-rag/internal/database/minio"
	redisdb "palm-rag/internal/database/redis"
	"palm-rag/internal/database/sqldb"
	"palm-rag/internal/embedding"
	"palm-rag/internal/rag_service/api"
	"palm-rag/internal/rag_service/rag/dal"
	"palm-rag/internal/rag_service/rag/pipeline"
	"palm-rag/internal/rag_service/rag/storages/sessionstore"
	"palm-rag/internal/rag_service/rag/storages/vectorstore"
	"palm-rag/internal/rag_service/service"
	xhttp "palm-rag/pkg/http"
	"palm-rag/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// 1. Load Configuration
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("RAGService", "", "")
	appLogger.Info("Starting RAG Service...")

	// 3. Initialize Dependencies
	db, err := sqldb.GetDB(&cfg.Databases.SQL)
	if err != nil {
		log.Fatalf("Failed to open %s database: %v", cfg.Databases.SQL.Driver, err)
	}
	defer sqldb.Close()

	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding model: %v", err)
	}

	qdrantHTTP, err := xhttp.NewClient("qdrant", cfg.Middleware.CircuitBreaker,
		config.Duration(cfg.Databases.VectorStore.Qdrant.Timeout, 15*time.Second))
	if err != nil {
		log.Fatalf("Failed to create Qdrant HTTP client: %v", err)
	}
	vectorStore, err := vectorstore.New(cfg.Databases.VectorStore, embedder.Dimension(), qdrantHTTP)
	if err != nil {
		log.Fatalf("Failed to create vector store: %v", err)
	}
	if _, ok := vectorStore.(*vectorstore.Unavailable); ok {
		appLogger.Warn("QDRANT_URL is not set: ingestion will fail and chat will run degraded")
	}

	sessionTTL := config.Duration(cfg.RAG.SessionTTL, sessionstore.DefaultTTL)
	local, err := sessionstore.NewLocalStore(cfg.RAG.LocalSessions, sessionTTL)
	if err != nil {
		log.Fatalf("Failed to create local session store: %v", err)
	}
	var primary *sessionstore.RedisStore
	if cfg.Databases.Redis.Address() != "" {
		rdb, err := redisdb.GetClient(&cfg.Databases.Redis)
		if err != nil {
			log.Fatalf("Failed to create Redis client: %v", err)
		}
		defer redisdb.Close()
		primary = sessionstore.NewRedisStore(rdb, sessionTTL)
	} else {
		appLogger.Warn("REDIS_HOST is not set: sessions are kept in process memory only")
	}
	sessions := sessionstore.NewTieredStore(primary, local,
		config.Duration(cfg.Databases.Redis.PingTimeout, sessionstore.DefaultPingTimeout), appLogger)

	var archive service.Archiver
	if cfg.Databases.MinIO.Endpoint != "" {
		mc, err := miniodb.NewClient(&cfg.Databases.MinIO)
		if err != nil {
			log.Fatalf("Failed to create MinIO client: %v", err)
		}
		archive = miniodb.NewArchive(mc, cfg.Databases.MinIO.Bucket)
	}

	// 4. Create the services
	documents := dal.NewDocumentDAL(db)
	indexing := pipeline.NewIndexingPipeline(embedder, vectorStore, cfg.Ingest.Concurrency, appLogger)
	retrieval := pipeline.NewRetrievalPipeline(embedder, vectorStore, cfg.RAG.TopK, appLogger)
	orchestrator := pipeline.NewOrchestrator(retrieval, sessions, pipeline.OrchestratorConfig{
		MaxContextLength: cfg.RAG.MaxContextLength,
		MaxHistoryTurns:  cfg.RAG.MaxHistoryTurns,
	}, appLogger)

	handler := api.NewHandler(
		service.NewIngestService(indexing, documents, archive, cfg.Chunking, appLogger),
		service.NewChatService(orchestrator, sessions),
		service.NewDocumentService(documents, vectorStore, archive, appLogger),
		service.NewBookingService(dal.NewBookingDAL(db), appLogger),
		service.NewHealthService(service.PingFunc(sqldb.HealthCheck), sessions, vectorStore, 2*time.Second),
		int64(cfg.Server.MaxUploadMB)<<20,
		appLogger,
	)

	// 5. Start the HTTP server
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	server, err := xhttp.NewServer(cfg, api.SetupRouter(handler, appLogger))
	if err != nil {
		log.Fatalf("Failed to create HTTP server: %v", err)
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s (%s)", server.Addr(), sessions))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 6. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}
	appLogger.Info("Server gracefully stopped")
}
