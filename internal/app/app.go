package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/madhusudhankonda/ifi-chatbot/features/chat"
	"github.com/madhusudhankonda/ifi-chatbot/features/document"
	"github.com/madhusudhankonda/ifi-chatbot/features/stats"
	"github.com/madhusudhankonda/ifi-chatbot/internal/adapter/gemini"
	"github.com/madhusudhankonda/ifi-chatbot/internal/adapter/openai"
	"github.com/madhusudhankonda/ifi-chatbot/internal/config"
	"github.com/madhusudhankonda/ifi-chatbot/internal/middleware"
	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
	"github.com/madhusudhankonda/ifi-chatbot/internal/retrieval"
	"github.com/madhusudhankonda/ifi-chatbot/internal/vector"
	"github.com/madhusudhankonda/ifi-chatbot/internal/worker"
)

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler         http.Handler
	DocumentService *document.Service
	IngestConsumer  *worker.IngestConsumer
	port            int
}

func New(cfg *config.Config, db *sql.DB, chunkStore vector.ChunkStore, pub EventPublisher) (*App, error) {
	embedder, generator, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	// Both the ingestion loop and query-time retrieval hit the embedding
	// provider, so both get the retry decorator.
	retryEmbedder := provider.NewRetryEmbedder(embedder, cfg.ProviderRetryAttempts)

	// Feature: Document
	documentRepo := document.NewPostgresRepo(db)
	documentService := document.NewService(documentRepo, pub, chunkStore)
	documentHandler := document.NewHandler(documentService, cfg.UploadDir, cfg.MaxUploadSize)

	// Feature: Retrieval & Chat
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(retryEmbedder, chunkStore, cfg.RetrievalTopK, queryLogger)

	chatRepo := chat.NewPostgresRepo(db)
	chatService := chat.NewService(chatRepo, retrievalService, generator)
	chatHandler := chat.NewHandler(chatService)

	// Feature: Stats
	statsHandler := stats.NewHandler(stats.NewPostgresRepo(db))

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /upload", middleware.CorrelationID(enableCORS(documentHandler.Upload)))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(documentHandler.List)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(documentHandler.Get)))
	mux.Handle("DELETE /documents/{id}", middleware.CorrelationID(enableCORS(documentHandler.Delete)))

	mux.Handle("POST /chat", middleware.CorrelationID(enableCORS(chatHandler.Answer)))
	mux.Handle("GET /chat/history/{sessionId}", middleware.CorrelationID(enableCORS(chatHandler.History)))

	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(statsHandler.GetStats)))

	mux.Handle("GET /config/check", middleware.CorrelationID(enableCORS(configCheck(cfg))))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Worker: ingestion pipeline consumer
	ingestConsumer := worker.NewIngestConsumer(retryEmbedder, chunkStore, documentRepo, document.ExtractText, cfg.ChunkSize, cfg.ChunkOverlap)

	return &App{
		Handler:         mux,
		DocumentService: documentService,
		IngestConsumer:  ingestConsumer,
		port:            cfg.ServerPort,
	}, nil
}

func buildProvider(cfg *config.Config) (provider.Embedder, provider.Generator, error) {
	switch cfg.AIProvider {
	case "gemini":
		ctx := context.Background()
		embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini embedder: %w", err)
		}
		generator, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.ChatModel)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini generator: %w", err)
		}
		return embedder, generator, nil
	default:
		embedder, err := openai.NewEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDimensions)
		if err != nil {
			return nil, nil, fmt.Errorf("openai embedder: %w", err)
		}
		generator, err := openai.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel)
		if err != nil {
			return nil, nil, fmt.Errorf("openai generator: %w", err)
		}
		return embedder, generator, nil
	}
}

// configCheck reports which external settings are present without
// exposing their values.
func configCheck(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"provider":%q,"apiKeyConfigured":%t,"vectorBackend":%q,"embeddingModel":%q,"chatModel":%q}`,
			cfg.AIProvider, cfg.ProviderAPIKey() != "", cfg.VectorBackend, cfg.EmbeddingModel, cfg.ChatModel)
	}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
