package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"ifi"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"ifi_chatbot"`

	// Vector store backend: "pgvector" keeps chunks in Postgres alongside
	// document metadata; "weaviate" stores them in a Weaviate class.
	VectorBackend  string `envconfig:"VECTOR_BACKEND" default:"pgvector"`
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// Provider selection: "openai" or "gemini".
	AIProvider     string `envconfig:"AI_PROVIDER" default:"openai"`
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL"`
	GeminiAPIKey   string `envconfig:"GEMINI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-large"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4"`

	// Every stored and queried vector must have exactly this many
	// components. Must match the VECTOR(n) column in migrations.
	EmbeddingDimensions int `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`

	ChunkSize     int `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"200"`
	RetrievalTopK int `envconfig:"RETRIEVAL_TOP_K" default:"5"`

	ServerPort         int    `envconfig:"SERVER_PORT" default:"8081"`
	UploadDir          string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	MaxUploadSize      int64  `envconfig:"MAX_UPLOAD_SIZE" default:"10485760"` // 10 MiB
	QueryLogPath       string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`
	MigrationPath      string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
	EnableAPI          bool   `envconfig:"ENABLE_API" default:"true"`
	EnableIngestWorker bool   `envconfig:"ENABLE_INGEST_WORKER" default:"true"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
	ProviderRetryAttempts      int `envconfig:"PROVIDER_RETRY_ATTEMPTS" default:"3"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell instead; ignore missing files.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	switch c.AIProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("%w: AI_PROVIDER must be openai or gemini, got %q", ErrInvalidValue, c.AIProvider)
	}
	switch c.VectorBackend {
	case "pgvector", "weaviate":
	default:
		return fmt.Errorf("%w: VECTOR_BACKEND must be pgvector or weaviate, got %q", ErrInvalidValue, c.VectorBackend)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("%w: EMBEDDING_DIMENSIONS must be positive", ErrInvalidValue)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalidValue)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: CHUNK_OVERLAP (%d) must be in [0, CHUNK_SIZE)", ErrInvalidValue, c.ChunkOverlap)
	}
	if c.RetrievalTopK < 1 {
		return fmt.Errorf("%w: RETRIEVAL_TOP_K must be at least 1", ErrInvalidValue)
	}
	return nil
}

// ProviderAPIKey returns the API key for the configured AI provider.
func (c *Config) ProviderAPIKey() string {
	if c.AIProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}
