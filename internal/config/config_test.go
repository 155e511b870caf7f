package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/madhusudhankonda/ifi-chatbot/internal/config"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("DB_HOST", "test-host")
	defer os.Unsetenv("DB_HOST")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "pgvector", cfg.VectorBackend)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.RetrievalTopK)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadSize)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	content := []byte("DB_HOST=loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
}

func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			DBHost:              "h",
			DBUser:              "u",
			DBName:              "n",
			AIProvider:          "openai",
			VectorBackend:       "pgvector",
			EmbeddingDimensions: 1536,
			ChunkSize:           1000,
			ChunkOverlap:        200,
			RetrievalTopK:       5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr error
	}{
		{"valid", func(c *config.Config) {}, nil},
		{"missing db host", func(c *config.Config) { c.DBHost = "" }, config.ErrMissingRequired},
		{"bad provider", func(c *config.Config) { c.AIProvider = "llama" }, config.ErrInvalidValue},
		{"bad backend", func(c *config.Config) { c.VectorBackend = "chroma" }, config.ErrInvalidValue},
		{"zero dimensions", func(c *config.Config) { c.EmbeddingDimensions = 0 }, config.ErrInvalidValue},
		{"overlap >= chunk size", func(c *config.Config) { c.ChunkOverlap = 1000 }, config.ErrInvalidValue},
		{"negative overlap", func(c *config.Config) { c.ChunkOverlap = -1 }, config.ErrInvalidValue},
		{"zero top k", func(c *config.Config) { c.RetrievalTopK = 0 }, config.ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProviderAPIKey(t *testing.T) {
	cfg := &config.Config{AIProvider: "openai", OpenAIAPIKey: "sk-a", GeminiAPIKey: "g-b"}
	assert.Equal(t, "sk-a", cfg.ProviderAPIKey())

	cfg.AIProvider = "gemini"
	assert.Equal(t, "g-b", cfg.ProviderAPIKey())
}
