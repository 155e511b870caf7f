package worker_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhusudhankonda/ifi-chatbot/features/document"
	"github.com/madhusudhankonda/ifi-chatbot/internal/testutils"
	"github.com/madhusudhankonda/ifi-chatbot/internal/vector"
	"github.com/madhusudhankonda/ifi-chatbot/internal/worker"
)

// deterministicEmbedder maps text length onto the first component so
// vectors are valid without a live provider.
type deterministicEmbedder struct{ dims int }

func (e deterministicEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, e.dims)
	v[0] = 1
	v[1] = float32(len(text)%100) / 100
	return v, nil
}

func TestIngestPipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.SetupPostgres()
	defer s.Teardown()

	ctx := context.Background()
	repo := document.NewPostgresRepo(s.DB)
	store := vector.NewPostgresStore(s.DB, 1536)

	path := filepath.Join(t.TempDir(), "report.txt")
	content := "The bank holds Tier 1 capital above six percent. Liquidity coverage stays within board limits."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	doc := &document.Document{
		Filename:     path,
		OriginalName: "report.txt",
		MimeType:     document.MimeText,
		Size:         int64(len(content)),
		Status:       document.StatusUploading,
	}
	require.NoError(t, repo.Create(ctx, doc))

	consumer := worker.NewIngestConsumer(deterministicEmbedder{dims: 1536}, store, repo, document.ExtractText, 60, 10)

	body, err := json.Marshal(worker.IngestDocumentPayload{
		DocumentID:   doc.ID,
		Path:         path,
		OriginalName: "report.txt",
		MimeType:     document.MimeText,
	})
	require.NoError(t, err)

	require.NoError(t, consumer.HandleMessage(&nsq.Message{Body: body}))

	stored, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusCompleted, stored.Status)
	assert.Greater(t, stored.ChunkCount, 1)
	assert.Empty(t, stored.ErrorMessage)

	results, err := store.Search(ctx, func() []float32 {
		v := make([]float32, 1536)
		v[0] = 1
		return v
	}(), 10)
	require.NoError(t, err)
	assert.Len(t, results, stored.ChunkCount)
	assert.Equal(t, "report.txt", results[0].Filename)
}

func TestIngestPipeline_Integration_MissingFileFails(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.SetupPostgres()
	defer s.Teardown()

	ctx := context.Background()
	repo := document.NewPostgresRepo(s.DB)
	store := vector.NewPostgresStore(s.DB, 1536)

	doc := &document.Document{
		Filename:     "/nonexistent/file.txt",
		OriginalName: "file.txt",
		MimeType:     document.MimeText,
		Status:       document.StatusUploading,
	}
	require.NoError(t, repo.Create(ctx, doc))

	consumer := worker.NewIngestConsumer(deterministicEmbedder{dims: 1536}, store, repo, document.ExtractText, 1000, 200)

	body, _ := json.Marshal(worker.IngestDocumentPayload{
		DocumentID: doc.ID,
		Path:       "/nonexistent/file.txt",
		MimeType:   document.MimeText,
	})
	require.NoError(t, consumer.HandleMessage(&nsq.Message{Body: body}))

	stored, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "extraction failed")

	var chunks int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM document_chunks`).Scan(&chunks))
	assert.Zero(t, chunks)
}
