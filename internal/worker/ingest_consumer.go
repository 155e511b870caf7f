package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"github.com/madhusudhankonda/ifi-chatbot/features/document"
	"github.com/madhusudhankonda/ifi-chatbot/internal/middleware"
	"github.com/madhusudhankonda/ifi-chatbot/internal/text"
	"github.com/madhusudhankonda/ifi-chatbot/internal/vector"
)

const embedTimeout = 60 * time.Second

// IngestConsumer runs the full ingestion pipeline for one document per
// message: extract, split, embed every chunk, then store all chunks in
// one batch. Embeddings are collected before anything is written so a
// document is never searchable with only part of its content.
//
// Failures mark the document failed and are terminal; the message is
// never requeued because rerunning the same broken upload cannot
// succeed.
type IngestConsumer struct {
	embedder  Embedder
	store     vector.ChunkStore
	docs      DocumentUpdater
	extract   Extractor
	chunkSize int
	overlap   int
}

func NewIngestConsumer(e Embedder, s vector.ChunkStore, d DocumentUpdater, extract Extractor, chunkSize, overlap int) *IngestConsumer {
	if extract == nil {
		extract = document.ExtractText
	}
	if chunkSize <= 0 {
		chunkSize = text.DefaultChunkSize
	}
	if overlap < 0 {
		overlap = text.DefaultOverlap
	}
	return &IngestConsumer{
		embedder:  e,
		store:     s,
		docs:      d,
		extract:   extract,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

func (h *IngestConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload IngestDocumentPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	h.ingest(ctx, payload)
	return nil
}

func (h *IngestConsumer) ingest(ctx context.Context, payload IngestDocumentPayload) {
	id := payload.DocumentID

	if err := h.docs.UpdateStatus(ctx, id, document.StatusProcessing, "", 0); err != nil {
		slog.ErrorContext(ctx, "failed to mark document processing", "error", err, "document_id", id)
		return
	}

	content, err := h.extract(payload.Path, payload.MimeType)
	if err != nil {
		h.fail(ctx, id, "extraction failed: "+err.Error())
		return
	}

	chunks := text.Split(content, h.chunkSize, h.overlap)
	if len(chunks) == 0 {
		h.fail(ctx, id, "document produced no chunks")
		return
	}

	inserts := make([]vector.ChunkInsert, 0, len(chunks))
	for i, chunk := range chunks {
		embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
		embedding, err := h.embedder.Embed(embedCtx, chunk)
		cancel()
		if err != nil {
			slog.ErrorContext(ctx, "embedding failed", "error", err, "document_id", id, "chunk_index", i)
			h.fail(ctx, id, "embedding failed: "+err.Error())
			return
		}

		inserts = append(inserts, vector.ChunkInsert{
			Content:   chunk,
			Embedding: embedding,
			Metadata: map[string]any{
				vector.MetadataChunkIndex: i,
				"filename":                payload.OriginalName,
			},
		})
	}

	if err := h.store.InsertChunks(ctx, id, inserts); err != nil {
		slog.ErrorContext(ctx, "store chunks failed", "error", err, "document_id", id)
		h.fail(ctx, id, "chunk storage failed: "+err.Error())
		return
	}

	if err := h.docs.UpdateStatus(ctx, id, document.StatusCompleted, "", len(inserts)); err != nil {
		slog.ErrorContext(ctx, "failed to mark document completed", "error", err, "document_id", id)
		return
	}

	slog.InfoContext(ctx, "document ingested", "document_id", id, "chunks", len(inserts))
}

func (h *IngestConsumer) fail(ctx context.Context, id int64, message string) {
	if err := h.docs.UpdateStatus(ctx, id, document.StatusFailed, message, 0); err != nil {
		slog.ErrorContext(ctx, "failed to mark document failed", "error", err, "document_id", id)
	}
}
