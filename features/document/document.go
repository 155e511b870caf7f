package document

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/madhusudhankonda/ifi-chatbot/internal/config"
	"github.com/madhusudhankonda/ifi-chatbot/internal/middleware"
	"github.com/madhusudhankonda/ifi-chatbot/internal/vector"
)

// Ingestion lifecycle. A document becomes searchable only once it
// reaches StatusCompleted; failures are terminal and keep their error
// message for the operator.
const (
	StatusUploading  = "uploading"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var (
	ErrValidation = errors.New("document: validation failed")
	ErrExtraction = errors.New("document: no extractable text")
	ErrNotFound   = errors.New("document: not found")
)

type Document struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	UploadedBy   string    `json:"uploadedBy,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ChunkCount   int       `json:"chunkCount"`
}

type Repository interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id int64) (*Document, error)
	List(ctx context.Context) ([]Document, error)
	UpdateStatus(ctx context.Context, id int64, status, errorMessage string, chunkCount int) error
	Delete(ctx context.Context, id int64) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo       Repository
	pub        EventPublisher
	chunkStore vector.ChunkStore
}

func NewService(repo Repository, pub EventPublisher, chunkStore vector.ChunkStore) *Service {
	return &Service{repo: repo, pub: pub, chunkStore: chunkStore}
}

// Upload records the stored file and queues it for ingestion. The
// document is visible immediately with status uploading; the worker
// drives it through the rest of the lifecycle.
func (s *Service) Upload(ctx context.Context, doc *Document) (*Document, error) {
	doc.Status = StatusUploading
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"document_id":    doc.ID,
		"path":           doc.Filename,
		"original_name":  doc.OriginalName,
		"mime_type":      doc.MimeType,
		"correlation_id": middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicIngestDocument, payload); err != nil {
		// The row stays in uploading; the operator can delete and retry.
		slog.Error("failed to publish ingest event", "error", err, "document_id", doc.ID)
		if updErr := s.repo.UpdateStatus(ctx, doc.ID, StatusFailed, "failed to queue ingestion", 0); updErr != nil {
			slog.Error("failed to mark document failed", "error", updErr, "document_id", doc.ID)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "document queued for ingestion", "document_id", doc.ID, "name", doc.OriginalName)
	return doc, nil
}

func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Document, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes the document row and its chunks. Chunks go first so a
// partial failure never leaves orphaned vectors behind a deleted row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.chunkStore.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
