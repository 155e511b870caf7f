package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/madhusudhankonda/ifi-chatbot/internal/vector"
)

// CompletedLister supplies the ids of documents that finished ingestion.
// Search results are restricted to that set.
type CompletedLister interface {
	CompletedDocumentIDs(ctx context.Context) ([]int64, error)
}

// Store keeps chunk vectors in a Weaviate class. Weaviate has no
// transactions, so batch-insert failures are compensated by deleting
// whatever landed for the document before the error.
type Store struct {
	client    *weaviate.Client
	completed CompletedLister
}

func NewStore(client *weaviate.Client, completed CompletedLister) *Store {
	return &Store{client: client, completed: completed}
}

func (s *Store) InsertChunks(ctx context.Context, documentID int64, chunks []vector.ChunkInsert) error {
	for _, c := range chunks {
		props := map[string]interface{}{
			"content":    c.Content,
			"documentId": documentID,
		}
		if idx, ok := c.Metadata[vector.MetadataChunkIndex]; ok {
			props["chunkIndex"] = idx
		}
		if fn, ok := c.Metadata["filename"].(string); ok {
			props["filename"] = fn
		}

		_, err := s.client.Data().Creator().
			WithClassName(vector.ClassName).
			WithProperties(props).
			WithVector(c.Embedding).
			Do(ctx)
		if err != nil {
			// Roll back the partial batch so the document never becomes
			// searchable with a subset of its chunks.
			if delErr := s.DeleteByDocument(ctx, documentID); delErr != nil {
				return fmt.Errorf("%w: insert failed (%v) and cleanup failed: %v", vector.ErrStorage, err, delErr)
			}
			return fmt.Errorf("%w: insert chunk: %v", vector.ErrStorage, err)
		}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]vector.SearchResult, error) {
	if k < 1 {
		k = 1
	}

	ids, err := s.completed.CompletedDocumentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list completed documents: %v", vector.ErrStorage, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(embedding)

	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.ContainsAny).
		WithValueInt(ids...)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "documentId"},
		{Name: "chunkIndex"},
		{Name: "filename"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithWhere(where).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", vector.ErrStorage, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: graphql: %v", vector.ErrStorage, res.Errors)
	}

	var results []vector.SearchResult
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	raw, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return results, nil
	}

	for _, item := range raw {
		props, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		r := vector.SearchResult{Metadata: make(map[string]any)}
		if content, ok := props["content"].(string); ok {
			r.Content = content
		}
		if docID, ok := props["documentId"].(float64); ok {
			r.DocumentID = int64(docID)
		}
		if filename, ok := props["filename"].(string); ok {
			r.Filename = filename
			r.Metadata["filename"] = filename
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			r.Metadata[vector.MetadataChunkIndex] = int(idx)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				r.Similarity = 1 - distance
			}
		}

		results = append(results, r)
	}

	return results, nil
}

func (s *Store) DeleteByDocument(ctx context.Context, documentID int64) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueInt(documentID)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete chunks: %v", vector.ErrStorage, err)
	}
	return nil
}
