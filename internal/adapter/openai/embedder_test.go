package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
)

func mockOpenAI(t *testing.T, handler http.HandlerFunc) (*httptest.Server, string) {
	ts := httptest.NewServer(handler)
	return ts, ts.URL + "/v1"
}

func TestNewEmbedder_RejectsMissingKey(t *testing.T) {
	_, err := NewEmbedder("", "", "text-embedding-3-large", 1536)
	assert.ErrorIs(t, err, provider.ErrUnavailable)

	_, err = NewEmbedder("not-a-key", "", "text-embedding-3-large", 1536)
	assert.ErrorIs(t, err, provider.ErrUnavailable)
}

func TestNewEmbedder_RejectsBadDimensions(t *testing.T) {
	_, err := NewEmbedder("sk-test", "", "text-embedding-3-large", 0)
	assert.ErrorIs(t, err, provider.ErrResponse)
}

func TestEmbedder_Embed(t *testing.T) {
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(i) / 10
	}

	ts, baseURL := mockOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(4), req["dimensions"])
		assert.Equal(t, "text-embedding-3-large", req["model"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": vec, "index": 0, "object": "embedding"},
			},
		})
	})
	defer ts.Close()

	e, err := NewEmbedder("sk-test", baseURL, "text-embedding-3-large", 4)
	require.NoError(t, err)

	got, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, vec, got)
}

func TestEmbedder_Embed_WrongDimensionsRejected(t *testing.T) {
	ts, baseURL := mockOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2}, "index": 0, "object": "embedding"},
			},
		})
	})
	defer ts.Close()

	e, err := NewEmbedder("sk-test", baseURL, "text-embedding-3-large", 4)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, provider.ErrResponse)
}

func TestEmbedder_Embed_BadRequestIsMalformed(t *testing.T) {
	ts, baseURL := mockOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"input too long","type":"invalid_request_error"}}`))
	})
	defer ts.Close()

	e, err := NewEmbedder("sk-test", baseURL, "text-embedding-3-large", 4)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, provider.ErrResponse)
}

func TestEmbedder_Embed_ServerErrorIsUnavailable(t *testing.T) {
	ts, baseURL := mockOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	})
	defer ts.Close()

	e, err := NewEmbedder("sk-test", baseURL, "text-embedding-3-large", 4)
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, provider.ErrUnavailable)
}
