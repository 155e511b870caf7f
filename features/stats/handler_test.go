package stats_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/madhusudhankonda/ifi-chatbot/features/stats"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) DocumentCountsByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockRepo) ChunkCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepo) SessionCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRepo) MessageCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestHandler_GetStats(t *testing.T) {
	repo := new(MockRepo)
	repo.On("DocumentCountsByStatus", mock.Anything).Return(map[string]int{"completed": 3, "failed": 1}, nil)
	repo.On("ChunkCount", mock.Anything).Return(120, nil)
	repo.On("SessionCount", mock.Anything).Return(5, nil)
	repo.On("MessageCount", mock.Anything).Return(18, nil)

	h := stats.NewHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data stats.StatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Documents["completed"])
	assert.Equal(t, 120, resp.Data.Chunks)
	assert.Equal(t, 5, resp.Data.Sessions)
	assert.Equal(t, 18, resp.Data.Messages)
}

func TestHandler_GetStats_RepoFailure(t *testing.T) {
	repo := new(MockRepo)
	repo.On("DocumentCountsByStatus", mock.Anything).Return(nil, errors.New("db down"))

	h := stats.NewHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}
