package chat_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/madhusudhankonda/ifi-chatbot/features/chat"
	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
	"github.com/madhusudhankonda/ifi-chatbot/internal/retrieval"
	"github.com/madhusudhankonda/ifi-chatbot/internal/stream"
)

func newChatHandler(repo *MockRepo, ret *MockRetriever, gen *MockGenerator) *chat.Handler {
	return chat.NewHandler(chat.NewService(repo, ret, gen))
}

func TestHandler_Answer_StreamsEnvelopeThenTokens(t *testing.T) {
	repo := new(MockRepo)
	ret := new(MockRetriever)
	gen := new(MockGenerator)

	citations := []retrieval.Citation{{ID: 1, Filename: "a.pdf", Content: "x", Similarity: 0.8}}
	ret.On("Retrieve", mock.Anything, "hi").Return(&retrieval.Result{Context: "[1] x", Citations: citations}, nil)
	gen.On("Stream", mock.Anything, mock.Anything, mock.Anything).Run(streamDeltas("Hel", "lo")).Return(nil)

	h := newChatHandler(repo, ret, gen)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	h.Answer(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, stream.CitationsMarker))

	parsed, answer := stream.Demux(body)
	assert.Equal(t, citations, parsed)
	assert.Equal(t, "Hello", answer)
	assert.True(t, rec.Flushed)
}

func TestHandler_Answer_MissingMessage(t *testing.T) {
	h := newChatHandler(new(MockRepo), new(MockRetriever), new(MockGenerator))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"sessionId":"`+sessionID+`"}`))
	rec := httptest.NewRecorder()
	h.Answer(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandler_Answer_InvalidSessionID(t *testing.T) {
	h := newChatHandler(new(MockRepo), new(MockRetriever), new(MockGenerator))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi","sessionId":"not-a-uuid"}`))
	rec := httptest.NewRecorder()
	h.Answer(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Answer_RetrievalFailureIsJSONError(t *testing.T) {
	repo := new(MockRepo)
	ret := new(MockRetriever)
	gen := new(MockGenerator)

	ret.On("Retrieve", mock.Anything, "hi").Return(nil, provider.ErrUnavailable)

	h := newChatHandler(repo, ret, gen)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	h.Answer(rec, req)

	// No stream bytes were written, so the client gets a real error.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), stream.CitationsMarker)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestHandler_Answer_MidStreamFailureLeavesPartialBody(t *testing.T) {
	repo := new(MockRepo)
	ret := new(MockRetriever)
	gen := new(MockGenerator)

	ret.On("Retrieve", mock.Anything, "hi").Return(&retrieval.Result{Citations: []retrieval.Citation{}}, nil)
	gen.On("Stream", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		onDelta := args.Get(2).(func(string) error)
		_ = onDelta("part")
	}).Return(provider.ErrUnavailable)

	h := newChatHandler(repo, ret, gen)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	h.Answer(rec, req)

	// The envelope went out before the failure; no JSON error body may
	// be appended to the stream.
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, stream.CitationsMarker))
	assert.True(t, strings.HasSuffix(body, "part"))
	assert.NotContains(t, body, "INTERNAL_ERROR")
}

func TestHandler_History(t *testing.T) {
	repo := new(MockRepo)
	repo.On("History", mock.Anything, sessionID).Return([]chat.Message{
		{ID: "m1", SessionID: sessionID, Role: chat.RoleUser, Content: "q", Citations: []retrieval.Citation{}},
	}, nil)

	h := newChatHandler(repo, new(MockRetriever), new(MockGenerator))

	req := httptest.NewRequest(http.MethodGet, "/chat/history/"+sessionID, nil)
	req.SetPathValue("sessionId", sessionID)
	rec := httptest.NewRecorder()
	h.History(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestHandler_History_InvalidSessionID(t *testing.T) {
	h := newChatHandler(new(MockRepo), new(MockRetriever), new(MockGenerator))

	req := httptest.NewRequest(http.MethodGet, "/chat/history/nope", nil)
	req.SetPathValue("sessionId", "nope")
	rec := httptest.NewRecorder()
	h.History(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
