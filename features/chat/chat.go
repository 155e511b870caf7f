package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/madhusudhankonda/ifi-chatbot/internal/provider"
	"github.com/madhusudhankonda/ifi-chatbot/internal/retrieval"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const systemPromptTemplate = `You are an AI assistant for International Financial Institutions (IFI). You help users find information from uploaded documents.

Context from relevant documents:
%s

Instructions:
- Use the provided context to answer the user's question
- Cite the numbered context blocks that support your answer
- If the context doesn't contain relevant information, say so clearly
- Provide accurate, helpful responses based on the document content
- Format your responses clearly with proper structure
- If asked about specific documents, reference them by name
- Be professional and concise`

const noContextPlaceholder = "(no relevant documents found)"

type Message struct {
	ID        string               `json:"id"`
	SessionID string               `json:"sessionId"`
	Role      string               `json:"role"`
	Content   string               `json:"content"`
	Citations []retrieval.Citation `json:"citations"`
	CreatedAt time.Time            `json:"createdAt"`
}

type Repository interface {
	EnsureSession(ctx context.Context, sessionID, userID string) error
	SaveMessage(ctx context.Context, sessionID, role, content string, citations []retrieval.Citation) error
	History(ctx context.Context, sessionID string) ([]Message, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string) (*retrieval.Result, error)
}

// Sink receives the framed response: the citation envelope first, then
// answer fragments as they arrive from the model.
type Sink interface {
	WriteCitations(citations any) error
	WriteFragment(fragment string) error
}

type Service struct {
	repo      Repository
	retriever Retriever
	generator provider.Generator
}

func NewService(repo Repository, retriever Retriever, generator provider.Generator) *Service {
	return &Service{repo: repo, retriever: retriever, generator: generator}
}

// Answer runs one chat turn: retrieve context, persist the user message,
// stream the model's answer through the sink, then persist the complete
// assistant message with its citations. A stream that dies partway
// through persists nothing for the assistant; the partial answer the
// client saw is treated as undelivered.
func (s *Service) Answer(ctx context.Context, sessionID, userID, message string, sink Sink) error {
	res, err := s.retriever.Retrieve(ctx, message)
	if err != nil {
		return fmt.Errorf("retrieve context: %w", err)
	}

	if sessionID != "" {
		if err := s.repo.EnsureSession(ctx, sessionID, userID); err != nil {
			return fmt.Errorf("ensure session: %w", err)
		}
		if err := s.repo.SaveMessage(ctx, sessionID, RoleUser, message, nil); err != nil {
			return fmt.Errorf("save user message: %w", err)
		}
	}

	contextBlock := res.Context
	if contextBlock == "" {
		contextBlock = noContextPlaceholder
	}

	messages := []provider.Message{
		{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, contextBlock)},
		{Role: RoleUser, Content: message},
	}

	if err := sink.WriteCitations(res.Citations); err != nil {
		return fmt.Errorf("write citations: %w", err)
	}

	var answer strings.Builder
	err = s.generator.Stream(ctx, messages, func(delta string) error {
		answer.WriteString(delta)
		return sink.WriteFragment(delta)
	})
	if err != nil {
		return fmt.Errorf("stream completion: %w", err)
	}

	if sessionID != "" && answer.Len() > 0 {
		if err := s.repo.SaveMessage(ctx, sessionID, RoleAssistant, answer.String(), res.Citations); err != nil {
			// The answer already reached the client; losing history is
			// not worth failing the response over.
			slog.ErrorContext(ctx, "failed to save assistant message", "error", err, "session_id", sessionID)
		}
	}

	return nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]Message, error) {
	return s.repo.History(ctx, sessionID)
}
