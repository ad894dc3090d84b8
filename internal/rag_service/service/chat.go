package service

import (
	"context"
	"fmt"
	"strings"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/internal/rag_service/rag/pipeline"
)

// ChatService answers chat queries and manages session history.
type ChatService struct {
	orchestrator *pipeline.Orchestrator
	sessions     interfaces.SessionSelector
}

// NewChatService creates a ChatService.
func NewChatService(orchestrator *pipeline.Orchestrator, sessions interfaces.SessionSelector) *ChatService {
	return &ChatService{orchestrator: orchestrator, sessions: sessions}
}

// Chat runs one turn of the session. An empty session id starts a new session.
func (s *ChatService) Chat(ctx context.Context, sessionID, query string) (*pipeline.Response, error) {
	return s.orchestrator.Respond(ctx, sessionID, query)
}

// History returns the full history of a session, oldest first.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session_id is required: %w", apperr.ErrValidation)
	}
	turns, err := s.sessions.Select(ctx).History(ctx, sessionID, 0)
	if err != nil {
		return nil, err
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	return turns, nil
}

// Clear deletes a session and reports whether it existed.
func (s *ChatService) Clear(ctx context.Context, sessionID string) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("session_id is required: %w", apperr.ErrValidation)
	}
	return s.sessions.Select(ctx).Clear(ctx, sessionID)
}
