package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"palm-rag/internal/apperr"
	"palm-rag/internal/models"
	"palm-rag/internal/rag_service/rag/interfaces"
	"palm-rag/pkg/logger"

	"github.com/google/uuid"
)

// DefaultMaxHistoryTurns is the number of history turns read per request when none is configured.
const DefaultMaxHistoryTurns = 10

// Response is the result of one chat turn.
type Response struct {
	SessionID string   `json:"session_id"`
	Answer    string   `json:"answer"`
	ChunkIDs  []string `json:"chunk_ids"`
	Sources   []string `json:"sources"`
	Degraded  bool     `json:"degraded"`
}

// OrchestratorConfig holds the limits applied to every chat turn.
type OrchestratorConfig struct {
	MaxContextLength int
	MaxHistoryTurns  int
}

// Orchestrator answers chat queries from retrieved chunks and session history.
type Orchestrator struct {
	retrieval *RetrievalPipeline
	sessions  interfaces.SessionSelector
	cfg       OrchestratorConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(retrieval *RetrievalPipeline, sessions interfaces.SessionSelector, cfg OrchestratorConfig, log *logger.Logger) *Orchestrator {
	if cfg.MaxContextLength <= 0 {
		cfg.MaxContextLength = DefaultMaxContextLength
	}
	if cfg.MaxHistoryTurns < 0 {
		cfg.MaxHistoryTurns = DefaultMaxHistoryTurns
	}
	return &Orchestrator{
		retrieval: retrieval,
		sessions:  sessions,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Respond runs one chat turn. Retrieval and session failures do not fail the
// request; they are logged and the response is marked degraded. A blank query
// is an apperr.ErrValidation.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, query string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty: %w", apperr.ErrValidation)
	}
	if strings.TrimSpace(sessionID) == "" {
		sessionID = uuid.NewString()
	}
	log := o.log.WithPayload(map[string]interface{}{"session_id": sessionID})
	resp := &Response{SessionID: sessionID, ChunkIDs: []string{}, Sources: []string{}}

	// 1. One backend for the whole request
	store := o.sessions.Select(ctx)

	// 2. Recent history
	var history []models.Turn
	if o.cfg.MaxHistoryTurns > 0 {
		h, err := store.History(ctx, sessionID, o.cfg.MaxHistoryTurns)
		if err != nil {
			log.Warn(fmt.Sprintf("failed to read session history: %v", err))
			resp.Degraded = true
		} else {
			history = h
		}
	}

	// 3. Retrieval
	hits, err := o.retrieval.Run(ctx, query, nil)
	if err != nil {
		log.Warn(fmt.Sprintf("retrieval failed, answering without documents: %v", err))
		resp.Degraded = true
		hits = nil
	}

	// 4. Context and answer
	c := BuildContext(history, hits, o.cfg.MaxContextLength)
	resp.Answer = ComposeAnswer(c)
	resp.ChunkIDs = c.ChunkIDs()
	if sources := c.Sources(); sources != nil {
		resp.Sources = sources
	}

	// 5. Remember the exchange
	now := o.now()
	for _, t := range []models.Turn{
		{Role: models.RoleUser, Content: query, Timestamp: now},
		{Role: models.RoleAssistant, Content: resp.Answer, Timestamp: now},
	} {
		if err := store.Append(ctx, sessionID, t); err != nil {
			log.Warn(fmt.Sprintf("failed to append %s turn: %v", t.Role, err))
			resp.Degraded = true
			break
		}
	}

	log.WithPayload(map[string]interface{}{
		"session_id": sessionID,
		"hits":       len(hits),
		"cited":      len(resp.ChunkIDs),
		"history":    len(c.History),
		"degraded":   resp.Degraded,
	}).Info("chat turn answered")
	return resp, nil
}
