// ABOUTME: HTTP API handlers for the conversation endpoints.
// ABOUTME: Message posting, conversation read, conversation end, and health.

package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/voyager-gateway/internal/capability"
	"github.com/2389/voyager-gateway/internal/session"
)

// Engine is the orchestration surface the HTTP layer consumes.
type Engine interface {
	ProcessMessage(ctx context.Context, conversationID, text string) *capability.Response
	GetConversation(ctx context.Context, conversationID string) (*session.Session, bool)
	EndConversation(ctx context.Context, conversationID string)
}

// PostMessageRequest is the JSON request body for posting a message.
type PostMessageRequest struct {
	Content string `json:"content"`
}

// TurnResponse is the JSON response for a processed message.
type TurnResponse struct {
	ConversationID string         `json:"conversation_id"`
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	Data           map[string]any `json:"data,omitempty"`
	Suggestions    []string       `json:"suggestions,omitempty"`
}

// MessageDTO is one transcript entry in a conversation response.
type MessageDTO struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}

// ConversationResponse is the JSON response for a conversation read.
type ConversationResponse struct {
	ID           string         `json:"id"`
	Messages     []MessageDTO   `json:"messages"`
	Memory       map[string]any `json:"memory,omitempty"`
	Preferences  map[string]any `json:"preferences,omitempty"`
	LastIntent   string         `json:"last_intent,omitempty"`
	CreatedAt    string         `json:"created_at"`
	LastActiveAt string         `json:"last_active_at"`
}

// Server exposes the conversation API over HTTP.
type Server struct {
	engine   Engine
	verifier TokenVerifier // nil disables auth
	logger   *slog.Logger
}

// NewServer creates the HTTP API server. A nil verifier disables bearer auth.
func NewServer(engine Engine, verifier TokenVerifier, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:   engine,
		verifier: verifier,
		logger:   logger.With("component", "httpapi"),
	}
}

// Handler returns the routed handler for the API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/conversations/{id}/messages", s.requireBearer(s.handlePostMessage))
	mux.HandleFunc("GET /api/conversations/{id}", s.requireBearer(s.handleGetConversation))
	mux.HandleFunc("DELETE /api/conversations/{id}", s.requireBearer(s.handleEndConversation))
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// handlePostMessage runs one conversation turn.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.sendJSONError(w, http.StatusBadRequest, "content is required")
		return
	}

	resp := s.engine.ProcessMessage(r.Context(), conversationID, req.Content)

	s.sendJSON(w, http.StatusOK, TurnResponse{
		ConversationID: conversationID,
		Success:        resp.Success,
		Message:        resp.Message,
		Data:           resp.Data,
		Suggestions:    resp.Suggestions,
	})
}

// handleGetConversation returns a live conversation's transcript and context.
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")

	sess, ok := s.engine.GetConversation(r.Context(), conversationID)
	if !ok {
		s.sendJSONError(w, http.StatusNotFound, "conversation not found")
		return
	}

	messages := make([]MessageDTO, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		messages = append(messages, MessageDTO{
			ID:        m.ID,
			Content:   m.Content,
			Role:      m.Role,
			Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}

	s.sendJSON(w, http.StatusOK, ConversationResponse{
		ID:           sess.ID,
		Messages:     messages,
		Memory:       sess.Context.Memory,
		Preferences:  sess.Context.Preferences,
		LastIntent:   sess.Context.LastIntent,
		CreatedAt:    sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		LastActiveAt: sess.LastActiveAt.UTC().Format(time.RFC3339Nano),
	})
}

// handleEndConversation destroys a conversation.
func (s *Server) handleEndConversation(w http.ResponseWriter, r *http.Request) {
	s.engine.EndConversation(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports liveness. Unauthenticated.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sendJSON writes a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}
