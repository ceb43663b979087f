// ABOUTME: HTTP API handlers for chat dispatch and conversation management
// ABOUTME: Maps chat service errors onto JSON responses and status codes

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gptstir/chat-gateway/internal/auth"
	"github.com/gptstir/chat-gateway/internal/chat"
	"github.com/gptstir/chat-gateway/internal/provider"
	"github.com/gptstir/chat-gateway/internal/store"
)

// maxBodySize caps request bodies on the JSON endpoints.
const maxBodySize = 1 << 20 // 1 MiB

// SendRequest is the JSON request body for POST /api/chat.
type SendRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
}

// SendResponse is the JSON response for POST /api/chat.
type SendResponse struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Reply          string `json:"reply"`
}

// CreateConversationRequest is the JSON request body for POST /api/chat/conversation.
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"`
}

// RenameConversationRequest is the JSON request body for PUT /api/chat/conversation/{id}.
type RenameConversationRequest struct {
	Title string `json:"title"`
}

// ConversationResponse is the JSON shape for a conversation.
type ConversationResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	LastMessage *string `json:"last_message,omitempty"`
	LastModel   *string `json:"last_model,omitempty"`
}

// MessageResponse is the JSON shape for one message in a history listing.
type MessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
}

// handleSend handles POST /api/chat requests.
func (g *Gateway) handleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := auth.MustUserFromContext(r.Context())

	var req SendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := g.chat.Send(r.Context(), user.ID, &chat.SendRequest{
		ConversationID: req.ConversationID,
		Kind:           provider.Kind(req.Provider),
		ModelLabel:     req.Model,
		Prompt:         req.Prompt,
	})
	if err != nil {
		g.respondError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, SendResponse{
		ConversationID: result.ConversationID,
		MessageID:      result.MessageID,
		Reply:          result.Reply,
	})
}

// handleCreateConversation handles POST /api/chat/conversation requests.
func (g *Gateway) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := auth.MustUserFromContext(r.Context())

	var req CreateConversationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conv, err := g.chat.CreateConversation(r.Context(), user.ID, req.Title)
	if err != nil {
		g.respondError(w, err)
		return
	}

	g.writeJSON(w, http.StatusCreated, conversationToResponse(conv))
}

// handleListConversations handles GET /api/chat/conversations requests.
func (g *Gateway) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := auth.MustUserFromContext(r.Context())

	summaries, err := g.chat.ListConversations(r.Context(), user.ID)
	if err != nil {
		g.respondError(w, err)
		return
	}

	response := make([]ConversationResponse, 0, len(summaries))
	for _, s := range summaries {
		cr := conversationToResponse(&s.Conversation)
		cr.LastMessage = s.LastMessage
		cr.LastModel = s.LastModel
		response = append(response, cr)
	}

	g.writeJSON(w, http.StatusOK, response)
}

// handleConversationRoutes dispatches /api/chat/conversation/{id} by method:
// GET returns history, PUT renames, DELETE removes.
func (g *Gateway) handleConversationRoutes(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/chat/conversation/")
	if id == "" || strings.Contains(id, "/") {
		g.sendJSONError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		g.handleHistory(w, r, id)
	case http.MethodPut:
		g.handleRename(w, r, id)
	case http.MethodDelete:
		g.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) handleHistory(w http.ResponseWriter, r *http.Request, id string) {
	user := auth.MustUserFromContext(r.Context())

	msgs, err := g.chat.History(r.Context(), user.ID, id)
	if err != nil {
		g.respondError(w, err)
		return
	}

	response := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		response = append(response, MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Provider:  m.ProviderKind,
			Model:     m.ModelLabel,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	g.writeJSON(w, http.StatusOK, response)
}

func (g *Gateway) handleRename(w http.ResponseWriter, r *http.Request, id string) {
	user := auth.MustUserFromContext(r.Context())

	var req RenameConversationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	conv, err := g.chat.Rename(r.Context(), user.ID, id, req.Title)
	if err != nil {
		g.respondError(w, err)
		return
	}

	g.writeJSON(w, http.StatusOK, conversationToResponse(conv))
}

func (g *Gateway) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	user := auth.MustUserFromContext(r.Context())

	if err := g.chat.Delete(r.Context(), user.ID, id); err != nil {
		g.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondError maps a chat service error onto an HTTP status. Validation
// details are safe to return; everything unexpected becomes a generic 500
// with the detail kept in the logs.
func (g *Gateway) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrUnauthorized):
		g.sendJSONError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		g.sendJSONError(w, http.StatusNotFound, "not found")
	default:
		g.logger.Error("request failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func conversationToResponse(conv *store.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: conv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
