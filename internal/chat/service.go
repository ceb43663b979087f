// ABOUTME: Service is the central layer for chat dispatch and persistence
// ABOUTME: All messages flow through here - history is the source of truth, not a side effect

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gptstir/chat-gateway/internal/provider"
	"github.com/gptstir/chat-gateway/internal/store"
)

// ErrNotFound is the store sentinel, re-exported so callers of the chat
// layer do not import store just to match it.
var ErrNotFound = store.ErrNotFound

// defaultTitle is given to conversations created implicitly by Send.
const defaultTitle = "New Chat"

// ChatStore defines what the service needs from storage
type ChatStore interface {
	CreateConversation(ctx context.Context, conv *store.Conversation) error
	GetConversation(ctx context.Context, id string) (*store.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*store.ConversationSummary, error)
	RenameConversation(ctx context.Context, id, userID, title string) (*store.Conversation, error)
	DeleteConversation(ctx context.Context, id, userID string) error
	TouchConversation(ctx context.Context, id string) error

	SaveMessage(ctx context.Context, msg *store.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*store.Message, error)
}

// Service coordinates conversation resolution, message persistence, and
// provider dispatch. Sends to the same conversation serialize on a keyed
// mutex so interleaved turn pairs cannot occur.
type Service struct {
	store     ChatStore
	providers *provider.Registry
	locks     *keyedMutex
	logger    *slog.Logger
}

// New creates a new chat Service
func New(st ChatStore, providers *provider.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		providers: providers,
		locks:     newKeyedMutex(),
		logger:    logger.With("component", "chat"),
	}
}

// SendRequest contains everything needed to dispatch one message.
type SendRequest struct {
	// ConversationID is optional; when empty a new conversation is created.
	ConversationID string

	// Provider routing (required)
	Kind       provider.Kind
	ModelLabel string

	// Message content
	Prompt string
}

// SendResult contains the outcome of a dispatched message.
type SendResult struct {
	ConversationID string
	MessageID      string // ID of the saved assistant reply
	Reply          string
}

// Send records the user message, invokes the provider, and records the reply.
//
// Key principle: record first, then act. The user turn is saved BEFORE the
// provider is called, so a record exists even if the provider fails. A failed
// dispatch therefore leaves a conversation whose last message is a user turn
// with no reply; that is deliberate and visible in history.
func (s *Service) Send(ctx context.Context, userID string, req *SendRequest) (*SendResult, error) {
	if err := s.validateSend(req); err != nil {
		return nil, err
	}

	inv, ok := s.providers.Invoker(req.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: provider %q is not configured", ErrValidation, req.Kind)
	}

	// 1. Resolve or create the conversation
	conv, err := s.ensureConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}

	// 2. Serialize concurrent sends to this conversation
	unlock := s.locks.Lock(conv.ID)
	defer unlock()

	// 3. Record the user turn FIRST, with the label exactly as submitted
	userMsg := &store.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           store.RoleUser,
		Content:        req.Prompt,
		ProviderKind:   string(req.Kind),
		ModelLabel:     req.ModelLabel,
		CreatedAt:      time.Now(),
	}
	if err := s.store.SaveMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to record message: %w", err)
	}

	s.logger.Debug("user message recorded",
		"conversation_id", conv.ID,
		"message_id", userMsg.ID,
		"provider", req.Kind)

	// 4. Normalize the label and invoke the provider
	modelID := provider.Normalize(req.ModelLabel, req.Kind)
	reply, err := inv.Invoke(ctx, modelID, req.Prompt)
	if err != nil {
		// User turn is recorded, but the provider failed. No rollback.
		return nil, fmt.Errorf("provider dispatch failed: %w", err)
	}

	// 5. Record the assistant turn and bump recency
	assistantMsg := &store.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		Role:           store.RoleAssistant,
		Content:        reply,
		ProviderKind:   string(req.Kind),
		ModelLabel:     req.ModelLabel,
		CreatedAt:      time.Now(),
	}
	if err := s.store.SaveMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to record reply: %w", err)
	}
	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		s.logger.Error("failed to touch conversation",
			"error", err,
			"conversation_id", conv.ID)
	}

	s.logger.Debug("reply recorded",
		"conversation_id", conv.ID,
		"message_id", assistantMsg.ID,
		"model_id", modelID)

	return &SendResult{
		ConversationID: conv.ID,
		MessageID:      assistantMsg.ID,
		Reply:          reply,
	}, nil
}

// CreateConversation creates an empty conversation owned by userID.
// An empty title falls back to the default.
func (s *Service) CreateConversation(ctx context.Context, userID, title string) (*store.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}
	now := time.Now()
	conv := &store.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	s.logger.Debug("conversation created", "conversation_id", conv.ID, "user_id", userID)
	return conv, nil
}

// History returns the messages of a conversation in chronological order.
// The caller must own the conversation.
func (s *Service) History(ctx context.Context, userID, conversationID string) ([]*store.Message, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrUnauthorized
	}
	return s.store.ListMessages(ctx, conversationID)
}

// ListConversations returns the caller's conversations, most recently
// updated first, each with its last-message preview.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]*store.ConversationSummary, error) {
	return s.store.ListConversations(ctx, userID)
}

// Rename retitles a conversation the caller owns. A conversation owned by
// someone else is indistinguishable from an absent one: both yield ErrNotFound.
func (s *Service) Rename(ctx context.Context, userID, conversationID, title string) (*store.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	return s.store.RenameConversation(ctx, conversationID, userID, title)
}

// Delete removes a conversation the caller owns, cascading to its messages.
func (s *Service) Delete(ctx context.Context, userID, conversationID string) error {
	return s.store.DeleteConversation(ctx, conversationID, userID)
}

func (s *Service) validateSend(req *SendRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	if strings.TrimSpace(req.ModelLabel) == "" {
		return fmt.Errorf("%w: model is required", ErrValidation)
	}
	if _, ok := provider.ParseKind(string(req.Kind)); !ok {
		return fmt.Errorf("%w: unknown provider %q", ErrValidation, req.Kind)
	}
	return nil
}

// ensureConversation resolves an existing conversation or creates a new one.
// An existing conversation owned by another user yields ErrUnauthorized
// before any message is written.
func (s *Service) ensureConversation(ctx context.Context, userID, conversationID string) (*store.Conversation, error) {
	if conversationID == "" {
		return s.CreateConversation(ctx, userID, defaultTitle)
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrUnauthorized
	}
	return conv, nil
}
