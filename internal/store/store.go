// ABOUTME: Store interface and data types for chat-gateway persistence
// ABOUTME: Defines User, Conversation, Message structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist,
// or when an ownership-checked operation matched no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when creating a user whose email is already taken
var ErrDuplicateUser = errors.New("user already exists")

// Role identifies who authored a message. The set is closed: every message
// is either a user prompt or an assistant reply.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two allowed roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// User is an identity record provisioned on first successful authentication.
// The chat core never mutates or deletes users.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Conversation belongs to exactly one user. UpdatedAt is bumped whenever a
// message exchange completes, so listing by UpdatedAt DESC yields recency order.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationSummary is a conversation annotated with its most recent
// message, for list views. LastMessage and LastModel are nil when the
// conversation has no messages yet.
type ConversationSummary struct {
	Conversation
	LastMessage *string
	LastModel   *string
}

// Message is one turn in a conversation. The ledger is append-only: messages
// are never updated, and are removed only by conversation cascade delete.
// ModelLabel is the caller-facing label exactly as submitted, not the
// normalized provider model id.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	ProviderKind   string
	ModelLabel     string
	CreatedAt      time.Time
}

// Store defines the interface for user, conversation, and message persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Conversations
	CreateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error)

	// RenameConversation and DeleteConversation check existence and ownership
	// with a single predicate; a row owned by another user yields ErrNotFound
	// exactly like an absent row, leaking nothing.
	RenameConversation(ctx context.Context, id, userID, title string) (*Conversation, error)
	DeleteConversation(ctx context.Context, id, userID string) error

	// TouchConversation sets updated_at to now. Called after a completed
	// message exchange.
	TouchConversation(ctx context.Context, id string) error

	// Messages
	SaveMessage(ctx context.Context, msg *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*Message, error)

	// Close releases any resources held by the store
	Close() error
}
