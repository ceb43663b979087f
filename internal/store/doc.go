// Package store provides persistent storage for chat-gateway.
//
// # Overview
//
// The store owns the three relational tables behind the chat core:
//
//   - users: identity records provisioned on first login
//   - conversations: one owner per conversation, recency-ordered by updated_at
//   - messages: append-only ledger of user/assistant turns
//
// Deleting a conversation cascades to its messages; deleting a user cascades
// to their conversations.
//
// # Store Interface
//
// All access goes through the Store interface so services can be tested
// against fakes. The production implementation is SQLiteStore:
//
//	s, err := store.NewSQLiteStore("/var/lib/chat-gateway/chat.db")
//
// The schema is created automatically on open. Timestamps are stored as
// fixed-width UTC text so they sort chronologically.
//
// # Ownership
//
// RenameConversation and DeleteConversation take the acting user's id and
// check "row exists AND owner matches" in a single SQL predicate. A miss on
// either condition is ErrNotFound; callers cannot distinguish someone else's
// conversation from a nonexistent one at this layer.
package store
