// Package chat is the dispatch orchestrator between the HTTP surface,
// the provider registry, and the store.
//
// # Overview
//
// Every message exchange follows one path: validate, resolve the
// conversation, record the user turn, invoke the provider, record the
// reply, bump the conversation's recency. The user turn is written before
// the provider call, so every attempt leaves a durable record even when
// the backend fails. There is no rollback; a trailing user turn with no
// reply is the honest trace of a failed dispatch.
//
// # Concurrency
//
// Sends to the same conversation serialize on a per-conversation mutex,
// so two concurrent dispatches cannot interleave their turn pairs.
// Different conversations never contend.
//
// # Ownership
//
// Reads check ownership after lookup: a conversation owned by someone
// else yields ErrUnauthorized. Rename and delete instead push the owner
// check into the store's single-statement predicate, where a foreign
// conversation is indistinguishable from an absent one (ErrNotFound).
package chat
