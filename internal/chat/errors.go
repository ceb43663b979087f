// ABOUTME: Sentinel errors for the chat service layer
// ABOUTME: Handlers map these to HTTP status codes without inspecting internals

package chat

import "errors"

// ErrValidation is returned when a request is malformed before any
// persistence or provider work happens.
var ErrValidation = errors.New("invalid request")

// ErrUnauthorized is returned when the caller does not own the
// conversation they are trying to read or write.
var ErrUnauthorized = errors.New("unauthorized")
