// ABOUTME: Provider kinds, the Invoker contract, and the provider error type
// ABOUTME: Each supported LLM backend implements Invoker behind a closed Kind tag

package provider

import (
	"context"
	"fmt"
)

// Kind identifies one of the supported text-generation backends.
// The set is closed; adding a provider means adding a Kind and an Invoker,
// not editing dispatch code.
type Kind string

const (
	KindOpenAI   Kind = "openai"
	KindClaude   Kind = "claude"
	KindDeepseek Kind = "deepseek"
	KindGrok     Kind = "grok"
)

// Kinds returns all supported provider kinds.
func Kinds() []Kind {
	return []Kind{KindOpenAI, KindClaude, KindDeepseek, KindGrok}
}

// ParseKind maps a wire string to a Kind.
// Returns false for anything outside the closed set.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindOpenAI, KindClaude, KindDeepseek, KindGrok:
		return Kind(s), true
	}
	return "", false
}

// Invoker is the uniform contract over all backends: send one prompt,
// receive one completion. The model id must already be normalized for the
// backend (see Normalize). Implementations perform no retries and persist
// nothing; they only hide the wire-shape differences.
type Invoker interface {
	Invoke(ctx context.Context, modelID, prompt string) (string, error)
}

// Error is returned when a backend call fails: transport error, timeout,
// non-2xx status, or an empty/unusable completion.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds a provider Error for the given kind.
func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
