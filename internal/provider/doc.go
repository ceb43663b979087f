// Package provider adapts the supported LLM backends to one contract.
//
// # Overview
//
// Four provider kinds are supported: openai, claude, deepseek, and grok.
// Each hides its wire envelope behind the Invoker interface:
//
//	Invoke(ctx, modelID, prompt) (reply, error)
//
// openai, deepseek, and grok all speak the OpenAI chat-completions shape and
// share one client type parameterized by base URL; claude has its own client
// for the Anthropic messages API.
//
// # Normalization
//
// Callers submit human-facing model labels. Normalize maps a label to the
// identifier the backend expects and is total - it never rejects a label.
// Dispatch stores the raw label in history and sends the normalized id to
// the backend.
//
// # Registry
//
// A Registry is built once from configuration and injected wherever dispatch
// happens. There are no package-level client singletons; every Invoker is an
// explicit, immutable dependency.
//
// # Errors
//
// All failures surface as *Error carrying the Kind and the upstream message.
// Adapters never retry; retry policy, if any, belongs to callers.
package provider
