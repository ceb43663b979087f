// ABOUTME: Registry maps provider kinds to configured Invoker instances
// ABOUTME: Built once at startup and injected into the chat service - no global client handles

package provider

import (
	"log/slog"
)

// Registry holds one configured Invoker per enabled provider kind.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	invokers map[Kind]Invoker
}

// NewRegistry builds a registry from per-kind client configuration.
// Kinds without an entry (or without an API key) are left unregistered;
// requests naming them fail with a provider error at dispatch time.
func NewRegistry(configs map[Kind]ClientConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "provider-registry")

	invokers := make(map[Kind]Invoker, len(configs))
	for kind, cfg := range configs {
		if cfg.APIKey == "" {
			logger.Warn("provider not configured, skipping", "kind", kind)
			continue
		}
		switch kind {
		case KindClaude:
			invokers[kind] = NewAnthropicClient(cfg)
		case KindOpenAI, KindDeepseek, KindGrok:
			invokers[kind] = NewOpenAIClient(kind, cfg)
		default:
			logger.Warn("unknown provider kind in config, skipping", "kind", kind)
			continue
		}
		logger.Info("provider registered", "kind", kind)
	}

	return &Registry{invokers: invokers}
}

// NewRegistryWithInvokers builds a registry from explicit invokers.
// Used by tests to inject fakes.
func NewRegistryWithInvokers(invokers map[Kind]Invoker) *Registry {
	m := make(map[Kind]Invoker, len(invokers))
	for kind, inv := range invokers {
		m[kind] = inv
	}
	return &Registry{invokers: m}
}

// Invoker returns the configured Invoker for a kind, or false if the kind
// is not registered.
func (r *Registry) Invoker(kind Kind) (Invoker, bool) {
	inv, ok := r.invokers[kind]
	return inv, ok
}

// Kinds returns the kinds with a registered invoker.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.invokers))
	for _, k := range Kinds() {
		if _, ok := r.invokers[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
