// ABOUTME: Gateway orchestrator that coordinates the HTTP server lifecycle
// ABOUTME: Wires store, auth, provider registry, and chat service together

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gptstir/chat-gateway/internal/auth"
	"github.com/gptstir/chat-gateway/internal/chat"
	"github.com/gptstir/chat-gateway/internal/config"
	"github.com/gptstir/chat-gateway/internal/provider"
	"github.com/gptstir/chat-gateway/internal/store"
)

// Gateway orchestrates the chat-gateway server components.
// It owns the store, the provider registry, the chat service, and the
// HTTP server exposing them.
type Gateway struct {
	config     *config.Config
	store      store.Store
	chat       *chat.Service
	providers  *provider.Registry
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	registry := provider.NewRegistry(cfg.ClientConfigs(), logger)
	chatService := chat.New(s, registry, logger)

	gw := &Gateway{
		config:    cfg,
		store:     s,
		chat:      chatService,
		providers: registry,
		logger:    logger.With("component", "gateway"),
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	mux := gw.buildMux(verifier)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           corsMiddleware(cfg.CORS.AllowedOrigins)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// buildMux registers all routes. Chat routes sit behind the auth
// middleware; health does not.
func (g *Gateway) buildMux(verifier auth.TokenVerifier) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", g.handleHealth)

	authMiddleware := auth.Middleware(g.store, verifier)
	mux.Handle("/api/chat", authMiddleware(http.HandlerFunc(g.handleSend)))
	mux.Handle("/api/chat/conversations", authMiddleware(http.HandlerFunc(g.handleListConversations)))
	mux.Handle("/api/chat/conversation", authMiddleware(http.HandlerFunc(g.handleCreateConversation)))
	mux.Handle("/api/chat/conversation/", authMiddleware(http.HandlerFunc(g.handleConversationRoutes)))

	return mux
}

// Handler returns the root HTTP handler, for tests.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}
	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
