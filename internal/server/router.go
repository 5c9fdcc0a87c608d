// Package server exposes a Store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mesh-intelligence/itemstore/internal/config"
)

// Router handles HTTP server lifecycle and route registration
type Router struct {
	config     config.ServerConfig
	httpServer *http.Server
	mux        *http.ServeMux
	handler    http.Handler

	serverMutex sync.RWMutex // protects httpServer and isShutdown
	isShutdown  bool

	handlers Handlers
}

// Handlers interface defines all HTTP handler dependencies
type Handlers interface {
	HandleRoot(w http.ResponseWriter, r *http.Request)
	HandleHealth(w http.ResponseWriter, r *http.Request)

	HandleListItems(w http.ResponseWriter, r *http.Request)
	HandleGetItem(w http.ResponseWriter, r *http.Request)
	HandleCreateItem(w http.ResponseWriter, r *http.Request)
	HandleUpdateItem(w http.ResponseWriter, r *http.Request)
	HandleDeleteItem(w http.ResponseWriter, r *http.Request)

	HandleNotFound(w http.ResponseWriter, r *http.Request)
}

// MiddlewareProvider interface for middleware chain injection
type MiddlewareProvider interface {
	Apply(handler http.Handler) http.Handler
}

// NewRouter creates a new HTTP router with dependency injection.
// Panics if handlers or middlewareProvider is nil.
func NewRouter(cfg config.ServerConfig, handlers Handlers, middlewareProvider MiddlewareProvider) *Router {
	if handlers == nil {
		panic("Router: handlers cannot be nil")
	}
	if middlewareProvider == nil {
		panic("Router: middlewareProvider cannot be nil")
	}

	router := &Router{
		config:   cfg,
		mux:      http.NewServeMux(),
		handlers: handlers,
	}
	router.registerRoutes()
	router.handler = middlewareProvider.Apply(router.mux)
	router.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return router
}

// registerRoutes registers all HTTP routes with their handlers
func (r *Router) registerRoutes() {
	r.mux.HandleFunc("GET /{$}", r.handlers.HandleRoot)
	r.mux.HandleFunc("GET /healthz", r.handlers.HandleHealth)

	// Item routes also answer with one trailing slash.
	r.mux.HandleFunc("GET /items", r.handlers.HandleListItems)
	r.mux.HandleFunc("GET /items/{$}", r.handlers.HandleListItems)
	r.mux.HandleFunc("POST /items", r.handlers.HandleCreateItem)
	r.mux.HandleFunc("POST /items/{$}", r.handlers.HandleCreateItem)
	r.mux.HandleFunc("GET /items/{id}", r.handlers.HandleGetItem)
	r.mux.HandleFunc("GET /items/{id}/{$}", r.handlers.HandleGetItem)
	r.mux.HandleFunc("PUT /items/{id}", r.handlers.HandleUpdateItem)
	r.mux.HandleFunc("PUT /items/{id}/{$}", r.handlers.HandleUpdateItem)
	r.mux.HandleFunc("DELETE /items/{id}", r.handlers.HandleDeleteItem)
	r.mux.HandleFunc("DELETE /items/{id}/{$}", r.handlers.HandleDeleteItem)

	// Anything else, including a known path with an unsupported method.
	r.mux.HandleFunc("/", r.handlers.HandleNotFound)
}

// Handler returns the routed handler with middleware applied.
func (r *Router) Handler() http.Handler {
	return r.handler
}

// Start listens on the configured address and serves until ctx is
// cancelled or the server fails.
func (r *Router) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr())
	if err != nil {
		return fmt.Errorf("Router.Start: %w", err)
	}
	return r.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout. Returns nil after a
// clean shutdown.
func (r *Router) Serve(ctx context.Context, ln net.Listener) error {
	r.serverMutex.RLock()
	server := r.httpServer
	isShutdown := r.isShutdown
	r.serverMutex.RUnlock()

	if isShutdown {
		ln.Close()
		return errors.New("Router.Serve: router has been shut down")
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("Router: server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		timeout := r.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return r.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server. Idempotent.
func (r *Router) Shutdown(ctx context.Context) error {
	r.serverMutex.Lock()
	defer r.serverMutex.Unlock()

	if r.isShutdown {
		return nil
	}
	r.isShutdown = true

	if err := r.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("Router.Shutdown: server shutdown failed: %w", err)
	}
	return nil
}

// IsShutdown returns whether the router has been shut down
func (r *Router) IsShutdown() bool {
	r.serverMutex.RLock()
	defer r.serverMutex.RUnlock()
	return r.isShutdown
}
