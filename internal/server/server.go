package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackzampolin/oicmap/internal/api"
	"github.com/jackzampolin/oicmap/internal/config"
	"github.com/jackzampolin/oicmap/internal/mapping"
	"github.com/jackzampolin/oicmap/internal/prompts"
	"github.com/jackzampolin/oicmap/internal/prompts/xsltmap"
	"github.com/jackzampolin/oicmap/internal/providers"
	"github.com/jackzampolin/oicmap/internal/server/endpoints"
	"github.com/jackzampolin/oicmap/internal/svcctx"
)

// Server is the oicmap HTTP server.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	registry   *providers.Registry
	resolver   *prompts.Resolver
	mapping    *mapping.Service
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080). "0" picks a free port.
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// When nil, Registry must be set.
	ConfigManager *config.Manager
	// Registry overrides the provider registry built from configuration.
	Registry *providers.Registry
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil && cfg.Registry == nil {
		return nil, errors.New("server needs a config manager or a provider registry")
	}

	resolver := prompts.NewResolver(cfg.Logger)
	xsltmap.RegisterPrompts(resolver)

	var appCfg *config.Config
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
		if err := resolver.SetOverrides(appCfg.Prompts.OverrideMap()); err != nil {
			return nil, fmt.Errorf("failed to apply prompt overrides: %w", err)
		}
	}

	registry := cfg.Registry
	if registry == nil {
		registry = providers.NewRegistryFromConfig(appCfg.ToProviderRegistryConfig(), cfg.Logger)
	}

	opts := mapping.Options{
		Builder: xsltmap.NewBuilder(resolver),
		Logger:  cfg.Logger,
	}
	if appCfg != nil {
		opts.Strict = appCfg.Defaults.Strict
		opts.StyleGuide = appCfg.StyleGuide
		opts.Provider = appCfg.Defaults.LLMProvider
	}

	s := &Server{
		registry:  registry,
		resolver:  resolver,
		mapping:   mapping.NewService(registry, opts),
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}
	s.services = &svcctx.Services{
		Registry:      s.registry,
		Mapping:       s.mapping,
		Prompts:       s.resolver,
		ConfigManager: s.configMgr,
		Logger:        s.logger,
	}

	if cfg.ConfigManager != nil {
		cfg.ConfigManager.OnChange(s.applyConfig)
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	s.endpointRegistry.Register(endpoints.All()...)

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	writeTimeout := 30 * time.Second
	if appCfg != nil {
		if t := appCfg.Server.RequestTimeout(); t > 0 {
			writeTimeout = t + 10*time.Second
		}
	}

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// applyConfig pushes a reloaded configuration into the running services.
func (s *Server) applyConfig(c *config.Config) {
	s.registry.Reload(c.ToProviderRegistryConfig())
	if err := s.resolver.SetOverrides(c.Prompts.OverrideMap()); err != nil {
		s.logger.Error("prompt overrides rejected, keeping previous", "error", err)
	}
	s.mapping.Reconfigure(c.Defaults.Strict, c.StyleGuide, c.Defaults.LLMProvider)
	s.logger.Info("services reloaded from config", "providers", s.registry.ListLLM())
}

// Start starts the server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.running = true
	s.mu.Unlock()

	if s.configMgr != nil {
		s.configMgr.WatchConfig()
	}
	if len(s.registry.ListLLM()) == 0 {
		s.logger.Warn("no model provider configured; mapping requests will fail until one is added")
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address. Once started it is the bound
// address, so a "0" port resolves to the real one.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Port returns the port part of Addr.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}

// Mapping returns the mapping service.
func (s *Server) Mapping() *mapping.Service {
	return s.mapping
}

// Handler returns the HTTP handler, for tests that do not bind a port.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that rejects mapping requests while no default
// model provider can be resolved. /health reports "degraded" in the same case.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.registry.GetLLM(""); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"No model provider is configured. Add one under llm_providers in the configuration.","kind":"no_provider"}`))
			return
		}
		next(w, r)
	}
}
