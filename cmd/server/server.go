package main

import (
	"fmt"
	"time"

	"github.com/JaimeStill/agent-console/internal/config"
	"github.com/JaimeStill/agent-console/internal/middleware"
	"github.com/JaimeStill/agent-console/internal/routes"
	"github.com/JaimeStill/agent-console/internal/server"
)

// Server coordinates the lifecycle of all subsystems.
type Server struct {
	runtime *Runtime
	http    server.System
}

// NewServer creates and initializes the service with all subsystems.
func NewServer(cfg *config.Config) (*Server, error) {
	runtime := NewRuntime(cfg)

	routeSys := routes.New(runtime.Logger)
	registerRoutes(routeSys, runtime, cfg)

	mux, err := routeSys.Build()
	if err != nil {
		return nil, fmt.Errorf("route build failed: %w", err)
	}

	// Logger sits outside Recover so recovered panics are logged as 500s.
	mw := middleware.New()
	mw.Use(middleware.Logger(runtime.Logger))
	mw.Use(middleware.Recover(runtime.Logger))
	mw.Use(middleware.TrimSlash())
	if cfg.CORS.Enabled() {
		mw.Use(middleware.CORS(&cfg.CORS))
	}
	handler := mw.Apply(mux)

	runtime.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"backend", cfg.Backend.BaseURL,
		"origins", cfg.CORS.Origins,
		"credentials", cfg.CORS.AllowCredentials(),
	)

	return &Server{
		runtime: runtime,
		http:    server.New(&cfg.Server, handler, runtime.Logger),
	}, nil
}

// Start begins all subsystems and returns once the listener is bound.
func (s *Server) Start() error {
	s.runtime.Logger.Info("starting service")

	if err := s.http.Start(s.runtime.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.runtime.Lifecycle.WaitForStartup()
		s.runtime.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown gracefully stops all subsystems within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.runtime.Logger.Info("initiating shutdown")
	return s.runtime.Lifecycle.Shutdown(timeout)
}
