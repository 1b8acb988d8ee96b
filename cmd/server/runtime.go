package main

import (
	"log/slog"

	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/config"
	"github.com/JaimeStill/agent-console/internal/lifecycle"
	"github.com/JaimeStill/agent-console/pkg/logging"
)

// Runtime holds the systems shared by every proxy route.
type Runtime struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Backend   *backend.Client
}

func NewRuntime(cfg *config.Config) *Runtime {
	logger := logging.New(&cfg.Logging)

	return &Runtime{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Backend:   backend.New(&cfg.Backend, logger),
	}
}
