package main

import (
	"github.com/JaimeStill/agent-console/internal/config"
	"github.com/JaimeStill/agent-console/internal/proxy"
	pkgroutes "github.com/JaimeStill/agent-console/pkg/routes"
)

// registerRoutes configures all HTTP routes for the service.
func registerRoutes(r pkgroutes.System, runtime *Runtime, cfg *config.Config) {
	proxyHandler := proxy.NewHandler(runtime.Backend, runtime.Logger, cfg.Storage.MaxUploadSizeBytes())
	r.RegisterGroup(proxyHandler.Routes())

	for _, route := range proxy.HealthRoutes(runtime.Lifecycle) {
		r.RegisterRoute(route)
	}
}
