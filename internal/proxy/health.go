package proxy

import (
	"net/http"

	"github.com/JaimeStill/agent-console/internal/lifecycle"
	"github.com/JaimeStill/agent-console/pkg/routes"
)

// HealthRoutes returns the liveness and readiness probes.
func HealthRoutes(rc lifecycle.ReadinessChecker) []routes.Route {
	return []routes.Route{
		{Method: "GET", Pattern: "/healthz", Handler: handleHealthCheck},
		{Method: "GET", Pattern: "/readyz", Handler: func(w http.ResponseWriter, r *http.Request) {
			handleReadinessCheck(w, rc)
		}},
	}
}

func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadinessCheck(w http.ResponseWriter, rc lifecycle.ReadinessChecker) {
	if !rc.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
