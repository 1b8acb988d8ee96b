// Package routes builds the service's ServeMux from registered routes and groups.
package routes

import (
	"fmt"
	"log/slog"
	"net/http"

	pkgroutes "github.com/JaimeStill/agent-console/pkg/routes"
)

type registry struct {
	routes []pkgroutes.Route
	logger *slog.Logger
}

func New(logger *slog.Logger) pkgroutes.System {
	return &registry{
		logger: logger.With("system", "routes"),
	}
}

func (r *registry) RegisterRoute(route pkgroutes.Route) {
	r.routes = append(r.routes, route)
}

// RegisterGroup flattens group so its routes carry their full prefix.
func (r *registry) RegisterGroup(group pkgroutes.Group) {
	r.routes = append(r.routes, group.Flatten()...)
}

func (r *registry) Patterns() []string {
	out := make([]string, len(r.routes))
	for i, route := range r.routes {
		out[i] = route.String()
	}
	return out
}

func (r *registry) Build() (http.Handler, error) {
	mux := http.NewServeMux()
	seen := make(map[string]struct{}, len(r.routes))

	for _, route := range r.routes {
		pattern := route.String()
		if _, dup := seen[pattern]; dup {
			return nil, fmt.Errorf("duplicate route: %s", pattern)
		}
		seen[pattern] = struct{}{}

		mux.HandleFunc(pattern, route.Handler)
		r.logger.Debug("route registered", "pattern", pattern)
	}

	r.logger.Info("routes registered", "count", len(r.routes))
	return mux, nil
}
