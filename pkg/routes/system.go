package routes

import "net/http"

// System collects routes and groups and builds them into a single handler.
type System interface {
	RegisterGroup(group Group)
	RegisterRoute(route Route)

	// Patterns lists every registered "METHOD /path" in registration order.
	Patterns() []string

	// Build fails when two registrations share a pattern.
	Build() (http.Handler, error)
}
