package routes

import "net/http"

// Route binds an HTTP method and path pattern to a handler.
// Patterns use net/http ServeMux syntax, including {name} wildcards.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// String returns the ServeMux pattern "METHOD /path".
func (r Route) String() string {
	return r.Method + " " + r.Pattern
}
