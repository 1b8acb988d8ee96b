package proxy

import (
	"net/http"
	"strings"
)

// SessionCookie is the cookie that carries the session token when no
// Authorization header is sent.
const SessionCookie = "session_token"

// SessionToken returns the caller's bearer token from the Authorization
// header or the session cookie, or "" when neither is present.
func SessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
