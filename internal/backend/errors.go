package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is returned for any non-2xx response from the Remote Agent Service.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: HTTP %d: %s", e.StatusCode, e.Detail)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// newStatusError derives the detail from a JSON "detail" or "error" member,
// falling back to the raw body and then to the status text.
func newStatusError(code int, body []byte) *StatusError {
	return &StatusError{
		StatusCode: code,
		Detail:     detailOf(code, body),
	}
}

func detailOf(code int, body []byte) string {
	var payload map[string]json.RawMessage
	if json.Unmarshal(body, &payload) == nil {
		for _, field := range []string{"detail", "error", "message"} {
			raw, ok := payload[field]
			if !ok {
				continue
			}
			var text string
			if json.Unmarshal(raw, &text) == nil && text != "" {
				return text
			}
			return string(raw)
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		return text
	}
	return http.StatusText(code)
}
