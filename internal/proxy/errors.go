package proxy

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/agent-console/internal/backend"
	"github.com/JaimeStill/agent-console/internal/catalog"
)

var (
	// ErrNoToken indicates the request carried no session token.
	ErrNoToken = errors.New("No access token")

	ErrTooLarge = errors.New("request body too large")
)

// MapHTTPStatus maps proxy errors to the status returned to the caller.
// Upstream rejections keep the service's status; transport failures are 502.
func MapHTTPStatus(err error) int {
	var se *backend.StatusError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ErrNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &se):
		return se.StatusCode
	default:
		return http.StatusBadGateway
	}
}

// upstreamMessage reduces an upstream rejection to the service's detail.
func upstreamMessage(err error) error {
	var se *backend.StatusError
	if errors.As(err, &se) {
		return errors.New(se.Detail)
	}
	return err
}

type missingParam string

func (m missingParam) Error() string {
	return "Missing " + string(m)
}
